package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName identifies spans created by this module
const InstrumentationName = "github.com/erp/quotedesk"

// Tracer returns the tracer from the globally registered provider. Without
// a configured provider spans are no-ops.
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}
