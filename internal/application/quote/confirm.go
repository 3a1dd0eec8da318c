package quote

import (
	"context"

	"github.com/erp/quotedesk/internal/domain/quote"
)

// Prompt describes an operation waiting for the user's confirmation
type Prompt struct {
	Action  quote.Action
	Quote   quote.Quote
	Message string
}

// Confirmer asks the user to confirm a destructive or remote operation.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, p Prompt) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, p Prompt) (bool, error) {
	return f(ctx, p)
}

// AutoConfirm confirms everything. Use for scripted callers only.
var AutoConfirm = ConfirmFunc(func(context.Context, Prompt) (bool, error) {
	return true, nil
})

type confirmationKey struct{}

// WithConfirmation records an up-front answer on ctx, e.g. a "confirm" flag
// sent by an HTTP client.
func WithConfirmation(ctx context.Context, confirmed bool) context.Context {
	return context.WithValue(ctx, confirmationKey{}, confirmed)
}

// ContextConfirmer confirms only when WithConfirmation(ctx, true) was set
var ContextConfirmer = ConfirmFunc(func(ctx context.Context, _ Prompt) (bool, error) {
	confirmed, _ := ctx.Value(confirmationKey{}).(bool)
	return confirmed, nil
})
