package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// looseTime accepts RFC 3339 timestamps, bare dates, empty strings and null
type looseTime struct {
	time.Time
}

func (t *looseTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized time %q", s)
}

// ptr returns nil for the zero time
func (t looseTime) ptr() *time.Time {
	if t.IsZero() {
		return nil
	}
	v := t.Time
	return &v
}

func (f looseFloat) decimal() decimal.Decimal {
	return decimal.NewFromFloat(float64(f))
}

// money converts a decimal to a JSON number for request payloads
func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}
