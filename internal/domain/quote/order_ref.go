package quote

import "encoding/json"

// OrderRef identifies an order created by the backend from a quote.
// ID is empty when the response did not carry one at any known path.
type OrderRef struct {
	ID  string
	Raw json.RawMessage
}
