package dispatch

import (
	"tandyr-pos/pkg/models"
)

// OrderCreated is the post-commit event carried over the broker. EventID
// lets the worker drop redeliveries instead of double-sending.
type OrderCreated struct {
	EventID   string       `json:"event_id"`
	RequestID string       `json:"request_id"`
	Order     models.Order `json:"order"`
}
