package amqp

import (
	"encoding/json"
	"time"
)

// Routing keys for queue events on the direct exchange.
const (
	RouteExpenseQueued = "expense.queued"
	RouteSyncResult    = "sync.result"
)

// ExpenseQueuedMessage announces that an expense was stored in the offline
// queue. Consumers fetch nothing: the payload is complete enough for audit.
type ExpenseQueuedMessage struct {
	LocalID     int64     `json:"local_id"`
	ItemID      string    `json:"item_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	QueuedAt    time.Time `json:"queued_at"`
}

// SyncResultMessage reports the outcome of one sync pass over the queue.
type SyncResultMessage struct {
	Attempted int       `json:"attempted"`
	Succeeded int       `json:"succeeded"`
	Failed    int       `json:"failed"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *ExpenseQueuedMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func (m *SyncResultMessage) ToJSON() ([]byte, error) { return json.Marshal(m) }

func ExpenseQueuedMessageFromJSON(data []byte) (*ExpenseQueuedMessage, error) {
	var msg ExpenseQueuedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func SyncResultMessageFromJSON(data []byte) (*SyncResultMessage, error) {
	var msg SyncResultMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
