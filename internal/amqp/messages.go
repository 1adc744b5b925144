package amqp

import (
	"encoding/json"
	"time"

	"github.com/vinimacar/EcoFin/internal/budget"
)

// AlertMessage carries a budget alert to out-of-process consumers
// (notification workers). It embeds the evaluated signal plus enough
// context to render a notification without querying the ledger back.
type AlertMessage struct {
	Severity   budget.Severity `json:"severity"`
	Message    string          `json:"message"`
	Ratio      float64         `json:"ratio"`
	LimitCents int64           `json:"limit_cents"`
	At         time.Time       `json:"at"`
}

// NewAlertMessage builds a message from an evaluated alert signal.
func NewAlertMessage(sig budget.AlertSignal, limitCents int64) *AlertMessage {
	return &AlertMessage{
		Severity:   sig.Severity,
		Message:    sig.Message,
		Ratio:      sig.Ratio,
		LimitCents: limitCents,
		At:         sig.At,
	}
}

// ToJSON converts the message to JSON bytes
func (m *AlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AlertMessageFromJSON creates a message from JSON bytes
func AlertMessageFromJSON(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
