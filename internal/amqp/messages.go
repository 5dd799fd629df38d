package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Audit event kinds.
const (
	KindAdvice     = "advice"
	KindInvestment = "investment"
	KindBudget     = "budget"
)

// AdviceAuditMessage records one piece of advice handed to a user so it can
// be reviewed later for bias. It carries the full text because the engine
// keeps no history of its own.
type AdviceAuditMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Topic     string    `json:"topic,omitempty"`
	Language  string    `json:"language"`
	Risk      string    `json:"risk_profile"`
	Question  string    `json:"question,omitempty"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAdviceAuditMessage creates a message with a fresh id and timestamp
func NewAdviceAuditMessage(sessionID, kind string) *AdviceAuditMessage {
	return &AdviceAuditMessage{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *AdviceAuditMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// AdviceAuditMessageFromJSON creates a message from JSON bytes
func AdviceAuditMessageFromJSON(data []byte) (*AdviceAuditMessage, error) {
	var msg AdviceAuditMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
