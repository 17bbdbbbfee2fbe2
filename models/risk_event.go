package models

import (
	"time"

	"github.com/volatiletech/null"

	"github.com/zsmartex/tradecore/types"
)

type RiskEvent struct {
	ID          int64               `json:"id" gorm:"primaryKey"`
	UserID      int64               `json:"user_id" gorm:"index"`
	EventType   types.RiskEventType `json:"event_type"`
	Severity    types.RiskSeverity  `json:"severity"`
	Description string              `json:"description"`
	Resolved    bool                `json:"resolved" gorm:"index;default:false"`
	ResolvedAt  null.Time           `json:"resolved_at"`
	CreatedAt   time.Time           `json:"created_at"`
}

func NewRiskEvent(userID int64, eventType types.RiskEventType, severity types.RiskSeverity, description string) *RiskEvent {
	return &RiskEvent{
		UserID:      userID,
		EventType:   eventType,
		Severity:    severity,
		Description: description,
	}
}

// RiskEventFromViolation builds the event a blocked submission must leave
// behind.
func RiskEventFromViolation(v *types.RiskViolation) *RiskEvent {
	return NewRiskEvent(v.UserID, v.EventType, v.Severity, v.Description)
}

func (e *RiskEvent) Resolve(at time.Time) {
	e.Resolved = true
	e.ResolvedAt = null.TimeFrom(at)
}
