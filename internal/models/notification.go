package models

import "github.com/anonto42/nano-social/backend/internal/notification"

// NotificationLedger is the stored form of a user's notification ledger
type NotificationLedger struct {
	Count   int                   `json:"count" bson:"count"`
	Content []notification.Record `json:"content" bson:"content"`
}

// ToLedger rebuilds the in-memory ledger
func (n NotificationLedger) ToLedger() *notification.Ledger {
	return notification.NewLedger(n.Count, n.Content)
}

// NewNotificationLedger converts a ledger back to its stored form
func NewNotificationLedger(l *notification.Ledger) NotificationLedger {
	records := l.Records()
	if records == nil {
		records = []notification.Record{}
	}
	return NotificationLedger{Count: l.Count(), Content: records}
}
