package models

import "time"

// NotificationKind distinguishes broadcast from addressed notifications.
type NotificationKind string

const (
	NotificationGlobal   NotificationKind = "GLOBAL"
	NotificationPersonal NotificationKind = "PERSONAL"
)

// Navigation targets attached to notifications.
const (
	LinkProfile    = "profile"
	LinkChat       = "chat"
	LinkNews       = "news"
	LinkPromotions = "promotions"
	LinkPenalties  = "penalties"
	LinkCharter    = "charter"
)

// Notification is a notice for one member or, with a nil recipient, everyone.
// Only the read flag changes after creation.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID *string          `db:"recipient_id" json:"recipient_id"`
	Text        string           `db:"text" json:"text"`
	Kind        NotificationKind `db:"kind" json:"kind"`
	Read        bool             `db:"read" json:"read"`
	Link        *string          `db:"link" json:"link,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// RelevantTo reports whether the viewer sees this notification.
func (n *Notification) RelevantTo(memberID string) bool {
	if n.Kind == NotificationGlobal || n.RecipientID == nil {
		return true
	}
	return *n.RecipientID == memberID
}
