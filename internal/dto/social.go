package dto

// SendMessageRequest posts a chat message.
type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// SendMessageResult returns the stored message id and notified member count.
type SendMessageResult struct {
	MessageID string `json:"message_id"`
	Notified  int    `json:"notified"`
}

// BlacklistRequest adds an entry to the blacklist. An empty term means
// permanent.
type BlacklistRequest struct {
	Nickname string `json:"nickname" validate:"required,max=64"`
	Reason   string `json:"reason" validate:"required,max=1000"`
	Term     string `json:"term" validate:"max=64"`
}

// AuditQuery filters the audit log.
type AuditQuery struct {
	Search   string
	Page     int
	PageSize int
}

// ContentRequest creates or edits a news item or raid.
type ContentRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Content string `json:"content" validate:"required,max=20000"`
}

// PinRequest pins or unpins a news item.
type PinRequest struct {
	Pinned *bool `json:"pinned" validate:"required"`
}

// CommentRequest replies on a raid.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}
