package models

import "time"

// ContentKind separates the boards that share the content model.
type ContentKind string

const (
	ContentKindNews ContentKind = "NEWS"
	ContentKindRaid ContentKind = "RAID"
)

// Valid reports whether the kind is supported.
func (k ContentKind) Valid() bool {
	return k == ContentKindNews || k == ContentKindRaid
}

// Label is the human form used in audit details and messages.
func (k ContentKind) Label() string {
	if k == ContentKindRaid {
		return "raid"
	}
	return "news item"
}

// NewsItem is an entry on the news feed or the raids board. Archived news
// leaves the feed and is never pinned.
type NewsItem struct {
	ID        string           `db:"id" json:"id"`
	Kind      ContentKind      `db:"kind" json:"kind"`
	Title     string           `db:"title" json:"title"`
	Content   string           `db:"content" json:"content"`
	Author    string           `db:"author" json:"author"`
	Pinned    bool             `db:"pinned" json:"pinned"`
	Archived  bool             `db:"archived" json:"archived"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt *time.Time       `db:"updated_at" json:"updated_at,omitempty"`
	Comments  []ContentComment `db:"-" json:"comments,omitempty"`
}

// ContentComment is a member's reply on a raid.
type ContentComment struct {
	ID        string    `db:"id" json:"id"`
	ItemID    string    `db:"item_id" json:"item_id"`
	Author    string    `db:"author" json:"author"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContentFilter narrows a board listing.
type ContentFilter struct {
	Kind     ContentKind
	Archived bool
	Limit    int
}
