package models

import "time"

// ChannelGeneral is the channel every member can post to.
const ChannelGeneral = "general"

// ChatMessage is a message posted to a channel.
type ChatMessage struct {
	ID        string    `db:"id" json:"id"`
	Channel   string    `db:"channel" json:"channel"`
	AuthorID  string    `db:"author_id" json:"author_id"`
	Author    string    `db:"author" json:"author"`
	Text      string    `db:"text" json:"text"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
