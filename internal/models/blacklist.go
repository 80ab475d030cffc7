package models

import "time"

// BlacklistTermPermanent marks an entry without an end date.
const BlacklistTermPermanent = "permanent"

// BlacklistEntry bars a person from joining the bureau.
type BlacklistEntry struct {
	ID             string    `db:"id" json:"id"`
	Nickname       string    `db:"nickname" json:"nickname"`
	Reason         string    `db:"reason" json:"reason"`
	Term           string    `db:"term" json:"term"`
	IssuerNickname string    `db:"issuer_nickname" json:"issuer_nickname"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
