package models

import "time"

// Audit action labels.
const (
	AuditActionRequestApproved  = "Request reviewed: Approved"
	AuditActionRequestRejected  = "Request reviewed: Rejected"
	AuditActionPenaltyIssued    = "Penalty issued"
	AuditActionPenaltyRemoved   = "Penalty removed"
	AuditActionRankChanged      = "Rank/position changed"
	AuditActionMemberFired      = "Member fired"
	AuditActionWhitelistAdd     = "Whitelist: member added"
	AuditActionAdminAdd         = "Whitelist: administrator added"
	AuditActionDirectorAssigned = "Director assigned"
	AuditActionSystemUpdate     = "System update"
	AuditActionRankNamesEdit    = "Rank names edited"
	AuditActionDepartmentsEdit  = "Department names edited"
	AuditActionBlacklistAdd     = "Blacklist: entry added"
	AuditActionBlacklistRemove  = "Blacklist: entry removed"
	AuditActionNewsCreate       = "News published"
	AuditActionNewsEdit         = "News edited"
	AuditActionNewsDelete       = "News deleted"
	AuditActionNewsPin          = "News pinned"
	AuditActionNewsUnpin        = "News unpinned"
	AuditActionNewsArchive      = "News archived"
	AuditActionRaidCreate       = "Raid created"
	AuditActionRaidEdit         = "Raid edited"
	AuditActionRaidDelete       = "Raid deleted"
	AuditActionArchiveDelete    = "Archived request deleted"
)

// AuditLogEntry is an append-only record of a privileged action.
type AuditLogEntry struct {
	ID            string    `db:"id" json:"id"`
	ActorNickname string    `db:"actor_nickname" json:"actor_nickname"`
	Action        string    `db:"action" json:"action"`
	Details       string    `db:"details" json:"details"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// AuditFilter narrows audit listings. Search matches actor, action or details.
type AuditFilter struct {
	Search string
	Limit  int
	Offset int
}
