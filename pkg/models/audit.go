package models

import (
	"encoding/json"
	"time"
)

// Audit entry entity types.
const (
	AuditEntityMEP       = "mep"
	AuditEntityCommittee = "committee"
)

// Audit entry change kinds.
const (
	ChangeCreated         = "created"
	ChangeUpdated         = "updated"
	ChangeMergeDuplicates = "merge_duplicates"
)

// AuditEntry is one immutable change record. Entries are append-only and are
// served most-recent-first in the activity feed.
type AuditEntry struct {
	ID         string          `db:"id" json:"id"`
	EntityType string          `db:"entity_type" json:"entityType"`
	EntityID   string          `db:"entity_id" json:"entityId"`
	ChangeType string          `db:"change_type" json:"changeType"`
	OldValues  json.RawMessage `db:"old_values" json:"oldValues,omitempty"`
	NewValues  json.RawMessage `db:"new_values" json:"newValues,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"createdAt"`
}

// MergePayload is the NewValues payload recorded for a merge_duplicates entry.
type MergePayload struct {
	AbsorbedIDs            []string `json:"absorbedIds"`
	TransferredMemberships int      `json:"transferredMemberships"`
}
