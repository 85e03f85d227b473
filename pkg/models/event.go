package models

import "time"

// Event is one upcoming committee meeting or hearing fetched from the official
// calendar. Events are keyed by (committee_id, title, start_at) to keep the
// sync idempotent without an upstream identifier.
type Event struct {
	ID          string     `db:"id" json:"id"`
	CommitteeID string     `db:"committee_id" json:"committeeId"`
	Title       string     `db:"title" json:"title"`
	EventType   string     `db:"event_type" json:"eventType"`
	StartAt     time.Time  `db:"start_at" json:"startAt"`
	EndAt       *time.Time `db:"end_at" json:"endAt,omitempty"`
	Location    *string    `db:"location" json:"location,omitempty"`
	URL         *string    `db:"url" json:"url,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
}
