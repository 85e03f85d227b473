// Package sources contains adapters for the upstream parliament data
// providers. Each adapter normalizes its provider's response shape into the
// common raw record types consumed by the sync pipeline.
package sources

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUpstreamUnavailable indicates the provider could not be reached or
	// answered with a server error. The sync run logs it and skips the source.
	ErrUpstreamUnavailable = errors.New("upstream source unavailable")

	// ErrBadPayload indicates the provider answered but the response shape
	// was not what the adapter expected.
	ErrBadPayload = errors.New("unexpected upstream payload")
)

// RawPerson is the normalized person shape shared by all adapters. Optional
// upstream fields stay empty strings rather than failing the record.
type RawPerson struct {
	ID                 string
	FirstName          string
	LastName           string
	FullName           string
	Country            string
	PoliticalGroup     string
	PoliticalGroupAbbr string
	NationalParty      string
	Email              string
	Twitter            string
	Facebook           string
	Website            string
	PhotoURL           string
	ProfileURL         string
	BirthDate          string // ISO date or empty
	BirthPlace         string
	Memberships        []RawMembership
}

// RawMembership is a person's affiliation as reported by the provider
type RawMembership struct {
	CommitteeCode string
	Role          string
}

// RawBody is the normalized corporate body (committee) shape
type RawBody struct {
	Code           string
	Name           string
	NameTranslated string
	ChairName      string
	ChairGroup     string
	ProfileURL     string
}

// RawEvent is the normalized upcoming event shape
type RawEvent struct {
	CommitteeCode string
	Title         string
	EventType     string
	StartAt       time.Time
	EndAt         *time.Time
	Location      string
	URL           string
}

// Adapter fetches raw data from one upstream provider
type Adapter interface {
	Name() string
	FetchPersons(ctx context.Context) ([]RawPerson, error)
	FetchCorporateBodies(ctx context.Context) ([]RawBody, error)
	FetchEvents(ctx context.Context) ([]RawEvent, error)
}
