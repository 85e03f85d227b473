package models

import "time"

// Committee represents one standing parliamentary body. The short code (e.g.
// "ENVI") is unique among active committees and is the stable upsert key.
type Committee struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	NameTranslated *string   `db:"name_translated" json:"nameTranslated,omitempty"`
	ChairName      *string   `db:"chair_name" json:"chairName,omitempty"`
	ChairGroup     *string   `db:"chair_group" json:"chairGroup,omitempty"`
	ProfileURL     *string   `db:"profile_url" json:"profileUrl,omitempty"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`

	// Members is populated on single-record reads only.
	Members []CommitteeMember `db:"-" json:"members,omitempty"`
}

// CommitteeMember is a membership row joined with the member's display fields.
type CommitteeMember struct {
	MEPID          string `db:"mep_id" json:"mepId"`
	FullName       string `db:"full_name" json:"fullName"`
	Country        string `db:"country" json:"country"`
	PoliticalGroup string `db:"political_group" json:"politicalGroup"`
	Role           string `db:"role" json:"role"`
}

// CommitteeOption is the lightweight shape served by the filter-options endpoint.
type CommitteeOption struct {
	Code string `db:"code" json:"code"`
	Name string `db:"name" json:"name"`
}

// PagedCommittees is the envelope returned by the committee list endpoint.
type PagedCommittees struct {
	Data       []Committee `json:"data"`
	Pagination Pagination  `json:"pagination"`
}
