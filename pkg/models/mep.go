package models

import "time"

// MEP represents one sitting or former Member of the European Parliament.
// The id is assigned by the upstream source (or derived on first sight) and is
// immutable once stored. Retired or merged-away records are soft-deleted via
// Active=false so their ids stay resolvable for audit lookups.
type MEP struct {
	ID                 string     `db:"id" json:"id"`
	FirstName          string     `db:"first_name" json:"firstName"`
	LastName           string     `db:"last_name" json:"lastName"`
	FullName           string     `db:"full_name" json:"fullName"`
	Country            string     `db:"country" json:"country"`
	PoliticalGroup     string     `db:"political_group" json:"politicalGroup"`
	PoliticalGroupAbbr string     `db:"political_group_abbr" json:"politicalGroupAbbr"`
	NationalParty      *string    `db:"national_party" json:"nationalParty,omitempty"`
	Email              *string    `db:"email" json:"email,omitempty"`
	Twitter            *string    `db:"twitter" json:"twitter,omitempty"`
	Facebook           *string    `db:"facebook" json:"facebook,omitempty"`
	Website            *string    `db:"website" json:"website,omitempty"`
	PhotoURL           *string    `db:"photo_url" json:"photoUrl,omitempty"`
	ProfileURL         *string    `db:"profile_url" json:"profileUrl,omitempty"`
	BirthDate          *time.Time `db:"birth_date" json:"birthDate,omitempty"`
	BirthPlace         *string    `db:"birth_place" json:"birthPlace,omitempty"`
	Active             bool       `db:"active" json:"active"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`

	// Memberships is populated on single-record reads only.
	Memberships []Membership `db:"-" json:"memberships,omitempty"`
}

// MEPFilter holds the query parameters accepted by the MEP list and export endpoints.
type MEPFilter struct {
	Search         string `query:"search" validate:"omitempty,max=200"`
	Country        string `query:"country" validate:"omitempty,len=2"`
	PoliticalGroup string `query:"politicalGroup" validate:"omitempty,max=200"`
	Committee      string `query:"committee" validate:"omitempty,max=10"`
	Page           int    `query:"page" validate:"omitempty,min=1"`
	Limit          int    `query:"limit" validate:"omitempty,min=1,max=200"`
}

// Normalize applies the documented defaults for missing pagination values.
func (f *MEPFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 50
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes totalPages as ceil(total/limit).
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}
}

// PagedMEPs is the envelope returned by the MEP list endpoint.
type PagedMEPs struct {
	Data       []MEP      `json:"data"`
	Pagination Pagination `json:"pagination"`
}
