package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/parlwatch/hemicycle/pkg/httpclient"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

// EuroparlAdapter fetches from the official parliament open-data API
type EuroparlAdapter struct {
	client  *httpclient.Client
	baseURL string
	logger  ectologger.Logger
}

// NewEuroparlAdapter creates a new adapter for the official API
func NewEuroparlAdapter(client *httpclient.Client, baseURL string, logger ectologger.Logger) *EuroparlAdapter {
	return &EuroparlAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Name returns the adapter's source name
func (a *EuroparlAdapter) Name() string {
	return "europarl"
}

type europarlPerson struct {
	Identifier     string `json:"identifier"`
	GivenName      string `json:"givenName"`
	FamilyName     string `json:"familyName"`
	Label          string `json:"label"`
	Country        string `json:"api:country-of-representation"`
	PoliticalGroup string `json:"api:political-group"`
	GroupAbbr      string `json:"api:political-group-abbreviation"`
	NationalParty  string `json:"api:national-political-group"`
	Email          string `json:"api:email"`
	HomePage       string `json:"homepage"`
	PhotoURL       string `json:"img"`
	BirthDate      string `json:"bday"`
	BirthPlace     string `json:"api:place-of-birth"`
	Memberships    []struct {
		BodyCode string `json:"api:organization-code"`
		Role     string `json:"role"`
	} `json:"hasMembership"`
}

type europarlBody struct {
	Code       string `json:"api:org-code"`
	Label      string `json:"label"`
	AltLabel   string `json:"altLabel"`
	ChairName  string `json:"api:chair-label"`
	ChairGroup string `json:"api:chair-political-group"`
	HomePage   string `json:"homepage"`
}

type europarlEvent struct {
	BodyCode  string `json:"api:organization-code"`
	Title     string `json:"api:activity-label"`
	Type      string `json:"api:activity-type"`
	StartDate string `json:"api:activity-start-date"`
	EndDate   string `json:"api:activity-end-date"`
	Location  string `json:"api:activity-location"`
	URL       string `json:"api:activity-url"`
}

type europarlEnvelope[T any] struct {
	Data []T `json:"data"`
}

// FetchPersons fetches the current sitting members
func (a *EuroparlAdapter) FetchPersons(ctx context.Context) ([]RawPerson, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.EuroparlAdapter.FetchPersons")
	defer span.End()

	var envelope europarlEnvelope[europarlPerson]
	if err := a.getJSON(ctx, "/meps/show-current", &envelope); err != nil {
		return nil, err
	}

	persons := make([]RawPerson, 0, len(envelope.Data))
	for _, p := range envelope.Data {
		raw := RawPerson{
			ID:                 p.Identifier,
			FirstName:          p.GivenName,
			LastName:           p.FamilyName,
			FullName:           p.Label,
			Country:            p.Country,
			PoliticalGroup:     p.PoliticalGroup,
			PoliticalGroupAbbr: p.GroupAbbr,
			NationalParty:      p.NationalParty,
			Email:              p.Email,
			Website:            p.HomePage,
			PhotoURL:           p.PhotoURL,
			ProfileURL:         a.profileURL(p.Identifier),
			BirthDate:          p.BirthDate,
			BirthPlace:         p.BirthPlace,
		}
		for _, m := range p.Memberships {
			raw.Memberships = append(raw.Memberships, RawMembership{
				CommitteeCode: m.BodyCode,
				Role:          m.Role,
			})
		}
		persons = append(persons, raw)
	}

	a.logger.WithContext(ctx).Infof("Fetched %d persons from europarl", len(persons))
	return persons, nil
}

// FetchCorporateBodies fetches the standing committees
func (a *EuroparlAdapter) FetchCorporateBodies(ctx context.Context) ([]RawBody, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.EuroparlAdapter.FetchCorporateBodies")
	defer span.End()

	var envelope europarlEnvelope[europarlBody]
	if err := a.getJSON(ctx, "/corporate-bodies?body-classification=COMMITTEE", &envelope); err != nil {
		return nil, err
	}

	bodies := make([]RawBody, 0, len(envelope.Data))
	for _, b := range envelope.Data {
		bodies = append(bodies, RawBody{
			Code:           b.Code,
			Name:           b.Label,
			NameTranslated: b.AltLabel,
			ChairName:      b.ChairName,
			ChairGroup:     b.ChairGroup,
			ProfileURL:     b.HomePage,
		})
	}

	a.logger.WithContext(ctx).Infof("Fetched %d corporate bodies from europarl", len(bodies))
	return bodies, nil
}

// FetchEvents fetches upcoming committee meetings
func (a *EuroparlAdapter) FetchEvents(ctx context.Context) ([]RawEvent, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.EuroparlAdapter.FetchEvents")
	defer span.End()

	var envelope europarlEnvelope[europarlEvent]
	if err := a.getJSON(ctx, "/meetings?activity-status=upcoming", &envelope); err != nil {
		return nil, err
	}

	events := make([]RawEvent, 0, len(envelope.Data))
	for _, e := range envelope.Data {
		startAt, err := time.Parse(time.RFC3339, e.StartDate)
		if err != nil {
			// Record-level format problem, skip just this event
			a.logger.WithContext(ctx).WithError(err).Warnf("Skipping event with bad start date: %q", e.StartDate)
			continue
		}

		event := RawEvent{
			CommitteeCode: e.BodyCode,
			Title:         e.Title,
			EventType:     e.Type,
			StartAt:       startAt,
			Location:      e.Location,
			URL:           e.URL,
		}
		if endAt, err := time.Parse(time.RFC3339, e.EndDate); err == nil {
			event.EndAt = &endAt
		}
		events = append(events, event)
	}

	a.logger.WithContext(ctx).Infof("Fetched %d events from europarl", len(events))
	return events, nil
}

func (a *EuroparlAdapter) profileURL(identifier string) string {
	if identifier == "" {
		return ""
	}
	return fmt.Sprintf("https://www.europarl.europa.eu/meps/en/%s", identifier)
}

func (a *EuroparlAdapter) getJSON(ctx context.Context, path string, dest any) error {
	resp, err := a.client.Get(ctx, a.baseURL+path, map[string]string{
		"Accept": "application/ld+json",
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d from %s", ErrUpstreamUnavailable, resp.StatusCode, path)
	}

	if err := resp.JSON(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	return nil
}
