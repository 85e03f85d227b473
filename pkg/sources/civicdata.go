package sources

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Gobusters/ectologger"

	"github.com/parlwatch/hemicycle/pkg/httpclient"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

// CivicDataAdapter fetches from the open civic-data aggregator. The
// aggregator asks clients to self-limit, so every request goes through a
// rolling-window budget and waits when the quota is spent.
type CivicDataAdapter struct {
	client  *httpclient.Client
	baseURL string
	apiKey  string
	budget  *RequestBudget
	logger  ectologger.Logger
}

// NewCivicDataAdapter creates a new adapter for the civic-data aggregator
func NewCivicDataAdapter(client *httpclient.Client, baseURL, apiKey string, budget *RequestBudget, logger ectologger.Logger) *CivicDataAdapter {
	return &CivicDataAdapter{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		budget:  budget,
		logger:  logger,
	}
}

// Name returns the adapter's source name
func (a *CivicDataAdapter) Name() string {
	return "civicdata"
}

type civicPerson struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Given string `json:"given_name"`
	Famil string `json:"family_name"`
	Area  struct {
		CountryCode string `json:"country_code"`
	} `json:"area"`
	Group struct {
		Name string `json:"name"`
		Abbr string `json:"abbreviation"`
	} `json:"group"`
	Party        string `json:"party"`
	Email        string `json:"email"`
	Image        string `json:"image"`
	SourceURL    string `json:"source_url"`
	BirthDate    string `json:"birth_date"`
	ContactLinks []struct {
		Type string `json:"type"`
		URL  string `json:"url"`
	} `json:"links"`
	Memberships []struct {
		OrgCode string `json:"organization_code"`
		Role    string `json:"role"`
	} `json:"memberships"`
}

type civicBody struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	LocalName string `json:"local_name"`
	SourceURL string `json:"source_url"`
}

type civicPage[T any] struct {
	Results []T    `json:"results"`
	Next    string `json:"next"`
}

// FetchPersons fetches all current persons, following pagination
func (a *CivicDataAdapter) FetchPersons(ctx context.Context) ([]RawPerson, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.CivicDataAdapter.FetchPersons")
	defer span.End()

	var persons []RawPerson

	url := a.baseURL + "/persons?current=true"
	for url != "" {
		var page civicPage[civicPerson]
		if err := a.getJSON(ctx, url, &page); err != nil {
			return nil, err
		}

		for _, p := range page.Results {
			raw := RawPerson{
				ID:                 p.ID,
				FirstName:          p.Given,
				LastName:           p.Famil,
				FullName:           p.Name,
				Country:            p.Area.CountryCode,
				PoliticalGroup:     p.Group.Name,
				PoliticalGroupAbbr: p.Group.Abbr,
				NationalParty:      p.Party,
				Email:              p.Email,
				PhotoURL:           p.Image,
				ProfileURL:         p.SourceURL,
				BirthDate:          p.BirthDate,
			}
			for _, link := range p.ContactLinks {
				switch strings.ToLower(link.Type) {
				case "twitter":
					raw.Twitter = link.URL
				case "facebook":
					raw.Facebook = link.URL
				case "website":
					raw.Website = link.URL
				}
			}
			for _, m := range p.Memberships {
				raw.Memberships = append(raw.Memberships, RawMembership{
					CommitteeCode: m.OrgCode,
					Role:          m.Role,
				})
			}
			persons = append(persons, raw)
		}

		url = page.Next
	}

	a.logger.WithContext(ctx).Infof("Fetched %d persons from civicdata", len(persons))
	return persons, nil
}

// FetchCorporateBodies fetches committees known to the aggregator
func (a *CivicDataAdapter) FetchCorporateBodies(ctx context.Context) ([]RawBody, error) {
	ctx, span := tracing.StartSpan(ctx, "sources.CivicDataAdapter.FetchCorporateBodies")
	defer span.End()

	var page civicPage[civicBody]
	if err := a.getJSON(ctx, a.baseURL+"/organizations?classification=committee", &page); err != nil {
		return nil, err
	}

	bodies := make([]RawBody, 0, len(page.Results))
	for _, b := range page.Results {
		bodies = append(bodies, RawBody{
			Code:           b.Code,
			Name:           b.Name,
			NameTranslated: b.LocalName,
			ProfileURL:     b.SourceURL,
		})
	}

	a.logger.WithContext(ctx).Infof("Fetched %d corporate bodies from civicdata", len(bodies))
	return bodies, nil
}

// FetchEvents is not supported by the aggregator
func (a *CivicDataAdapter) FetchEvents(ctx context.Context) ([]RawEvent, error) {
	return nil, nil
}

func (a *CivicDataAdapter) getJSON(ctx context.Context, url string, dest any) error {
	if err := a.budget.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	headers := map[string]string{"Accept": "application/json"}
	if a.apiKey != "" {
		headers["X-Api-Key"] = a.apiKey
	}

	resp, err := a.client.Get(ctx, url, headers)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d from %s", ErrUpstreamUnavailable, resp.StatusCode, url)
	}

	if err := resp.JSON(dest); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	return nil
}
