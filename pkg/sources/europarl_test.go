package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlwatch/hemicycle/pkg/httpclient"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestEuroparlAdapter_FetchPersons(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/meps/show-current", r.URL.Path)
		w.Header().Set("Content-Type", "application/ld+json")
		w.Write([]byte(`{
			"data": [
				{
					"identifier": "124936",
					"givenName": "Jane",
					"familyName": "Doe",
					"label": "Jane DOE",
					"api:country-of-representation": "FR",
					"api:political-group": "Renew Europe Group",
					"hasMembership": [
						{"api:organization-code": "ENVI", "role": "chair"}
					]
				}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewEuroparlAdapter(httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), server.URL, testLogger())

	persons, err := adapter.FetchPersons(context.Background())
	require.NoError(t, err)
	require.Len(t, persons, 1)

	assert.Equal(t, "124936", persons[0].ID)
	assert.Equal(t, "Jane DOE", persons[0].FullName)
	assert.Equal(t, "FR", persons[0].Country)
	assert.Equal(t, "https://www.europarl.europa.eu/meps/en/124936", persons[0].ProfileURL)
	require.Len(t, persons[0].Memberships, 1)
	assert.Equal(t, "ENVI", persons[0].Memberships[0].CommitteeCode)
}

func TestEuroparlAdapter_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	adapter := NewEuroparlAdapter(httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), server.URL, testLogger())

	_, err := adapter.FetchPersons(context.Background())
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestEuroparlAdapter_BadPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer server.Close()

	adapter := NewEuroparlAdapter(httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), server.URL, testLogger())

	_, err := adapter.FetchCorporateBodies(context.Background())
	assert.ErrorIs(t, err, ErrBadPayload)
}

func TestEuroparlAdapter_SkipsEventsWithBadDates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{"api:organization-code": "ENVI", "api:activity-label": "Meeting", "api:activity-start-date": "2026-09-01T09:00:00Z"},
				{"api:organization-code": "ITRE", "api:activity-label": "Broken", "api:activity-start-date": "next tuesday"}
			]
		}`))
	}))
	defer server.Close()

	adapter := NewEuroparlAdapter(httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), server.URL, testLogger())

	events, err := adapter.FetchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ENVI", events[0].CommitteeCode)
	assert.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC), events[0].StartAt)
}

func TestCivicDataAdapter_FollowsPagination(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))
		switch r.URL.Path {
		case "/persons":
			w.Write([]byte(`{"results": [{"id": "person/1", "name": "Jane Doe"}], "next": "` + server.URL + `/persons-page2"}`))
		case "/persons-page2":
			w.Write([]byte(`{"results": [{"id": "person/2", "name": "John Smith"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	budget := NewRequestBudget(10, time.Minute)
	adapter := NewCivicDataAdapter(httpclient.NewClient(httpclient.DefaultConfig(), testLogger()), server.URL, "secret", budget, testLogger())

	persons, err := adapter.FetchPersons(context.Background())
	require.NoError(t, err)
	require.Len(t, persons, 2)
	assert.Equal(t, "person/1", persons[0].ID)
	assert.Equal(t, "person/2", persons[1].ID)
	assert.Equal(t, 8, budget.Remaining())
}
