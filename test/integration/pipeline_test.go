package integration

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlwatch/hemicycle/internal/repositories/audit"
	"github.com/parlwatch/hemicycle/internal/repositories/committee"
	"github.com/parlwatch/hemicycle/internal/repositories/event"
	"github.com/parlwatch/hemicycle/internal/repositories/membership"
	"github.com/parlwatch/hemicycle/internal/repositories/mep"
	"github.com/parlwatch/hemicycle/internal/repositories/syncrun"
	"github.com/parlwatch/hemicycle/pkg/database"
	"github.com/parlwatch/hemicycle/pkg/httpclient"
	"github.com/parlwatch/hemicycle/pkg/models"
	"github.com/parlwatch/hemicycle/pkg/resolver"
	"github.com/parlwatch/hemicycle/pkg/sources"
	"github.com/parlwatch/hemicycle/pkg/sync"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func getTestDB(t *testing.T) database.DB {
	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		t.Skip("Database not configured")
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "hemicycle"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, testLogger())
}

// noopLock satisfies the run lock without redis so the pipeline can be
// exercised against the database alone.
type noopLock struct{}

func (noopLock) Acquire(_ context.Context) (sync.UnlockFunc, error) {
	return func(_ context.Context) error { return nil }, nil
}

func upstreamFixture(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/meps/show-current", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [
			{"identifier": "person/100", "givenName": "Jane", "familyName": "Doe",
			 "api:country-of-representation": "FR", "api:political-group": "Renew Europe Group",
			 "hasMembership": [{"api:organization-code": "ENVI", "role": "member"}]},
			{"identifier": "person/200", "givenName": "John", "familyName": "Smith",
			 "api:country-of-representation": "DE", "api:political-group": "Greens/EFA"}
		]}`)
	})
	mux.HandleFunc("/corporate-bodies", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": [
			{"api:org-code": "ENVI", "label": "Committee on the Environment"}
		]}`)
	})
	mux.HandleFunc("/meetings", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data": []}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestSyncPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	logger := testLogger()
	ctx := context.Background()

	upstream := upstreamFixture(t)

	client := httpclient.NewClient(httpclient.DefaultConfig(), logger)
	adapter := sources.NewEuroparlAdapter(client, upstream.URL, logger)

	mepRepo := mep.NewRepository(db, logger)
	committeeRepo := committee.NewRepository(db, logger)
	membershipRepo := membership.NewRepository(db, logger)
	auditRepo := audit.NewRepository(db, logger)
	runRepo := syncrun.NewRepository(db, logger)
	eventRepo := event.NewRepository(db, logger)

	dedup := resolver.New(mepRepo, membershipRepo, auditRepo, logger)

	orchestrator := sync.New(
		[]sources.Adapter{adapter},
		mepRepo,
		committeeRepo,
		membershipRepo,
		eventRepo,
		runRepo,
		auditRepo,
		dedup,
		nil,
		nil,
		noopLock{},
		logger,
		sync.Config{ExpectedMaxMEPs: 751},
	)

	run, err := orchestrator.Run(ctx, models.SyncTypeManual)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusCompleted, run.Status)
	assert.Empty(t, run.Errors)

	jane, err := mepRepo.Find(ctx, "person/100")
	require.NoError(t, err)
	require.NotNil(t, jane)
	assert.Equal(t, "Jane Doe", jane.FullName)
	assert.True(t, jane.Active)

	envi, err := committeeRepo.GetByCode(ctx, "ENVI")
	require.NoError(t, err)
	require.NotNil(t, envi)

	memberships, err := membershipRepo.ListByMEP(ctx, "person/100")
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "ENVI", memberships[0].CommitteeCode)

	// Second run sees identical upstream data and must not write again
	secondRun, err := orchestrator.Run(ctx, models.SyncTypeManual)
	require.NoError(t, err)
	assert.Equal(t, models.SyncStatusCompleted, secondRun.Status)
	assert.Zero(t, secondRun.RecordsCreated)
	assert.Zero(t, secondRun.RecordsUpdated)
}
