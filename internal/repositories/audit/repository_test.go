package audit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Gobusters/ectologger"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parlwatch/hemicycle/pkg/database"
	"github.com/parlwatch/hemicycle/pkg/models"
)

func newMockRepository(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	wrapped := database.NewDatabaseInstance(sqlx.NewDb(db, "sqlmock"), logger)
	return NewRepository(wrapped, logger), mock
}

func TestAppend_AssignsIDAndTimestamp(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO audit_entries`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	payload, _ := json.Marshal(map[string]string{"politicalGroup": "Renew Europe Group"})
	entry, err := repo.Append(context.Background(), &models.AuditEntry{
		EntityType: models.AuditEntityMEP,
		EntityID:   "124936",
		ChangeType: models.ChangeUpdated,
		NewValues:  payload,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, entry.ID)
	assert.WithinDuration(t, time.Now(), entry.CreatedAt, time.Second)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListRecent_ClampsLimit(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .* FROM audit_entries ORDER BY created_at DESC LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "change_type", "created_at"}).
			AddRow("e1", "mep", "124936", "created", time.Now()))

	entries, err := repo.ListRecent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "124936", entries[0].EntityID)
}
