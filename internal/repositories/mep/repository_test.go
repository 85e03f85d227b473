package mep

import (
	"context"
	"database/sql"
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

func TestList_PaginationTotal(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM meps`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(718))

	rows := sqlmock.NewRows([]string{"id", "full_name", "country", "active"}).
		AddRow("1", "Jane Doe", "FR", true).
		AddRow("2", "John Smith", "DE", true)
	mock.ExpectQuery(`SELECT .* FROM meps WHERE .* LIMIT .* OFFSET`).
		WillReturnRows(rows)

	meps, total, err := repo.List(context.Background(), models.MEPFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, 718, total)
	assert.Len(t, meps, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList_SearchFilterBindsPattern(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM meps`).
		WithArgs(true, "%Jane%", "%Jane%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT .* FROM meps`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "full_name"}).AddRow("1", "Jane Doe"))

	_, total, err := repo.List(context.Background(), models.MEPFilter{Search: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_AbsentReturnsNil(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .* FROM meps`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	mep, err := repo.Find(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, mep)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery(`SELECT .* FROM meps`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestDeactivate(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`UPDATE meps SET active`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Deactivate(context.Background(), "124936"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_SetsTimestamps(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`INSERT INTO meps`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	created, err := repo.Create(context.Background(), &models.MEP{
		ID:       "124936",
		FullName: "Jane Doe",
		Country:  "FR",
		Active:   true,
	})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), created.CreatedAt, time.Second)
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}
