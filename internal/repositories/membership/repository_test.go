package membership

import (
	"context"
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

func TestUpsert_UsesConflictClause(t *testing.T) {
	repo, mock := newMockRepository(t)

	// Conflicts on the junction primary key resolve by updating the role, so
	// repeated syncs of the same affiliation stay idempotent
	mock.ExpectExec(`INSERT INTO committee_memberships .* ON CONFLICT \(mep_id, committee_id\) DO UPDATE SET role = EXCLUDED.role`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Upsert(context.Background(), models.Membership{
		MEPID:       "person/100",
		CommitteeID: "c-1",
		Role:        "member",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByMEP_JoinsCommitteeFields(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"mep_id", "committee_id", "committee_code", "committee_name", "role", "created_at"}).
		AddRow("person/100", "c-1", "ENVI", "Committee on the Environment", "member", time.Now().UTC())

	mock.ExpectQuery(`SELECT .* FROM committee_memberships cm INNER JOIN committees c ON c.id = cm.committee_id`).
		WithArgs("person/100").
		WillReturnRows(rows)

	memberships, err := repo.ListByMEP(context.Background(), "person/100")
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, "ENVI", memberships[0].CommitteeCode)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteByMEP(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectExec(`DELETE FROM committee_memberships WHERE mep_id = `).
		WithArgs("person/200").
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, repo.DeleteByMEP(context.Background(), "person/200"))
	require.NoError(t, mock.ExpectationsWereMet())
}
