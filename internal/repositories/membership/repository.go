// Package membership handles the MEP/committee junction rows.
package membership

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/parlwatch/hemicycle/pkg/database"
	"github.com/parlwatch/hemicycle/pkg/models"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

// Repository handles membership persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new membership repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the membership or updates its role in place. The
// (mep_id, committee_id) pair is the primary key, so repeated syncs of the
// same affiliation are no-ops apart from role changes.
func (r *Repository) Upsert(ctx context.Context, membership models.Membership) error {
	ctx, span := tracing.StartSpan(ctx, "membership.Repository.Upsert")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("committee_memberships")
	sb.Cols("mep_id", "committee_id", "role", "created_at")
	sb.Values(membership.MEPID, membership.CommitteeID, membership.Role, time.Now().UTC())

	query, args := sb.Build()
	query += " ON CONFLICT (mep_id, committee_id) DO UPDATE SET role = EXCLUDED.role"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"mep_id":       membership.MEPID,
			"committee_id": membership.CommitteeID,
		}).Error("Failed to upsert membership")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert membership")
	}

	return nil
}

// ListByMEP retrieves a member's committee affiliations with committee
// display fields joined in
func (r *Repository) ListByMEP(ctx context.Context, mepID string) ([]models.Membership, error) {
	ctx, span := tracing.StartSpan(ctx, "membership.Repository.ListByMEP")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("cm.mep_id", "cm.committee_id", "c.code AS committee_code", "c.name AS committee_name", "cm.role", "cm.created_at")
	sb.From("committee_memberships cm")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "committees c", "c.id = cm.committee_id")
	sb.Where(sb.Equal("cm.mep_id", mepID))
	sb.OrderBy("c.code ASC")

	query, args := sb.Build()
	var memberships []models.Membership
	if err := r.db.SelectContext(ctx, &memberships, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list memberships by MEP")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list memberships")
	}

	return memberships, nil
}

// ListByCommittee retrieves a committee's members with MEP display fields
func (r *Repository) ListByCommittee(ctx context.Context, committeeID string) ([]models.CommitteeMember, error) {
	ctx, span := tracing.StartSpan(ctx, "membership.Repository.ListByCommittee")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("cm.mep_id", "m.full_name", "m.country", "m.political_group", "cm.role")
	sb.From("committee_memberships cm")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "meps m", "m.id = cm.mep_id")
	sb.Where(
		sb.Equal("cm.committee_id", committeeID),
		sb.Equal("m.active", true),
	)
	sb.OrderBy("m.last_name ASC", "m.first_name ASC")

	query, args := sb.Build()
	var members []models.CommitteeMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list memberships by committee")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list committee members")
	}

	return members, nil
}

// DeleteByMEP removes all of a member's junction rows. Used by the resolver
// after transferring memberships to a merge survivor.
func (r *Repository) DeleteByMEP(ctx context.Context, mepID string) error {
	ctx, span := tracing.StartSpan(ctx, "membership.Repository.DeleteByMEP")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("committee_memberships")
	sb.Where(sb.Equal("mep_id", mepID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"mep_id": mepID}).Error("Failed to delete memberships")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete memberships")
	}

	return nil
}

// CountAll returns the total number of junction rows
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "membership.Repository.CountAll")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("committee_memberships")

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count memberships")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count memberships")
	}

	return count, nil
}
