// Package mep handles MEP persistence.
package mep

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/parlwatch/hemicycle/pkg/database"
	"github.com/parlwatch/hemicycle/pkg/models"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

var columns = []string{
	"id", "first_name", "last_name", "full_name", "country",
	"political_group", "political_group_abbr", "national_party",
	"email", "twitter", "facebook", "website", "photo_url", "profile_url",
	"birth_date", "birth_place", "active", "created_at", "updated_at",
}

// Repository handles MEP persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new MEP repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new MEP record
func (r *Repository) Create(ctx context.Context, mep *models.MEP) (*models.MEP, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	mep.CreatedAt = now
	mep.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("meps")
	sb.Cols(columns...)
	sb.Values(
		mep.ID, mep.FirstName, mep.LastName, mep.FullName, mep.Country,
		mep.PoliticalGroup, mep.PoliticalGroupAbbr, mep.NationalParty,
		mep.Email, mep.Twitter, mep.Facebook, mep.Website, mep.PhotoURL, mep.ProfileURL,
		mep.BirthDate, mep.BirthPlace, mep.Active, now, now,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": mep.ID}).Error("Failed to create MEP")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create MEP")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": mep.ID, "full_name": mep.FullName}).Info("Created MEP")
	return mep, nil
}

// Update rewrites the mutable fields of an existing MEP
func (r *Repository) Update(ctx context.Context, mep *models.MEP) (*models.MEP, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.Update")
	defer span.End()

	now := time.Now().UTC()
	mep.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("meps")
	sb.Set(
		sb.Assign("first_name", mep.FirstName),
		sb.Assign("last_name", mep.LastName),
		sb.Assign("full_name", mep.FullName),
		sb.Assign("country", mep.Country),
		sb.Assign("political_group", mep.PoliticalGroup),
		sb.Assign("political_group_abbr", mep.PoliticalGroupAbbr),
		sb.Assign("national_party", mep.NationalParty),
		sb.Assign("email", mep.Email),
		sb.Assign("twitter", mep.Twitter),
		sb.Assign("facebook", mep.Facebook),
		sb.Assign("website", mep.Website),
		sb.Assign("photo_url", mep.PhotoURL),
		sb.Assign("profile_url", mep.ProfileURL),
		sb.Assign("birth_date", mep.BirthDate),
		sb.Assign("birth_place", mep.BirthPlace),
		sb.Assign("active", mep.Active),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", mep.ID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": mep.ID}).Error("Failed to update MEP")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update MEP")
	}

	return mep, nil
}

// GetByID retrieves one MEP by id
func (r *Repository) GetByID(ctx context.Context, id string) (*models.MEP, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("meps")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var mep models.MEP
	if err := r.db.GetContext(ctx, &mep, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("MEP %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get MEP")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get MEP")
	}

	return &mep, nil
}

// Find retrieves one MEP by id, returning nil without an error when absent.
// The sync upsert treats absence as "create".
func (r *Repository) Find(ctx context.Context, id string) (*models.MEP, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.Find")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("meps")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var mep models.MEP
	if err := r.db.GetContext(ctx, &mep, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find MEP")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find MEP")
	}

	return &mep, nil
}

// List retrieves active MEPs matching the filter plus the unpaginated total
func (r *Repository) List(ctx context.Context, filter models.MEPFilter) ([]models.MEP, int, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.List")
	defer span.End()

	filter.Normalize()
	offset := (filter.Page - 1) * filter.Limit

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("meps")
	countSb.Where(filterConditions(countSb, filter)...)

	countQuery, countArgs := countSb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count MEPs")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count MEPs")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(prefixed("meps", columns)...)
	sb.From("meps")
	sb.Where(filterConditions(sb, filter)...)
	sb.OrderBy("meps.last_name ASC", "meps.first_name ASC")
	sb.Limit(filter.Limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var meps []models.MEP
	if err := r.db.SelectContext(ctx, &meps, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list MEPs")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list MEPs")
	}

	return meps, total, nil
}

// filterConditions builds the shared WHERE clauses for List and the exports
func filterConditions(sb *sqlbuilder.SelectBuilder, filter models.MEPFilter) []string {
	where := []string{sb.Equal("meps.active", true)}

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		where = append(where, sb.Or(
			sb.ILike("meps.full_name", pattern),
			sb.ILike("meps.email", pattern),
		))
	}
	if filter.Country != "" {
		where = append(where, sb.Equal("meps.country", filter.Country))
	}
	if filter.PoliticalGroup != "" {
		where = append(where, sb.Equal("meps.political_group", filter.PoliticalGroup))
	}
	if filter.Committee != "" {
		where = append(where, fmt.Sprintf(
			"meps.id IN (SELECT cm.mep_id FROM committee_memberships cm JOIN committees c ON c.id = cm.committee_id WHERE c.code = %s)",
			sb.Var(filter.Committee)))
	}

	return where
}

func prefixed(table string, cols []string) []string {
	out := make([]string, len(cols))
	for i, col := range cols {
		out[i] = table + "." + col
	}
	return out
}

// ListActive returns every active MEP in stable insertion order. The resolver
// depends on this order for deterministic survivor tie-breaks.
func (r *Repository) ListActive(ctx context.Context) ([]models.MEP, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.ListActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("meps")
	sb.Where(sb.Equal("active", true))
	sb.OrderBy("created_at ASC", "id ASC")

	query, args := sb.Build()
	var meps []models.MEP
	if err := r.db.SelectContext(ctx, &meps, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list active MEPs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list active MEPs")
	}

	return meps, nil
}

// Deactivate soft-deletes an MEP. The row is kept for audit lookups.
func (r *Repository) Deactivate(ctx context.Context, id string) error {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.Deactivate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("meps")
	sb.Set(
		sb.Assign("active", false),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to deactivate MEP")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to deactivate MEP")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id}).Info("Deactivated MEP")
	return nil
}

// DistinctCountries returns the country codes present among active MEPs
func (r *Repository) DistinctCountries(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.DistinctCountries")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("DISTINCT country")
	sb.From("meps")
	sb.Where(
		sb.Equal("active", true),
		sb.NotEqual("country", ""),
	)
	sb.OrderBy("country ASC")

	query, args := sb.Build()
	var countries []string
	if err := r.db.SelectContext(ctx, &countries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list countries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list countries")
	}

	return countries, nil
}

// DistinctPoliticalGroups returns the political groups present among active MEPs
func (r *Repository) DistinctPoliticalGroups(ctx context.Context) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.DistinctPoliticalGroups")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("DISTINCT political_group")
	sb.From("meps")
	sb.Where(
		sb.Equal("active", true),
		sb.NotEqual("political_group", ""),
	)
	sb.OrderBy("political_group ASC")

	query, args := sb.Build()
	var groups []string
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list political groups")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list political groups")
	}

	return groups, nil
}

// CountActive returns the number of active MEPs
func (r *Repository) CountActive(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.CountActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("meps")
	sb.Where(sb.Equal("active", true))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count active MEPs")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count active MEPs")
	}

	return count, nil
}

// CountDistinctCountries returns the number of countries with active MEPs
func (r *Repository) CountDistinctCountries(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "mep.Repository.CountDistinctCountries")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(DISTINCT country)")
	sb.From("meps")
	sb.Where(sb.Equal("active", true))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count countries")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count countries")
	}

	return count, nil
}
