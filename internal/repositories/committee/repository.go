// Package committee handles committee persistence.
package committee

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/parlwatch/hemicycle/pkg/database"
	"github.com/parlwatch/hemicycle/pkg/models"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

var columns = []string{
	"id", "code", "name", "name_translated", "chair_name", "chair_group",
	"profile_url", "active", "created_at", "updated_at",
}

// Repository handles committee persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new committee repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new committee
func (r *Repository) Create(ctx context.Context, committee *models.Committee) (*models.Committee, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.Create")
	defer span.End()

	if committee.ID == "" {
		committee.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	committee.CreatedAt = now
	committee.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("committees")
	sb.Cols(columns...)
	sb.Values(
		committee.ID, committee.Code, committee.Name, committee.NameTranslated,
		committee.ChairName, committee.ChairGroup, committee.ProfileURL,
		committee.Active, now, now,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"code": committee.Code}).Error("Failed to create committee")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create committee")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": committee.ID, "code": committee.Code}).Info("Created committee")
	return committee, nil
}

// Update rewrites the mutable fields of an existing committee
func (r *Repository) Update(ctx context.Context, committee *models.Committee) (*models.Committee, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.Update")
	defer span.End()

	now := time.Now().UTC()
	committee.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("committees")
	sb.Set(
		sb.Assign("name", committee.Name),
		sb.Assign("name_translated", committee.NameTranslated),
		sb.Assign("chair_name", committee.ChairName),
		sb.Assign("chair_group", committee.ChairGroup),
		sb.Assign("profile_url", committee.ProfileURL),
		sb.Assign("active", committee.Active),
		sb.Assign("updated_at", now),
	)
	sb.Where(sb.Equal("id", committee.ID))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": committee.ID}).Error("Failed to update committee")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update committee")
	}

	return committee, nil
}

// GetByID retrieves one committee by id
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Committee, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("committees")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var committee models.Committee
	if err := r.db.GetContext(ctx, &committee, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("committee %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get committee")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get committee")
	}

	return &committee, nil
}

// GetByCode retrieves one active committee by its short code. Returns nil
// without an error when the code is unknown, since the sync upsert treats
// absence as "create".
func (r *Repository) GetByCode(ctx context.Context, code string) (*models.Committee, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.GetByCode")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("committees")
	sb.Where(
		sb.Equal("code", code),
		sb.Equal("active", true),
	)

	query, args := sb.Build()
	var committee models.Committee
	if err := r.db.GetContext(ctx, &committee, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get committee by code")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get committee by code")
	}

	return &committee, nil
}

// List retrieves active committees with pagination plus the unpaginated total
func (r *Repository) List(ctx context.Context, page, limit int) ([]models.Committee, int, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.List")
	defer span.End()

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	offset := (page - 1) * limit

	countSb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countSb.Select("COUNT(*)")
	countSb.From("committees")
	countSb.Where(countSb.Equal("active", true))

	countQuery, countArgs := countSb.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count committees")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count committees")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("committees")
	sb.Where(sb.Equal("active", true))
	sb.OrderBy("code ASC")
	sb.Limit(limit)
	sb.Offset(offset)

	query, args := sb.Build()
	var committees []models.Committee
	if err := r.db.SelectContext(ctx, &committees, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list committees")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list committees")
	}

	return committees, total, nil
}

// ListOptions returns the lightweight code+name list for filter dropdowns
func (r *Repository) ListOptions(ctx context.Context) ([]models.CommitteeOption, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.ListOptions")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("code", "name")
	sb.From("committees")
	sb.Where(sb.Equal("active", true))
	sb.OrderBy("code ASC")

	query, args := sb.Build()
	var options []models.CommitteeOption
	if err := r.db.SelectContext(ctx, &options, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list committee options")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list committee options")
	}

	return options, nil
}

// CountActive returns the number of active committees
func (r *Repository) CountActive(ctx context.Context) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "committee.Repository.CountActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("committees")
	sb.Where(sb.Equal("active", true))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count committees")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count committees")
	}

	return count, nil
}
