// Package user handles monitoring user persistence.
package user

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

var columns = []string{"id", "email", "display_name", "role", "last_seen_at", "created_at"}

// Repository handles monitoring user persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new user repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all monitoring users
func (r *Repository) List(ctx context.Context) ([]models.MonitoringUser, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("monitoring_users")
	sb.OrderBy("email ASC")

	query, args := sb.Build()
	var users []models.MonitoringUser
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list monitoring users")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list monitoring users")
	}

	return users, nil
}

// UpdateRole changes one user's role
func (r *Repository) UpdateRole(ctx context.Context, id, role string) (*models.MonitoringUser, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.UpdateRole")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("monitoring_users")
	sb.Set(sb.Assign("role", role))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to update user role")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update user role")
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("user %s not found", id))
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": id, "role": role}).Info("Updated user role")
	return r.Get(ctx, id)
}

// Get retrieves one monitoring user by id
func (r *Repository) Get(ctx context.Context, id string) (*models.MonitoringUser, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("monitoring_users")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var user models.MonitoringUser
	if err := r.db.GetContext(ctx, &user, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("user %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get monitoring user")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get monitoring user")
	}

	return &user, nil
}

// TouchLastSeen records user activity. Failures are logged, not surfaced.
func (r *Repository) TouchLastSeen(ctx context.Context, id string) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.TouchLastSeen")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("monitoring_users")
	sb.Set(sb.Assign("last_seen_at", time.Now().UTC()))
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Warn("Failed to touch last seen")
	}
}
