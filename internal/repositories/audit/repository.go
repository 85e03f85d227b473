// Package audit handles the append-only change log.
package audit

import (
	"context"
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

var columns = []string{"id", "entity_type", "entity_id", "change_type", "old_values", "new_values", "created_at"}

// Repository handles audit entry persistence. Entries are append-only: there
// is no update or delete.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new audit repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Append inserts one audit entry
func (r *Repository) Append(ctx context.Context, entry *models.AuditEntry) (*models.AuditEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.Append")
	defer span.End()

	entry.ID = uuid.New().String()
	entry.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("audit_entries")
	sb.Cols(columns...)
	sb.Values(entry.ID, entry.EntityType, entry.EntityID, entry.ChangeType, []byte(entry.OldValues), []byte(entry.NewValues), entry.CreatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"entity_type": entry.EntityType,
			"entity_id":   entry.EntityID,
			"change_type": entry.ChangeType,
		}).Error("Failed to append audit entry")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to append audit entry")
	}

	return entry, nil
}

// ListRecent retrieves the newest entries, most recent first
func (r *Repository) ListRecent(ctx context.Context, limit int) ([]models.AuditEntry, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.ListRecent")
	defer span.End()

	if limit < 1 || limit > 100 {
		limit = 20
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("audit_entries")
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var entries []models.AuditEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list audit entries")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list audit entries")
	}

	return entries, nil
}

// LatestUpdate returns the timestamp of the most recent entry, or nil when
// the log is empty
func (r *Repository) LatestUpdate(ctx context.Context) (*time.Time, error) {
	ctx, span := tracing.StartSpan(ctx, "audit.Repository.LatestUpdate")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("MAX(created_at)")
	sb.From("audit_entries")

	query, args := sb.Build()
	var latest *time.Time
	if err := r.db.GetContext(ctx, &latest, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get latest audit timestamp")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest audit timestamp")
	}

	return latest, nil
}
