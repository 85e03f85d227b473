// Package event handles upcoming committee event persistence.
package event

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

var columns = []string{"id", "committee_id", "title", "event_type", "start_at", "end_at", "location", "url", "created_at"}

// Repository handles event persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new event repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Upsert inserts the event or refreshes its mutable fields. Upstream events
// carry no stable id, so (committee_id, title, start_at) is the identity.
func (r *Repository) Upsert(ctx context.Context, event *models.Event) error {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.Upsert")
	defer span.End()

	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	event.CreatedAt = time.Now().UTC()

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("events")
	sb.Cols(columns...)
	sb.Values(event.ID, event.CommitteeID, event.Title, event.EventType, event.StartAt, event.EndAt, event.Location, event.URL, event.CreatedAt)

	query, args := sb.Build()
	query += " ON CONFLICT (committee_id, title, start_at) DO UPDATE SET event_type = EXCLUDED.event_type, end_at = EXCLUDED.end_at, location = EXCLUDED.location, url = EXCLUDED.url"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"committee_id": event.CommitteeID,
			"title":        event.Title,
		}).Error("Failed to upsert event")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert event")
	}

	return nil
}

// ListUpcomingByCommittee retrieves events for a committee starting within
// the next N months
func (r *Repository) ListUpcomingByCommittee(ctx context.Context, committeeID string, months int) ([]models.Event, error) {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.ListUpcomingByCommittee")
	defer span.End()

	if months < 1 || months > 24 {
		months = 3
	}

	now := time.Now().UTC()
	horizon := now.AddDate(0, months, 0)

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("events")
	sb.Where(
		sb.Equal("committee_id", committeeID),
		sb.GreaterEqualThan("start_at", now),
		sb.LessThan("start_at", horizon),
	)
	sb.OrderBy("start_at ASC")

	query, args := sb.Build()
	var events []models.Event
	if err := r.db.SelectContext(ctx, &events, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list upcoming events")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list upcoming events")
	}

	return events, nil
}

// DeletePast removes events that ended more than the retention window ago
func (r *Repository) DeletePast(ctx context.Context, retention time.Duration) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "event.Repository.DeletePast")
	defer span.End()

	cutoff := time.Now().UTC().Add(-retention)

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("events")
	sb.Where(sb.LessThan("start_at", cutoff))

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete past events")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete past events")
	}

	deleted, _ := result.RowsAffected()
	return deleted, nil
}
