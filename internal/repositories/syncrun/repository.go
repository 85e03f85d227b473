// Package syncrun handles sync run bookkeeping.
package syncrun

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

var columns = []string{"id", "run_type", "status", "records_processed", "records_created", "records_updated", "errors", "started_at", "completed_at"}

// Repository handles sync run persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new sync run repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create starts a new run in status running
func (r *Repository) Create(ctx context.Context, runType string) (*models.SyncRun, error) {
	ctx, span := tracing.StartSpan(ctx, "syncrun.Repository.Create")
	defer span.End()

	run := &models.SyncRun{
		ID:        uuid.New().String(),
		RunType:   runType,
		Status:    models.SyncStatusRunning,
		Errors:    models.StringList{},
		StartedAt: time.Now().UTC(),
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("sync_runs")
	sb.Cols(columns...)
	sb.Values(run.ID, run.RunType, run.Status, 0, 0, 0, run.Errors, run.StartedAt, nil)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create sync run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create sync run")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"id": run.ID, "run_type": runType}).Info("Started sync run")
	return run, nil
}

// MarkCompleted transitions a running run to completed with its final counts
func (r *Repository) MarkCompleted(ctx context.Context, run *models.SyncRun) error {
	return r.finish(ctx, run, models.SyncStatusCompleted)
}

// MarkFailed transitions a running run to failed with its accumulated errors
func (r *Repository) MarkFailed(ctx context.Context, run *models.SyncRun) error {
	return r.finish(ctx, run, models.SyncStatusFailed)
}

func (r *Repository) finish(ctx context.Context, run *models.SyncRun, status string) error {
	ctx, span := tracing.StartSpan(ctx, "syncrun.Repository.finish")
	defer span.End()

	now := time.Now().UTC()
	run.Status = status
	run.CompletedAt = &now

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("sync_runs")
	sb.Set(
		sb.Assign("status", status),
		sb.Assign("records_processed", run.RecordsProcessed),
		sb.Assign("records_created", run.RecordsCreated),
		sb.Assign("records_updated", run.RecordsUpdated),
		sb.Assign("errors", run.Errors),
		sb.Assign("completed_at", now),
	)
	// Forward-only transition: refuse to touch a run that already finished
	sb.Where(
		sb.Equal("id", run.ID),
		sb.Equal("status", models.SyncStatusRunning),
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": run.ID}).Errorf("Failed to mark sync run %s", status)
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update sync run")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"id":      run.ID,
		"status":  status,
		"created": run.RecordsCreated,
		"updated": run.RecordsUpdated,
	}).Info("Finished sync run")
	return nil
}

// GetLatest returns the most recently started run, or nil when none exist
func (r *Repository) GetLatest(ctx context.Context) (*models.SyncRun, error) {
	ctx, span := tracing.StartSpan(ctx, "syncrun.Repository.GetLatest")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("sync_runs")
	sb.OrderBy("started_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var run models.SyncRun
	if err := r.db.GetContext(ctx, &run, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get latest sync run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest sync run")
	}

	return &run, nil
}
