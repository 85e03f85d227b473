// Package syncroutes exposes manual sync control and status.
package syncroutes

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/internal/repositories/syncrun"
	"github.com/parlwatch/hemicycle/pkg/models"
	"github.com/parlwatch/hemicycle/pkg/sync"
)

// Register registers sync routes
func Register(g *echo.Group) {
	g.POST("/trigger", TriggerSync)
	g.GET("/status", GetSyncStatus)
}

// TriggerSync starts a manual sync run in the background. Only one run may be
// active at a time; a second trigger while one is running returns 409.
func TriggerSync(c echo.Context) error {
	ctx := c.Request().Context()

	_, orchestrator, err := ectoinject.GetContext[*sync.Orchestrator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := orchestrator.StartAsync(models.SyncTypeManual); err != nil {
		if errors.Is(err, sync.ErrRunInProgress) {
			return httperror.NewHTTPError(http.StatusConflict, "a sync run is already in progress")
		}
		return err
	}

	return c.JSON(http.StatusAccepted, map[string]string{"status": "accepted"})
}

// GetSyncStatus returns the latest run and the scheduler state
func GetSyncStatus(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, runs, err := ectoinject.GetContext[*syncrun.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ctx, scheduler, err := ectoinject.GetContext[*sync.Scheduler](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	lastRun, err := runs.GetLatest(ctx)
	if err != nil {
		return err
	}

	status := models.SyncStatus{
		LastRun:          lastRun,
		RunInProgress:    lastRun != nil && lastRun.Status == models.SyncStatusRunning,
		SchedulerRunning: scheduler.Running(),
		NextScheduledAt:  scheduler.NextRunAt(),
	}

	return c.JSON(http.StatusOK, status)
}
