package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/internal/repositories/audit"
	"github.com/parlwatch/hemicycle/internal/repositories/committee"
	"github.com/parlwatch/hemicycle/internal/repositories/mep"
	"github.com/parlwatch/hemicycle/pkg/cache"
	"github.com/parlwatch/hemicycle/pkg/models"
)

const statsTTL = 5 * time.Minute

// Register registers dashboard routes
func Register(g *echo.Group) {
	g.GET("/stats", GetStats)
	g.GET("/recent-changes", ListRecentChanges)
}

// GetStats returns the headline counts shown on the dashboard
func GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, meps, err := ectoinject.GetContext[*mep.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ctx, committees, err := ectoinject.GetContext[*committee.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ctx, audits, err := ectoinject.GetContext[*audit.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ctx, responses, err := ectoinject.GetContext[*cache.Cache](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	stats, err := responses.GetOrLoad(ctx, "dashboard:stats", statsTTL, func(ctx context.Context) (any, error) {
		totalMEPs, err := meps.CountActive(ctx)
		if err != nil {
			return nil, err
		}
		totalCommittees, err := committees.CountActive(ctx)
		if err != nil {
			return nil, err
		}
		totalCountries, err := meps.CountDistinctCountries(ctx)
		if err != nil {
			return nil, err
		}
		lastUpdate, err := audits.LatestUpdate(ctx)
		if err != nil {
			return nil, err
		}
		return &models.DashboardStats{
			TotalMEPs:       totalMEPs,
			TotalCommittees: totalCommittees,
			TotalCountries:  totalCountries,
			LastUpdate:      lastUpdate,
		}, nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// ListRecentChanges returns the most recent audit entries, newest first
func ListRecentChanges(c echo.Context) error {
	ctx := c.Request().Context()

	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	ctx, audits, err := ectoinject.GetContext[*audit.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	entries, err := audits.ListRecent(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, entries)
}
