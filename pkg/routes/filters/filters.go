// Package filters serves the dropdown option lists used by the dashboard UI.
package filters

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/internal/repositories/committee"
	"github.com/parlwatch/hemicycle/internal/repositories/mep"
	"github.com/parlwatch/hemicycle/pkg/cache"
)

// Option lists change only when a sync lands, so they tolerate a longer TTL
// than record listings. Keys carry the entity type so sync writes invalidate
// them along with the record listings.
const optionsTTL = 10 * time.Minute

// Register registers filter option routes
func Register(g *echo.Group) {
	g.GET("/countries", ListCountries)
	g.GET("/political-groups", ListPoliticalGroups)
	g.GET("/committees", ListCommittees)
}

// ListCountries returns the distinct countries of active MEPs
func ListCountries(c echo.Context) error {
	return serveOptions(c, "meps:filters:countries", func(ctx context.Context) (any, error) {
		ctx, repo, err := ectoinject.GetContext[*mep.Repository](ctx)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
		}
		return repo.DistinctCountries(ctx)
	})
}

// ListPoliticalGroups returns the distinct political groups of active MEPs
func ListPoliticalGroups(c echo.Context) error {
	return serveOptions(c, "meps:filters:political-groups", func(ctx context.Context) (any, error) {
		ctx, repo, err := ectoinject.GetContext[*mep.Repository](ctx)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
		}
		return repo.DistinctPoliticalGroups(ctx)
	})
}

// ListCommittees returns code and name for every active committee
func ListCommittees(c echo.Context) error {
	return serveOptions(c, "committees:filters:options", func(ctx context.Context) (any, error) {
		ctx, repo, err := ectoinject.GetContext[*committee.Repository](ctx)
		if err != nil {
			return nil, httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
		}
		return repo.ListOptions(ctx)
	})
}

func serveOptions(c echo.Context, key string, loader func(ctx context.Context) (any, error)) error {
	ctx := c.Request().Context()

	ctx, responses, err := ectoinject.GetContext[*cache.Cache](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	options, err := responses.GetOrLoad(ctx, key, optionsTTL, loader)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, options)
}
