package meps

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/internal/repositories/membership"
	"github.com/parlwatch/hemicycle/internal/repositories/mep"
	"github.com/parlwatch/hemicycle/pkg/cache"
	"github.com/parlwatch/hemicycle/pkg/models"
)

var validate = validator.New()

const listTTL = 2 * time.Minute

// Register registers MEP routes
func Register(g *echo.Group) {
	g.GET("", ListMEPs)
	g.GET("/:id", GetMEP)
}

// ListMEPs lists active MEPs with filtering and pagination
func ListMEPs(c echo.Context) error {
	ctx := c.Request().Context()

	var filter models.MEPFilter
	if err := c.Bind(&filter); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := validate.Struct(&filter); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	filter.Normalize()

	ctx, repo, err := ectoinject.GetContext[*mep.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ctx, responses, err := ectoinject.GetContext[*cache.Cache](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	key := listCacheKey(filter)
	cached, err := responses.GetOrLoad(ctx, key, listTTL, func(ctx context.Context) (any, error) {
		records, total, err := repo.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		return &models.PagedMEPs{
			Data:       records,
			Pagination: models.NewPagination(filter.Page, filter.Limit, total),
		}, nil
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, cached)
}

// GetMEP returns one MEP with its committee memberships
func GetMEP(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, meps, err := ectoinject.GetContext[*mep.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ctx, memberships, err := ectoinject.GetContext[*membership.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := meps.GetByID(ctx, id)
	if err != nil {
		return err
	}

	record.Memberships, err = memberships.ListByMEP(ctx, record.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

func listCacheKey(filter models.MEPFilter) string {
	return fmt.Sprintf("meps:list:%s:%s:%s:%s:%d:%d",
		filter.Search, filter.Country, filter.PoliticalGroup, filter.Committee, filter.Page, filter.Limit)
}
