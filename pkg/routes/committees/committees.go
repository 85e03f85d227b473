package committees

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/internal/repositories/committee"
	"github.com/parlwatch/hemicycle/internal/repositories/event"
	"github.com/parlwatch/hemicycle/internal/repositories/membership"
	"github.com/parlwatch/hemicycle/pkg/models"
)

// Register registers committee routes
func Register(g *echo.Group) {
	g.GET("", ListCommittees)
	g.GET("/:id", GetCommittee)
	g.GET("/:id/events", ListCommitteeEvents)
}

// ListCommittees lists active committees with pagination
func ListCommittees(c echo.Context) error {
	ctx := c.Request().Context()

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	ctx, repo, err := ectoinject.GetContext[*committee.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, total, err := repo.List(ctx, page, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.PagedCommittees{
		Data:       records,
		Pagination: models.NewPagination(page, limit, total),
	})
}

// GetCommittee returns one committee with its current members
func GetCommittee(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	ctx, committees, err := ectoinject.GetContext[*committee.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ctx, memberships, err := ectoinject.GetContext[*membership.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := committees.GetByID(ctx, id)
	if err != nil {
		return err
	}

	record.Members, err = memberships.ListByCommittee(ctx, record.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

// ListCommitteeEvents returns the committee's upcoming events. The months
// query parameter bounds the horizon and defaults to three.
func ListCommitteeEvents(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	months, _ := strconv.Atoi(c.QueryParam("months"))

	ctx, committees, err := ectoinject.GetContext[*committee.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	ctx, events, err := ectoinject.GetContext[*event.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	record, err := committees.GetByID(ctx, id)
	if err != nil {
		return err
	}

	upcoming, err := events.ListUpcomingByCommittee(ctx, record.ID, months)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, upcoming)
}
