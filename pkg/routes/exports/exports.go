package exports

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/internal/repositories/committee"
	"github.com/parlwatch/hemicycle/internal/repositories/mep"
	"github.com/parlwatch/hemicycle/pkg/export"
	"github.com/parlwatch/hemicycle/pkg/models"
)

var validate = validator.New()

// exportLimit caps a single download. Well above the size of the sitting
// parliament, so in practice exports are complete.
const exportLimit = 10000

// Register registers export routes
func Register(g *echo.Group) {
	g.GET("/meps/csv", ExportMEPsCSV)
	g.GET("/meps/json", ExportMEPsJSON)
	g.GET("/committees/csv", ExportCommittees)
}

// ExportMEPsCSV streams the filtered MEP list as a CSV attachment
func ExportMEPsCSV(c echo.Context) error {
	return exportMEPs(c, "csv")
}

// ExportMEPsJSON streams the filtered MEP list as a JSON attachment
func ExportMEPsJSON(c echo.Context) error {
	return exportMEPs(c, "json")
}

func exportMEPs(c echo.Context, format string) error {
	ctx := c.Request().Context()

	var filter models.MEPFilter
	if err := c.Bind(&filter); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}
	if err := validate.Struct(&filter); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	filter.Page = 1
	filter.Limit = exportLimit

	ctx, repo, err := ectoinject.GetContext[*mep.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, _, err := repo.List(ctx, filter)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("meps-%s.%s", time.Now().UTC().Format("2006-01-02"), format)
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))

	if format == "json" {
		c.Response().Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		c.Response().WriteHeader(http.StatusOK)
		return export.WriteMEPsJSON(c.Response(), records)
	}

	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)
	return export.WriteMEPsCSV(c.Response(), records)
}

// ExportCommittees streams all active committees as a CSV attachment
func ExportCommittees(c echo.Context) error {
	ctx := c.Request().Context()

	ctx, repo, err := ectoinject.GetContext[*committee.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	records, _, err := repo.List(ctx, 1, exportLimit)
	if err != nil {
		return err
	}

	filename := fmt.Sprintf("committees-%s.csv", time.Now().UTC().Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename=%q`, filename))
	c.Response().Header().Set(echo.HeaderContentType, "text/csv")
	c.Response().WriteHeader(http.StatusOK)

	return export.WriteCommitteesCSV(c.Response(), records)
}
