// Package monitoring exposes the admin endpoints for dashboard operator accounts.
package monitoring

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/internal/repositories/user"
	"github.com/parlwatch/hemicycle/pkg/context"
	"github.com/parlwatch/hemicycle/pkg/models"
)

// Register registers monitoring admin routes
func Register(g *echo.Group) {
	g.GET("/users", ListUsers)
	g.POST("/users/:id/role", UpdateUserRole)
}

// requireAdmin checks the role seeded by the identity proxy. Authentication
// itself happens upstream; this is authorization only.
func requireAdmin(c echo.Context) error {
	role := context.GetUserRole(c.Request().Context())
	if role != models.UserRoleAdmin {
		return httperror.NewHTTPError(http.StatusForbidden, "admin role required")
	}
	return nil
}

// ListUsers lists all monitoring users
func ListUsers(c echo.Context) error {
	ctx := c.Request().Context()

	if err := requireAdmin(c); err != nil {
		return err
	}

	ctx, repo, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	users, err := repo.List(ctx)
	if err != nil {
		return err
	}

	if userID := context.GetUserID(ctx); userID != "" {
		repo.TouchLastSeen(ctx, userID)
	}

	return c.JSON(http.StatusOK, users)
}

// UpdateUserRoleRequest is the request body for changing a user's role
type UpdateUserRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// UpdateUserRole changes a monitoring user's role
func UpdateUserRole(c echo.Context) error {
	ctx := c.Request().Context()

	if err := requireAdmin(c); err != nil {
		return err
	}

	id := c.Param("id")

	var req UpdateUserRoleRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if !models.ValidUserRole(req.Role) {
		return httperror.NewHTTPError(http.StatusBadRequest, "role must be admin or viewer")
	}

	ctx, repo, err := ectoinject.GetContext[*user.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	updated, err := repo.UpdateRole(ctx, id, req.Role)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{
			"user_id": updated.ID,
			"role":    updated.Role,
		}).Info("Updated monitoring user role")
	}

	return c.JSON(http.StatusOK, updated)
}
