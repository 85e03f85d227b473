// Package middleware contains the echo middleware shared by all routes.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/parlwatch/hemicycle/pkg/context"
)

const (
	// HeaderUserID carries the authenticated user id set by the identity proxy
	HeaderUserID = "X-User-ID"
	// HeaderUserRole carries the user's monitoring role set by the identity proxy
	HeaderUserRole = "X-User-Role"
)

// Context seeds the request context with request metadata so logs and audit
// trails can reference it without touching echo.
func Context() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()

			requestID := req.Header.Get(echo.HeaderXRequestID)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := req.Context()
			ctx = context.SetRequestID(ctx, requestID)
			ctx = context.SetMethod(ctx, req.Method)
			ctx = context.SetRoute(ctx, req.URL.Path)
			ctx = context.SetRemoteIP(ctx, c.RealIP())
			ctx = context.SetUserID(ctx, req.Header.Get(HeaderUserID))
			ctx = context.SetUserRole(ctx, req.Header.Get(HeaderUserRole))

			c.SetRequest(req.WithContext(ctx))

			return next(c)
		}
	}
}
