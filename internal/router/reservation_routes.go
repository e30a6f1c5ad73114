package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/handler"
	"github.com/iliyamo/seat-reservation/internal/middleware"
	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/service"
)

// RegisterReservations registers booking endpoints under /v1/reservations.
// limit wraps the write routes; pass a no-op middleware to disable it.
func RegisterReservations(e *echo.Echo, h *handler.ReservationHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/reservations",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleIntern, model.RoleAdmin),
	)
	admin := middleware.RequireRole(model.RoleAdmin)

	g.POST("", h.Create, limit)
	g.GET("/my", h.Mine(service.ScopeAll))
	g.GET("/my/current", h.Mine(service.ScopeCurrent))
	g.GET("/my/past", h.Mine(service.ScopePast))
	g.GET("/available-slots/:seatId/:date", h.AvailableSlots)
	// ownership is checked by the service so admins can act on any
	// reservation
	g.PUT("/:id", h.Modify, limit)
	g.DELETE("/:id", h.Cancel, limit)

	g.GET("/all", h.All, admin)
	g.POST("/manual-assign", h.Assign, admin, limit)
}
