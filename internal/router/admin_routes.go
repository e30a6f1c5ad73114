package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/handler"
	"github.com/iliyamo/seat-reservation/internal/middleware"
	"github.com/iliyamo/seat-reservation/internal/model"
)

// RegisterSeats registers the seat inventory.  cache wraps the cacheable
// reads.
func RegisterSeats(e *echo.Echo, h *handler.SeatHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/seats",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleIntern, model.RoleAdmin),
	)
	admin := middleware.RequireRole(model.RoleAdmin)

	g.GET("", h.List, cache)
	g.GET("/availability/:date/:timeSlot", h.Availability)
	g.GET("/:id", h.Get, cache)

	g.POST("", h.Create, admin)
	g.PUT("/:id", h.Update, admin)
	g.DELETE("/:id", h.Delete, admin)
}

// RegisterAdmin registers the admin dashboard endpoints.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleAdmin),
	)
	g.GET("/stats", h.Stats)
	g.GET("/reports/reservations.xlsx", h.ExportReservations)
}
