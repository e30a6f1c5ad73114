package handler

import (
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/service"
)

// SeatHandler serves the seat inventory.  Reads are open to any signed-in
// user, writes are admin only.
type SeatHandler struct {
	Seats *service.SeatService
	Cache CachePurger
}

func NewSeatHandler(seats *service.SeatService, cache CachePurger) *SeatHandler {
	return &SeatHandler{Seats: seats, Cache: orNoPurge(cache)}
}

type seatReq struct {
	SeatNumber string `json:"seat_number"`
	Row        string `json:"row"`
	Location   string `json:"location"`
	Area       string `json:"area"`
	Status     string `json:"status" validate:"omitempty,oneof=Available Unavailable"`
}

func (r seatReq) input() service.SeatInput {
	return service.SeatInput{
		SeatNumber: r.SeatNumber,
		Row:        r.Row,
		Location:   r.Location,
		Area:       r.Area,
		Status:     r.Status,
	}
}

// List handles GET /v1/seats?date=&time_slot=.
func (h *SeatHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	seats, err := h.Seats.List(ctx, service.SeatFilter{
		Date:     c.QueryParam("date"),
		TimeSlot: c.QueryParam("time_slot"),
	})
	if err != nil {
		return fail(c, err)
	}
	if seats == nil {
		seats = []model.Seat{}
	}
	return c.JSON(http.StatusOK, seats)
}

// Availability handles GET /v1/seats/availability/:date/:timeSlot.
func (h *SeatHandler) Availability(c echo.Context) error {
	ctx, cancel := requestCtx(c)
	defer cancel()

	slot, err := url.PathUnescape(c.Param("timeSlot"))
	if err != nil {
		return badRequest(c, "invalid time slot")
	}
	seats, err := h.Seats.Availability(ctx, c.Param("date"), slot)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, seats)
}

// Get handles GET /v1/seats/:id.
func (h *SeatHandler) Get(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid seat id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	seat, err := h.Seats.Get(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, seat)
}

// Create handles POST /v1/seats.
func (h *SeatHandler) Create(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	var req seatReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	seat, err := h.Seats.Create(ctx, sess, req.input())
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusCreated, seat)
}

// Update handles PUT /v1/seats/:id.  Omitted fields are left unchanged.
func (h *SeatHandler) Update(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid seat id")
	}
	var req seatReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	seat, err := h.Seats.Update(ctx, sess, id, req.input())
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusOK, seat)
}

// Delete handles DELETE /v1/seats/:id.
func (h *SeatHandler) Delete(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid seat id")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	if err := h.Seats.Delete(ctx, sess, id); err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(ctx)
	return c.NoContent(http.StatusNoContent)
}
