package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/service"
)

// ReservationHandler exposes booking operations.  Every method expects
// JWTAuth to have run; the caller is passed to the service explicitly.
type ReservationHandler struct {
	Reservations *service.ReservationService
	Cache        CachePurger
}

func NewReservationHandler(reservations *service.ReservationService, cache CachePurger) *ReservationHandler {
	return &ReservationHandler{Reservations: reservations, Cache: orNoPurge(cache)}
}

type createReservationReq struct {
	SeatID   uint64 `json:"seat_id" validate:"required"`
	Date     string `json:"date" validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
}

type modifyReservationReq struct {
	SeatID   uint64 `json:"seat_id"`
	Date     string `json:"date"`
	TimeSlot string `json:"time_slot"`
}

type assignReservationReq struct {
	SeatID   uint64 `json:"seat_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Date     string `json:"date" validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
}

type reservationResp struct {
	ID              uint64                  `json:"id"`
	UserID          uint64                  `json:"user_id"`
	SeatID          uint64                  `json:"seat_id"`
	SeatNumber      string                  `json:"seat_number"`
	Row             string                  `json:"row,omitempty"`
	Location        string                  `json:"location,omitempty"`
	Area            string                  `json:"area,omitempty"`
	Date            string                  `json:"date"`
	TimeSlot        model.TimeSlot          `json:"time_slot"`
	TimeSlotDisplay string                  `json:"time_slot_display"`
	Status          model.ReservationStatus `json:"status"`
	ReservedAt      time.Time               `json:"reserved_at"`
	CancelledAt     *time.Time              `json:"cancelled_at,omitempty"`
	UserName        string                  `json:"user_name,omitempty"`
	UserEmail       string                  `json:"user_email,omitempty"`
}

func toReservationResp(r *model.Reservation) reservationResp {
	return reservationResp{
		ID:              r.ID,
		UserID:          r.UserID,
		SeatID:          r.SeatID,
		SeatNumber:      r.SeatNumber,
		Row:             r.SeatRow,
		Location:        r.SeatLocation,
		Area:            r.SeatArea,
		Date:            model.FormatDate(r.Date),
		TimeSlot:        r.TimeSlot,
		TimeSlotDisplay: r.TimeSlot.Display(),
		Status:          r.Status,
		ReservedAt:      r.ReservedAt,
		CancelledAt:     r.CancelledAt,
		UserName:        r.UserName,
		UserEmail:       r.UserEmail,
	}
}

func toReservationList(rs []model.Reservation) []reservationResp {
	out := make([]reservationResp, len(rs))
	for i := range rs {
		out[i] = toReservationResp(&rs[i])
	}
	return out
}

// Create handles POST /v1/reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	var req createReservationReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	r, err := h.Reservations.CreateReservation(ctx, sess, service.CreateInput{
		SeatID:   req.SeatID,
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
	})
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusCreated, toReservationResp(r))
}

// Assign handles POST /v1/reservations/manual-assign (admin).
func (h *ReservationHandler) Assign(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	var req assignReservationReq
	if msg, ok := bindValid(c, &req); !ok {
		return badRequest(c, msg)
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	r, err := h.Reservations.AssignReservation(ctx, sess, service.AssignInput{
		SeatID:   req.SeatID,
		Email:    req.Email,
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
	})
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusCreated, toReservationResp(r))
}

// Modify handles PUT /v1/reservations/:id.
func (h *ReservationHandler) Modify(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}
	var req modifyReservationReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	r, err := h.Reservations.ModifyReservation(ctx, sess, id, service.Changes{
		Date:     req.Date,
		TimeSlot: req.TimeSlot,
		SeatID:   req.SeatID,
	})
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusOK, toReservationResp(r))
}

// Cancel handles DELETE /v1/reservations/:id.  Cancelling twice is not an
// error.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid reservation id")
	}

	ctx, cancel := requestCtx(c)
	defer cancel()

	r, err := h.Reservations.CancelReservation(ctx, sess, id)
	if err != nil {
		return fail(c, err)
	}
	h.Cache.Purge(ctx)
	return c.JSON(http.StatusOK, echo.Map{
		"message":     "Reservation cancelled",
		"reservation": toReservationResp(r),
	})
}

// Mine lists the caller's reservations in the given scope.
func (h *ReservationHandler) Mine(scope service.Scope) echo.HandlerFunc {
	return func(c echo.Context) error {
		sess, ok := currentSession(c)
		if !ok {
			return nil
		}
		ctx, cancel := requestCtx(c)
		defer cancel()

		rs, err := h.Reservations.ListMyReservations(ctx, sess, scope)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(http.StatusOK, toReservationList(rs))
	}
}

// All handles GET /v1/reservations/all?date=&status=&q= (admin).
func (h *ReservationHandler) All(c echo.Context) error {
	sess, ok := currentSession(c)
	if !ok {
		return nil
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rs, err := h.Reservations.ListAll(ctx, sess, listFilterFrom(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, toReservationList(rs))
}

// AvailableSlots handles GET /v1/reservations/available-slots/:seatId/:date.
func (h *ReservationHandler) AvailableSlots(c echo.Context) error {
	seatID, ok := pathID(c, "seatId")
	if !ok {
		return badRequest(c, "invalid seat id")
	}
	date := c.Param("date")

	ctx, cancel := requestCtx(c)
	defer cancel()

	slots, err := h.Reservations.ListAvailableSlots(ctx, seatID, date)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"seat_id":         seatID,
		"date":            date,
		"available_slots": slots,
		"full_day":        len(slots) == len(model.HourlySlots),
	})
}

func listFilterFrom(c echo.Context) service.ListFilter {
	return service.ListFilter{
		Date:   c.QueryParam("date"),
		Status: c.QueryParam("status"),
		Query:  c.QueryParam("q"),
	}
}
