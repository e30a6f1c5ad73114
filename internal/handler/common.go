package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-reservation/internal/middleware"
	"github.com/iliyamo/seat-reservation/internal/model"
	"github.com/iliyamo/seat-reservation/internal/service"
)

// requestTimeout bounds the storage work done for a single request.
const requestTimeout = 5 * time.Second

// CachePurger invalidates cached seat listings after a write.
type CachePurger interface {
	Purge(ctx context.Context)
}

type noPurge struct{}

func (noPurge) Purge(context.Context) {}

func orNoPurge(p CachePurger) CachePurger {
	if p == nil {
		return noPurge{}
	}
	return p
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// statusFor maps a rejection kind onto its HTTP status.
func statusFor(kind service.Kind) int {
	switch kind {
	case service.KindInvalidInput, service.KindPastDate, service.KindTooSoon,
		service.KindSeatUnavailable, service.KindPastReservation:
		return http.StatusBadRequest
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound, service.KindSeatNotFound:
		return http.StatusNotFound
	case service.KindSlotConflict, service.KindOneSeatPerDay, service.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail renders err as {"error": reason, "code": kind}.
func fail(c echo.Context, err error) error {
	var rej *service.Rejection
	if !errors.As(err, &rej) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
	return c.JSON(statusFor(rej.Kind), echo.Map{"error": rej.Reason, "code": string(rej.Kind)})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg, "code": string(service.KindInvalidInput)})
}

// currentSession returns the caller or writes a 401.
func currentSession(c echo.Context) (model.Session, bool) {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		_ = c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return sess, ok
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// bindValid binds the request body into dst and runs struct validation.
// The returned message is suitable for a 400 response.
func bindValid(c echo.Context, dst any) (string, bool) {
	if err := c.Bind(dst); err != nil {
		return "invalid request body", false
	}
	if err := c.Validate(dst); err != nil {
		return validationMessage(err), false
	}
	return "", true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, fe.Param())
	default:
		return field + " is invalid"
	}
}
