package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/booking"
	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/service"
)

// Reservations is the reservation service as the public API uses it.
type Reservations interface {
	CheckAvailability(ctx context.Context, q service.AvailabilityQuery) (booking.Summary, error)
	Suggest(ctx context.Context, partySize int, date, clock, excluded string) ([]booking.Option, error)
	Book(ctx context.Context, req service.BookingRequest) (service.Outcome, error)
	Commit(ctx context.Context, req service.CommitRequest) (*model.Reservation, error)
	Reschedule(ctx context.Context, reference, date, clock string) (service.Outcome, error)
	Cancel(ctx context.Context, reference string) (*model.Reservation, error)
	Get(ctx context.Context, reference string) (*model.Reservation, error)
	AvailableTimes(ctx context.Context, date string, partySize int, section string) (map[string][]string, error)
	Menu(ctx context.Context) ([]model.MenuItem, error)
	AddItems(ctx context.Context, reference string, items []service.ItemRequest) ([]model.ReservationItem, error)
}

// ReservationHandler serves the guest facing booking endpoints.  None of
// them need authentication; the reference acts as the guest's key.
type ReservationHandler struct {
	Svc Reservations
}

func NewReservationHandler(svc Reservations) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Svc: svc}
}

// Availability handles GET /v1/availability?date=&time=&section=&next_hours=.
func (h *ReservationHandler) Availability(c echo.Context) error {
	q := service.AvailabilityQuery{
		Date:    strings.TrimSpace(c.QueryParam("date")),
		Time:    strings.TrimSpace(c.QueryParam("time")),
		Section: strings.TrimSpace(c.QueryParam("section")),
	}
	if v := c.QueryParam("next_hours"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "next_hours must be a non-negative integer"})
		}
		q.NextHours = n
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	sum, err := h.Svc.CheckAvailability(ctx, q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, sum)
}

// Options handles GET /v1/options?party_size=&date=&time=&exclude=, the
// ranked list of sections that can seat the party.
func (h *ReservationHandler) Options(c echo.Context) error {
	party, err := strconv.Atoi(c.QueryParam("party_size"))
	if err != nil || party <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size must be a positive integer"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	opts, err := h.Svc.Suggest(ctx, party, c.QueryParam("date"), c.QueryParam("time"), c.QueryParam("exclude"))
	if err != nil {
		return fail(c, err)
	}
	if opts == nil {
		opts = []booking.Option{}
	}
	return c.JSON(http.StatusOK, echo.Map{"options": opts})
}

// AvailableTimes handles GET /v1/available-times?date=&party_size=&section=,
// the bookable start times per section for one day.
func (h *ReservationHandler) AvailableTimes(c echo.Context) error {
	party, err := strconv.Atoi(c.QueryParam("party_size"))
	if err != nil || party <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "party_size must be a positive integer"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	times, err := h.Svc.AvailableTimes(ctx, c.QueryParam("date"), party, c.QueryParam("section"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"available_times": times})
}

// Book handles POST /v1/reservations.  A confirmed booking is 201; a
// request that cannot be seated as asked is 200 with suggestions; a lost
// race is 409 with fresh suggestions.
func (h *ReservationHandler) Book(c echo.Context) error {
	var req service.BookingRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Svc.Book(ctx, req)
	if errors.Is(err, service.ErrConflict) {
		return c.JSON(http.StatusConflict, out)
	}
	if err != nil {
		return fail(c, err)
	}
	if out.Kind == service.OutcomeConfirmed {
		return c.JSON(http.StatusCreated, out)
	}
	return c.JSON(http.StatusOK, out)
}

// Commit handles POST /v1/reservations/commit, booking an option the
// guest picked from the suggestions.
func (h *ReservationHandler) Commit(c echo.Context) error {
	var req service.CommitRequest
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Svc.Commit(ctx, req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Get handles GET /v1/reservations/:reference.
func (h *ReservationHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Svc.Get(ctx, c.Param("reference"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type rescheduleReq struct {
	Date string `json:"date"`
	Time string `json:"time"`
}

// Reschedule handles PATCH /v1/reservations/:reference with a new date
// and time.  When nothing fits the body lists alternatives and the
// reservation is left as it was.
func (h *ReservationHandler) Reschedule(c echo.Context) error {
	var req rescheduleReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Svc.Reschedule(ctx, c.Param("reference"), req.Date, req.Time)
	if errors.Is(err, service.ErrConflict) {
		return c.JSON(http.StatusConflict, out)
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// Cancel handles DELETE /v1/reservations/:reference.  Repeating it is
// harmless.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Svc.Cancel(ctx, c.Param("reference"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Menu handles GET /v1/menu.
func (h *ReservationHandler) Menu(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	menu, err := h.Svc.Menu(ctx)
	if err != nil {
		return fail(c, err)
	}
	if menu == nil {
		menu = []model.MenuItem{}
	}
	return c.JSON(http.StatusOK, echo.Map{"menu": menu})
}

type addItemsReq struct {
	Items []service.ItemRequest `json:"items"`
}

// AddItems handles POST /v1/reservations/:reference/items, pre-ordering
// dishes.  Cancelled reservations are refused with 400.
func (h *ReservationHandler) AddItems(c echo.Context) error {
	var req addItemsReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := h.Svc.AddItems(ctx, c.Param("reference"), req.Items)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"items": items})
}
