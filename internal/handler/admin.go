package handler

import (
	"context"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/table-reservation/internal/model"
	"github.com/iliyamo/table-reservation/internal/repository"
	"github.com/iliyamo/table-reservation/internal/service"
)

// Inventory is the floor plan and reporting side of the service layer.
type Inventory interface {
	SectionLister
	AddTable(ctx context.Context, section, label string, capacity int) (*model.Table, error)
	SetTableActive(ctx context.Context, id uint64, active bool) error
	Purge(ctx context.Context, names []string, hard bool) (repository.PurgeResult, error)
	Reservations(ctx context.Context, f repository.ReservationFilter) ([]model.Reservation, error)
	Customers(ctx context.Context) ([]model.Customer, error)
	Stats(ctx context.Context, loc *time.Location) (service.Stats, error)
}

// Canceller cancels by reference.
type Canceller interface {
	Cancel(ctx context.Context, reference string) (*model.Reservation, error)
}

// AdminHandler serves the staff dashboard.  Host and admin roles can read
// and cancel; only admins change the floor plan.
type AdminHandler struct {
	Inv      Inventory
	Res      Canceller
	Location *time.Location
}

func NewAdminHandler(inv Inventory, res Canceller, loc *time.Location) *AdminHandler {
	if inv == nil || res == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	if loc == nil {
		loc = time.UTC
	}
	return &AdminHandler{Inv: inv, Res: res, Location: loc}
}

// filter reads from, to (YYYY-MM-DD, restaurant time, to inclusive),
// status and limit.
func (h *AdminHandler) filter(c echo.Context) (repository.ReservationFilter, error) {
	var f repository.ReservationFilter
	if v := c.QueryParam("from"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, h.Location)
		if err != nil {
			return f, fmt.Errorf("%w: from must be YYYY-MM-DD", service.ErrInvalidRequest)
		}
		f.From = d.UTC()
	}
	if v := c.QueryParam("to"); v != "" {
		d, err := time.ParseInLocation("2006-01-02", v, h.Location)
		if err != nil {
			return f, fmt.Errorf("%w: to must be YYYY-MM-DD", service.ErrInvalidRequest)
		}
		f.To = d.AddDate(0, 0, 1).UTC()
	}
	f.Status = model.ReservationStatus(strings.ToLower(c.QueryParam("status")))
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("%w: limit must be a non-negative integer", service.ErrInvalidRequest)
		}
		f.Limit = n
	}
	return f, nil
}

// Reservations handles GET /v1/admin/reservations.
func (h *AdminHandler) Reservations(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Inv.Reservations(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	if out == nil {
		out = []model.Reservation{}
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

var csvHeader = []string{"reference", "status", "date", "time", "party_size", "name", "email", "phone", "tables", "special_requests"}

// ExportCSV handles GET /v1/admin/reservations.csv with the same filters.
func (h *AdminHandler) ExportCSV(c echo.Context) error {
	f, err := h.filter(c)
	if err != nil {
		return fail(c, err)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Inv.Reservations(ctx, f)
	if err != nil {
		return fail(c, err)
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	resp.Header().Set(echo.HeaderContentDisposition, `attachment; filename="reservations.csv"`)
	resp.WriteHeader(http.StatusOK)
	w := csv.NewWriter(resp)
	if err := w.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range out {
		local := r.ReservationTime.In(h.Location)
		ids := make([]string, len(r.TableIDs))
		for i, id := range r.TableIDs {
			ids[i] = strconv.FormatUint(id, 10)
		}
		if err := w.Write([]string{
			r.Reference, string(r.Status), local.Format("2006-01-02"), local.Format("15:04"),
			strconv.Itoa(r.PartySize), r.CustomerName, r.CustomerEmail, r.CustomerPhone,
			strings.Join(ids, " "), r.SpecialRequests,
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// Customers handles GET /v1/admin/customers.
func (h *AdminHandler) Customers(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Inv.Customers(ctx)
	if err != nil {
		return fail(c, err)
	}
	if out == nil {
		out = []model.Customer{}
	}
	return c.JSON(http.StatusOK, echo.Map{"customers": out})
}

// Stats handles GET /v1/admin/stats.
func (h *AdminHandler) Stats(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	st, err := h.Inv.Stats(ctx, h.Location)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, st)
}

// Cancel handles DELETE /v1/admin/reservations/:reference.
func (h *AdminHandler) Cancel(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Res.Cancel(ctx, c.Param("reference"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Sections handles GET /v1/admin/sections, retired ones included.
func (h *AdminHandler) Sections(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	out, err := h.Inv.Sections(ctx, true)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"sections": out})
}

type addTableReq struct {
	Section  string `json:"section"`
	Label    string `json:"label"`
	Capacity int    `json:"capacity"`
}

// AddTable handles POST /v1/admin/tables.
func (h *AdminHandler) AddTable(c echo.Context) error {
	var req addTableReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	t, err := h.Inv.AddTable(ctx, req.Section, req.Label, req.Capacity)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, t)
}

type tableStateReq struct {
	Active *bool `json:"active"`
}

// SetTableActive handles PATCH /v1/admin/tables/:id with {"active": bool}.
func (h *AdminHandler) SetTableActive(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid table id"})
	}
	var req tableStateReq
	if err := c.Bind(&req); err != nil || req.Active == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "active is required"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := h.Inv.SetTableActive(ctx, id, *req.Active); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"id": id, "active": *req.Active})
}

type purgeReq struct {
	Sections []string `json:"sections"`
	Hard     bool     `json:"hard"`
}

// Purge handles POST /v1/admin/sections/purge.  Safe to repeat.
func (h *AdminHandler) Purge(c echo.Context) error {
	var req purgeReq
	if err := c.Bind(&req); err != nil {
		return badBody(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	res, err := h.Inv.Purge(ctx, req.Sections, req.Hard)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
