/*
handlers.go - HTTP API handlers for the shift pay system

PURPOSE:
  Exposes the pay engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Guides:
    GET    /api/guides                 List pay guides
    POST   /api/guides                 Create/update a guide from JSON config
    GET    /api/guides/{id}            Get a guide's config
    DELETE /api/guides/{id}            Delete a guide

  Shifts:
    GET    /api/shifts?from=&to=       List shifts starting in a range
    POST   /api/shifts                 Create a shift (recalculated on save)
    GET    /api/shifts/{id}            Get shift with segments
    DELETE /api/shifts/{id}            Delete a shift
    POST   /api/shifts/{id}/recalculate Recalculate and persist
    GET    /api/shifts/{id}/breakdown  Preview breakdown without persisting

  Periods:
    GET    /api/periods                List pay periods
    POST   /api/periods                Create a pay period
    GET    /api/periods/{id}           Get a period
    POST   /api/periods/{id}/recalculate Recalculate shifts + withholding
    GET    /api/periods/{id}/preview   Preview totals without persisting
    POST   /api/periods/{id}/verify    Lock the period
    POST   /api/periods/{id}/reopen    Unlock a verified period
    POST   /api/periods/{id}/extras    Attach a one-off amount

  Tax:
    GET    /api/tax/{year}             Current table set for a tax year
    POST   /api/tax/{year}/invalidate  Drop the year's cached tables

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found (shift, guide, period, tax year)
  - 409: Conflict (mutating a verified/locked period)
  - 422: Shift cannot be calculated (missing/inactive guide)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/engine"
	"github.com/warp/pay-engine/factory"
	"github.com/warp/pay-engine/period"
	"github.com/warp/pay-engine/store/sqlite"
	"github.com/warp/pay-engine/tax"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store        *sqlite.Store
	Recalculator *engine.Recalculator
	Orchestrator *period.Orchestrator
	TaxTables    *tax.Cache
}

// NewHandler creates a new handler wired to the given store.
func NewHandler(store *sqlite.Store, recalc *engine.Recalculator, orch *period.Orchestrator, tables *tax.Cache) *Handler {
	return &Handler{
		Store:        store,
		Recalculator: recalc,
		Orchestrator: orch,
		TaxTables:    tables,
	}
}

// =============================================================================
// GUIDE ENDPOINTS
// =============================================================================

func (h *Handler) ListGuides(w http.ResponseWriter, r *http.Request) {
	guides, err := h.Store.ListGuides(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list guides", err)
		return
	}

	dtos := make([]*factory.GuideJSON, 0, len(guides))
	for _, g := range guides {
		dtos = append(dtos, factory.ToJSON(g))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateGuide(w http.ResponseWriter, r *http.Request) {
	var cfg factory.GuideJSON
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}

	g, err := factory.FromJSON(&cfg)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid guide config", err)
		return
	}

	if err := h.Store.SaveGuide(r.Context(), g); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save guide", err)
		return
	}
	writeJSON(w, http.StatusCreated, factory.ToJSON(g))
}

func (h *Handler) GetGuide(w http.ResponseWriter, r *http.Request) {
	id := engine.GuideID(chi.URLParam(r, "id"))
	g, err := h.Store.GetGuide(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, factory.ToJSON(g))
}

func (h *Handler) DeleteGuide(w http.ResponseWriter, r *http.Request) {
	id := engine.GuideID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteGuide(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete guide", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// SHIFT ENDPOINTS
// =============================================================================

func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if req.GuideID == "" {
		writeError(w, http.StatusBadRequest, "guide_id is required", nil)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start time", err)
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end time", err)
		return
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end must be after start", nil)
		return
	}

	shift := &engine.Shift{
		ID:      engine.ShiftID(req.ID),
		GuideID: engine.GuideID(req.GuideID),
		Start:   start,
		End:     end,
	}
	if shift.ID == "" {
		shift.ID = engine.ShiftID(uuid.NewString())
	}
	for _, b := range req.Breaks {
		bs, err := time.Parse(time.RFC3339, b.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid break start time", err)
			return
		}
		be, err := time.Parse(time.RFC3339, b.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid break end time", err)
			return
		}
		shift.Breaks = append(shift.Breaks, engine.BreakPeriod{Start: bs, End: be})
	}

	if err := h.Store.SaveShift(r.Context(), shift); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save shift", err)
		return
	}

	// Price the shift immediately so the response carries its aggregates.
	if _, err := h.Recalculator.RecalculateShift(r.Context(), shift.ID, time.Time{}); err != nil {
		h.writeDomainError(w, err)
		return
	}

	saved, err := h.Store.GetShift(r.Context(), shift.ID)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftDTO(saved))
}

func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid range", err)
		return
	}

	shifts, err := h.Store.ShiftsInRange(r.Context(), from, to)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, 0, len(shifts))
	for i := range shifts {
		dtos = append(dtos, toShiftDTO(&shifts[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	id := engine.ShiftID(chi.URLParam(r, "id"))
	shift, err := h.Store.GetShift(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	segments, err := h.Store.Segments(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load segments", err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		ShiftDTO
		Segments []SegmentDTO `json:"segments"`
	}{toShiftDTO(shift), toSegmentDTOs(segments)})
}

func (h *Handler) DeleteShift(w http.ResponseWriter, r *http.Request) {
	id := engine.ShiftID(chi.URLParam(r, "id"))
	if err := h.Store.DeleteShift(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RecalculateShift(w http.ResponseWriter, r *http.Request) {
	id := engine.ShiftID(chi.URLParam(r, "id"))
	periodStart, err := parseOptionalTime(r.URL.Query().Get("period_start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period_start", err)
		return
	}

	res, err := h.Recalculator.RecalculateShift(r.Context(), id, periodStart)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCalculationDTO(res))
}

func (h *Handler) ShiftBreakdown(w http.ResponseWriter, r *http.Request) {
	id := engine.ShiftID(chi.URLParam(r, "id"))
	periodStart, err := parseOptionalTime(r.URL.Query().Get("period_start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid period_start", err)
		return
	}

	res, err := h.Recalculator.Preview(r.Context(), id, periodStart)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toBreakdownDTO(res.Breakdown))
}

// =============================================================================
// PERIOD ENDPOINTS
// =============================================================================

func (h *Handler) CreatePeriod(w http.ResponseWriter, r *http.Request) {
	var req CreatePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	start, err := time.Parse(time.RFC3339, req.Start)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start time", err)
		return
	}
	end, err := time.Parse(time.RFC3339, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end time", err)
		return
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end must be after start", nil)
		return
	}

	ptype := period.Type(req.Type)
	if ptype.PeriodsPerYear() == 0 {
		writeError(w, http.StatusBadRequest, "type must be weekly, fortnightly or monthly", nil)
		return
	}
	if req.TaxYear == "" {
		writeError(w, http.StatusBadRequest, "tax_year is required", nil)
		return
	}

	p := &period.PayPeriod{
		ID:      period.ID(req.ID),
		Start:   start,
		End:     end,
		Type:    ptype,
		Status:  period.StatusOpen,
		TaxYear: tax.Year(req.TaxYear),
	}
	if p.ID == "" {
		p.ID = period.ID(uuid.NewString())
	}

	if err := h.Store.SavePeriod(r.Context(), p); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save period", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPeriodDTO(p))
}

func (h *Handler) ListPeriods(w http.ResponseWriter, r *http.Request) {
	periods, err := h.Store.ListPeriods(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list periods", err)
		return
	}

	dtos := make([]PeriodDTO, 0, len(periods))
	for i := range periods {
		dtos = append(dtos, toPeriodDTO(&periods[i]))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPeriod(w http.ResponseWriter, r *http.Request) {
	id := period.ID(chi.URLParam(r, "id"))
	p, err := h.Store.GetPeriod(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

// RecalculatePeriod reprices every shift in the period, then recomputes the
// period's withholding totals.
func (h *Handler) RecalculatePeriod(w http.ResponseWriter, r *http.Request) {
	id := period.ID(chi.URLParam(r, "id"))
	ctx := r.Context()

	p, err := h.Store.GetPeriod(ctx, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	if p.Locked() {
		h.writeDomainError(w, &period.LockedPeriodError{PeriodID: p.ID})
		return
	}

	shifts, err := h.Store.ShiftsInRange(ctx, p.Start, p.End)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load shifts", err)
		return
	}
	for _, s := range shifts {
		if _, err := h.Recalculator.RecalculateShift(ctx, s.ID, p.Start); err != nil {
			if engine.IsNotFound(err) {
				// Deleted mid-run: fine, the aggregation below won't see it.
				continue
			}
			h.writeDomainError(w, err)
			return
		}
	}

	updated, err := h.Orchestrator.Recalculate(ctx, id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(updated))
}

func (h *Handler) PreviewPeriod(w http.ResponseWriter, r *http.Request) {
	id := period.ID(chi.URLParam(r, "id"))
	totals, err := h.Orchestrator.Preview(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodTotalsDTO(*totals))
}

func (h *Handler) VerifyPeriod(w http.ResponseWriter, r *http.Request) {
	id := period.ID(chi.URLParam(r, "id"))
	p, err := h.Orchestrator.Verify(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

func (h *Handler) ReopenPeriod(w http.ResponseWriter, r *http.Request) {
	id := period.ID(chi.URLParam(r, "id"))
	p, err := h.Orchestrator.Reopen(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

func (h *Handler) AddExtra(w http.ResponseWriter, r *http.Request) {
	id := period.ID(chi.URLParam(r, "id"))

	var req AddExtraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid amount", err)
		return
	}

	p, err := h.Orchestrator.AddExtra(r.Context(), id, period.Extra{
		Name:    req.Name,
		Amount:  amount,
		Taxable: req.Taxable,
	})
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPeriodDTO(p))
}

// =============================================================================
// TAX ENDPOINTS
// =============================================================================

func (h *Handler) GetTaxTables(w http.ResponseWriter, r *http.Request) {
	year := tax.Year(chi.URLParam(r, "year"))
	ts, err := h.TaxTables.Tables(r.Context(), year)
	if err != nil {
		h.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaxTablesDTO(ts))
}

func (h *Handler) InvalidateTaxYear(w http.ResponseWriter, r *http.Request) {
	year := tax.Year(chi.URLParam(r, "year"))
	h.TaxTables.Invalidate(year)
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors to their HTTP status.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case period.IsLocked(err):
		writeError(w, http.StatusConflict, "period is locked", err)
	case engine.IsNotFound(err),
		errors.Is(err, period.ErrPeriodNotFound),
		tax.IsUnknownYear(err):
		writeError(w, http.StatusNotFound, "not found", err)
	case errors.Is(err, engine.ErrCannotCalculate):
		writeError(w, http.StatusUnprocessableEntity, "cannot calculate", err)
	case errors.Is(err, engine.ErrInvalidSpan):
		writeError(w, http.StatusBadRequest, "invalid span", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal error", err)
	}
}

// parseRange reads from/to query params; a missing bound defaults to an
// effectively unbounded window.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	from := time.Time{}
	to := time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)

	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		to = t
	}
	return from, to, nil
}

func parseOptionalTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

// parseAmount parses a decimal money string, rejecting empty input.
func parseAmount(v string) (decimal.Decimal, error) {
	if v == "" {
		return decimal.Zero, errors.New("amount is required")
	}
	return decimal.NewFromString(v)
}
