/*
handlers.go - HTTP API handlers for the cash-flow engine

PURPOSE:
  Exposes the projection engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Schedule:
    GET /api/schedule               Full projection
    GET /api/schedule/summary       Per-payee contribution ranges
    GET /api/schedule/funding-month Cutoff diagnostic for one date
    GET /api/schedule/export.csv    CSV download of contributions

  Household document:
    GET/PUT /api/bills              Replace the bill list
    GET/PUT /api/payees             Replace the payee list
    GET/PUT /api/options            Replace the schedule options

  Scenarios:
    GET  /api/scenarios             List demo scenarios
    POST /api/scenarios/load        Load a demo scenario

ERROR HANDLING:
  Engine errors that stem from the caller's input (validation,
  recurrence, allocation, range) map to 400 with the offending
  payee/month/bill named when known; everything else is a 500.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo household builders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/cashflow-engine/export"
	"github.com/warp/cashflow-engine/schedule"
	"github.com/warp/cashflow-engine/state"
)

// Handler holds all handler dependencies.
type Handler struct {
	Store state.Store
	Log   zerolog.Logger

	currentScenario string
}

func NewHandler(store state.Store, log zerolog.Logger) *Handler {
	return &Handler{Store: store, Log: log}
}

// =============================================================================
// SCHEDULE ENDPOINTS
// =============================================================================

// GetSchedule computes and returns a full projection.
// GET /api/schedule?start_year=2024&start_month=2&months=12
func (h *Handler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load household", err)
		return
	}

	proj, projector, err := h.project(w, r, doc)
	if err != nil {
		return // response already written
	}

	colors := export.PayeeColors(projector.Payees())
	writeJSON(w, http.StatusOK, toProjectionDTO(proj, projector.Warnings(), colors))
}

// GetSummary returns only the per-payee contribution ranges.
// GET /api/schedule/summary
func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load household", err)
		return
	}

	proj, _, err := h.project(w, r, doc)
	if err != nil {
		return
	}
	writeJSON(w, http.StatusOK, toSummaryDTOs(proj.Summaries))
}

// GetFundingMonth explains which income month funds a due date.
// GET /api/schedule/funding-month?date=2024-02-15&cutoff_day=22
func (h *Handler) GetFundingMonth(w http.ResponseWriter, r *http.Request) {
	due, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date", err)
		return
	}

	cutoff := 0
	if raw := r.URL.Query().Get("cutoff_day"); raw != "" {
		cutoff, err = strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid cutoff_day", err)
			return
		}
	} else {
		doc, err := h.Store.Load(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to load household", err)
			return
		}
		cutoff = doc.Options.CutoffDay
	}
	if cutoff < schedule.MinCutoffDay || cutoff > schedule.MaxCutoffDay {
		writeError(w, http.StatusBadRequest, "cutoff_day must be between 1 and 31", nil)
		return
	}

	writeJSON(w, http.StatusOK, FundingMonthDTO{
		Date:         due.String(),
		CutoffDay:    cutoff,
		FundingMonth: schedule.FundingMonth(due, cutoff).String(),
	})
}

// ExportCSV streams the projection as a CSV download.
// GET /api/schedule/export.csv
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load household", err)
		return
	}

	proj, _, err := h.project(w, r, doc)
	if err != nil {
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="contribution_schedule.csv"`)
	if err := export.WriteCSV(w, proj, doc.Payees, doc.Options.CutoffDay); err != nil {
		h.Log.Error().Err(err).Msg("csv export failed mid-stream")
	}
}

// project parses the window query parameters, runs the engine, and
// writes the error response itself on failure.
func (h *Handler) project(w http.ResponseWriter, r *http.Request, doc *state.StateFile) (*schedule.Projection, *schedule.Projector, error) {
	projector, err := doc.Projector()
	if err != nil {
		writeEngineError(w, err)
		return nil, nil, err
	}

	start, months, err := windowParams(r, doc.Options)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid projection window", err)
		return nil, nil, err
	}

	proj, err := projector.Project(start, months)
	if err != nil {
		writeEngineError(w, err)
		return nil, nil, err
	}
	return proj, projector, nil
}

// windowParams reads start_year/start_month/months, defaulting to the
// current month and the household's configured window length.
func windowParams(r *http.Request, opts schedule.ScheduleOptions) (schedule.Month, int, error) {
	now := time.Now().UTC()
	start := schedule.NewMonth(now.Year(), now.Month())

	q := r.URL.Query()
	if raw := q.Get("start_year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return start, 0, fmt.Errorf("start_year: %w", err)
		}
		month := int(start.Month)
		if rawM := q.Get("start_month"); rawM != "" {
			month, err = strconv.Atoi(rawM)
			if err != nil {
				return start, 0, fmt.Errorf("start_month: %w", err)
			}
		}
		if month < 1 || month > 12 {
			return start, 0, fmt.Errorf("start_month %d out of range", month)
		}
		start = schedule.NewMonth(year, time.Month(month))
	} else if q.Get("start_month") != "" {
		return start, 0, errors.New("start_month requires start_year")
	}

	months := opts.DefaultProjectionMonths
	if raw := q.Get("months"); raw != "" {
		var err error
		months, err = strconv.Atoi(raw)
		if err != nil {
			return start, 0, fmt.Errorf("months: %w", err)
		}
	}
	return start, months, nil
}

// =============================================================================
// HOUSEHOLD DOCUMENT ENDPOINTS
// =============================================================================

// GetBills returns the bill list.
// GET /api/bills
func (h *Handler) GetBills(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load household", err)
		return
	}
	writeJSON(w, http.StatusOK, toBillDTOs(doc.Bills))
}

// PutBills replaces the bill list. The whole document is re-validated
// before anything is stored.
// PUT /api/bills
func (h *Handler) PutBills(w http.ResponseWriter, r *http.Request) {
	var dtos []BillDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	bills, err := toBills(dtos)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.replaceDocument(w, r, func(doc *state.StateFile) { doc.Bills = bills })
}

// GetPayees returns the payee list with their display colors.
// GET /api/payees
func (h *Handler) GetPayees(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load household", err)
		return
	}
	writeJSON(w, http.StatusOK, toPayeeDTOs(doc.Payees, export.PayeeColors(doc.Payees)))
}

// PutPayees replaces the payee list.
// PUT /api/payees
func (h *Handler) PutPayees(w http.ResponseWriter, r *http.Request) {
	var dtos []PayeeDTO
	if err := json.NewDecoder(r.Body).Decode(&dtos); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	payees, err := toPayees(dtos)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	h.replaceDocument(w, r, func(doc *state.StateFile) { doc.Payees = payees })
}

// GetOptions returns the schedule options.
// GET /api/options
func (h *Handler) GetOptions(w http.ResponseWriter, r *http.Request) {
	doc, err := h.Store.Load(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load household", err)
		return
	}
	writeJSON(w, http.StatusOK, toOptionsDTO(doc.Options))
}

// PutOptions replaces the schedule options.
// PUT /api/options
func (h *Handler) PutOptions(w http.ResponseWriter, r *http.Request) {
	var dto OptionsDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	h.replaceDocument(w, r, func(doc *state.StateFile) { doc.Options = dto.toOptions() })
}

// replaceDocument load-modify-saves the household document. Save
// re-validates the whole document, so a section swap that breaks a
// cross-reference (a share naming a deleted payee, say) is rejected
// and the stored document is untouched.
func (h *Handler) replaceDocument(w http.ResponseWriter, r *http.Request, mutate func(*state.StateFile)) {
	ctx := r.Context()

	doc, err := h.Store.Load(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load household", err)
		return
	}

	mutate(doc)

	if err := h.Store.Save(ctx, doc); err != nil {
		if schedule.IsClientError(err) {
			writeEngineError(w, err)
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to save household", err)
		return
	}

	warnings, _ := doc.Validate()
	resp := struct {
		Status   string       `json:"status"`
		Warnings []WarningDTO `json:"warnings,omitempty"`
	}{Status: "ok"}
	for _, warn := range warnings {
		resp.Warnings = append(resp.Warnings, WarningDTO{Code: warn.Code, Message: warn.Message})
	}
	writeJSON(w, http.StatusOK, resp)
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

// writeEngineError maps engine errors to HTTP. Client-caused failures
// get a 400 with the offending record named; anything else is a 500.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	if schedule.IsClientError(err) {
		status = http.StatusBadRequest
		message = "invalid household configuration"
	}

	resp := ErrorResponse{Error: message, Details: err.Error()}
	var allocErr *schedule.AllocationError
	if errors.As(err, &allocErr) {
		resp.Error = "allocation failed"
		resp.Payee = allocErr.Payee
		resp.Month = allocErr.Month.String()
		resp.Bill = allocErr.Bill
	}
	writeJSON(w, status, resp)
}
