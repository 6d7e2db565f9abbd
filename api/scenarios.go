/*
scenarios.go - Demo household builders

PURPOSE:
  Pre-built household documents for demos and manual testing. Loading a
  scenario replaces the stored document wholesale.

AVAILABLE SCENARIOS:
  1. couple-equal-split:  Two salaried payees, all bills split equally
  2. custom-shares:       Custom percentages, exclusions, a side-income
                          stream contributing a fixed percentage
  3. new-joiner:          A payee who starts contributing mid-year

ADDING A SCENARIO:
  1. Add an entry to the scenarios list
  2. Add a builder function: xxxScenario() *state.StateFile
  3. Register it in the switch inside LoadScenario

SEE ALSO:
  - handlers.go: Endpoint wiring
  - state/state.go: Document shape
*/
package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/schedule"
	"github.com/warp/cashflow-engine/state"
)

var scenarios = []ScenarioDTO{
	{
		ID:          "couple-equal-split",
		Name:        "Couple, equal split",
		Description: "Two salaried payees sharing rent, electricity, and internet equally.",
	},
	{
		ID:          "custom-shares",
		Name:        "Custom shares",
		Description: "Fixed percentages, an excluded payee, and a side income contributing 20% off the top.",
	},
	{
		ID:          "new-joiner",
		Name:        "New joiner",
		Description: "A third payee starts contributing in June; earlier months split two ways.",
	},
}

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario reports which scenario was loaded last, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"id": h.currentScenario})
}

// LoadScenario replaces the stored household with a demo document.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	var doc *state.StateFile
	switch req.ID {
	case "couple-equal-split":
		doc = coupleEqualSplitScenario()
	case "custom-shares":
		doc = customSharesScenario()
	case "new-joiner":
		doc = newJoinerScenario()
	default:
		writeError(w, http.StatusNotFound, "unknown scenario: "+req.ID, nil)
		return
	}

	if err := h.Store.Save(r.Context(), doc); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save scenario", err)
		return
	}

	h.currentScenario = req.ID
	h.Log.Info().Str("scenario", req.ID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "id": req.ID})
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

func monthlyPrice(amount, start string) []schedule.PriceHistoryEntry {
	return []schedule.PriceHistoryEntry{{
		Amount:        schedule.Dec(amount),
		EffectiveDate: schedule.MustDate(start),
		Recurrence:    schedule.Monthly(schedule.MustDate(start)),
	}}
}

func salary(description, amount, firstPayday string) schedule.PaySchedule {
	return schedule.PaySchedule{
		Description:       description,
		Amount:            schedule.Dec(amount),
		Recurrence:        schedule.Monthly(schedule.MustDate(firstPayday)),
		WeekendAdjustment: schedule.AdjustLastWorkingDay,
	}
}

func coupleEqualSplitScenario() *state.StateFile {
	return &state.StateFile{
		Bills: []schedule.Bill{
			schedule.NewBill("Rent", monthlyPrice("1450", "2024-01-01"), schedule.EqualSplit()),
			schedule.NewBill("Electricity", monthlyPrice("110", "2024-01-15"), schedule.EqualSplit()),
			schedule.NewBill("Internet", monthlyPrice("45", "2024-01-03"), schedule.EqualSplit()),
		},
		Payees: []schedule.Payee{
			{Name: "Alex", PaySchedules: []schedule.PaySchedule{salary("Salary", "3200", "2024-01-25")}},
			{Name: "Sam", PaySchedules: []schedule.PaySchedule{salary("Salary", "2800", "2024-01-28")}},
		},
		Options: schedule.DefaultOptions(),
	}
}

func customSharesScenario() *state.StateFile {
	seventy := schedule.Dec("70")
	twenty := schedule.Dec("20")

	return &state.StateFile{
		Bills: []schedule.Bill{
			schedule.NewBill("Rent", monthlyPrice("1800", "2024-01-01"),
				schedule.CustomSplit(map[string]decimal.Decimal{"Alex": seventy})),
			schedule.NewBill("Car insurance",
				[]schedule.PriceHistoryEntry{{
					Amount:        schedule.Dec("420"),
					EffectiveDate: schedule.MustDate("2024-02-10"),
					Recurrence:    schedule.EveryNMonths(schedule.MustDate("2024-02-10"), 6),
				}},
				schedule.ExcludeSplit("Sam")),
			schedule.NewBill("Groceries", monthlyPrice("600", "2024-01-05"), schedule.EqualSplit()),
		},
		Payees: []schedule.Payee{
			{Name: "Alex", PaySchedules: []schedule.PaySchedule{
				salary("Salary", "3600", "2024-01-25"),
				{
					Description:            "Freelance",
					Amount:                 schedule.Dec("800"),
					Recurrence:             schedule.Monthly(schedule.MustDate("2024-01-10")),
					WeekendAdjustment:      schedule.AdjustNextWorkingDay,
					ContributionPercentage: &twenty,
				},
			}},
			{Name: "Sam", PaySchedules: []schedule.PaySchedule{salary("Salary", "2400", "2024-01-28")}},
		},
		Options: schedule.DefaultOptions(),
	}
}

func newJoinerScenario() *state.StateFile {
	joinDate := schedule.MustDate("2024-06-01")

	return &state.StateFile{
		Bills: []schedule.Bill{
			schedule.NewBill("Rent", monthlyPrice("2100", "2024-01-01"), schedule.EqualSplit()),
			schedule.NewBill("Utilities", monthlyPrice("180", "2024-01-12"), schedule.EqualSplit()),
		},
		Payees: []schedule.Payee{
			{Name: "Alex", PaySchedules: []schedule.PaySchedule{salary("Salary", "3000", "2024-01-25")}},
			{Name: "Sam", PaySchedules: []schedule.PaySchedule{salary("Salary", "3000", "2024-01-25")}},
			{Name: "Jordan", StartDate: &joinDate, PaySchedules: []schedule.PaySchedule{
				salary("Salary", "2600", "2024-06-25"),
			}},
		},
		Options: schedule.DefaultOptions(),
	}
}
