/*
handlers_test.go - Handler tests against an in-memory document store

Tests for:
- Projection endpoint (happy path, allocation failure mapping)
- Funding-month diagnostic
- Document section replacement (bills, options)
- Scenario loading
- CSV export
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/schedule"
	"github.com/warp/cashflow-engine/state"
)

// testHousehold is Rent 1000 due on the 1st, split between two
// salaried payees. With cutoff 22, February's rent is funded by the
// January paydays.
func testHousehold() *state.StateFile {
	return &state.StateFile{
		Bills: []schedule.Bill{
			schedule.NewBill("Rent",
				[]schedule.PriceHistoryEntry{{
					Amount:        schedule.Dec("1000"),
					EffectiveDate: schedule.MustDate("2024-01-01"),
					Recurrence:    schedule.Monthly(schedule.MustDate("2024-01-01")),
				}},
				schedule.EqualSplit()),
		},
		Payees: []schedule.Payee{
			{Name: "Alice", PaySchedules: []schedule.PaySchedule{{
				Description:       "Salary",
				Amount:            schedule.Dec("3000"),
				Recurrence:        schedule.Monthly(schedule.MustDate("2024-01-25")),
				WeekendAdjustment: schedule.AdjustLastWorkingDay,
			}}},
			{Name: "Bob", PaySchedules: []schedule.PaySchedule{{
				Description:       "Salary",
				Amount:            schedule.Dec("2000"),
				Recurrence:        schedule.Monthly(schedule.MustDate("2024-01-15")),
				WeekendAdjustment: schedule.AdjustLastWorkingDay,
			}}},
		},
		Options: schedule.ScheduleOptions{
			CutoffDay:               22,
			WeekendAdjustment:       schedule.AdjustLastWorkingDay,
			DefaultProjectionMonths: 12,
		},
	}
}

func newTestAPI(t *testing.T, doc *state.StateFile) (http.Handler, *state.Memory) {
	t.Helper()
	store := state.NewMemory()
	if doc != nil {
		require.NoError(t, store.Save(context.Background(), doc))
	}
	h := NewHandler(store, zerolog.Nop())
	return NewRouter(h), store
}

func doRequest(t *testing.T, router http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), "body: %s", rec.Body.String())
	return out
}

func findShare(t *testing.T, entry EntryDTO, payee string) PayeeShareDTO {
	t.Helper()
	for _, ps := range entry.PerPayee {
		if ps.Payee == payee {
			return ps
		}
	}
	t.Fatalf("no share for payee %q in entry %s/%s", payee, entry.Month, entry.Bill)
	return PayeeShareDTO{}
}

// =============================================================================
// SCHEDULE
// =============================================================================

func TestGetSchedule_HappyPath(t *testing.T) {
	// GIVEN: A two-payee household with one monthly bill
	router, _ := newTestAPI(t, testHousehold())

	// WHEN: Projecting February 2024 alone
	rec := doRequest(t, router, http.MethodGet, "/api/schedule?start_year=2024&start_month=2&months=1", nil)

	// THEN: Rent splits 500/500, funded by the January paydays
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	proj := decodeBody[ProjectionDTO](t, rec)

	assert.Equal(t, "2024-02", proj.Start)
	require.Len(t, proj.Entries, 1)
	entry := proj.Entries[0]
	assert.Equal(t, "Rent", entry.Bill)
	assert.True(t, entry.TotalAmount.Equal(schedule.Dec("1000")))

	alice := findShare(t, entry, "Alice")
	assert.True(t, alice.ShareAmount.Equal(schedule.Dec("500")))
	require.Len(t, alice.IncomeAllocations, 1)
	assert.Equal(t, "2024-01-25", alice.IncomeAllocations[0].Date)
	assert.True(t, alice.IncomeAllocations[0].Amount.Equal(schedule.Dec("500")))

	bob := findShare(t, entry, "Bob")
	assert.True(t, bob.ShareAmount.Equal(schedule.Dec("500")))

	require.Len(t, proj.MonthlyTotals, 1)
	assert.True(t, proj.MonthlyTotals[0].Total.Equal(schedule.Dec("1000")))

	assert.Contains(t, proj.PayeeColors, "Alice")
	assert.Contains(t, proj.PayeeColors, "Bob")
}

func TestGetSchedule_AllocationFailureIsA400NamingThePayee(t *testing.T) {
	// GIVEN: Bob's salary only starts in March, so January income
	// cannot cover February's rent
	doc := testHousehold()
	doc.Payees[1].PaySchedules[0].Recurrence = schedule.Monthly(schedule.MustDate("2024-03-15"))
	router, _ := newTestAPI(t, doc)

	// WHEN: Projecting February 2024
	rec := doRequest(t, router, http.MethodGet, "/api/schedule?start_year=2024&start_month=2&months=1", nil)

	// THEN: 400 with the offending payee and funding month named
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	resp := decodeBody[ErrorResponse](t, rec)
	assert.Equal(t, "allocation failed", resp.Error)
	assert.Equal(t, "Bob", resp.Payee)
	assert.Equal(t, "2024-01", resp.Month)
}

func TestGetSchedule_BadWindowIsA400(t *testing.T) {
	router, _ := newTestAPI(t, testHousehold())

	rec := doRequest(t, router, http.MethodGet, "/api/schedule?start_month=2", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/schedule?start_year=2024&start_month=2&months=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSummary(t *testing.T) {
	router, _ := newTestAPI(t, testHousehold())

	rec := doRequest(t, router, http.MethodGet, "/api/schedule/summary?start_year=2024&start_month=2&months=4", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summaries := decodeBody[[]SummaryDTO](t, rec)
	require.Len(t, summaries, 2)
	assert.Equal(t, "Alice", summaries[0].Payee)
	assert.True(t, summaries[0].Consistent)
	assert.True(t, summaries[0].Min.Equal(schedule.Dec("500")))
}

// =============================================================================
// FUNDING MONTH
// =============================================================================

func TestGetFundingMonth(t *testing.T) {
	router, _ := newTestAPI(t, testHousehold())

	// On-or-before the cutoff: funded by the prior month
	rec := doRequest(t, router, http.MethodGet, "/api/schedule/funding-month?date=2024-02-15&cutoff_day=22", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dto := decodeBody[FundingMonthDTO](t, rec)
	assert.Equal(t, "2024-01", dto.FundingMonth)

	// After the cutoff: funded by its own month
	rec = doRequest(t, router, http.MethodGet, "/api/schedule/funding-month?date=2024-02-26&cutoff_day=22", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dto = decodeBody[FundingMonthDTO](t, rec)
	assert.Equal(t, "2024-02", dto.FundingMonth)

	// cutoff_day omitted: the household's option applies
	rec = doRequest(t, router, http.MethodGet, "/api/schedule/funding-month?date=2024-02-15", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dto = decodeBody[FundingMonthDTO](t, rec)
	assert.Equal(t, 22, dto.CutoffDay)
	assert.Equal(t, "2024-01", dto.FundingMonth)

	// Malformed date
	rec = doRequest(t, router, http.MethodGet, "/api/schedule/funding-month?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// DOCUMENT SECTIONS
// =============================================================================

func TestPutBills_ReplacesAndPersists(t *testing.T) {
	// GIVEN: The seeded household
	router, _ := newTestAPI(t, testHousehold())

	// WHEN: Replacing the bill list with a cheaper rent plus internet
	newBills := []BillDTO{
		{
			Name: "Rent",
			PriceHistory: []PriceEntryDTO{{
				Amount:        schedule.Dec("900"),
				EffectiveDate: "2024-01-01",
				Recurrence:    RecurrenceDTO{Kind: "calendar", Interval: "monthly", Every: 1, Start: "2024-01-01"},
			}},
		},
		{
			Name: "Internet",
			PriceHistory: []PriceEntryDTO{{
				Amount:        schedule.Dec("45"),
				EffectiveDate: "2024-01-03",
				Recurrence:    RecurrenceDTO{Kind: "calendar", Interval: "monthly", Every: 1, Start: "2024-01-03"},
			}},
			Share: &ShareDTO{Mode: "exclude", Exclude: []string{"Bob"}},
		},
	}
	rec := doRequest(t, router, http.MethodPut, "/api/bills", newBills)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: A subsequent GET reflects the replacement
	rec = doRequest(t, router, http.MethodGet, "/api/bills", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	bills := decodeBody[[]BillDTO](t, rec)
	require.Len(t, bills, 2)
	assert.Equal(t, "Rent", bills[0].Name)
	assert.True(t, bills[0].PriceHistory[0].Amount.Equal(schedule.Dec("900")))
	require.NotNil(t, bills[1].Share)
	assert.Equal(t, []string{"Bob"}, bills[1].Share.Exclude)
}

func TestPutBills_RejectsUnknownPayeeAndKeepsTheOldDocument(t *testing.T) {
	// GIVEN: The seeded household
	router, store := newTestAPI(t, testHousehold())

	// WHEN: A bill share names a payee that does not exist
	bad := []BillDTO{{
		Name: "Rent",
		PriceHistory: []PriceEntryDTO{{
			Amount:        schedule.Dec("1000"),
			EffectiveDate: "2024-01-01",
			Recurrence:    RecurrenceDTO{Kind: "calendar", Interval: "monthly", Start: "2024-01-01"},
		}},
		Share: &ShareDTO{Mode: "exclude", Exclude: []string{"Charlie"}},
	}}
	rec := doRequest(t, router, http.MethodPut, "/api/bills", bad)

	// THEN: 400, and the stored document still has the original bill
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, doc.Bills, 1)
	assert.True(t, doc.Bills[0].PriceHistory[0].Amount.Equal(schedule.Dec("1000")))
}

func TestPutOptions_RoundTripAndValidation(t *testing.T) {
	router, _ := newTestAPI(t, testHousehold())

	rec := doRequest(t, router, http.MethodPut, "/api/options", OptionsDTO{
		CutoffDay:               15,
		WeekendAdjustment:       "next_working_day",
		DefaultProjectionMonths: 6,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doRequest(t, router, http.MethodGet, "/api/options", nil)
	opts := decodeBody[OptionsDTO](t, rec)
	assert.Equal(t, 15, opts.CutoffDay)
	assert.Equal(t, "next_working_day", opts.WeekendAdjustment)
	assert.Equal(t, 6, opts.DefaultProjectionMonths)

	// Out-of-range cutoff is rejected
	rec = doRequest(t, router, http.MethodPut, "/api/options", OptionsDTO{
		CutoffDay:               40,
		WeekendAdjustment:       "last_working_day",
		DefaultProjectionMonths: 12,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetPayees_IncludesColors(t *testing.T) {
	router, _ := newTestAPI(t, testHousehold())

	rec := doRequest(t, router, http.MethodGet, "/api/payees", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	payees := decodeBody[[]PayeeDTO](t, rec)
	require.Len(t, payees, 2)
	assert.Regexp(t, `^#[0-9a-f]{6}$`, payees[0].Color)
	assert.NotEqual(t, payees[0].Color, payees[1].Color)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_ListAndLoad(t *testing.T) {
	// GIVEN: An empty store
	router, store := newTestAPI(t, nil)

	rec := doRequest(t, router, http.MethodGet, "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[[]ScenarioDTO](t, rec)
	require.NotEmpty(t, list)

	// WHEN: Loading the first scenario
	rec = doRequest(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ID: list[0].ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// THEN: The store holds a projectable household and /current reports it
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, doc.Bills)
	assert.NotEmpty(t, doc.Payees)

	rec = doRequest(t, router, http.MethodGet, "/api/scenarios/current", nil)
	current := decodeBody[map[string]string](t, rec)
	assert.Equal(t, list[0].ID, current["id"])
}

func TestLoadScenario_UnknownID(t *testing.T) {
	router, _ := newTestAPI(t, nil)

	rec := doRequest(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScenarioHouseholdsProject(t *testing.T) {
	// Every built-in scenario must survive a year-long projection.
	for _, s := range scenarios {
		s := s
		t.Run(s.ID, func(t *testing.T) {
			router, _ := newTestAPI(t, nil)

			rec := doRequest(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ID: s.ID})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

			rec = doRequest(t, router, http.MethodGet, "/api/schedule?start_year=2024&start_month=7&months=12", nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			proj := decodeBody[ProjectionDTO](t, rec)
			assert.NotEmpty(t, proj.Entries)
		})
	}
}

// =============================================================================
// CSV EXPORT
// =============================================================================

func TestExportCSV(t *testing.T) {
	router, _ := newTestAPI(t, testHousehold())

	rec := doRequest(t, router, http.MethodGet, "/api/schedule/export.csv?start_year=2024&start_month=2&months=1", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "contribution_schedule.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.GreaterOrEqual(t, len(lines), 2)
	assert.Equal(t,
		"payee_name,schedule_description,income_amount,required_contribution,contribution_percentage,payment_date,is_before_cutoff",
		strings.TrimSpace(lines[0]))
	assert.Contains(t, rec.Body.String(), "Alice,Salary,3000.00,500.00")
}
