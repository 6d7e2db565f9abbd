/*
dto.go - Request/response data structures for the API

PURPOSE:
  JSON wire shapes, kept separate from the engine types so the HTTP
  contract can evolve without touching the core. Money and percentages
  travel as decimal strings (shopspring's default JSON form); dates and
  months as "2006-01-02" and "2006-01".
*/
package api

import (
	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/schedule"
)

// =============================================================================
// PROJECTION RESPONSES
// =============================================================================

type ProjectionDTO struct {
	Start         string            `json:"start"`
	Months        int               `json:"months"`
	Entries       []EntryDTO        `json:"entries"`
	MonthlyTotals []MonthlyTotalDTO `json:"monthly_totals"`
	WeekendShifts []WeekendShiftDTO `json:"weekend_shifts,omitempty"`
	Summaries     []SummaryDTO      `json:"summaries"`
	Warnings      []WarningDTO      `json:"warnings,omitempty"`
	PayeeColors   map[string]string `json:"payee_colors,omitempty"`
}

type EntryDTO struct {
	Month       string          `json:"month"`
	Bill        string          `json:"bill"`
	DueDates    []string        `json:"due_dates"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	PerPayee    []PayeeShareDTO `json:"per_payee"`
}

type PayeeShareDTO struct {
	Payee             string                `json:"payee"`
	ShareAmount       decimal.Decimal       `json:"share_amount"`
	IncomeAllocations []IncomeAllocationDTO `json:"income_allocations,omitempty"`
}

type IncomeAllocationDTO struct {
	Stream string          `json:"stream"`
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

type MonthlyTotalDTO struct {
	Month string          `json:"month"`
	Total decimal.Decimal `json:"total"`
}

type WeekendShiftDTO struct {
	Bill     string          `json:"bill,omitempty"`
	Payee    string          `json:"payee,omitempty"`
	Stream   string          `json:"stream,omitempty"`
	Original string          `json:"original"`
	Adjusted string          `json:"adjusted"`
	Amount   decimal.Decimal `json:"amount"`
}

type SummaryDTO struct {
	Payee      string          `json:"payee"`
	Min        decimal.Decimal `json:"min"`
	Max        decimal.Decimal `json:"max"`
	MinMonths  []string        `json:"min_months"`
	MaxMonths  []string        `json:"max_months"`
	Consistent bool            `json:"consistent"`
}

type WarningDTO struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type FundingMonthDTO struct {
	Date         string `json:"date"`
	CutoffDay    int    `json:"cutoff_day"`
	FundingMonth string `json:"funding_month"`
}

// =============================================================================
// DOCUMENT SECTIONS (bills / payees / options CRUD)
// =============================================================================

type BillDTO struct {
	Name         string          `json:"name"`
	PriceHistory []PriceEntryDTO `json:"price_history"`
	Share        *ShareDTO       `json:"share,omitempty"`
}

type PriceEntryDTO struct {
	Amount        decimal.Decimal `json:"amount"`
	EffectiveDate string          `json:"effective_date"`
	Recurrence    RecurrenceDTO   `json:"recurrence"`
}

type RecurrenceDTO struct {
	Kind     string `json:"kind"`
	Interval string `json:"interval"`
	Every    int    `json:"every"`
	Start    string `json:"start"`
	End      string `json:"end,omitempty"`
}

type ShareDTO struct {
	Mode        string                     `json:"mode"`
	Exclude     []string                   `json:"exclude,omitempty"`
	Percentages map[string]decimal.Decimal `json:"percentages,omitempty"`
}

type PayeeDTO struct {
	Name                   string           `json:"name"`
	DefaultSharePercentage *decimal.Decimal `json:"default_share_percentage,omitempty"`
	StartDate              string           `json:"start_date,omitempty"`
	Color                  string           `json:"color,omitempty"`
	PaySchedules           []PayScheduleDTO `json:"pay_schedules"`
}

type PayScheduleDTO struct {
	Description            string           `json:"description,omitempty"`
	Amount                 decimal.Decimal  `json:"amount"`
	Recurrence             RecurrenceDTO    `json:"recurrence"`
	WeekendAdjustment      string           `json:"weekend_adjustment,omitempty"`
	ContributionPercentage *decimal.Decimal `json:"contribution_percentage,omitempty"`
}

type OptionsDTO struct {
	CutoffDay               int    `json:"cutoff_day"`
	WeekendAdjustment       string `json:"weekend_adjustment"`
	DefaultProjectionMonths int    `json:"default_projection_months"`
}

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// ErrorResponse names what failed. Payee/month/bill are set for
// allocation failures so the UI can point at the offending record.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Payee   string `json:"payee,omitempty"`
	Month   string `json:"month,omitempty"`
	Bill    string `json:"bill,omitempty"`
}

// =============================================================================
// ENGINE <-> DTO CONVERSIONS
// =============================================================================

func toProjectionDTO(proj *schedule.Projection, warnings []schedule.Warning, colors map[string]string) ProjectionDTO {
	dto := ProjectionDTO{
		Start:         proj.Start.String(),
		Months:        proj.Months,
		Entries:       make([]EntryDTO, 0, len(proj.Entries)),
		MonthlyTotals: make([]MonthlyTotalDTO, 0, len(proj.MonthlyTotals)),
		Summaries:     toSummaryDTOs(proj.Summaries),
		PayeeColors:   colors,
	}
	for _, e := range proj.Entries {
		entry := EntryDTO{
			Month:       e.Month.String(),
			Bill:        e.Bill,
			TotalAmount: e.TotalAmount,
		}
		for _, d := range e.DueDates {
			entry.DueDates = append(entry.DueDates, d.String())
		}
		for _, ps := range e.PerPayee {
			share := PayeeShareDTO{Payee: ps.Payee, ShareAmount: ps.ShareAmount}
			for _, a := range ps.IncomeAllocations {
				share.IncomeAllocations = append(share.IncomeAllocations, IncomeAllocationDTO{
					Stream: a.Stream,
					Date:   a.Date.String(),
					Amount: a.Amount,
				})
			}
			entry.PerPayee = append(entry.PerPayee, share)
		}
		dto.Entries = append(dto.Entries, entry)
	}
	for _, mt := range proj.MonthlyTotals {
		dto.MonthlyTotals = append(dto.MonthlyTotals, MonthlyTotalDTO{Month: mt.Month.String(), Total: mt.Total})
	}
	for _, ws := range proj.WeekendShifts {
		dto.WeekendShifts = append(dto.WeekendShifts, WeekendShiftDTO{
			Bill:     ws.Bill,
			Payee:    ws.Payee,
			Stream:   ws.Stream,
			Original: ws.Original.String(),
			Adjusted: ws.Adjusted.String(),
			Amount:   ws.Amount,
		})
	}
	for _, w := range warnings {
		dto.Warnings = append(dto.Warnings, WarningDTO{Code: w.Code, Message: w.Message})
	}
	return dto
}

func toSummaryDTOs(summaries []schedule.PayeeSummary) []SummaryDTO {
	out := make([]SummaryDTO, 0, len(summaries))
	for _, s := range summaries {
		dto := SummaryDTO{
			Payee:      s.Payee,
			Min:        s.Min,
			Max:        s.Max,
			Consistent: s.Consistent,
		}
		for _, m := range s.MinMonths {
			dto.MinMonths = append(dto.MinMonths, m.String())
		}
		for _, m := range s.MaxMonths {
			dto.MaxMonths = append(dto.MaxMonths, m.String())
		}
		out = append(out, dto)
	}
	return out
}

func toBillDTOs(bills []schedule.Bill) []BillDTO {
	out := make([]BillDTO, 0, len(bills))
	for _, b := range bills {
		dto := BillDTO{Name: b.Name}
		for _, e := range b.PriceHistory {
			dto.PriceHistory = append(dto.PriceHistory, PriceEntryDTO{
				Amount:        e.Amount,
				EffectiveDate: e.EffectiveDate.String(),
				Recurrence:    toRecurrenceDTO(e.Recurrence),
			})
		}
		if b.Share.Mode != "" && b.Share.Mode != schedule.ShareEqual {
			dto.Share = &ShareDTO{
				Mode:        string(b.Share.Mode),
				Exclude:     b.Share.Exclude,
				Percentages: b.Share.Percentages,
			}
		}
		out = append(out, dto)
	}
	return out
}

func toRecurrenceDTO(r schedule.Recurrence) RecurrenceDTO {
	dto := RecurrenceDTO{
		Kind:     string(r.Kind),
		Interval: string(r.Interval),
		Every:    r.Every,
		Start:    r.Start.String(),
	}
	if r.End != nil {
		dto.End = r.End.String()
	}
	return dto
}

func toPayeeDTOs(payees []schedule.Payee, colors map[string]string) []PayeeDTO {
	out := make([]PayeeDTO, 0, len(payees))
	for _, p := range payees {
		dto := PayeeDTO{
			Name:                   p.Name,
			DefaultSharePercentage: p.DefaultSharePercentage,
			Color:                  colors[p.Name],
		}
		if p.StartDate != nil {
			dto.StartDate = p.StartDate.String()
		}
		for _, ps := range p.PaySchedules {
			dto.PaySchedules = append(dto.PaySchedules, PayScheduleDTO{
				Description:            ps.Description,
				Amount:                 ps.Amount,
				Recurrence:             toRecurrenceDTO(ps.Recurrence),
				WeekendAdjustment:      string(ps.WeekendAdjustment),
				ContributionPercentage: ps.ContributionPercentage,
			})
		}
		out = append(out, dto)
	}
	return out
}

func (dto BillDTO) toBill() (schedule.Bill, error) {
	var history []schedule.PriceHistoryEntry
	for _, e := range dto.PriceHistory {
		effective, err := schedule.ParseDate(e.EffectiveDate)
		if err != nil {
			return schedule.Bill{}, &schedule.ValidationError{
				Field: "bill[" + dto.Name + "].effective_date", Reason: err.Error(),
			}
		}
		rec, err := e.Recurrence.toRecurrence()
		if err != nil {
			return schedule.Bill{}, err
		}
		history = append(history, schedule.PriceHistoryEntry{
			Amount:        e.Amount,
			EffectiveDate: effective,
			Recurrence:    rec,
		})
	}
	share := schedule.EqualSplit()
	if dto.Share != nil {
		share = schedule.ShareConfig{
			Mode:        schedule.ShareMode(dto.Share.Mode),
			Exclude:     dto.Share.Exclude,
			Percentages: dto.Share.Percentages,
		}
	}
	return schedule.NewBill(dto.Name, history, share), nil
}

func (dto RecurrenceDTO) toRecurrence() (schedule.Recurrence, error) {
	r := schedule.Recurrence{
		Kind:     schedule.RecurrenceKind(dto.Kind),
		Interval: schedule.Interval(dto.Interval),
		Every:    dto.Every,
	}
	if r.Every == 0 {
		r.Every = 1
	}
	start, err := schedule.ParseDate(dto.Start)
	if err != nil {
		return r, &schedule.RecurrenceError{Reason: "bad start date: " + err.Error()}
	}
	r.Start = start
	if dto.End != "" {
		end, err := schedule.ParseDate(dto.End)
		if err != nil {
			return r, &schedule.RecurrenceError{Reason: "bad end date: " + err.Error()}
		}
		r.End = &end
	}
	return r, nil
}

func (dto PayeeDTO) toPayee() (schedule.Payee, error) {
	p := schedule.Payee{Name: dto.Name, DefaultSharePercentage: dto.DefaultSharePercentage}
	if dto.StartDate != "" {
		start, err := schedule.ParseDate(dto.StartDate)
		if err != nil {
			return p, &schedule.ValidationError{
				Field: "payee[" + dto.Name + "].start_date", Reason: err.Error(),
			}
		}
		p.StartDate = &start
	}
	for _, sd := range dto.PaySchedules {
		rec, err := sd.Recurrence.toRecurrence()
		if err != nil {
			return p, err
		}
		p.PaySchedules = append(p.PaySchedules, schedule.PaySchedule{
			Description:            sd.Description,
			Amount:                 sd.Amount,
			Recurrence:             rec,
			WeekendAdjustment:      schedule.WeekendAdjustment(sd.WeekendAdjustment),
			ContributionPercentage: sd.ContributionPercentage,
		})
	}
	return p, nil
}

func toOptionsDTO(opts schedule.ScheduleOptions) OptionsDTO {
	return OptionsDTO{
		CutoffDay:               opts.CutoffDay,
		WeekendAdjustment:       string(opts.WeekendAdjustment),
		DefaultProjectionMonths: opts.DefaultProjectionMonths,
	}
}

func (dto OptionsDTO) toOptions() schedule.ScheduleOptions {
	return schedule.ScheduleOptions{
		CutoffDay:               dto.CutoffDay,
		WeekendAdjustment:       schedule.WeekendAdjustment(dto.WeekendAdjustment),
		DefaultProjectionMonths: dto.DefaultProjectionMonths,
	}
}

func toBills(dtos []BillDTO) ([]schedule.Bill, error) {
	var bills []schedule.Bill
	for _, bd := range dtos {
		b, err := bd.toBill()
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	return bills, nil
}

func toPayees(dtos []PayeeDTO) ([]schedule.Payee, error) {
	var payees []schedule.Payee
	for _, pd := range dtos {
		p, err := pd.toPayee()
		if err != nil {
			return nil, err
		}
		payees = append(payees, p)
	}
	return payees, nil
}
