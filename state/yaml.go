/*
yaml.go - YAML codec for the household document

PURPOSE:
  Maps the on-disk YAML shape to the engine's types and back. The file
  layout is the stable contract with hand-edited state files:

    bills:
      - name: Rent
        price_history:
          - amount: 1200
            start_date: 2024-01-01
            recurrence: {kind: calendar, interval: monthly, every: 1,
                         start: 2024-01-01}
        share:
          exclude: [Bob]
          custom: {Alice: 50}
    payees:
      - name: Alice
        default_share_percentage: 30
        start_date: 2024-06-01
        pay_schedules:
          - description: Salary
            amount: 3000
            weekend_adjustment: last_working_day
            recurrence: {kind: calendar, interval: monthly, every: 1,
                         start: 2024-01-25}
    schedule_options:
      cutoff_day: 22
      weekend_adjustment: last_working_day
      default_projection_months: 12

FORGIVING READS, CANONICAL WRITES:
  Hand-written files get defaults filled in (every: 1, monthly interval
  for calendar recurrences, last_working_day for pay schedules, missing
  start_date taken from the recurrence start). A share may also be a
  bare sequence of {payee, percentage} pairs, read as an explicit split.
  Encode always emits the canonical mapping shape.

  Amounts and percentages travel as plain YAML scalars but are parsed
  through decimal strings, never through float64.
*/
package state

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/warp/cashflow-engine/schedule"
)

// =============================================================================
// SCALAR WRAPPERS - decimal / date round-tripping
// =============================================================================

// amount is a decimal that round-trips as a plain YAML scalar, parsed
// from the raw scalar text so 19.99 stays 19.99.
type amount struct{ decimal.Decimal }

func (a *amount) UnmarshalYAML(value *yaml.Node) error {
	d, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid number %q", value.Line, value.Value)
	}
	a.Decimal = d
	return nil
}

func (a amount) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: a.Decimal.String()}, nil
}

// day is a date that round-trips as 2006-01-02.
type day struct{ schedule.Date }

func (d *day) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := schedule.ParseDate(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	d.Date = parsed
	return nil
}

func (d day) MarshalYAML() (any, error) {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: d.Date.String()}, nil
}

// =============================================================================
// DOCUMENT SHAPE
// =============================================================================

type document struct {
	Bills   []billDoc   `yaml:"bills,omitempty"`
	Payees  []payeeDoc  `yaml:"payees,omitempty"`
	Options *optionsDoc `yaml:"schedule_options,omitempty"`
}

type optionsDoc struct {
	CutoffDay               int    `yaml:"cutoff_day"`
	WeekendAdjustment       string `yaml:"weekend_adjustment"`
	DefaultProjectionMonths int    `yaml:"default_projection_months"`
}

type billDoc struct {
	Name         string     `yaml:"name"`
	PriceHistory []priceDoc `yaml:"price_history"`
	Share        *shareDoc  `yaml:"share,omitempty"`
}

type priceDoc struct {
	Amount     amount        `yaml:"amount"`
	StartDate  *day          `yaml:"start_date,omitempty"`
	Recurrence recurrenceDoc `yaml:"recurrence"`
}

type recurrenceDoc struct {
	Kind     string `yaml:"kind"`
	Interval string `yaml:"interval,omitempty"`
	Every    int    `yaml:"every,omitempty"`
	Start    *day   `yaml:"start"`
	End      *day   `yaml:"end,omitempty"`
}

type payeeDoc struct {
	Name                   string           `yaml:"name"`
	DefaultSharePercentage *amount          `yaml:"default_share_percentage,omitempty"`
	StartDate              *day             `yaml:"start_date,omitempty"`
	PaySchedules           []payScheduleDoc `yaml:"pay_schedules,omitempty"`
}

type payScheduleDoc struct {
	Description            string        `yaml:"description,omitempty"`
	Amount                 amount        `yaml:"amount"`
	Recurrence             recurrenceDoc `yaml:"recurrence"`
	WeekendAdjustment      string        `yaml:"weekend_adjustment,omitempty"`
	ContributionPercentage *amount       `yaml:"contribution_percentage,omitempty"`
}

// shareDoc reads either the mapping shape {exclude, custom} or a bare
// sequence of {payee, percentage} pairs (an explicit split).
type shareDoc struct {
	Exclude  []string
	Custom   map[string]amount
	Explicit []explicitEntry
}

type explicitEntry struct {
	Payee      string `yaml:"payee"`
	Percentage amount `yaml:"percentage"`
}

func (s *shareDoc) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.MappingNode:
		var m struct {
			Exclude []string          `yaml:"exclude"`
			Custom  map[string]amount `yaml:"custom"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		s.Exclude, s.Custom = m.Exclude, m.Custom
		return nil
	case yaml.SequenceNode:
		return value.Decode(&s.Explicit)
	default:
		return fmt.Errorf("line %d: share must be a mapping or a payee/percentage list", value.Line)
	}
}

func (s shareDoc) MarshalYAML() (any, error) {
	if len(s.Explicit) > 0 {
		return s.Explicit, nil
	}
	out := struct {
		Exclude []string          `yaml:"exclude,omitempty"`
		Custom  map[string]amount `yaml:"custom,omitempty"`
	}{Exclude: s.Exclude, Custom: s.Custom}
	return out, nil
}

// =============================================================================
// DECODE
// =============================================================================

// Decode parses and validates a YAML household document. The first
// validation failure aborts with the offending field named; non-fatal
// findings surface later via StateFile.Validate or Projector.Warnings.
func Decode(data []byte) (*StateFile, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}

	s := Default()
	if doc.Options != nil {
		s.Options = schedule.ScheduleOptions{
			CutoffDay:               doc.Options.CutoffDay,
			WeekendAdjustment:       schedule.WeekendAdjustment(doc.Options.WeekendAdjustment),
			DefaultProjectionMonths: doc.Options.DefaultProjectionMonths,
		}
	}

	for _, bd := range doc.Bills {
		b, err := bd.toBill()
		if err != nil {
			return nil, err
		}
		s.Bills = append(s.Bills, b)
	}
	for _, pd := range doc.Payees {
		s.Payees = append(s.Payees, pd.toPayee())
	}

	if _, err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (bd billDoc) toBill() (schedule.Bill, error) {
	var history []schedule.PriceHistoryEntry
	for i, pd := range bd.PriceHistory {
		effective := pd.StartDate
		if effective == nil && pd.Recurrence.Start != nil {
			effective = pd.Recurrence.Start
		}
		if effective == nil {
			return schedule.Bill{}, &schedule.ValidationError{
				Field:  fmt.Sprintf("bill[%s].price_history[%d].start_date", bd.Name, i),
				Reason: "is required (or set start in the recurrence)",
			}
		}
		history = append(history, schedule.PriceHistoryEntry{
			Amount:        pd.Amount.Decimal,
			EffectiveDate: effective.Date,
			Recurrence:    pd.Recurrence.toRecurrence(),
		})
	}
	return schedule.NewBill(bd.Name, history, bd.Share.toShare()), nil
}

func (rd recurrenceDoc) toRecurrence() schedule.Recurrence {
	r := schedule.Recurrence{
		Kind:     schedule.RecurrenceKind(rd.Kind),
		Interval: schedule.Interval(rd.Interval),
		Every:    rd.Every,
	}
	// Hand-written shorthand: calendar recurrences default to monthly,
	// an omitted every means 1.
	if r.Kind == schedule.RecurrenceCalendar && r.Interval == "" {
		r.Interval = schedule.IntervalMonthly
	}
	if r.Every == 0 {
		r.Every = 1
	}
	if rd.Start != nil {
		r.Start = rd.Start.Date
	}
	if rd.End != nil {
		end := rd.End.Date
		r.End = &end
	}
	return r
}

func (sd *shareDoc) toShare() schedule.ShareConfig {
	if sd == nil {
		return schedule.EqualSplit()
	}
	if len(sd.Explicit) > 0 {
		pcts := make(map[string]decimal.Decimal, len(sd.Explicit))
		for _, e := range sd.Explicit {
			pcts[e.Payee] = e.Percentage.Decimal
		}
		return schedule.ExplicitSplit(pcts)
	}
	if len(sd.Custom) > 0 {
		pcts := make(map[string]decimal.Decimal, len(sd.Custom))
		for name, pct := range sd.Custom {
			pcts[name] = pct.Decimal
		}
		return schedule.CustomSplit(pcts, sd.Exclude...)
	}
	if len(sd.Exclude) > 0 {
		return schedule.ExcludeSplit(sd.Exclude...)
	}
	return schedule.EqualSplit()
}

func (pd payeeDoc) toPayee() schedule.Payee {
	p := schedule.Payee{Name: pd.Name}
	if pd.DefaultSharePercentage != nil {
		pct := pd.DefaultSharePercentage.Decimal
		p.DefaultSharePercentage = &pct
	}
	if pd.StartDate != nil {
		start := pd.StartDate.Date
		p.StartDate = &start
	}
	for _, sd := range pd.PaySchedules {
		adj := schedule.WeekendAdjustment(sd.WeekendAdjustment)
		if sd.WeekendAdjustment == "" {
			// Income dates shift off weekends unless the file says
			// otherwise; salaries are normally paid on working days.
			adj = schedule.AdjustLastWorkingDay
		}
		ps := schedule.PaySchedule{
			Description:       sd.Description,
			Amount:            sd.Amount.Decimal,
			Recurrence:        sd.Recurrence.toRecurrence(),
			WeekendAdjustment: adj,
		}
		if sd.ContributionPercentage != nil {
			pct := sd.ContributionPercentage.Decimal
			ps.ContributionPercentage = &pct
		}
		p.PaySchedules = append(p.PaySchedules, ps)
	}
	return p
}

// =============================================================================
// ENCODE
// =============================================================================

// Encode renders the document in the canonical YAML shape. The input is
// not validated; pair with StateFile.Validate when the source is
// untrusted.
func Encode(s *StateFile) ([]byte, error) {
	doc := document{
		Options: &optionsDoc{
			CutoffDay:               s.Options.CutoffDay,
			WeekendAdjustment:       string(s.Options.WeekendAdjustment),
			DefaultProjectionMonths: s.Options.DefaultProjectionMonths,
		},
	}
	for _, b := range s.Bills {
		doc.Bills = append(doc.Bills, fromBill(b))
	}
	for _, p := range s.Payees {
		doc.Payees = append(doc.Payees, fromPayee(p))
	}
	return yaml.Marshal(doc)
}

func fromBill(b schedule.Bill) billDoc {
	bd := billDoc{Name: b.Name}
	for _, e := range b.PriceHistory {
		effective := day{e.EffectiveDate}
		bd.PriceHistory = append(bd.PriceHistory, priceDoc{
			Amount:     amount{e.Amount},
			StartDate:  &effective,
			Recurrence: fromRecurrence(e.Recurrence),
		})
	}
	if sd := fromShare(b.Share); sd != nil {
		bd.Share = sd
	}
	return bd
}

func fromRecurrence(r schedule.Recurrence) recurrenceDoc {
	start := day{r.Start}
	rd := recurrenceDoc{
		Kind:     string(r.Kind),
		Interval: string(r.Interval),
		Every:    r.Every,
		Start:    &start,
	}
	if r.End != nil {
		end := day{*r.End}
		rd.End = &end
	}
	return rd
}

func fromShare(s schedule.ShareConfig) *shareDoc {
	switch s.Mode {
	case schedule.ShareExplicit:
		sd := &shareDoc{}
		for _, name := range sortedShareNames(s.Percentages) {
			sd.Explicit = append(sd.Explicit, explicitEntry{
				Payee:      name,
				Percentage: amount{s.Percentages[name]},
			})
		}
		return sd
	case schedule.ShareExclude, schedule.ShareCustom:
		sd := &shareDoc{Exclude: s.Exclude}
		if len(s.Percentages) > 0 {
			sd.Custom = make(map[string]amount, len(s.Percentages))
			for name, pct := range s.Percentages {
				sd.Custom[name] = amount{pct}
			}
		}
		return sd
	default:
		// Equal split is the absent-share default; emit nothing.
		return nil
	}
}

func sortedShareNames(m map[string]decimal.Decimal) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fromPayee(p schedule.Payee) payeeDoc {
	pd := payeeDoc{Name: p.Name}
	if p.DefaultSharePercentage != nil {
		pd.DefaultSharePercentage = &amount{*p.DefaultSharePercentage}
	}
	if p.StartDate != nil {
		pd.StartDate = &day{*p.StartDate}
	}
	for _, ps := range p.PaySchedules {
		sd := payScheduleDoc{
			Description:       ps.Description,
			Amount:            amount{ps.Amount},
			Recurrence:        fromRecurrence(ps.Recurrence),
			WeekendAdjustment: string(ps.WeekendAdjustment),
		}
		if ps.ContributionPercentage != nil {
			sd.ContributionPercentage = &amount{*ps.ContributionPercentage}
		}
		pd.PaySchedules = append(pd.PaySchedules, sd)
	}
	return pd
}
