package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/schedule"
	"github.com/warp/cashflow-engine/state"
	"github.com/warp/cashflow-engine/store/sqlite"
)

const householdYAML = `
bills:
  - name: Rent
    price_history:
      - amount: 1200
        recurrence: {kind: calendar, interval: monthly, start: 2024-01-01}
      - amount: 1350
        start_date: 2024-07-01
        recurrence: {kind: calendar, interval: monthly, start: 2024-01-01}
  - name: Electric
    price_history:
      - amount: 90.50
        recurrence: {kind: calendar, interval: monthly, start: 2024-02-10}
    share:
      exclude: [Bob]
      custom: {Alice: 100}
payees:
  - name: Alice
    default_share_percentage: 30
    pay_schedules:
      - description: Salary
        amount: 3000
        recurrence: {kind: calendar, interval: monthly, start: 2024-01-25}
  - name: Bob
    start_date: 2024-06-01
    pay_schedules:
      - description: Salary
        amount: 2000
        contribution_percentage: 25
        weekend_adjustment: next_working_day
        recurrence: {kind: interval, interval: weekly, every: 2, start: 2024-01-05, end: 2025-01-05}
schedule_options:
  cutoff_day: 22
  weekend_adjustment: last_working_day
  default_projection_months: 12
`

func memoryStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func household(t *testing.T) *state.StateFile {
	t.Helper()
	doc, err := state.Decode([]byte(householdYAML))
	require.NoError(t, err)
	return doc
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memoryStore(t)

	require.NoError(t, store.Save(ctx, household(t)))

	doc, err := store.Load(ctx)
	require.NoError(t, err)

	require.Len(t, doc.Bills, 2)
	require.Len(t, doc.Payees, 2)
	assert.Equal(t, 22, doc.Options.CutoffDay)
	assert.Equal(t, schedule.AdjustLastWorkingDay, doc.Options.WeekendAdjustment)

	rent := doc.Bills[0]
	assert.Equal(t, "Rent", rent.Name)
	require.Len(t, rent.PriceHistory, 2)
	assert.True(t, rent.PriceHistory[0].Amount.Equal(schedule.Dec("1200")))
	assert.Equal(t, schedule.MustDate("2024-07-01"), rent.PriceHistory[1].EffectiveDate)

	electric := doc.Bills[1]
	assert.Equal(t, schedule.ShareCustom, electric.Share.Mode)
	assert.Equal(t, []string{"Bob"}, electric.Share.Exclude)
	assert.True(t, electric.Share.Percentages["Alice"].Equal(schedule.Dec("100")))
	assert.True(t, electric.PriceHistory[0].Amount.Equal(schedule.Dec("90.50")))

	alice := doc.Payees[0]
	require.NotNil(t, alice.DefaultSharePercentage)
	assert.True(t, alice.DefaultSharePercentage.Equal(schedule.Dec("30")))

	bob := doc.Payees[1]
	require.NotNil(t, bob.StartDate)
	assert.Equal(t, schedule.MustDate("2024-06-01"), *bob.StartDate)
	sched := bob.PaySchedules[0]
	require.NotNil(t, sched.ContributionPercentage)
	assert.Equal(t, schedule.AdjustNextWorkingDay, sched.WeekendAdjustment)
	assert.Equal(t, 2, sched.Recurrence.Every)
	require.NotNil(t, sched.Recurrence.End)
	assert.Equal(t, schedule.MustDate("2025-01-05"), *sched.Recurrence.End)
}

func TestStore_EmptyDatabaseIsDefaultHousehold(t *testing.T) {
	doc, err := memoryStore(t).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, doc.Bills)
	assert.Empty(t, doc.Payees)
	assert.Equal(t, schedule.DefaultOptions(), doc.Options)
}

func TestStore_SaveReplacesTheWholeDocument(t *testing.T) {
	ctx := context.Background()
	store := memoryStore(t)
	require.NoError(t, store.Save(ctx, household(t)))

	smaller := household(t)
	smaller.Bills = smaller.Bills[:1]
	smaller.Bills[0].Share = schedule.EqualSplit()
	require.NoError(t, store.Save(ctx, smaller))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, doc.Bills, 1)
	assert.Equal(t, "Rent", doc.Bills[0].Name)
	require.Len(t, doc.Payees, 2)
}

func TestStore_SaveRejectsInvalidDocument(t *testing.T) {
	ctx := context.Background()
	store := memoryStore(t)
	require.NoError(t, store.Save(ctx, household(t)))

	bad := household(t)
	bad.Options.CutoffDay = 40
	err := store.Save(ctx, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, schedule.ErrRange)

	// The previous document survives.
	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 22, doc.Options.CutoffDay)
}

func TestStore_LoadedDocumentProjects(t *testing.T) {
	ctx := context.Background()
	store := memoryStore(t)
	require.NoError(t, store.Save(ctx, household(t)))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	p, err := doc.Projector()
	require.NoError(t, err)

	proj, err := p.Project(schedule.NewMonth(2024, 3), 2)
	require.NoError(t, err)
	assert.NotEmpty(t, proj.Entries)
}