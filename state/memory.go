/*
memory.go - In-memory Store (for testing/dev)
*/
package state

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/warp/cashflow-engine/schedule"
)

type Memory struct {
	mu  sync.RWMutex
	doc *StateFile
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(_ context.Context) (*StateFile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.doc == nil {
		return Default(), nil
	}
	return m.doc.Clone(), nil
}

func (m *Memory) Save(_ context.Context, s *StateFile) error {
	if _, err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = s.Clone()
	return nil
}

func (m *Memory) Close() error { return nil }

// Clone deep-copies the document so callers can mutate their copy
// without racing the store.
func (s *StateFile) Clone() *StateFile {
	out := &StateFile{Options: s.Options}
	for _, b := range s.Bills {
		out.Bills = append(out.Bills, cloneBill(b))
	}
	for _, p := range s.Payees {
		out.Payees = append(out.Payees, clonePayee(p))
	}
	return out
}

func cloneBill(b schedule.Bill) schedule.Bill {
	history := make([]schedule.PriceHistoryEntry, len(b.PriceHistory))
	for i, e := range b.PriceHistory {
		history[i] = e
		if e.Recurrence.End != nil {
			end := *e.Recurrence.End
			history[i].Recurrence.End = &end
		}
	}
	share := b.Share
	share.Exclude = append([]string(nil), b.Share.Exclude...)
	if b.Share.Percentages != nil {
		share.Percentages = make(map[string]decimal.Decimal, len(b.Share.Percentages))
		for name, pct := range b.Share.Percentages {
			share.Percentages[name] = pct
		}
	}
	return schedule.Bill{Name: b.Name, PriceHistory: history, Share: share}
}

func clonePayee(p schedule.Payee) schedule.Payee {
	out := schedule.Payee{Name: p.Name}
	if p.DefaultSharePercentage != nil {
		pct := *p.DefaultSharePercentage
		out.DefaultSharePercentage = &pct
	}
	if p.StartDate != nil {
		start := *p.StartDate
		out.StartDate = &start
	}
	for _, ps := range p.PaySchedules {
		cp := ps
		if ps.ContributionPercentage != nil {
			pct := *ps.ContributionPercentage
			cp.ContributionPercentage = &pct
		}
		if ps.Recurrence.End != nil {
			end := *ps.Recurrence.End
			cp.Recurrence.End = &end
		}
		out.PaySchedules = append(out.PaySchedules, cp)
	}
	return out
}
