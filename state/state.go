/*
state.go - The household state document and its persistence interface

PURPOSE:
  Defines the interface between the projection engine and whatever holds
  the household configuration. A StateFile is the whole document: bills,
  payees, and schedule options, loaded and replaced as one unit.

DOCUMENT SEMANTICS:
  The state is small (one household) and internally cross-referential
  (bills name payees), so the Store trades in complete documents rather
  than per-record operations. Save replaces everything; Load returns a
  document that has already passed boundary validation.

IMPLEMENTATIONS:
  - state/file.go: YAML file on disk
  - state/memory.go: in-memory for testing
  - store/sqlite: relational mirror of the same document
*/
package state

import (
	"context"

	"github.com/warp/cashflow-engine/schedule"
)

// =============================================================================
// STATE FILE - The complete household document
// =============================================================================

type StateFile struct {
	Bills   []schedule.Bill
	Payees  []schedule.Payee
	Options schedule.ScheduleOptions
}

// Default returns an empty household with default schedule options.
func Default() *StateFile {
	return &StateFile{Options: schedule.DefaultOptions()}
}

// Projector validates the document and builds the engine for it. The
// first validation failure aborts; non-fatal findings are available via
// the projector's Warnings.
func (s *StateFile) Projector() (*schedule.Projector, error) {
	return schedule.NewProjector(s.Bills, s.Payees, s.Options)
}

// Validate runs boundary validation without keeping the projector.
// Returns the non-fatal warnings collected along the way.
func (s *StateFile) Validate() ([]schedule.Warning, error) {
	p, err := s.Projector()
	if err != nil {
		return nil, err
	}
	return p.Warnings(), nil
}

// =============================================================================
// STORE - Whole-document persistence
// =============================================================================

// Store persists the household document. Save replaces the previous
// document completely; partial updates are composed by the caller
// (load, modify, save).
type Store interface {
	// Load returns the current document, or a Default one when nothing
	// has been saved yet. The document is validated before it is
	// returned.
	Load(ctx context.Context) (*StateFile, error)

	// Save validates and replaces the stored document atomically.
	Save(ctx context.Context, s *StateFile) error

	Close() error
}
