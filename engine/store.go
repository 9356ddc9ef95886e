/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines the boundary between the calculation core and the persistence
  layer. The engine accepts and returns plain domain value objects; mapping
  from database rows happens once, inside the store implementation, never
  in the engine.

SEGMENT REPLACEMENT CONTRACT:
  ReplaceSegments is a single "replace children of parent" operation:
  delete existing segment rows, write the new ones, and update the shift's
  aggregate fields in one atomic transaction. It returns an explicit
  outcome instead of surfacing a generic not-found error:

    Replaced   the shift was updated
    ParentGone the shift no longer existed at write time (concurrent
               deletion); callers treat this as a benign no-op

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - engine/store: in-memory store for tests and dev
*/
package engine

import (
	"context"
	"time"
)

// ReplaceOutcome is the result of a ReplaceSegments call.
type ReplaceOutcome int

const (
	// Replaced: segments and aggregates were written.
	Replaced ReplaceOutcome = iota

	// ParentGone: the owning shift no longer exists; nothing was written.
	ParentGone
)

// ShiftStore is the shift-side persistence the engine depends on.
type ShiftStore interface {
	// GetShift returns the shift with its break periods.
	// Returns ErrShiftNotFound when absent.
	GetShift(ctx context.Context, id ShiftID) (*Shift, error)

	// ShiftsInRange returns shifts whose start falls in [from, to),
	// ordered by start. Break periods are not loaded.
	ShiftsInRange(ctx context.Context, from, to time.Time) ([]Shift, error)

	// ReplaceSegments atomically swaps the shift's segment rows and
	// aggregate fields. Never partial: a crash or concurrent deletion can
	// not leave stale or mixed segments behind.
	ReplaceSegments(ctx context.Context, id ShiftID, segments []Segment, totals ShiftTotals) (ReplaceOutcome, error)
}

// GuideStore resolves pay guides.
type GuideStore interface {
	// GetGuide returns the guide with its frames and holidays.
	// Returns ErrGuideNotFound when absent.
	GetGuide(ctx context.Context, id GuideID) (*PayGuide, error)
}
