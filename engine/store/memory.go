// Package store provides in-memory implementations of the engine's
// persistence interfaces, used by tests and local development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/pay-engine/engine"
)

// =============================================================================
// MEMORY STORE - implements engine.ShiftStore and engine.GuideStore
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	guides   map[engine.GuideID]*engine.PayGuide
	shifts   map[engine.ShiftID]*engine.Shift
	segments map[engine.ShiftID][]engine.Segment
}

func NewMemory() *Memory {
	return &Memory{
		guides:   make(map[engine.GuideID]*engine.PayGuide),
		shifts:   make(map[engine.ShiftID]*engine.Shift),
		segments: make(map[engine.ShiftID][]engine.Segment),
	}
}

// PutGuide stores or replaces a guide.
func (m *Memory) PutGuide(g *engine.PayGuide) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *g
	m.guides[g.ID] = &copied
}

// PutShift stores or replaces a shift.
func (m *Memory) PutShift(s *engine.Shift) {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *s
	copied.Breaks = append([]engine.BreakPeriod(nil), s.Breaks...)
	m.shifts[s.ID] = &copied
}

// DeleteShift removes a shift and its segments.
func (m *Memory) DeleteShift(id engine.ShiftID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.shifts, id)
	delete(m.segments, id)
}

// Segments returns the stored segment rows for a shift.
func (m *Memory) Segments(id engine.ShiftID) []engine.Segment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]engine.Segment(nil), m.segments[id]...)
}

func (m *Memory) GetGuide(_ context.Context, id engine.GuideID) (*engine.PayGuide, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.guides[id]
	if !ok {
		return nil, engine.ErrGuideNotFound
	}
	copied := *g
	return &copied, nil
}

func (m *Memory) GetShift(_ context.Context, id engine.ShiftID) (*engine.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.shifts[id]
	if !ok {
		return nil, engine.ErrShiftNotFound
	}
	copied := *s
	copied.Breaks = append([]engine.BreakPeriod(nil), s.Breaks...)
	return &copied, nil
}

func (m *Memory) ShiftsInRange(_ context.Context, from, to time.Time) ([]engine.Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []engine.Shift
	for _, s := range m.shifts {
		if !s.Start.Before(from) && s.Start.Before(to) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func (m *Memory) ReplaceSegments(_ context.Context, id engine.ShiftID, segments []engine.Segment, totals engine.ShiftTotals) (engine.ReplaceOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shifts[id]
	if !ok {
		return engine.ParentGone, nil
	}
	m.segments[id] = append([]engine.Segment(nil), segments...)
	s.BasePay = totals.BasePay
	s.PenaltyPay = totals.PenaltyPay
	s.OvertimePay = totals.OvertimePay
	s.TotalPay = totals.TotalPay
	s.TotalHours = totals.TotalHours
	return engine.Replaced, nil
}
