/*
cache_test.go - Cache lifecycle: TTL, fallback degrade, invalidation

Internal package so the tests can swap the cache's clock.
*/
package tax

import (
	"context"
	"errors"
	"testing"
	"time"
)

// countingSource records load calls and serves a canned result.
type countingSource struct {
	calls int
	err   error
}

func (s *countingSource) LoadTables(_ context.Context, year Year) (*TableSet, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &TableSet{
		Year:         year,
		Coefficients: []Coefficient{{Year: year, Scale: ScaleTaxFree, A: d("0.20")}},
		Config:       RateConfig{Year: year},
	}, nil
}

func TestCache_ServesCachedWithinTTL(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Hour)

	clock := time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }

	ctx := context.Background()
	if _, err := c.Tables(ctx, "2024-25"); err != nil {
		t.Fatalf("first load: %v", err)
	}
	clock = clock.Add(30 * time.Minute)
	if _, err := c.Tables(ctx, "2024-25"); err != nil {
		t.Fatalf("cached load: %v", err)
	}
	if src.calls != 1 {
		t.Errorf("source hit %d times inside the TTL, want 1", src.calls)
	}

	clock = clock.Add(31 * time.Minute)
	if _, err := c.Tables(ctx, "2024-25"); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if src.calls != 2 {
		t.Errorf("source hit %d times after expiry, want 2", src.calls)
	}
}

func TestCache_LiveLoadTaggedLive(t *testing.T) {
	c := NewCache(&countingSource{}, time.Hour)
	ts, err := c.Tables(context.Background(), "2024-25")
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if ts.Source != SourceLive {
		t.Errorf("source %s, want live", ts.Source)
	}
}

func TestCache_SourceFailureDegradesToFallback(t *testing.T) {
	src := &countingSource{err: errors.New("database is locked")}
	c := NewCache(src, time.Hour)

	ts, err := c.Tables(context.Background(), year2024_25)
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if ts.Source != SourceFallback {
		t.Errorf("source %s, want fallback after load failure", ts.Source)
	}
	if len(ts.Coefficients) == 0 || len(ts.Stsl) == 0 {
		t.Error("fallback tables are empty")
	}
}

func TestCache_SourceFailureUnknownYearCarriesCause(t *testing.T) {
	loadErr := errors.New("database is locked")
	c := NewCache(&countingSource{err: loadErr}, time.Hour)

	_, err := c.Tables(context.Background(), "1999-00")
	if !IsUnknownYear(err) {
		t.Fatalf("got %v, want unknown-year failure", err)
	}
}

func TestCache_ReachableSourceWithoutYearIsHardFailure(t *testing.T) {
	// The year exists in the fallback tables, but a reachable source that
	// does not hold it must not be silently papered over.
	c := NewCache(&countingSource{err: ErrYearNotFound}, time.Hour)

	_, err := c.Tables(context.Background(), year2024_25)
	if !IsUnknownYear(err) {
		t.Fatalf("got %v, want unknown-year failure", err)
	}
}

func TestCache_NilSourceServesFallback(t *testing.T) {
	c := NewCache(nil, 0)

	ts, err := c.Tables(context.Background(), year2024_25)
	if err != nil {
		t.Fatalf("Tables: %v", err)
	}
	if ts.Source != SourceFallback {
		t.Errorf("source %s, want fallback", ts.Source)
	}

	if _, err := c.Tables(context.Background(), "2030-31"); !IsUnknownYear(err) {
		t.Errorf("unknown year got %v, want unknown-year failure", err)
	}
}

func TestCache_InvalidateForcesReload(t *testing.T) {
	src := &countingSource{}
	c := NewCache(src, time.Hour)
	ctx := context.Background()

	c.Tables(ctx, "2024-25")
	c.Invalidate("2024-25")
	c.Tables(ctx, "2024-25")
	if src.calls != 2 {
		t.Errorf("source hit %d times after Invalidate, want 2", src.calls)
	}

	c.Clear()
	c.Tables(ctx, "2024-25")
	if src.calls != 3 {
		t.Errorf("source hit %d times after Clear, want 3", src.calls)
	}
}
