/*
Package factory provides JSON to pay guide conversion.

PURPOSE:
  Converts JSON guide definitions into engine.PayGuide values. This keeps
  rates and rules configurable without code changes: guides are stored as
  JSON in the database and edited through the API.

JSON SCHEMA:
  {
    "id": "retail-casual",
    "name": "Retail Casual",
    "base_rate": "26.55",
    "casual_loading": "0.25",
    "timezone": "Australia/Sydney",
    "ordinary_spans": {"1": {"start": "09:00", "end": "18:00"}},
    "daily_overtime_after": "9",
    "weekly_overtime_after": "38",
    "combination": "exclusive",
    "penalty_frames": [
      {"name": "Saturday", "multiplier": "1.5", "day": 6},
      {"name": "Evening", "multiplier": "1.5"},
      {"name": "Public Holiday", "multiplier": "2.5", "public_holiday": true}
    ],
    "overtime_frames": [
      {"name": "Overtime", "first_multiplier": "1.75",
       "second_multiplier": "2.25", "first_block_hours": "2"}
    ],
    "public_holidays": [{"name": "Christmas Day", "date": "2025-12-25"}]
  }

VALIDATION:
  Every HH:MM string goes through engine.ParseTimeOfDay - the single
  time-of-day parser. Rates and multipliers are decimal strings so no
  binary floating point enters the guide.

SEE ALSO:
  - engine/types.go:    PayGuide and frame definitions
  - store/sqlite:       Stores guides as this JSON
*/
package factory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/pay-engine/engine"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// GuideJSON is the JSON representation of a pay guide.
type GuideJSON struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	BaseRate      string              `json:"base_rate"`
	CasualLoading string              `json:"casual_loading,omitempty"`
	Timezone      string              `json:"timezone,omitempty"`
	OrdinarySpans map[string]SpanJSON `json:"ordinary_spans,omitempty"`

	DailyOvertimeAfter  string `json:"daily_overtime_after,omitempty"`
	WeeklyOvertimeAfter string `json:"weekly_overtime_after,omitempty"`

	// Combination is "exclusive" (default) or "additive".
	Combination string `json:"combination,omitempty"`

	PenaltyFrames  []PenaltyFrameJSON  `json:"penalty_frames,omitempty"`
	OvertimeFrames []OvertimeFrameJSON `json:"overtime_frames,omitempty"`
	PublicHolidays []HolidayJSON       `json:"public_holidays,omitempty"`

	Inactive bool `json:"inactive,omitempty"`
}

// SpanJSON is an ordinary-hours window for one weekday.
type SpanJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// PenaltyFrameJSON is one penalty rule. Day is 0=Sunday..6=Saturday.
type PenaltyFrameJSON struct {
	ID            string `json:"id,omitempty"`
	Name          string `json:"name"`
	Multiplier    string `json:"multiplier"`
	Day           *int   `json:"day,omitempty"`
	Start         string `json:"start,omitempty"`
	End           string `json:"end,omitempty"`
	PublicHoliday bool   `json:"public_holiday,omitempty"`
	Inactive      bool   `json:"inactive,omitempty"`
}

// OvertimeFrameJSON is one overtime rule.
type OvertimeFrameJSON struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name"`
	FirstMultiplier  string `json:"first_multiplier"`
	SecondMultiplier string `json:"second_multiplier,omitempty"`
	FirstBlockHours  string `json:"first_block_hours,omitempty"`
	Day              *int   `json:"day,omitempty"`
	Start            string `json:"start,omitempty"`
	End              string `json:"end,omitempty"`
	PublicHoliday    bool   `json:"public_holiday,omitempty"`
}

// HolidayJSON is a YYYY-MM-DD public holiday date.
type HolidayJSON struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseGuide converts a JSON document into a PayGuide.
func ParseGuide(data []byte) (*engine.PayGuide, error) {
	var j GuideJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("invalid guide JSON: %w", err)
	}
	return FromJSON(&j)
}

// FromJSON converts a decoded GuideJSON into a PayGuide.
func FromJSON(j *GuideJSON) (*engine.PayGuide, error) {
	if j.Name == "" {
		return nil, fmt.Errorf("guide name is required")
	}
	baseRate, err := parseDecimal(j.BaseRate, "base_rate", true)
	if err != nil {
		return nil, err
	}
	loading, err := parseDecimal(j.CasualLoading, "casual_loading", false)
	if err != nil {
		return nil, err
	}

	g := &engine.PayGuide{
		ID:            engine.GuideID(j.ID),
		Name:          j.Name,
		BaseRate:      baseRate,
		CasualLoading: loading,
		Timezone:      j.Timezone,
		OrdinarySpans: make(map[engine.DayOfWeek]engine.OrdinarySpan),
		Active:        !j.Inactive,
	}

	if g.Timezone != "" {
		if _, err := time.LoadLocation(g.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q", g.Timezone)
		}
	}

	for dayKey, span := range j.OrdinarySpans {
		day, err := parseDay(dayKey)
		if err != nil {
			return nil, err
		}
		start, err := engine.ParseTimeOfDay(span.Start)
		if err != nil {
			return nil, fmt.Errorf("ordinary span for %s: %w", day, err)
		}
		end, err := engine.ParseTimeOfDay(span.End)
		if err != nil {
			return nil, fmt.Errorf("ordinary span for %s: %w", day, err)
		}
		g.OrdinarySpans[day] = engine.OrdinarySpan{Start: start, End: end}
	}

	if j.DailyOvertimeAfter != "" {
		h, err := parseDecimal(j.DailyOvertimeAfter, "daily_overtime_after", true)
		if err != nil {
			return nil, err
		}
		g.DailyOvertime = true
		g.DailyOvertimeAfter = h
	}
	if j.WeeklyOvertimeAfter != "" {
		h, err := parseDecimal(j.WeeklyOvertimeAfter, "weekly_overtime_after", true)
		if err != nil {
			return nil, err
		}
		g.WeeklyOvertime = true
		g.WeeklyOvertimeAfter = h
	}

	switch j.Combination {
	case "", "exclusive":
		g.Combination = engine.CombinationPolicy{Mode: engine.CombineExclusive}
	case "additive":
		g.Combination = engine.CombinationPolicy{Mode: engine.CombineAdditive}
	default:
		return nil, fmt.Errorf("invalid combination %q: want exclusive or additive", j.Combination)
	}

	for i, fj := range j.PenaltyFrames {
		f, err := parsePenaltyFrame(fj)
		if err != nil {
			return nil, fmt.Errorf("penalty frame %d: %w", i, err)
		}
		g.PenaltyFrames = append(g.PenaltyFrames, *f)
	}
	for i, fj := range j.OvertimeFrames {
		f, err := parseOvertimeFrame(fj)
		if err != nil {
			return nil, fmt.Errorf("overtime frame %d: %w", i, err)
		}
		g.OvertimeFrames = append(g.OvertimeFrames, *f)
	}
	for i, hj := range j.PublicHolidays {
		date, err := time.Parse("2006-01-02", hj.Date)
		if err != nil {
			return nil, fmt.Errorf("public holiday %d: invalid date %q", i, hj.Date)
		}
		g.Holidays = append(g.Holidays, engine.PublicHoliday{Name: hj.Name, Date: date})
	}

	return g, nil
}

func parsePenaltyFrame(j PenaltyFrameJSON) (*engine.PenaltyTimeFrame, error) {
	mult, err := parseDecimal(j.Multiplier, "multiplier", true)
	if err != nil {
		return nil, err
	}
	f := &engine.PenaltyTimeFrame{
		ID:            j.ID,
		Name:          j.Name,
		Multiplier:    mult,
		PublicHoliday: j.PublicHoliday,
		Active:        !j.Inactive,
	}
	if j.Day != nil {
		day, err := checkDay(*j.Day)
		if err != nil {
			return nil, err
		}
		f.Day = &day
	}
	w, err := parseWindow(j.Start, j.End)
	if err != nil {
		return nil, err
	}
	f.Window = w
	return f, nil
}

func parseOvertimeFrame(j OvertimeFrameJSON) (*engine.OvertimeTimeFrame, error) {
	first, err := parseDecimal(j.FirstMultiplier, "first_multiplier", true)
	if err != nil {
		return nil, err
	}
	second := first
	if j.SecondMultiplier != "" {
		second, err = parseDecimal(j.SecondMultiplier, "second_multiplier", true)
		if err != nil {
			return nil, err
		}
	}
	f := &engine.OvertimeTimeFrame{
		ID:               j.ID,
		Name:             j.Name,
		FirstMultiplier:  first,
		SecondMultiplier: second,
		PublicHoliday:    j.PublicHoliday,
	}
	if j.FirstBlockHours != "" {
		block, err := parseDecimal(j.FirstBlockHours, "first_block_hours", true)
		if err != nil {
			return nil, err
		}
		f.FirstBlockHours = block
	}
	if j.Day != nil {
		day, err := checkDay(*j.Day)
		if err != nil {
			return nil, err
		}
		f.Day = &day
	}
	w, err := parseWindow(j.Start, j.End)
	if err != nil {
		return nil, err
	}
	f.Window = w
	return f, nil
}

func parseWindow(start, end string) (*engine.Window, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("window needs both start and end")
	}
	s, err := engine.ParseTimeOfDay(start)
	if err != nil {
		return nil, err
	}
	e, err := engine.ParseTimeOfDay(end)
	if err != nil {
		return nil, err
	}
	return &engine.Window{Start: s, End: e}, nil
}

func parseDay(key string) (engine.DayOfWeek, error) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("invalid day key %q: want 0-6 (0=Sunday)", key)
	}
	return checkDay(n)
}

func checkDay(n int) (engine.DayOfWeek, error) {
	if n < 0 || n > 6 {
		return 0, fmt.Errorf("invalid day %d: want 0-6 (0=Sunday)", n)
	}
	return engine.DayOfWeek(n), nil
}

func parseDecimal(s, field string, required bool) (decimal.Decimal, error) {
	if s == "" {
		if required {
			return decimal.Zero, fmt.Errorf("%s is required", field)
		}
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, s)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

// =============================================================================
// SERIALIZATION - PayGuide back to JSON (for storage and API responses)
// =============================================================================

// ToJSON converts a PayGuide to its JSON schema form.
func ToJSON(g *engine.PayGuide) *GuideJSON {
	j := &GuideJSON{
		ID:            string(g.ID),
		Name:          g.Name,
		BaseRate:      g.BaseRate.String(),
		CasualLoading: g.CasualLoading.String(),
		Timezone:      g.Timezone,
		Inactive:      !g.Active,
	}
	if len(g.OrdinarySpans) > 0 {
		j.OrdinarySpans = make(map[string]SpanJSON, len(g.OrdinarySpans))
		for day, span := range g.OrdinarySpans {
			j.OrdinarySpans[strconv.Itoa(int(day))] = SpanJSON{
				Start: span.Start.String(),
				End:   span.End.String(),
			}
		}
	}
	if g.DailyOvertime {
		j.DailyOvertimeAfter = g.DailyOvertimeAfter.String()
	}
	if g.WeeklyOvertime {
		j.WeeklyOvertimeAfter = g.WeeklyOvertimeAfter.String()
	}
	if g.Combination.Mode == engine.CombineAdditive {
		j.Combination = "additive"
	} else {
		j.Combination = "exclusive"
	}
	for _, f := range g.PenaltyFrames {
		fj := PenaltyFrameJSON{
			ID:            f.ID,
			Name:          f.Name,
			Multiplier:    f.Multiplier.String(),
			PublicHoliday: f.PublicHoliday,
			Inactive:      !f.Active,
		}
		if f.Day != nil {
			n := int(*f.Day)
			fj.Day = &n
		}
		if f.Window != nil {
			fj.Start = f.Window.Start.String()
			fj.End = f.Window.End.String()
		}
		j.PenaltyFrames = append(j.PenaltyFrames, fj)
	}
	for _, f := range g.OvertimeFrames {
		fj := OvertimeFrameJSON{
			ID:               f.ID,
			Name:             f.Name,
			FirstMultiplier:  f.FirstMultiplier.String(),
			SecondMultiplier: f.SecondMultiplier.String(),
			PublicHoliday:    f.PublicHoliday,
		}
		if f.FirstBlockHours.IsPositive() {
			fj.FirstBlockHours = f.FirstBlockHours.String()
		}
		if f.Day != nil {
			n := int(*f.Day)
			fj.Day = &n
		}
		if f.Window != nil {
			fj.Start = f.Window.Start.String()
			fj.End = f.Window.End.String()
		}
		j.OvertimeFrames = append(j.OvertimeFrames, fj)
	}
	for _, h := range g.Holidays {
		j.PublicHolidays = append(j.PublicHolidays, HolidayJSON{
			Name: h.Name,
			Date: h.Date.Format("2006-01-02"),
		})
	}
	return j
}

// MarshalGuide serializes a PayGuide to its storage JSON.
func MarshalGuide(g *engine.PayGuide) ([]byte, error) {
	return json.Marshal(ToJSON(g))
}
