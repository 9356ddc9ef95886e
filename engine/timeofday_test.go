package engine_test

import (
	"testing"

	"github.com/warp/pay-engine/engine"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := []struct {
		in      string
		want    engine.TimeOfDay
		wantErr bool
	}{
		{"00:00", 0, false},
		{"09:00", 540, false},
		{"18:30", 1110, false},
		{"23:59", 1439, false},
		{"24:00", engine.EndOfDay, false},
		{"24:01", 0, true},
		{"25:00", 0, true},
		{"12:60", 0, true},
		{"-1:00", 0, true},
		{"12", 0, true},
		{"12:00:00", 0, true},
		{"ab:cd", 0, true},
		{"", 0, true},
	}

	for _, c := range cases {
		got, err := engine.ParseTimeOfDay(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseTimeOfDay(%q): expected error, got %v", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTimeOfDay(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseTimeOfDay(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestTimeOfDay_String(t *testing.T) {
	if s := engine.MustTimeOfDay("09:05").String(); s != "09:05" {
		t.Errorf("String() = %q, want 09:05", s)
	}
	if s := engine.EndOfDay.String(); s != "24:00" {
		t.Errorf("EndOfDay.String() = %q, want 24:00", s)
	}
}

func TestWrapsMidnight(t *testing.T) {
	cases := []struct {
		start, end string
		want       bool
	}{
		{"09:00", "18:00", false}, // normal window
		{"22:00", "06:00", true},  // night window
		{"18:00", "18:00", true},  // equal wraps (full day from start)
		{"00:00", "24:00", false}, // end-of-day sentinel never wraps
		{"22:00", "24:00", false},
	}
	for _, c := range cases {
		got := engine.WrapsMidnight(engine.MustTimeOfDay(c.start), engine.MustTimeOfDay(c.end))
		if got != c.want {
			t.Errorf("WrapsMidnight(%s, %s) = %v, want %v", c.start, c.end, got, c.want)
		}
	}
}
