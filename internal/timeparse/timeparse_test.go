package timeparse

import (
	"fmt"
	"testing"
	"time"
)

// reference noon on a fixed date keeps the clock-time cases deterministic.
var noon = time.Date(2025, 6, 14, 12, 0, 0, 0, time.Local)

func at(hour, min int) time.Time {
	return time.Date(2025, 6, 14, hour, min, 0, 0, time.Local)
}

func TestParseHourPhrases(t *testing.T) {
	for n := 1; n <= 24; n++ {
		input := fmt.Sprintf("%dh", n)
		got := Parse(input, noon)
		if got.Until == nil {
			t.Fatalf("Parse(%q) returned nil Until", input)
		}
		want := noon.Add(time.Duration(n) * time.Hour)
		if !got.Until.Equal(want) {
			t.Errorf("Parse(%q).Until = %v, want %v", input, got.Until, want)
		}
		wantText := fmt.Sprintf("for %d hour", n)
		if n > 1 {
			wantText += "s"
		}
		if got.DisplayText != wantText {
			t.Errorf("Parse(%q).DisplayText = %q, want %q", input, got.DisplayText, wantText)
		}
	}
}

func TestParseHourVariants(t *testing.T) {
	for _, input := range []string{"2h", "2 h", "2hr", "2 hrs", "2 hours", "2hour"} {
		got := Parse(input, noon)
		if got.Until == nil || !got.Until.Equal(noon.Add(2*time.Hour)) {
			t.Errorf("Parse(%q) = %v, want noon+2h", input, got.Until)
		}
	}
}

func TestParseMinutePhrases(t *testing.T) {
	tests := []struct {
		input string
		mins  int
	}{
		{"30m", 30}, {"30 min", 30}, {"45mins", 45}, {"1 minute", 1}, {"480 minutes", 480},
	}
	for _, tt := range tests {
		got := Parse(tt.input, noon)
		if got.Until == nil {
			t.Fatalf("Parse(%q) returned nil Until", tt.input)
		}
		want := noon.Add(time.Duration(tt.mins) * time.Minute)
		if !got.Until.Equal(want) {
			t.Errorf("Parse(%q).Until = %v, want %v", tt.input, got.Until, want)
		}
	}
}

func TestParseOutOfRangeFallsThrough(t *testing.T) {
	for _, input := range []string{"0h", "25h", "0m", "481m", "999 hours"} {
		if got := Parse(input, noon); got.Until != nil {
			t.Errorf("Parse(%q).Until = %v, want nil for out-of-range value", input, got.Until)
		}
	}
}

func TestParseClockTimes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		now   time.Time
		want  time.Time
	}{
		{"5pm same day", "5pm", at(14, 0), at(17, 0)},
		{"5pm rolls forward", "5pm", at(18, 0), at(17, 0).AddDate(0, 0, 1)},
		{"until prefix", "until 5pm", at(14, 0), at(17, 0)},
		{"explicit minutes", "5:30pm", at(14, 0), at(17, 30)},
		{"am time", "9am", at(7, 0), at(9, 0)},
		{"midnight", "12am", at(7, 0), at(0, 0).AddDate(0, 0, 1)},
		{"ambiguous prefers pm today", "5", at(9, 0), at(17, 0)},
		{"ambiguous pm shift before noon", "9", at(10, 0), at(21, 0)},
		{"ambiguous past noon rolls to next day", "1", at(14, 0), at(1, 0).AddDate(0, 0, 1)},
		{"ambiguous future hour stays", "8", at(7, 0), at(8, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.input, tt.now)
			if got.Until == nil {
				t.Fatalf("Parse(%q) returned nil Until", tt.input)
			}
			if !got.Until.Equal(tt.want) {
				t.Errorf("Parse(%q, now=%v).Until = %v, want %v", tt.input, tt.now, got.Until, tt.want)
			}
		})
	}
}

func TestParseClockDisplayText(t *testing.T) {
	got := Parse("5pm", at(14, 0))
	if got.DisplayText != "until 5:00 PM" {
		t.Errorf("DisplayText = %q, want %q", got.DisplayText, "until 5:00 PM")
	}
}

func TestParseAllDay(t *testing.T) {
	for _, input := range []string{"all day", "today", "whole day"} {
		got := Parse(input, noon)
		if got.Until == nil {
			t.Fatalf("Parse(%q) returned nil Until", input)
		}
		if got.Until.Hour() != 23 || got.Until.Minute() != 59 || got.Until.Second() != 59 {
			t.Errorf("Parse(%q).Until = %v, want end of day", input, got.Until)
		}
		if got.DisplayText != "all day" {
			t.Errorf("Parse(%q).DisplayText = %q, want all day", input, got.DisplayText)
		}
	}
}

func TestParseTonight(t *testing.T) {
	got := Parse("tonight", at(21, 0))
	if got.Until == nil || !got.Until.Equal(at(22, 0)) {
		t.Errorf("Parse(tonight, 21:00) = %v, want today 22:00", got.Until)
	}

	got = Parse("tonight", at(23, 0))
	if got.Until == nil || !got.Until.Equal(at(22, 0).AddDate(0, 0, 1)) {
		t.Errorf("Parse(tonight, 23:00) = %v, want tomorrow 22:00", got.Until)
	}

	for _, input := range []string{"until tonight", "til tonight"} {
		if got := Parse(input, at(12, 0)); got.Until == nil {
			t.Errorf("Parse(%q) returned nil Until", input)
		}
	}
}

func TestParseNow(t *testing.T) {
	for _, input := range []string{"now", "rn"} {
		got := Parse(input, noon)
		if got.Until == nil || !got.Until.Equal(noon.Add(2*time.Hour)) {
			t.Errorf("Parse(%q) = %v, want noon+2h", input, got.Until)
		}
		if got.DisplayText != "for 2 hours" {
			t.Errorf("Parse(%q).DisplayText = %q, want for 2 hours", input, got.DisplayText)
		}
	}
}

func TestParseNoMatch(t *testing.T) {
	for _, input := range []string{"", "later", "whenever", "next week", "soonish"} {
		got := Parse(input, noon)
		if got.Until != nil || got.DisplayText != "" {
			t.Errorf("Parse(%q) = %+v, want empty result", input, got)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	tests := []struct {
		name   string
		target time.Time
		want   string
	}{
		{"expired", noon.Add(-time.Minute), "expired"},
		{"under a minute", noon.Add(20 * time.Second), "less than a minute"},
		{"minutes", noon.Add(30 * time.Minute), "30m left"},
		{"exact hours", noon.Add(2 * time.Hour), "2h left"},
		{"hours and minutes", noon.Add(2*time.Hour + 15*time.Minute), "2h 15m left"},
		// Beyond 4 hours remaining the minutes are dropped.
		{"many hours drop minutes", noon.Add(6*time.Hour + 15*time.Minute), "6h left"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatRelativeTime(tt.target, noon); got != tt.want {
				t.Errorf("FormatRelativeTime(%v) = %q, want %q", tt.target, got, tt.want)
			}
		})
	}
}

func TestFormatRelativeTimeBeyondDay(t *testing.T) {
	target := noon.Add(30 * time.Hour)
	got := FormatRelativeTime(target, noon)
	if got != FormatClock(target) {
		t.Errorf("FormatRelativeTime(+30h) = %q, want clock time %q", got, FormatClock(target))
	}
}
