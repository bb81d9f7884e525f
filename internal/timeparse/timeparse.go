// Package timeparse interprets natural-language time phrases for presence
// and jio input ("2h", "30m", "5pm", "until tonight", "all day").
//
// All functions are pure and deterministic given the supplied reference time.
package timeparse

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Bounds for duration phrases. Values outside these ranges are treated as
// non-matches and fall through to the remaining rules.
const (
	MaxHours   = 24
	MaxMinutes = 480
	// DefaultFreeDuration is applied for "now" / "rn" phrases.
	DefaultFreeDuration = 2 * time.Hour
	// TonightHour is the clock hour meant by "tonight".
	TonightHour = 22
)

var (
	hoursRe = regexp.MustCompile(`^(\d+)\s*(h|hr|hrs|hour|hours)$`)
	minsRe  = regexp.MustCompile(`^(\d+)\s*(m|min|mins|minute|minutes)$`)
	clockRe = regexp.MustCompile(`^(?:until\s+)?(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// Parsed is the result of interpreting a time phrase. A nil Until means the
// input did not match any recognized form; callers must re-prompt and must
// not persist the result.
type Parsed struct {
	Until       *time.Time
	DisplayText string
}

// Parse interprets a free-text time phrase relative to now. Recognized forms
// are tried in order; the first match wins.
func Parse(input string, now time.Time) Parsed {
	in := strings.ToLower(strings.TrimSpace(input))

	if m := hoursRe.FindStringSubmatch(in); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= MaxHours {
			until := now.Add(time.Duration(n) * time.Hour)
			return Parsed{Until: &until, DisplayText: fmt.Sprintf("for %d hour%s", n, plural(n))}
		}
	}

	if m := minsRe.FindStringSubmatch(in); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= MaxMinutes {
			until := now.Add(time.Duration(n) * time.Minute)
			return Parsed{Until: &until, DisplayText: fmt.Sprintf("for %d min%s", n, plural(n))}
		}
	}

	if m := clockRe.FindStringSubmatch(in); m != nil {
		return parseClock(m, now)
	}

	switch in {
	case "all day", "today", "whole day":
		until := time.Date(now.Year(), now.Month(), now.Day(), 23, 59, 59, int(999*time.Millisecond), now.Location())
		return Parsed{Until: &until, DisplayText: "all day"}
	case "tonight", "until tonight", "til tonight":
		until := time.Date(now.Year(), now.Month(), now.Day(), TonightHour, 0, 0, 0, now.Location())
		if !until.After(now) {
			until = until.AddDate(0, 0, 1)
		}
		return Parsed{Until: &until, DisplayText: "until tonight"}
	case "now", "rn":
		until := now.Add(DefaultFreeDuration)
		return Parsed{Until: &until, DisplayText: "for 2 hours"}
	}

	return Parsed{}
}

// parseClock resolves "[until] H[:MM][am|pm]" against now. When no meridiem
// is given and the hour is ambiguous, PM today is preferred if it keeps the
// result in the future; otherwise the time rolls to the next day.
func parseClock(m []string, now time.Time) Parsed {
	hour, err := strconv.Atoi(m[1])
	if err != nil || hour < 0 || hour > 23 {
		return Parsed{}
	}
	mins := 0
	if m[2] != "" {
		if mins, err = strconv.Atoi(m[2]); err != nil || mins > 59 {
			return Parsed{}
		}
	}
	meridiem := m[3]
	if meridiem != "" && hour > 12 {
		return Parsed{}
	}

	switch meridiem {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		// Ambiguous hour: prefer "PM today" only when both the requested hour
		// and the current hour are before noon; otherwise the generic
		// roll-forward below lands on the next day.
		if hour <= now.Hour() && hour < 12 && now.Hour() < 12 {
			hour += 12
		}
	}

	until := time.Date(now.Year(), now.Month(), now.Day(), hour, mins, 0, 0, now.Location())
	if !until.After(now) {
		until = until.AddDate(0, 0, 1)
	}

	return Parsed{Until: &until, DisplayText: "until " + FormatClock(until)}
}

// FormatClock renders an absolute clock time for display, e.g. "5:00 PM".
func FormatClock(t time.Time) string {
	return t.Format("3:04 PM")
}

// FormatRelativeTime renders the remaining duration until target, e.g.
// "30m left", "2h left", "3h 15m left". Past targets render as "expired";
// targets beyond a day render as an absolute clock time.
func FormatRelativeTime(target, now time.Time) string {
	diff := target.Sub(now)
	if diff < 0 {
		return "expired"
	}

	mins := int(math.Round(diff.Minutes()))
	if mins < 1 {
		return "less than a minute"
	}
	if mins < 60 {
		return fmt.Sprintf("%dm left", mins)
	}

	hours := int(math.Round(diff.Hours()))
	if hours < 24 {
		if rem := mins % 60; rem > 0 && hours < 4 {
			return fmt.Sprintf("%dh %dm left", hours, rem)
		}
		return fmt.Sprintf("%dh left", hours)
	}

	return FormatClock(target)
}

func plural(n int) string {
	if n > 1 {
		return "s"
	}
	return ""
}
