package window

import (
	"fmt"
	"time"
)

// Window is an enumerated publication time window for candidate filtering.
type Window string

// Supported windows.
const (
	LastWeek     Window = "1week"
	LastMonth    Window = "1month"
	ThreeMonths  Window = "3months"
	SixMonths    Window = "6months"
	TwelveMonths Window = "12months"
	TwoYears     Window = "24months"
	AllTime      Window = "all"
)

// durations maps each bounded window to its lookback span.
var durations = map[Window]time.Duration{
	LastWeek:     7 * 24 * time.Hour,
	LastMonth:    30 * 24 * time.Hour,
	ThreeMonths:  90 * 24 * time.Hour,
	SixMonths:    180 * 24 * time.Hour,
	TwelveMonths: 365 * 24 * time.Hour,
	TwoYears:     730 * 24 * time.Hour,
}

// Parse validates a window string. The empty string parses to AllTime.
func Parse(s string) (Window, error) {
	if s == "" {
		return AllTime, nil
	}
	w := Window(s)
	if !w.IsValid() {
		return "", fmt.Errorf("unknown time window %q", s)
	}
	return w, nil
}

// IsValid checks if the window is one of the supported values.
func (w Window) IsValid() bool {
	if w == AllTime {
		return true
	}
	_, ok := durations[w]
	return ok
}

// Cutoff returns the inclusive published-date lower bound for the window,
// or the zero time for AllTime (unrestricted).
func (w Window) Cutoff(now time.Time) time.Time {
	d, ok := durations[w]
	if !ok {
		return time.Time{}
	}
	return now.Add(-d)
}
