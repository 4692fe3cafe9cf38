package poller

import (
	"time"

	"github.com/gridpools/scorewire/internal/event"
)

// Poll cadence by event posture. Halftime backs off because nothing
// scores during the break; pregame tightens as start approaches so the
// opening score lands quickly.
const (
	intervalLive     = 15 * time.Second
	intervalHalftime = 30 * time.Second
	intervalPregame  = 5 * time.Minute
	intervalIdle     = 15 * time.Minute

	pregameWindow = time.Hour
)

// Eligible reports whether the event belongs in this tick's candidate
// set. In-progress events always qualify; scheduled events qualify once
// their start time is within the lookahead window. Events stuck in
// scheduled past their start time stay eligible so a late provider
// status flip is still caught.
func Eligible(ev event.Event, now time.Time, lookahead time.Duration) bool {
	if !ev.Pollable() {
		return false
	}
	switch ev.Status {
	case event.StatusInProgress:
		return true
	case event.StatusScheduled:
		return ev.StartTime.Sub(now) <= lookahead
	}
	return false
}

// PollInterval returns how long after a completed poll the event
// becomes due again. Zero means the event is not polled at all.
func PollInterval(ev event.Event, halftime bool, now time.Time) time.Duration {
	switch ev.Status {
	case event.StatusInProgress:
		if halftime {
			return intervalHalftime
		}
		return intervalLive
	case event.StatusScheduled:
		if ev.StartTime.Sub(now) <= pregameWindow {
			return intervalPregame
		}
		return intervalIdle
	}
	return 0
}
