package poller

import (
	"fmt"
	"time"
)

// TickResult tracks the outcome of one scheduler tick.
type TickResult struct {
	Candidates    int
	Polled        int
	Failed        int
	SkippedNotDue int
	SkippedLeased int
	SkippedLocked int
	Appends       int
	StatusChanges int
	Duration      time.Duration
	Errors        []string
}

// Summary returns a human-readable summary.
func (r *TickResult) Summary() string {
	return fmt.Sprintf(
		"candidates=%d polled=%d failed=%d not_due=%d leased=%d locked=%d appends=%d status_changes=%d dur=%s",
		r.Candidates, r.Polled, r.Failed, r.SkippedNotDue, r.SkippedLeased,
		r.SkippedLocked, r.Appends, r.StatusChanges, r.Duration.Round(time.Millisecond))
}

// outcomeKind classifies what pollEvent did with one candidate.
type outcomeKind int

const (
	outcomePolled outcomeKind = iota
	outcomeFailed
	outcomeNotDue
	outcomeLeased
	outcomeLocked
)

type eventOutcome struct {
	kind          outcomeKind
	appends       int
	statusChanged bool
	err           error
}

// merge folds one event's outcome into the tick totals.
func (r *TickResult) merge(eventID int64, o eventOutcome) {
	switch o.kind {
	case outcomePolled:
		r.Polled++
	case outcomeFailed:
		r.Failed++
	case outcomeNotDue:
		r.SkippedNotDue++
	case outcomeLeased:
		r.SkippedLeased++
	case outcomeLocked:
		r.SkippedLocked++
	}
	r.Appends += o.appends
	if o.statusChanged {
		r.StatusChanges++
	}
	if o.err != nil {
		r.Errors = append(r.Errors, fmt.Sprintf("event %d: %s", eventID, o.err))
	}
}
