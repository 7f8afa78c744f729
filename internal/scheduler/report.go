package scheduler

import "time"

// TriggerResult counts what one trigger did during a tick.
type TriggerResult struct {
	Trigger    string
	Candidates int // produced by Evaluate
	Firing     int // window contained now
	Sent       int // dispatcher accepted the notification
	Skipped    int // already in the notification log
	Failed     int // log check or dispatch failed; retried next tick
	Unrecorded int // sent, but the log row could not be written
	Missed     int // window closed since the previous tick with no log row
	Err        error
}

// Report summarizes one tick.
type Report struct {
	Now       time.Time
	StartedAt time.Time
	Duration  time.Duration
	Triggers  []TriggerResult
}

// Totals sums the counters of every trigger.
func (r Report) Totals() TriggerResult {
	var t TriggerResult
	for _, tr := range r.Triggers {
		t.Candidates += tr.Candidates
		t.Firing += tr.Firing
		t.Sent += tr.Sent
		t.Skipped += tr.Skipped
		t.Failed += tr.Failed
		t.Unrecorded += tr.Unrecorded
		t.Missed += tr.Missed
	}
	return t
}

// Errors returns the number of triggers that failed as a whole.
func (r Report) Errors() int {
	n := 0
	for _, tr := range r.Triggers {
		if tr.Err != nil {
			n++
		}
	}
	return n
}

// Trigger returns the result for the named trigger.
func (r Report) Trigger(name string) (TriggerResult, bool) {
	for _, tr := range r.Triggers {
		if tr.Trigger == name {
			return tr, true
		}
	}
	return TriggerResult{}, false
}
