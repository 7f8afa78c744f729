package domain

import "errors"

// ErrNotFound is returned by repo functions when the requested record does
// not exist.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a record or config value violates a format
// or business rule (unknown stop type, malformed "HH:MM", bad time zone).
// The domain reader skips records that fail validation instead of failing the query.
var ErrValidation = errors.New("validation error")

// ErrAlreadyExists is returned by notification log stores when a row with the
// same event key is already present. The idempotency guard treats it as success.
var ErrAlreadyExists = errors.New("already exists")

// ErrDomainRead wraps failures of the trip/itinerary snapshot queries.
// The scheduler skips the affected trigger for the current tick.
var ErrDomainRead = errors.New("domain read failed")

// ErrDispatch wraps failures of the notification transport.
// No log entry is written, so the next tick retries while the window is open.
var ErrDispatch = errors.New("dispatch failed")

// ErrTickInProgress is returned when a tick is requested while another one
// is still running. Overlapping ticks are skipped, never queued.
var ErrTickInProgress = errors.New("tick already in progress")

// ErrAlreadyStarted is returned by Start on an engine whose timer is running.
var ErrAlreadyStarted = errors.New("scheduler already started")

// ErrNotStarted is returned by Stop on an engine that was never started.
var ErrNotStarted = errors.New("scheduler not started")
