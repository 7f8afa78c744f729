// Package migrations embeds the goose SQL migrations for the trips,
// itinerary_stops and notification_logs tables so the notifier binary and
// the integration tests can apply them without a filesystem path.
package migrations

import "embed"

// FS holds all *.sql migration files embedded at compile time.
//
//go:embed *.sql
var FS embed.FS
