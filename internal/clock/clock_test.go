package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/monicajeon28/cruiseguide-sub009/internal/clock"
)

func TestFixed_Now(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	assert.True(t, clock.Fixed(at).Now().Equal(at))
}

func TestManual_SetAndAdvance(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := clock.NewManual(at)

	c.Advance(90 * time.Minute)
	assert.True(t, c.Now().Equal(at.Add(90*time.Minute)))

	later := at.Add(48 * time.Hour)
	c.Set(later)
	assert.True(t, c.Now().Equal(later))
}
