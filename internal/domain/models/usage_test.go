package models_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rampartlabs/rampart/internal/domain/models"
)

func TestWindowKind_WindowStart(t *testing.T) {
	at := time.Date(2025, time.March, 14, 15, 9, 26, 0, time.UTC)
	tests := []struct {
		name string
		kind models.WindowKind
		want time.Time
	}{
		{"daily truncates to midnight", models.WindowDaily, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC)},
		{"monthly truncates to first", models.WindowMonthly, time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.WindowStart(at))
		})
	}
}

func TestWindowKind_WindowStart_NonUTCInput(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	// 00:30 on March 15 in UTC+9 is still March 14 in UTC.
	at := time.Date(2025, time.March, 15, 0, 30, 0, 0, loc)

	got := models.WindowDaily.WindowStart(at)
	assert.Equal(t, time.Date(2025, time.March, 14, 0, 0, 0, 0, time.UTC), got)
}

func TestWindowKind_KeySegment(t *testing.T) {
	start := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025-03-01", models.WindowDaily.KeySegment(start))
	assert.Equal(t, "2025-03", models.WindowMonthly.KeySegment(start))
}

func TestUsageCounter_InWindow(t *testing.T) {
	now := time.Date(2025, time.March, 14, 12, 0, 0, 0, time.UTC)
	fresh := &models.UsageCounter{
		WindowKind:  models.WindowDaily,
		WindowStart: models.WindowDaily.WindowStart(now),
	}
	stale := &models.UsageCounter{
		WindowKind:  models.WindowDaily,
		WindowStart: models.WindowDaily.WindowStart(now.AddDate(0, 0, -1)),
	}

	assert.True(t, fresh.InWindow(now))
	assert.False(t, stale.InWindow(now))
}

func TestUsageCounter_Remaining(t *testing.T) {
	counter := &models.UsageCounter{Count: 8}

	assert.Equal(t, int64(2), counter.Remaining(10))
	assert.Equal(t, int64(0), counter.Remaining(8))
	assert.Equal(t, int64(0), counter.Remaining(5))
	assert.Equal(t, int64(0), counter.Remaining(0))
}
