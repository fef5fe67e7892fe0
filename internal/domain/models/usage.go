// Package models defines the domain models.
package models

import "time"

// WindowKind identifies a quota accounting window.
// WindowKind 标识一个配额计数窗口。
type WindowKind string

const (
	// WindowDaily resets at UTC midnight.
	// WindowDaily 在 UTC 午夜重置。
	WindowDaily WindowKind = "daily"
	// WindowMonthly resets on the first day of the UTC calendar month.
	// WindowMonthly 在 UTC 日历月的第一天重置。
	WindowMonthly WindowKind = "monthly"
)

// AllWindowKinds lists the windows every admission check must pass.
var AllWindowKinds = []WindowKind{WindowDaily, WindowMonthly}

// WindowStart truncates the given instant to the start of the window
// containing it, always in UTC. Counters with a stale window start roll
// over lazily on the next access instead of via a scheduled job.
// WindowStart 将给定时刻截断到其所在窗口的起点（UTC）。
// 起点过期的计数器在下次访问时惰性滚动，而非定时任务。
func (k WindowKind) WindowStart(now time.Time) time.Time {
	now = now.UTC()
	switch k {
	case WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// NextStart returns the start of the window following the given one, the
// instant the counter resets.
// NextStart 返回给定窗口之后下一个窗口的起点，即计数器重置的时刻。
func (k WindowKind) NextStart(windowStart time.Time) time.Time {
	if k == WindowMonthly {
		return windowStart.AddDate(0, 1, 0)
	}
	return windowStart.AddDate(0, 0, 1)
}

// KeySegment formats the window start for embedding in a counter key.
// KeySegment 将窗口起点格式化后嵌入计数器键。
func (k WindowKind) KeySegment(windowStart time.Time) string {
	if k == WindowMonthly {
		return windowStart.UTC().Format("2006-01")
	}
	return windowStart.UTC().Format("2006-01-02")
}

// Valid reports whether the kind is a known quota window.
func (k WindowKind) Valid() bool {
	return k == WindowDaily || k == WindowMonthly
}

// UsageCounter is the durable per-tenant request count for one window.
// UsageCounter 是单个窗口内租户请求数的持久计数。
type UsageCounter struct {
	// TenantID is the tenant the counter belongs to.
	TenantID string `json:"tenant_id"`
	// WindowKind is the accounting window of the counter.
	WindowKind WindowKind `json:"window_kind"`
	// WindowStart is the UTC start of the window the count applies to.
	WindowStart time.Time `json:"window_start"`
	// Count is the number of admitted requests inside the window.
	Count int64 `json:"count"`
}

// InWindow reports whether the counter still covers the window containing now.
// A false result means the counter is stale and must roll over before use.
func (c *UsageCounter) InWindow(now time.Time) bool {
	return c.WindowStart.Equal(c.WindowKind.WindowStart(now))
}

// Remaining returns how many requests the limit still allows, never negative.
func (c *UsageCounter) Remaining(limit int64) int64 {
	if limit <= 0 {
		return 0
	}
	left := limit - c.Count
	if left < 0 {
		return 0
	}
	return left
}
