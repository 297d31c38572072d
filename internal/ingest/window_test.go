package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewFetchWindow(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 45, 0, time.UTC)

	w := NewFetchWindow(now, 30)

	assert.Equal(t, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), w.Start)
	assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, 999000000, time.UTC), w.End)
	assert.Equal(t, 30, w.DaysBack)
}

func TestNewFetchWindowZeroDays(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	w := NewFetchWindow(now, 0)

	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), w.Start)
	assert.True(t, w.End.After(w.Start))
}

func TestNewFetchWindowNegativeDaysClamped(t *testing.T) {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	w := NewFetchWindow(now, -5)

	assert.Equal(t, 0, w.DaysBack)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), w.Start)
}

func TestQueryContents(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)
	w := NewFetchWindow(now, 30)

	query := w.Query("substack.com")

	assert.Equal(t, "from:(substack.com) after:2024/02/14 before:2024/03/16 -in:spam -in:trash", query)
}

func TestQueryEndDayIsIncluded(t *testing.T) {
	// before: is exclusive at day granularity, so the boundary date in
	// the query must be one day past the window end
	now := time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)
	w := NewFetchWindow(now, 7)

	assert.Contains(t, w.Query("substack.com"), "before:2025/01/01")
}
