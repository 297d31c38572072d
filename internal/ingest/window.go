package ingest

import (
	"fmt"
	"time"
)

// FetchWindow is the trailing time range one ingestion run covers.
// Computed once per run; drives both the provider query and logging.
type FetchWindow struct {
	Start    time.Time
	End      time.Time
	DaysBack int
}

// NewFetchWindow builds the window for daysBack days ending today.
// Start is floored to midnight, End is the last millisecond of today.
func NewFetchWindow(now time.Time, daysBack int) FetchWindow {
	if daysBack < 0 {
		daysBack = 0
	}

	year, month, day := now.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	return FetchWindow{
		Start:    midnight.AddDate(0, 0, -daysBack),
		End:      midnight.AddDate(0, 0, 1).Add(-time.Millisecond),
		DaysBack: daysBack,
	}
}

// Query builds the provider search expression: sender-domain restriction,
// the date range, and spam/trash exclusions. Gmail's before: operator is
// exclusive at day granularity, so the end day is covered by advancing
// one day past it.
func (w FetchWindow) Query(domain string) string {
	return fmt.Sprintf("from:(%s) after:%s before:%s -in:spam -in:trash",
		domain,
		w.Start.Format("2006/01/02"),
		w.End.AddDate(0, 0, 1).Format("2006/01/02"),
	)
}
