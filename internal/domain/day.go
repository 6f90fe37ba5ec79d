package domain

import "time"

// DayStart truncates t to UTC midnight and returns it in milliseconds.
// Every snapshot written in one run carries the same DayStart value, so a
// batch stays consistently dated even if wall-clock time crosses midnight
// mid-run.
func DayStart(t time.Time) int64 {
	u := t.UTC()
	midnight := time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
	return midnight.UnixMilli()
}
