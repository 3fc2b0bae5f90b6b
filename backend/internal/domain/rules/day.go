package rules

import (
	"fmt"
	"time"
)

func DayKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}

func NextResetAt(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return next.UTC()
}

// FormatRemaining renders the time left on an entitlement the way the shop
// shows it: "Expired", "Xh Ym" above an hour, otherwise "Xm Ys".
func FormatRemaining(d time.Duration) string {
	if d <= 0 {
		return "Expired"
	}

	minutes := int64(d / time.Minute)
	if minutes > 60 {
		return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
	}
	seconds := int64((d % time.Minute) / time.Second)
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
