package model

import (
	"fmt"
	"time"
)

// LeaveDay is an administrator-configured calendar exclusion.
type LeaveDay struct {
	Date   time.Time
	Reason string
}

// CollectionDayCount breaks a date range into mutually exclusive buckets.
// SaturdaysCount is only populated when Saturdays are excluded; otherwise
// Saturdays are ordinary collection days.
type CollectionDayCount struct {
	LeaveDatesInRange []LeaveDay
	TotalDays         int
	SundaysCount      int
	SaturdaysCount    int
	LeaveDaysCount    int
	CollectionDays    int
}

// CountCollectionDays classifies every day in [start, end] into exactly one
// bucket, checked in order: Sunday, Saturday (when excluded), leave day,
// collection day.
func CountCollectionDays(start, end time.Time, excludeSaturdays bool, leaveDays []LeaveDay) (CollectionDayCount, error) {
	start, end = DateOf(start), DateOf(end)
	if end.Before(start) {
		return CollectionDayCount{}, fmt.Errorf("%w: %s is before %s",
			ErrInvalidRange, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	leaves := make(map[time.Time]LeaveDay, len(leaveDays))
	for _, ld := range leaveDays {
		d := DateOf(ld.Date)
		if _, dup := leaves[d]; !dup {
			leaves[d] = LeaveDay{Date: d, Reason: ld.Reason}
		}
	}

	out := CollectionDayCount{TotalDays: DaysBetween(start, end) + 1}

	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		switch wd := day.Weekday(); {
		case wd == time.Sunday:
			out.SundaysCount++
		case wd == time.Saturday && excludeSaturdays:
			out.SaturdaysCount++
		default:
			if ld, ok := leaves[day]; ok {
				out.LeaveDaysCount++
				out.LeaveDatesInRange = append(out.LeaveDatesInRange, ld)
				continue
			}
			out.CollectionDays++
		}
	}

	return out, nil
}
