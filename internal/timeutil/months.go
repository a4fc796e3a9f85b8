package timeutil

import "time"

// AddMonths adds calendar months to t. When the source day does not exist
// in the target month the result lands on that month's last day, so
// Jan 31 + 1 month is Feb 29 in a leap year rather than Mar 2.
func AddMonths(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	first := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}

	return time.Date(first.Year(), first.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func AddMonthsToTimestamp(ts Timestamp, months int) Timestamp {
	return FromTime(AddMonths(ts.Time(), months))
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
