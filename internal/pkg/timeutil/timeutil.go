package timeutil

import "time"

func NowUnix() int64 {
	return time.Now().Unix()
}

func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// MonthStart returns the unix timestamp of the first instant of the
// month containing ts, in UTC. Quota periods are calendar months.
func MonthStart(ts int64) int64 {
	t := time.Unix(ts, 0).UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).Unix()
}

// SameMonth reports whether two unix timestamps fall in the same UTC
// calendar month.
func SameMonth(a, b int64) bool {
	return MonthStart(a) == MonthStart(b)
}
