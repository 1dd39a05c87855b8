package util

import "time"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// SinceMillis returns the whole milliseconds elapsed since start, never negative.
func SinceMillis(start time.Time) int64 {
	elapsed := NowUTC().Sub(start).Milliseconds()
	if elapsed < 0 {
		return 0
	}
	return elapsed
}
