package utils

import "time"

// HoursSince reports how many hours ago t was, never negative.
func HoursSince(t time.Time) float64 {
	h := time.Since(t).Hours()
	if h < 0 {
		return 0
	}
	return h
}
