package util

import (
	"time"
)

// NormaliseUTC converts t to UTC. Zero values stay zero.
func NormaliseUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}

	return t.UTC()
}

// MinutesBetween returns the signed number of minutes from start to end
func MinutesBetween(start time.Time, end time.Time) float64 {
	return end.Sub(start).Minutes()
}
