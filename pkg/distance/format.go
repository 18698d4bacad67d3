package distance

import (
	"fmt"
	"math"
)

// FormatDistance renders metres as "850 meters" or "12.3 km"
func FormatDistance(meters float64) string {
	if meters >= 1000 {
		return fmt.Sprintf("%.1f km", meters/1000)
	}

	return fmt.Sprintf("%.0f meters", meters)
}

// FormatDuration renders seconds as "1h 5m" or "45 minutes"
func FormatDuration(seconds float64) string {
	total := int(math.Floor(seconds))
	hours := total / 3600
	minutes := (total % 3600) / 60

	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}

	return fmt.Sprintf("%d minutes", minutes)
}
