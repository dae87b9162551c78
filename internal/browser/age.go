package browser

import (
	"fmt"
	"time"
)

// FormatAge renders a duration at integer-minute granularity: days and
// hours past one day, hours and minutes past one hour, minutes below
// that. Seconds are never shown; zero and negative durations render as
// "0m".
func FormatAge(d time.Duration) string {
	if d <= 0 {
		return "0m"
	}
	minutes := int(d / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days >= 1:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours >= 1:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
