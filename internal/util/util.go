// Package util holds small formatting helpers shared by the binaries.
package util

import (
	"fmt"
	"time"
)

// FormatTTL renders a remaining lifetime compactly, e.g. "1d2h", "1h30m", "5m10s", "45s".
// Zero and negative durations render as "expired".
func FormatTTL(d time.Duration) string {
	d = d.Round(time.Second)
	if d <= 0 {
		return "expired"
	}

	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}
