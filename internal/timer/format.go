package timer

import (
	"fmt"
	"time"
)

// Describe renders a duration the way it is spoken back to the user, e.g.
// "1 hour and 30 minutes" or "45 seconds". Leftover seconds are dropped once
// the duration reaches an hour.
func Describe(d time.Duration) string {
	secs := int(d / time.Second)

	switch {
	case secs >= 3600:
		s := plural(secs/3600, "hour")
		if m := (secs % 3600) / 60; m > 0 {
			s += " and " + plural(m, "minute")
		}
		return s
	case secs >= 60:
		s := plural(secs/60, "minute")
		if rem := secs % 60; rem > 0 {
			s += " and " + plural(rem, "second")
		}
		return s
	default:
		return plural(secs, "second")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
