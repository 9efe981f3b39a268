package game

import (
	"fmt"
	"time"
)

// FormatElapsed renders the time between start and now as H:MM:SS with
// unpadded hours, e.g. "1:01:01". A now before start clamps to zero.
func FormatElapsed(start, now time.Time) string {
	d := now.Sub(start)
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%d:%02d:%02d", s/3600, s/60%60, s%60)
}
