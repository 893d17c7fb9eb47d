package utils

import (
	"fmt"
	"time"
)

// FormatClock renders d as hh:mm:ss, truncated to whole seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int64(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}

// ETA estimates the time left for total items given done items in elapsed,
// assuming a constant rate. It is zero until the first item completes.
func ETA(elapsed time.Duration, done, total int) time.Duration {
	if done <= 0 || total <= done {
		return 0
	}
	per := elapsed / time.Duration(done)
	return per * time.Duration(total-done)
}
