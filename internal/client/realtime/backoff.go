package realtime

import "time"

// Backoff задержка перед следующей попыткой после failures неудач подряд:
// base * 2^(failures-1), но не больше max
func Backoff(base, max time.Duration, failures int) time.Duration {
	if failures <= 0 || base <= 0 {
		return 0
	}
	delay := base
	for i := 1; i < failures; i++ {
		delay *= 2
		if max > 0 && delay >= max {
			return max
		}
	}
	if max > 0 && delay > max {
		return max
	}
	return delay
}
