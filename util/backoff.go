package util

import "time"

// RetryFixed runs fn up to attempts times, sleeping delay between tries.
// It returns nil on the first success, otherwise the last error. Used for
// profile/role resolution, where a freshly created account may race the
// therapist-linking write.
func RetryFixed(attempts int, delay time.Duration, fn func() error) error {
	if attempts < 1 {
		attempts = 1
	}
	var err error
	for i := 0; i < attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		if i < attempts-1 {
			time.Sleep(delay)
		}
	}
	return err
}
