package ionicfs

import "time"

// Clock supplies the current time as a directory-entry timestamp: seconds
// since the Unix epoch. It exists so tests can freeze time instead of
// asserting against whatever time.Now() happens to return.
type Clock interface {
	Now() uint64
}

// SystemClock is the production Clock, backed by the host's wall clock.
type SystemClock struct{}

// Now returns the current Unix time in seconds.
func (SystemClock) Now() uint64 {
	return uint64(time.Now().Unix())
}
