package ledger

import "time"

// Clock supplies the current time to every operation so that lock-expiry and
// deposit-interval logic can be tested deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }
