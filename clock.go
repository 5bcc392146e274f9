package sentinel

import "time"

// Clock abstracts the time source used for every effectiveness check, so
// "now" is an explicit input rather than ambient state and evaluation is
// deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by the wall clock (UTC).
func SystemClock() Clock { return systemClock{} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// FixedClock returns a Clock pinned to t.
func FixedClock(t time.Time) Clock { return fixedClock{t: t} }
