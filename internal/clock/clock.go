package clock

import "time"

// Clock abstracts wall-clock time so schedule and promo-window checks can be
// tested with fixed timestamps.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func Real() Clock { return realClock{} }

// Fixed returns a Clock pinned to t.
func Fixed(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
