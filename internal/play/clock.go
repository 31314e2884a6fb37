package play

import "time"

// Ticker delivers the polling cadence of the game loop.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock abstracts time operations to allow testing.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

func (c *realClock) Now() time.Time {
	return time.Now()
}

func (c *realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

// SystemClock is the default clock implementation.
var SystemClock Clock = &realClock{}
