package engine

import "time"

// Clock abstracts wall-clock reads so tests and replay tooling can supply
// deterministic timestamps. The engine never calls time.Now directly.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }
