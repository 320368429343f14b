package server

import "time"

// Pacing delays. These are part of the protocol UX: clients expect the
// server to hold the completed trick on screen before announcing the
// winner and moving on.
const (
	aiTrumpDelay     = time.Second
	aiPlayDelay      = 500 * time.Millisecond
	trickWinnerDelay = 2 * time.Second
	nextTrickDelay   = time.Second
)

// Clock abstracts the cooperative sleeps on a room's lane so the test
// suite can run without wall time.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// NewRealClock returns a Clock backed by time.Sleep.
func NewRealClock() Clock { return realClock{} }
