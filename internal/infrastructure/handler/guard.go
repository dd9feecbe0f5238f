package handler

import (
	"errors"
	"sync/atomic"
)

// ErrActionInFlight is returned when an action is triggered again before its
// previous request has completed
var ErrActionInFlight = errors.New("action already in flight")

// inFlightGuard allows one running request per action
type inFlightGuard struct {
	busy atomic.Bool
}

func (g *inFlightGuard) acquire() bool {
	return g.busy.CompareAndSwap(false, true)
}

func (g *inFlightGuard) release() {
	g.busy.Store(false)
}
