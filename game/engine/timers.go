package engine

import (
	"time"

	"github.com/matchmind/memory-server/game/match"
)

// sessionTimer tracks the cancellable scheduled work for one session: the
// turn-timeout timer and the pair-resolution delay.
//
// Both are keyed by an epoch counter. Every arm/disarm bumps the epoch, and a
// callback that fires with a stale epoch finds validEpoch false and returns
// without acting. That guards against the session having ended, the timer
// having been re-armed, or a flip having landed between scheduling and firing.
type sessionTimer struct {
	epoch        uint64
	turnTimer    *time.Timer
	turnDeadline time.Time
}

// armTurnTimer starts the inactivity countdown for the current player.
// Must be called with the engine lock held.
func (e *Engine) armTurnTimer(s *match.Session) {
	t, ok := e.timers[s.ID]
	if !ok {
		return
	}
	if t.turnTimer != nil {
		t.turnTimer.Stop()
	}

	t.epoch++
	epoch := t.epoch
	id := s.ID
	t.turnDeadline = time.Now().Add(e.turnTimeout)
	t.turnTimer = time.AfterFunc(e.turnTimeout, func() {
		e.handleTurnTimeout(id, epoch)
	})
}

// disarmTurnTimer cancels the inactivity countdown, if armed. A fire already
// in flight becomes a no-op through the epoch guard.
// Must be called with the engine lock held.
func (e *Engine) disarmTurnTimer(id int64) {
	t, ok := e.timers[id]
	if !ok {
		return
	}
	if t.turnTimer != nil {
		t.turnTimer.Stop()
		t.turnTimer = nil
	}
	t.turnDeadline = time.Time{}
	t.epoch++
}

// scheduleResolve queues the pair-resolution continuation after the fixed
// visibility delay. Must be called with the engine lock held.
func (e *Engine) scheduleResolve(id int64) {
	t, ok := e.timers[id]
	if !ok {
		return
	}
	t.epoch++
	epoch := t.epoch
	time.AfterFunc(e.resolveDelay, func() {
		e.resolvePair(id, epoch)
	})
}

// validEpoch reports whether the given epoch is still current for the
// session. Must be called with the engine lock held.
func (e *Engine) validEpoch(id int64, epoch uint64) bool {
	t, ok := e.timers[id]
	return ok && t.epoch == epoch
}
