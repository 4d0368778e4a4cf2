package engine

import (
	"log"
	"sync"
	"time"

	"github.com/matchmind/memory-server/game/board"
	"github.com/matchmind/memory-server/game/match"
)

// Default timing for the turn state machine. Both windows are configurable so
// tests can run with short durations.
const (
	DefaultTurnTimeout  = 20 * time.Second
	DefaultResolveDelay = 1 * time.Second
)

// Notifier receives engine-driven state transitions: everything that happens
// on a timer rather than as the direct result of a command. The dispatcher
// implements it and fans events out through the connection registry.
type Notifier interface {
	// GameUpdated is emitted after a deferred transition leaves the session
	// still running. remaining is the time left on the freshly armed turn timer.
	GameUpdated(s *match.Session, remaining time.Duration)

	// PlayerLeft is emitted after a participant is evicted (timeout,
	// disconnect, or explicit departure) and the session continues.
	PlayerLeft(s *match.Session, userID string)

	// OwnerChanged is emitted when an eviction transfers ownership. The
	// implementation must notify the previous owner individually before
	// broadcasting the transfer to the rest of the session.
	OwnerChanged(s *match.Session, prevOwnerID string)

	// GameEnded is emitted exactly once when all pairs have been matched.
	GameEnded(s *match.Session, sum *match.Summary)

	// GameCancelled is emitted when a session terminates without completing
	// the board: a forfeit win or an abandoned game.
	GameCancelled(s *match.Session, reason string, sum *match.Summary)
}

// Config holds the engine's timing parameters.
type Config struct {
	TurnTimeout  time.Duration
	ResolveDelay time.Duration
}

// Engine owns the per-session state machine for every started session: the
// card-flip protocol, turn rotation, inactivity timers, match detection, win
// determination, and termination. Sessions enter via Start (handed over from
// the lobby manager) and are removed the moment they end.
//
// All mutations run under one mutex; timer callbacks re-enter through the
// same lock and re-check session existence and status before acting, so a
// stale timer for a session that has since ended is a no-op.
type Engine struct {
	mu       sync.Mutex
	sessions map[int64]*match.Session
	timers   map[int64]*sessionTimer
	notifier Notifier

	turnTimeout  time.Duration
	resolveDelay time.Duration
}

// New creates an engine with no running sessions. Zero config values fall
// back to the defaults.
func New(notifier Notifier, cfg Config) *Engine {
	if cfg.TurnTimeout <= 0 {
		cfg.TurnTimeout = DefaultTurnTimeout
	}
	if cfg.ResolveDelay <= 0 {
		cfg.ResolveDelay = DefaultResolveDelay
	}
	return &Engine{
		sessions:     make(map[int64]*match.Session),
		timers:       make(map[int64]*sessionTimer),
		notifier:     notifier,
		turnTimeout:  cfg.TurnTimeout,
		resolveDelay: cfg.ResolveDelay,
	}
}

// Start populates the board, initializes turn state, arms the turn timer, and
// marks the session Started. The session must already have been taken out of
// the lobby manager. The returned session is a snapshot; the live one belongs
// to the engine from here on.
func (e *Engine) Start(s *match.Session) (*match.Session, error) {
	cards, err := board.Generate(s.Rows, s.Cols)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	s.Board = cards
	s.Status = match.StatusStarted
	s.Phase = match.PhasePicking
	s.Turn = 0
	s.Revealed = nil
	s.TotalMoves = 0

	e.sessions[s.ID] = s
	e.timers[s.ID] = &sessionTimer{}
	e.armTurnTimer(s)

	log.Printf("Session %d started: %dx%d board, %d players", s.ID, s.Rows, s.Cols, len(s.Participants))
	return s.Clone(), nil
}

// Get returns a snapshot of the started session with the given id. The copy
// can be marshaled without holding the engine lock while timers run.
func (e *Engine) Get(id int64) (*match.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	if !ok {
		return nil, match.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// List returns snapshots of all running sessions.
func (e *Engine) List() []*match.Session {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]*match.Session, 0, len(e.sessions))
	for _, s := range e.sessions {
		out = append(out, s.Clone())
	}
	return out
}

// RemainingTurnTime returns the time left before the current turn times out,
// or zero when no turn timer is armed.
func (e *Engine) RemainingTurnTime(id int64) time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()

	t, ok := e.timers[id]
	if !ok || t.turnDeadline.IsZero() {
		return 0
	}
	if d := time.Until(t.turnDeadline); d > 0 {
		return d
	}
	return 0
}

// FlipCard reveals a card for the calling participant.
//
// The first valid flip of a turn reveals the card and records the session
// start time if this is the first flip of the whole game. The turn timer is
// left disarmed while the second flip is awaited: there is deliberately no
// mid-turn timeout during pair selection.
//
// The second valid flip locks the turn (PhaseResolving), counts the move, and
// schedules pair resolution after the visibility delay. Resolution itself
// runs as a deferred transition and is reported through the Notifier.
//
// The returned session is a snapshot, safe to marshal after the lock is
// released.
func (e *Engine) FlipCard(id int64, userID string, cardIndex int) (*match.Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	if !ok {
		return nil, match.ErrSessionNotFound
	}

	p := s.Participant(userID)
	if p == nil {
		return nil, match.ErrNotMember
	}
	if current := s.CurrentPlayer(); current == nil || current.UserID != userID {
		return nil, match.ErrNotYourTurn
	}
	if s.Phase == match.PhaseResolving {
		return nil, match.ErrTurnLocked
	}
	if cardIndex < 0 || cardIndex >= len(s.Board) {
		return nil, match.ErrInvalidCard
	}
	card := &s.Board[cardIndex]
	if card.Matched || card.Revealed {
		return nil, match.ErrAlreadySelected
	}

	card.Revealed = true
	s.Revealed = append(s.Revealed, cardIndex)

	switch len(s.Revealed) {
	case 1:
		if s.StartedAt.IsZero() {
			s.StartedAt = time.Now()
		}
		// No timeout runs between the first and second flip.
		e.disarmTurnTimer(s.ID)

	case 2:
		e.disarmTurnTimer(s.ID)
		s.Phase = match.PhaseResolving
		s.TotalMoves++
		p.Turns++
		e.scheduleResolve(s.ID)
	}

	return s.Clone(), nil
}

// resolvePair runs after the visibility delay with both cards of a turn
// revealed. It decides match vs. mismatch, ends the game when the board is
// complete, and otherwise re-arms the turn timer for the next player.
func (e *Engine) resolvePair(id int64, epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	if !ok || s.Status != match.StatusStarted || !e.validEpoch(id, epoch) {
		return
	}
	if s.Phase != match.PhaseResolving || len(s.Revealed) != 2 {
		return
	}

	a, b := &s.Board[s.Revealed[0]], &s.Board[s.Revealed[1]]
	current := s.CurrentPlayer()

	if a.Symbol == b.Symbol {
		a.Matched, b.Matched = true, true
		a.Revealed, b.Revealed = false, false
		if current != nil {
			current.PairsFound++
			// Strictly greater: ties keep whoever became best first.
			if best := s.Best(); best == nil || current.PairsFound > best.PairsFound {
				s.BestID = current.UserID
			}
		}
		// A match keeps the turn with the same player.
	} else {
		a.Revealed, b.Revealed = false, false
		s.Turn = s.NextActiveTurn(s.Turn)
	}

	s.Revealed = nil
	s.Phase = match.PhasePicking

	// The current player may have been evicted while the pair was resolving;
	// the turn must never rest on an inactive participant.
	if cur := s.CurrentPlayer(); cur == nil || cur.Inactive {
		s.Turn = s.NextActiveTurn(s.Turn)
	}

	if board.AllMatched(s.Board) {
		winner := s.Best()
		if winner == nil && len(s.Participants) > 0 {
			winner = s.Participants[0]
		}
		sum := e.endSession(s, winner, match.ReasonCompleted)
		e.notifier.GameEnded(s, sum)
		return
	}

	e.armTurnTimer(s)
	e.notifier.GameUpdated(s, e.turnTimeout)
}

// Leave evicts the participant immediately: explicit departure and disconnect
// follow the same path as a turn timeout, without waiting for the interval.
func (e *Engine) Leave(id int64, userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	if !ok {
		return match.ErrSessionNotFound
	}
	p := s.Participant(userID)
	if p == nil || p.Inactive {
		return match.ErrNotMember
	}

	e.evict(s, p, "left the game")
	return nil
}

// HandleDisconnect evicts the user from whichever running session they belong
// to, if any. Called by the dispatcher when a user's last connection drops.
func (e *Engine) HandleDisconnect(userID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, s := range e.sessions {
		if p := s.Participant(userID); p != nil && !p.Inactive {
			p.Connected = false
			e.evict(s, p, "disconnected")
			return
		}
	}
}

// handleTurnTimeout fires when the current player lets the turn timer expire.
func (e *Engine) handleTurnTimeout(id int64, epoch uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.sessions[id]
	if !ok || s.Status != match.StatusStarted || !e.validEpoch(id, epoch) {
		return
	}

	current := s.CurrentPlayer()
	if current == nil || current.Inactive {
		return
	}

	log.Printf("Session %d: %s timed out", s.ID, current.UserID)
	e.evict(s, current, "timed out")
}

// evict marks the participant inactive and runs the shared
// eviction/ownership-transfer/possible-forfeit-termination path. Must be
// called with the engine lock held.
func (e *Engine) evict(s *match.Session, p *match.Participant, cause string) {
	wasCurrent := s.CurrentPlayer() == p
	p.Inactive = true

	// Ownership continuity: hand the session to the first remaining active
	// participant. The old owner is told individually before the wider
	// broadcast so no one observes an inconsistent owner.
	if s.OwnerID == p.UserID {
		if next := s.FirstActive(); next != nil {
			prev := s.OwnerID
			s.OwnerID = next.UserID
			e.notifier.OwnerChanged(s, prev)
		}
	}

	active := s.ActiveCount()
	if active <= 1 {
		winner := s.FirstActive()
		sum := e.endSession(s, winner, match.ReasonForfeit)
		e.notifier.GameCancelled(s, cause, sum)
		return
	}

	rearmed := false
	if wasCurrent {
		// A half-finished selection is abandoned: hide the single revealed
		// card so the next player starts a clean turn. A pending pair
		// resolution, however, is left to run.
		if s.Phase == match.PhasePicking && len(s.Revealed) == 1 {
			s.Board[s.Revealed[0]].Revealed = false
			s.Revealed = nil
		}
		if s.Phase == match.PhasePicking {
			s.Turn = s.NextActiveTurn(s.Turn)
			e.armTurnTimer(s)
			rearmed = true
		}
	}

	e.notifier.PlayerLeft(s, p.UserID)
	if rearmed {
		e.notifier.GameUpdated(s, e.turnTimeout)
	}
}

// endSession moves the session to Ended, cancels its timers, and removes it
// from the registry. No session outlives Ended; durability is the result
// consumer's responsibility. Must be called with the engine lock held.
func (e *Engine) endSession(s *match.Session, winner *match.Participant, reason string) *match.Summary {
	s.Status = match.StatusEnded
	s.Phase = ""
	e.disarmTurnTimer(s.ID)
	if t, ok := e.timers[s.ID]; ok {
		t.epoch++ // invalidate any in-flight resolve callback
	}
	delete(e.sessions, s.ID)
	delete(e.timers, s.ID)

	log.Printf("Session %d ended (%s)", s.ID, reason)
	return match.Summarize(s, winner, reason)
}

// Shutdown stops every running session's timers. Sessions are in-memory and
// ephemeral, so nothing else needs tearing down.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	for id := range e.timers {
		e.disarmTurnTimer(id)
		e.timers[id].epoch++
	}
}
