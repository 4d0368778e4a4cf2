// Package match holds the shared session model: participants, lifecycle
// status, turn state, and terminal summaries. It has no behavior of its own
// beyond read helpers; the lobby and engine packages mutate it.
package match

import (
	"time"

	"github.com/matchmind/memory-server/game/board"
)

// Status is the lifecycle state of a session. Transitions only ever move
// forward: Waiting -> Started -> Ended.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusStarted Status = "started"
	StatusEnded   Status = "ended"
)

// Phase is the sub-state of a started session's current turn.
//
// PhasePicking covers both "no card revealed" and "one card revealed"; the
// count of currently revealed unmatched cards distinguishes them. PhaseResolving
// is the locked window between the second flip and pair resolution, during
// which further flips are rejected.
type Phase string

const (
	PhasePicking   Phase = "picking"
	PhaseResolving Phase = "resolving"
)

// Identity is an authenticated caller, supplied by the client before any
// lobby or game command is accepted.
type Identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Participant is a user's membership record within a single session,
// including per-match counters. A participant belongs to exactly one session.
type Participant struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Connected  bool   `json:"connected"`
	Ready      bool   `json:"ready"`
	Inactive   bool   `json:"inactive"`
	Turns      int    `json:"turns"`
	PairsFound int    `json:"pairs_found"`
}

// Session is one instance of a pending or active match.
type Session struct {
	ID           int64          `json:"id"`
	Rows         int            `json:"rows"`
	Cols         int            `json:"cols"`
	Capacity     int            `json:"capacity"`
	Status       Status         `json:"status"`
	OwnerID      string         `json:"owner_id"`
	Participants []*Participant `json:"participants"`
	Board        []board.Card   `json:"board,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	// StartedAt is set on the first card flip of the whole game, not on start.
	StartedAt time.Time `json:"started_at,omitempty"`

	// Turn state, meaningful only while Status == StatusStarted.
	Turn       int   `json:"turn"`
	Phase      Phase `json:"phase,omitempty"`
	Revealed   []int `json:"revealed,omitempty"`
	TotalMoves int   `json:"total_moves"`

	// BestID tracks the participant with the most pairs found so far. It only
	// changes when a participant's count strictly exceeds the current best,
	// so ties resolve to whoever got there first.
	BestID string `json:"best_id,omitempty"`
}

// CapacityFor returns the player capacity for a board of the given
// dimensions: 3x4 seats 2 players, 4x4 seats 3, anything else seats 5.
func CapacityFor(rows, cols int) int {
	switch {
	case rows == 3 && cols == 4:
		return 2
	case rows == 4 && cols == 4:
		return 3
	default:
		return 5
	}
}

// Participant returns the member record for the given user, or nil.
func (s *Session) Participant(userID string) *Participant {
	for _, p := range s.Participants {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the participant whose turn it is, or nil when the
// turn index is out of range.
func (s *Session) CurrentPlayer() *Participant {
	if s.Turn < 0 || s.Turn >= len(s.Participants) {
		return nil
	}
	return s.Participants[s.Turn]
}

// ActiveCount returns the number of participants not marked inactive.
func (s *Session) ActiveCount() int {
	n := 0
	for _, p := range s.Participants {
		if !p.Inactive {
			n++
		}
	}
	return n
}

// FirstActive returns the first participant in list order that is still
// active, or nil when none remain.
func (s *Session) FirstActive() *Participant {
	for _, p := range s.Participants {
		if !p.Inactive {
			return p
		}
	}
	return nil
}

// NextActiveTurn returns the index of the next active participant after the
// given index, wrapping around. It never lands on an inactive participant.
// Returns -1 when no participant is active.
func (s *Session) NextActiveTurn(from int) int {
	n := len(s.Participants)
	if n == 0 {
		return -1
	}
	for step := 1; step <= n; step++ {
		idx := (from + step) % n
		if !s.Participants[idx].Inactive {
			return idx
		}
	}
	return -1
}

// Clone returns a deep copy of the session. Read paths that marshal or
// inspect a session after releasing the owning lock must work on a copy;
// timer callbacks keep mutating the live one.
func (s *Session) Clone() *Session {
	c := *s
	if s.Participants != nil {
		c.Participants = make([]*Participant, len(s.Participants))
		for i, p := range s.Participants {
			pc := *p
			c.Participants[i] = &pc
		}
	}
	c.Board = append([]board.Card(nil), s.Board...)
	c.Revealed = append([]int(nil), s.Revealed...)
	return &c
}

// Best returns the participant tracked as best so far, or nil.
func (s *Session) Best() *Participant {
	if s.BestID == "" {
		return nil
	}
	return s.Participant(s.BestID)
}
