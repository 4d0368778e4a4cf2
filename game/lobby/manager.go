package lobby

import (
	"sync"
	"time"

	"github.com/matchmind/memory-server/game/match"
)

// Manager owns the collection of sessions that have not started yet. It
// handles creation, joining, ready toggling, departure, forced removal, and
// ownership handoff while a session is still in the Waiting state. Once a
// session starts it is taken out of the manager and handed to the engine.
type Manager struct {
	mu       sync.Mutex
	nextID   int64
	sessions map[int64]*match.Session
}

// NewManager creates an empty lobby manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[int64]*match.Session),
	}
}

// Create makes a new Waiting session owned by the given identity. Session ids
// are assigned monotonically. Capacity is fixed at creation from the board
// dimensions and never changes afterwards.
func (m *Manager) Create(owner match.Identity, rows, cols int) (*match.Session, error) {
	if owner.UserID == "" || rows <= 0 || cols <= 0 {
		return nil, match.ErrInvalidDimensions
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	s := &match.Session{
		ID:       m.nextID,
		Rows:     rows,
		Cols:     cols,
		Capacity: match.CapacityFor(rows, cols),
		Status:   match.StatusWaiting,
		OwnerID:  owner.UserID,
		Participants: []*match.Participant{
			{UserID: owner.UserID, Name: owner.Name, Connected: true},
		},
		CreatedAt: time.Now(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

// Get returns a snapshot of the Waiting session with the given id. The copy
// can be marshaled or inspected without holding the manager's lock.
func (m *Manager) Get(id int64) (*match.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, match.ErrSessionNotFound
	}
	return s.Clone(), nil
}

// Join appends the identity to the session as a not-ready participant.
// Distinct errors separate "not found", "not waiting", "capacity reached" and
// "already a member" so callers can report each precisely.
func (m *Manager) Join(id int64, user match.Identity) (*match.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, match.ErrSessionNotFound
	}
	if s.Status != match.StatusWaiting {
		return nil, match.ErrNotWaiting
	}
	if len(s.Participants) >= s.Capacity {
		return nil, match.ErrLobbyFull
	}
	if s.Participant(user.UserID) != nil {
		return nil, match.ErrAlreadyMember
	}

	s.Participants = append(s.Participants, &match.Participant{
		UserID:    user.UserID,
		Name:      user.Name,
		Connected: true,
	})
	return s, nil
}

// SetReady toggles the participant's ready flag. A caller that is not a
// member gets the session back unchanged rather than an error; start never
// consults ready flags, so the toggle is purely informational.
func (m *Manager) SetReady(id int64, userID string) (*match.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, match.ErrSessionNotFound
	}
	if p := s.Participant(userID); p != nil {
		p.Ready = !p.Ready
	}
	return s, nil
}

// Leave removes the participant from the session. When the departing
// participant owned the session and others remain, ownership transfers to the
// first remaining participant in list order and prevOwner carries the old
// owner's id. When the last participant leaves, the session is deleted and
// the returned session is nil.
func (m *Manager) Leave(id int64, userID string) (s *match.Session, prevOwner string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, "", match.ErrSessionNotFound
	}
	if s.Participant(userID) == nil {
		return nil, "", match.ErrNotMember
	}

	removeParticipant(s, userID)

	if len(s.Participants) == 0 {
		delete(m.sessions, id)
		return nil, "", nil
	}
	if s.OwnerID == userID {
		prevOwner = userID
		s.OwnerID = s.Participants[0].UserID
	}
	return s, prevOwner, nil
}

// Remove evicts target from the session. Only the current owner may do this.
func (m *Manager) Remove(id int64, requesterID, targetID string) (*match.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, match.ErrSessionNotFound
	}
	if s.OwnerID != requesterID {
		return nil, match.ErrNotOwner
	}
	if s.Participant(targetID) == nil {
		return nil, match.ErrNotMember
	}

	removeParticipant(s, targetID)

	// An owner removing themselves is a departure; the session must not be
	// left with an absent owner.
	if len(s.Participants) == 0 {
		delete(m.sessions, id)
	} else if s.OwnerID == targetID {
		s.OwnerID = s.Participants[0].UserID
	}
	return s, nil
}

// List returns snapshots of all Waiting sessions, used for lobby-browsing
// broadcasts and the REST observer endpoints.
func (m *Manager) List() []*match.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*match.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Clone())
	}
	return out
}

// Take removes the session from the lobby for handoff to the game engine.
// Only the owner may start a session, and only while it is Waiting.
func (m *Manager) Take(id int64, requesterID string) (*match.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, match.ErrSessionNotFound
	}
	if s.Status != match.StatusWaiting {
		return nil, match.ErrNotWaiting
	}
	if s.OwnerID != requesterID {
		return nil, match.ErrNotOwner
	}

	delete(m.sessions, id)
	return s, nil
}

// Restore puts a taken session back into the lobby, used when the engine
// refuses the handoff. The session must still be Waiting.
func (m *Manager) Restore(s *match.Session) {
	if s == nil || s.Status != match.StatusWaiting {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.ID] = s
}

func removeParticipant(s *match.Session, userID string) {
	for i, p := range s.Participants {
		if p.UserID == userID {
			s.Participants = append(s.Participants[:i], s.Participants[i+1:]...)
			return
		}
	}
}
