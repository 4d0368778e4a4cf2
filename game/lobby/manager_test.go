package lobby

import (
	"testing"

	"github.com/matchmind/memory-server/game/match"
)

func alice() match.Identity { return match.Identity{UserID: "alice", Name: "Alice"} }
func bob() match.Identity   { return match.Identity{UserID: "bob", Name: "Bob"} }
func carol() match.Identity { return match.Identity{UserID: "carol", Name: "Carol"} }

func TestManager_Create(t *testing.T) {
	m := NewManager()

	s, err := m.Create(alice(), 3, 4)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if s.ID != 1 {
		t.Errorf("Expected first session id 1, got %d", s.ID)
	}
	if s.Status != match.StatusWaiting {
		t.Errorf("Expected waiting status, got %s", s.Status)
	}
	if s.Capacity != 2 {
		t.Errorf("Expected capacity 2 for a 3x4 board, got %d", s.Capacity)
	}
	if s.OwnerID != "alice" {
		t.Errorf("Expected alice as owner, got %s", s.OwnerID)
	}
	if len(s.Participants) != 1 || s.Participants[0].UserID != "alice" {
		t.Errorf("Expected the creator as sole participant, got %v", s.Participants)
	}

	// Ids are monotonic.
	s2, _ := m.Create(bob(), 4, 4)
	if s2.ID != 2 {
		t.Errorf("Expected second session id 2, got %d", s2.ID)
	}
	if s2.Capacity != 3 {
		t.Errorf("Expected capacity 3 for a 4x4 board, got %d", s2.Capacity)
	}
}

func TestManager_Create_Invalid(t *testing.T) {
	m := NewManager()

	if _, err := m.Create(alice(), 0, 4); err != match.ErrInvalidDimensions {
		t.Errorf("Expected ErrInvalidDimensions for 0 rows, got %v", err)
	}
	if _, err := m.Create(alice(), 3, -1); err != match.ErrInvalidDimensions {
		t.Errorf("Expected ErrInvalidDimensions for negative cols, got %v", err)
	}
	if _, err := m.Create(match.Identity{}, 3, 4); err == nil {
		t.Error("Expected error for empty owner")
	}
}

func TestManager_Join(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 3, 4)

	joined, err := m.Join(s.ID, bob())
	if err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if len(joined.Participants) != 2 {
		t.Errorf("Expected 2 participants, got %d", len(joined.Participants))
	}
	if joined.Participants[1].Ready {
		t.Error("Expected new participant to be not ready")
	}

	if _, err := m.Join(99, carol()); err != match.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, err := m.Join(s.ID, bob()); err != match.ErrAlreadyMember {
		t.Errorf("Expected ErrAlreadyMember, got %v", err)
	}
	// Capacity 2 is reached.
	if _, err := m.Join(s.ID, carol()); err != match.ErrLobbyFull {
		t.Errorf("Expected ErrLobbyFull, got %v", err)
	}
}

func TestManager_SetReady(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 3, 4)

	got, err := m.SetReady(s.ID, "alice")
	if err != nil {
		t.Fatalf("SetReady failed: %v", err)
	}
	if !got.Participants[0].Ready {
		t.Error("Expected alice ready after toggle")
	}

	got, _ = m.SetReady(s.ID, "alice")
	if got.Participants[0].Ready {
		t.Error("Expected ready toggled back off")
	}

	// Non-members get the session back unchanged.
	got, err = m.SetReady(s.ID, "stranger")
	if err != nil {
		t.Errorf("Expected no error for non-member, got %v", err)
	}
	if got.Participants[0].Ready {
		t.Error("Expected no state change from non-member toggle")
	}

	if _, err := m.SetReady(99, "alice"); err != match.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestManager_Leave(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 5, 5)
	m.Join(s.ID, bob())

	// Owner leaves: ownership moves to the first remaining participant.
	got, prevOwner, err := m.Leave(s.ID, "alice")
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if prevOwner != "alice" {
		t.Errorf("Expected prev owner alice, got %q", prevOwner)
	}
	if got.OwnerID != "bob" {
		t.Errorf("Expected bob as new owner, got %s", got.OwnerID)
	}

	// Last participant leaves: the session is deleted.
	got, prevOwner, err = m.Leave(s.ID, "bob")
	if err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	if got != nil || prevOwner != "" {
		t.Errorf("Expected nil session after last departure, got %v / %q", got, prevOwner)
	}
	if _, err := m.Get(s.ID); err != match.ErrSessionNotFound {
		t.Errorf("Expected session deleted, got %v", err)
	}
}

func TestManager_Leave_Errors(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 3, 4)

	if _, _, err := m.Leave(99, "alice"); err != match.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, _, err := m.Leave(s.ID, "stranger"); err != match.ErrNotMember {
		t.Errorf("Expected ErrNotMember, got %v", err)
	}
}

func TestManager_Remove(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 5, 5)
	m.Join(s.ID, bob())

	if _, err := m.Remove(s.ID, "bob", "alice"); err != match.ErrNotOwner {
		t.Errorf("Expected ErrNotOwner for non-owner, got %v", err)
	}
	if _, err := m.Remove(s.ID, "alice", "stranger"); err != match.ErrNotMember {
		t.Errorf("Expected ErrNotMember for absent target, got %v", err)
	}

	got, err := m.Remove(s.ID, "alice", "bob")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if got.Participant("bob") != nil {
		t.Error("Expected bob removed")
	}
}

func TestManager_Remove_SelfTransfersOwnership(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 5, 5)
	m.Join(s.ID, bob())

	got, err := m.Remove(s.ID, "alice", "alice")
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if got.OwnerID != "bob" {
		t.Errorf("Expected ownership handed to bob, got %s", got.OwnerID)
	}
}

func TestManager_Restore(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 3, 4)

	taken, err := m.Take(s.ID, "alice")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}

	// A refused handoff puts the session back; it is browsable and joinable
	// again.
	m.Restore(taken)
	if _, err := m.Get(s.ID); err != nil {
		t.Fatalf("Expected session back in the lobby, got %v", err)
	}
	if _, err := m.Join(s.ID, bob()); err != nil {
		t.Errorf("Expected join after restore, got %v", err)
	}

	// Started or nil sessions are not restorable.
	taken.Status = match.StatusStarted
	m2 := NewManager()
	m2.Restore(taken)
	m2.Restore(nil)
	if len(m2.List()) != 0 {
		t.Errorf("Expected nothing restored, got %d", len(m2.List()))
	}
}

func TestManager_SnapshotsAreDetached(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 3, 4)

	listed := m.List()
	if len(listed) != 1 {
		t.Fatalf("Expected 1 listed session, got %d", len(listed))
	}
	listed[0].OwnerID = "mallory"
	listed[0].Participants[0].Ready = true
	if s.OwnerID != "alice" || s.Participants[0].Ready {
		t.Error("Expected listing edits not to touch the live session")
	}

	got, err := m.Get(s.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.Capacity = 99
	if s.Capacity != 2 {
		t.Error("Expected Get to return a copy")
	}
}

func TestManager_Take(t *testing.T) {
	m := NewManager()
	s, _ := m.Create(alice(), 3, 4)
	m.Join(s.ID, bob())

	if _, err := m.Take(s.ID, "bob"); err != match.ErrNotOwner {
		t.Errorf("Expected ErrNotOwner, got %v", err)
	}
	if _, err := m.Take(99, "alice"); err != match.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	taken, err := m.Take(s.ID, "alice")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if taken.ID != s.ID {
		t.Errorf("Expected session %d, got %d", s.ID, taken.ID)
	}

	// The session left the lobby; it can no longer be browsed or joined.
	if _, err := m.Get(s.ID); err != match.ErrSessionNotFound {
		t.Errorf("Expected session gone from lobby, got %v", err)
	}
	if len(m.List()) != 0 {
		t.Errorf("Expected empty listing, got %d", len(m.List()))
	}
}
