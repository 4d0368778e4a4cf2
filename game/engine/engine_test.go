package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/matchmind/memory-server/game/match"
)

// recordingNotifier captures engine notifications for assertions.
type recordingNotifier struct {
	mu           sync.Mutex
	updates      int
	left         []string
	prevOwners   []string
	ended        *match.Summary
	cancelled    *match.Summary
	cancelReason string
}

func (n *recordingNotifier) GameUpdated(s *match.Session, remaining time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates++
}

func (n *recordingNotifier) PlayerLeft(s *match.Session, userID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.left = append(n.left, userID)
}

func (n *recordingNotifier) OwnerChanged(s *match.Session, prevOwnerID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.prevOwners = append(n.prevOwners, prevOwnerID)
}

func (n *recordingNotifier) GameEnded(s *match.Session, sum *match.Summary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ended = sum
}

func (n *recordingNotifier) GameCancelled(s *match.Session, reason string, sum *match.Summary) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cancelled = sum
	n.cancelReason = reason
}

func (n *recordingNotifier) snapshot() recordingNotifier {
	n.mu.Lock()
	defer n.mu.Unlock()
	return recordingNotifier{
		updates:      n.updates,
		left:         append([]string(nil), n.left...),
		prevOwners:   append([]string(nil), n.prevOwners...),
		ended:        n.ended,
		cancelled:    n.cancelled,
		cancelReason: n.cancelReason,
	}
}

func testSession(id int64, users ...string) *match.Session {
	s := &match.Session{
		ID:       id,
		Rows:     3,
		Cols:     4,
		Capacity: match.CapacityFor(3, 4),
		Status:   match.StatusWaiting,
		OwnerID:  users[0],
	}
	for _, u := range users {
		s.Participants = append(s.Participants, &match.Participant{UserID: u, Name: u, Connected: true})
	}
	return s
}

// findPair returns the indices of two unmatched cards with the same symbol.
func findPair(s *match.Session) (int, int) {
	for i := range s.Board {
		if s.Board[i].Matched || s.Board[i].Revealed {
			continue
		}
		for j := i + 1; j < len(s.Board); j++ {
			if !s.Board[j].Matched && !s.Board[j].Revealed && s.Board[j].Symbol == s.Board[i].Symbol {
				return i, j
			}
		}
	}
	return -1, -1
}

// findMismatch returns the indices of two unmatched cards with different symbols.
func findMismatch(s *match.Session) (int, int) {
	for i := range s.Board {
		if s.Board[i].Matched || s.Board[i].Revealed {
			continue
		}
		for j := i + 1; j < len(s.Board); j++ {
			if !s.Board[j].Matched && !s.Board[j].Revealed && s.Board[j].Symbol != s.Board[i].Symbol {
				return i, j
			}
		}
	}
	return -1, -1
}

func TestEngine_Start(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if s.Status != match.StatusStarted {
		t.Errorf("Expected status started, got %s", s.Status)
	}
	if s.Phase != match.PhasePicking {
		t.Errorf("Expected phase picking, got %s", s.Phase)
	}
	if len(s.Board) != 12 {
		t.Errorf("Expected 12 cards on a 3x4 board, got %d", len(s.Board))
	}
	if s.Turn != 0 {
		t.Errorf("Expected turn 0, got %d", s.Turn)
	}
	if e.RemainingTurnTime(1) <= 0 {
		t.Error("Expected turn timer to be armed")
	}

	got, err := e.Get(1)
	if err != nil || got.ID != s.ID {
		t.Errorf("Expected Get to return the session, got %v, %v", got, err)
	}
}

func TestEngine_SnapshotsAreDetached(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: time.Minute, ResolveDelay: time.Minute})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1")
	started, err := e.Start(s)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Writes to a snapshot must never reach the live session.
	started.Participants[0].Inactive = true
	if s.Participants[0].Inactive {
		t.Error("Expected Start snapshot detached from the live participants")
	}

	got, err := e.Get(1)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	got.Board[0].Revealed = true
	got.Turn = 99
	if s.Board[0].Revealed || s.Turn == 99 {
		t.Error("Expected Get snapshot detached from the live session")
	}

	flipped, err := e.FlipCard(1, "u0", 0)
	if err != nil {
		t.Fatalf("Flip failed: %v", err)
	}
	flipped.Board[1].Matched = true
	flipped.Revealed = append(flipped.Revealed, 5)
	if s.Board[1].Matched || len(s.Revealed) != 1 {
		t.Error("Expected FlipCard snapshot detached from the live session")
	}

	if listed := e.List(); len(listed) != 1 || listed[0] == s {
		t.Error("Expected List to return copies")
	}
}

func TestEngine_FlipValidation(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{ResolveDelay: time.Minute})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := e.FlipCard(99, "u0", 0); err != match.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
	if _, err := e.FlipCard(1, "stranger", 0); err != match.ErrNotMember {
		t.Errorf("Expected ErrNotMember, got %v", err)
	}
	if _, err := e.FlipCard(1, "u1", 0); err != match.ErrNotYourTurn {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}
	if _, err := e.FlipCard(1, "u0", -1); err != match.ErrInvalidCard {
		t.Errorf("Expected ErrInvalidCard for negative index, got %v", err)
	}
	if _, err := e.FlipCard(1, "u0", len(s.Board)); err != match.ErrInvalidCard {
		t.Errorf("Expected ErrInvalidCard for out-of-range index, got %v", err)
	}

	if _, err := e.FlipCard(1, "u0", 0); err != nil {
		t.Fatalf("First flip failed: %v", err)
	}
	if _, err := e.FlipCard(1, "u0", 0); err != match.ErrAlreadySelected {
		t.Errorf("Expected ErrAlreadySelected for re-flipping the same card, got %v", err)
	}

	if _, err := e.FlipCard(1, "u0", 1); err != nil {
		t.Fatalf("Second flip failed: %v", err)
	}
	// Resolution is a minute away; the turn is locked meanwhile.
	if _, err := e.FlipCard(1, "u0", 2); err != match.ErrTurnLocked {
		t.Errorf("Expected ErrTurnLocked during resolution, got %v", err)
	}
}

func TestEngine_MatchKeepsTurn(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: time.Minute, ResolveDelay: 10 * time.Millisecond})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	i, j := findPair(s)
	if _, err := e.FlipCard(1, "u0", i); err != nil {
		t.Fatalf("First flip failed: %v", err)
	}
	if _, err := e.FlipCard(1, "u0", j); err != nil {
		t.Fatalf("Second flip failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if !s.Board[i].Matched || !s.Board[j].Matched {
		t.Error("Expected both cards matched")
	}
	if s.Turn != 0 {
		t.Errorf("Expected turn to stay with player 0, got %d", s.Turn)
	}
	if got := s.Participants[0].PairsFound; got != 1 {
		t.Errorf("Expected 1 pair found, got %d", got)
	}
	if s.BestID != "u0" {
		t.Errorf("Expected u0 to be best, got %q", s.BestID)
	}
	if s.TotalMoves != 1 {
		t.Errorf("Expected 1 move, got %d", s.TotalMoves)
	}
}

func TestEngine_MismatchAdvancesTurn(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: time.Minute, ResolveDelay: 10 * time.Millisecond})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	i, j := findMismatch(s)
	if _, err := e.FlipCard(1, "u0", i); err != nil {
		t.Fatalf("First flip failed: %v", err)
	}
	if _, err := e.FlipCard(1, "u0", j); err != nil {
		t.Fatalf("Second flip failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	if s.Board[i].Revealed || s.Board[j].Revealed {
		t.Error("Expected mismatched cards to be hidden again")
	}
	if s.Board[i].Matched || s.Board[j].Matched {
		t.Error("Expected mismatched cards to stay unmatched")
	}
	if s.Turn != 1 {
		t.Errorf("Expected turn to advance to player 1, got %d", s.Turn)
	}
	if s.Phase != match.PhasePicking {
		t.Errorf("Expected phase picking after resolution, got %s", s.Phase)
	}
	if n.snapshot().updates == 0 {
		t.Error("Expected a game update after resolution")
	}
	if e.RemainingTurnTime(1) <= 0 {
		t.Error("Expected turn timer re-armed for the next player")
	}
}

func TestEngine_NoTimeoutBetweenFlips(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: 50 * time.Millisecond, ResolveDelay: time.Minute})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := e.FlipCard(1, "u0", 0); err != nil {
		t.Fatalf("First flip failed: %v", err)
	}
	if e.RemainingTurnTime(1) != 0 {
		t.Error("Expected turn timer disarmed after the first flip")
	}

	// Well past the turn timeout: the player must not be evicted while a
	// selection is in progress.
	time.Sleep(150 * time.Millisecond)

	if s.Participants[0].Inactive {
		t.Error("Expected player 0 to stay active between flips")
	}
	if s.Turn != 0 {
		t.Errorf("Expected turn to stay at 0, got %d", s.Turn)
	}
	if got := n.snapshot(); len(got.left) != 0 {
		t.Errorf("Expected no evictions, got %v", got.left)
	}
}

func TestEngine_TurnTimeoutEvictsAndHandsOff(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: 50 * time.Millisecond, ResolveDelay: time.Minute})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1", "u2")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Long enough for exactly one timeout to fire.
	time.Sleep(80 * time.Millisecond)

	if !s.Participants[0].Inactive {
		t.Fatal("Expected player 0 evicted after timeout")
	}
	if s.Turn != 1 {
		t.Errorf("Expected turn to advance to player 1, got %d", s.Turn)
	}
	// u0 owned the session; ownership must move to the first active player.
	if s.OwnerID != "u1" {
		t.Errorf("Expected ownership handed to u1, got %s", s.OwnerID)
	}

	got := n.snapshot()
	if len(got.prevOwners) != 1 || got.prevOwners[0] != "u0" {
		t.Errorf("Expected owner change away from u0, got %v", got.prevOwners)
	}
	if len(got.left) != 1 || got.left[0] != "u0" {
		t.Errorf("Expected u0 reported as left, got %v", got.left)
	}
	if got.cancelled != nil {
		t.Error("Expected game to continue with two active players")
	}
}

func TestEngine_SkipsInactiveOnRotation(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: time.Minute, ResolveDelay: 10 * time.Millisecond})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1", "u2")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := e.Leave(1, "u1"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	i, j := findMismatch(s)
	if _, err := e.FlipCard(1, "u0", i); err != nil {
		t.Fatalf("First flip failed: %v", err)
	}
	if _, err := e.FlipCard(1, "u0", j); err != nil {
		t.Fatalf("Second flip failed: %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	// u1 is inactive: rotation must land on u2.
	if s.Turn != 2 {
		t.Errorf("Expected turn to skip to player 2, got %d", s.Turn)
	}
}

func TestEngine_LeaveForfeitsToLastPlayer(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: time.Minute, ResolveDelay: time.Minute})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if err := e.Leave(1, "u1"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	got := n.snapshot()
	if got.cancelled == nil {
		t.Fatal("Expected game cancelled on forfeit")
	}
	if got.cancelReason != "left the game" {
		t.Errorf("Expected cause 'left the game', got %q", got.cancelReason)
	}
	if got.cancelled.WinnerID != "u0" {
		t.Errorf("Expected u0 to win by forfeit, got %q", got.cancelled.WinnerID)
	}
	if got.cancelled.Reason != match.ReasonForfeit {
		t.Errorf("Expected forfeit reason, got %q", got.cancelled.Reason)
	}

	// The session does not outlive its end.
	if _, err := e.Get(1); err != match.ErrSessionNotFound {
		t.Errorf("Expected session deleted, got %v", err)
	}
	if err := e.Leave(1, "u0"); err != match.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound after end, got %v", err)
	}
}

func TestEngine_LeaveMidSelectionHidesCard(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: time.Minute, ResolveDelay: time.Minute})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1", "u2")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if _, err := e.FlipCard(1, "u0", 3); err != nil {
		t.Fatalf("Flip failed: %v", err)
	}
	if err := e.Leave(1, "u0"); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}

	if s.Board[3].Revealed {
		t.Error("Expected the abandoned selection to be hidden")
	}
	if len(s.Revealed) != 0 {
		t.Errorf("Expected no revealed cards, got %v", s.Revealed)
	}
	if s.Turn != 1 {
		t.Errorf("Expected turn handed to player 1, got %d", s.Turn)
	}
	if e.RemainingTurnTime(1) <= 0 {
		t.Error("Expected turn timer re-armed for the next player")
	}
}

func TestEngine_HandleDisconnect(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: time.Minute, ResolveDelay: time.Minute})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1", "u2")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	e.HandleDisconnect("u1")

	p := s.Participant("u1")
	if !p.Inactive {
		t.Error("Expected u1 evicted on disconnect")
	}
	if p.Connected {
		t.Error("Expected u1 marked disconnected")
	}

	// Unknown users are a no-op.
	e.HandleDisconnect("stranger")
	if s.ActiveCount() != 2 {
		t.Errorf("Expected 2 active players, got %d", s.ActiveCount())
	}
}

func TestEngine_CompleteGame(t *testing.T) {
	n := &recordingNotifier{}
	e := New(n, Config{TurnTimeout: time.Minute, ResolveDelay: 5 * time.Millisecond})
	defer e.Shutdown()

	s := testSession(1, "u0", "u1")
	if _, err := e.Start(s); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	// Matching keeps the turn, so player 0 can clear the whole board.
	for pairs := 0; pairs < 6; pairs++ {
		i, j := findPair(s)
		if i < 0 {
			t.Fatalf("No pair left after %d pairs", pairs)
		}
		if _, err := e.FlipCard(1, "u0", i); err != nil {
			t.Fatalf("Flip %d failed: %v", pairs, err)
		}
		if _, err := e.FlipCard(1, "u0", j); err != nil {
			t.Fatalf("Flip %d failed: %v", pairs, err)
		}
		time.Sleep(40 * time.Millisecond)
	}

	got := n.snapshot()
	if got.ended == nil {
		t.Fatal("Expected game ended after clearing the board")
	}
	if got.ended.WinnerID != "u0" {
		t.Errorf("Expected u0 to win, got %q", got.ended.WinnerID)
	}
	if got.ended.Reason != match.ReasonCompleted {
		t.Errorf("Expected completed reason, got %q", got.ended.Reason)
	}
	if got.ended.TotalMoves != 6 {
		t.Errorf("Expected 6 moves, got %d", got.ended.TotalMoves)
	}

	if _, err := e.Get(1); err != match.ErrSessionNotFound {
		t.Errorf("Expected session deleted after end, got %v", err)
	}
	if s.Status != match.StatusEnded {
		t.Errorf("Expected ended status, got %s", s.Status)
	}
}
