package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/matchmind/memory-server/game/engine"
	"github.com/matchmind/memory-server/game/lobby"
	"github.com/matchmind/memory-server/game/match"
)

// LobbyGroup is the multicast group holding every authenticated connection;
// it receives lobby listings and terminal game results.
const LobbyGroup = "lobby"

// sessionGroup names the multicast group for one session's members.
func sessionGroup(id int64) string {
	return fmt.Sprintf("session:%d", id)
}

// gameServiceImpl implements GameService. It routes commands to the lobby
// manager or the game engine, and implements engine.Notifier so that
// timer-driven transitions fan out through the same registry as command
// results.
type gameServiceImpl struct {
	lobby   *lobby.Manager
	engine  *engine.Engine
	reg     Registry
	results ResultPublisher
}

// NewGameService wires the dispatcher. cfg controls the engine's timer
// windows; zero values take the spec defaults.
func NewGameService(reg Registry, results ResultPublisher, cfg engine.Config) GameService {
	s := &gameServiceImpl{
		lobby:   lobby.NewManager(),
		reg:     reg,
		results: results,
	}
	s.engine = engine.New(s, cfg)
	return s
}

// identity resolves the caller, rejecting unauthenticated connections before
// any game logic runs.
func (s *gameServiceImpl) identity(connID string) (match.Identity, error) {
	id, ok := s.reg.Identity(connID)
	if !ok {
		return match.Identity{}, match.ErrNotAuthenticated
	}
	return id, nil
}

func (s *gameServiceImpl) Authenticate(ctx context.Context, connID, userID, name string) (match.Identity, error) {
	if userID == "" {
		userID = uuid.NewString()
	}
	if name == "" {
		// Client-supplied ids can be arbitrarily short.
		short := userID
		if len(short) > 8 {
			short = short[:8]
		}
		name = "guest-" + short
	}

	id := match.Identity{UserID: userID, Name: name}
	s.reg.Bind(connID, id)
	s.reg.JoinGroup(LobbyGroup, id.UserID)

	log.Printf("Authenticated %s (%s) on connection %s", id.Name, id.UserID, connID)
	return id, nil
}

func (s *gameServiceImpl) ListLobbies(ctx context.Context) []*match.Session {
	return s.lobby.List()
}

func (s *gameServiceImpl) CreateLobby(ctx context.Context, connID string, rows, cols int) (*match.Session, error) {
	id, err := s.identity(connID)
	if err != nil {
		return nil, err
	}

	sess, err := s.lobby.Create(id, rows, cols)
	if err != nil {
		return nil, err
	}

	s.reg.JoinGroup(sessionGroup(sess.ID), id.UserID)
	s.broadcastLobby()
	return sess, nil
}

func (s *gameServiceImpl) JoinLobby(ctx context.Context, connID string, sessionID int64) (*match.Session, error) {
	id, err := s.identity(connID)
	if err != nil {
		return nil, err
	}

	sess, err := s.lobby.Join(sessionID, id)
	if err != nil {
		return nil, err
	}

	s.reg.JoinGroup(sessionGroup(sessionID), id.UserID)
	s.broadcastLobby()
	return sess, nil
}

func (s *gameServiceImpl) SetReady(ctx context.Context, connID string, sessionID int64) (*match.Session, error) {
	id, err := s.identity(connID)
	if err != nil {
		return nil, err
	}

	sess, err := s.lobby.SetReady(sessionID, id.UserID)
	if err != nil {
		return nil, err
	}

	s.broadcastLobby()
	return sess, nil
}

func (s *gameServiceImpl) LeaveLobby(ctx context.Context, connID string, sessionID int64) (*LeaveResult, error) {
	id, err := s.identity(connID)
	if err != nil {
		return nil, err
	}

	sess, prevOwner, err := s.lobby.Leave(sessionID, id.UserID)
	if err != nil {
		return nil, err
	}

	s.reg.LeaveGroup(sessionGroup(sessionID), id.UserID)
	if sess != nil && prevOwner != "" {
		s.reg.ToGroup(sessionGroup(sessionID), EventOwnerChanged, &OwnerChange{
			Session:     sess,
			NewOwnerID:  sess.OwnerID,
			PrevOwnerID: prevOwner,
		})
	}
	s.broadcastLobby()

	return &LeaveResult{Lobbies: s.lobby.List(), PrevOwnerID: prevOwner}, nil
}

func (s *gameServiceImpl) RemoveParticipant(ctx context.Context, connID string, sessionID int64, targetID string) (*match.Session, error) {
	id, err := s.identity(connID)
	if err != nil {
		return nil, err
	}

	sess, err := s.lobby.Remove(sessionID, id.UserID, targetID)
	if err != nil {
		return nil, err
	}

	s.reg.LeaveGroup(sessionGroup(sessionID), targetID)
	s.reg.ToUser(targetID, EventRemoved, sess)
	s.reg.ToGroup(sessionGroup(sessionID), EventPlayerLeft, &PlayerLeftUpdate{Session: sess, UserID: targetID})
	s.broadcastLobby()
	return sess, nil
}

func (s *gameServiceImpl) StartGame(ctx context.Context, connID string, sessionID int64) (*match.Session, error) {
	id, err := s.identity(connID)
	if err != nil {
		return nil, err
	}

	sess, err := s.lobby.Take(sessionID, id.UserID)
	if err != nil {
		return nil, err
	}

	started, err := s.engine.Start(sess)
	if err != nil {
		// The handoff failed; put the session back so it stays joinable.
		s.lobby.Restore(sess)
		return nil, fmt.Errorf("board generation failed: %w", err)
	}

	s.reg.ToGroup(sessionGroup(sessionID), EventGameStarted, started)
	s.broadcastLobby()
	return started, nil
}

func (s *gameServiceImpl) FlipCard(ctx context.Context, connID string, sessionID int64, cardIndex int) (*match.Session, error) {
	id, err := s.identity(connID)
	if err != nil {
		return nil, err
	}

	sess, err := s.engine.FlipCard(sessionID, id.UserID, cardIndex)
	if err != nil {
		return nil, err
	}

	// The session may already be gone if the flip completed the board; the
	// terminal broadcast happens through the Notifier path in that case.
	if sess.Status == match.StatusStarted {
		s.reg.ToGroup(sessionGroup(sessionID), EventGameUpdated, &GameUpdate{
			Session:     sess,
			RemainingMS: s.engine.RemainingTurnTime(sessionID).Milliseconds(),
		})
	}
	return sess, nil
}

func (s *gameServiceImpl) LeaveGame(ctx context.Context, connID string, sessionID int64) error {
	id, err := s.identity(connID)
	if err != nil {
		return err
	}

	if err := s.engine.Leave(sessionID, id.UserID); err != nil {
		return err
	}
	s.reg.LeaveGroup(sessionGroup(sessionID), id.UserID)
	return nil
}

func (s *gameServiceImpl) PrivateMessage(ctx context.Context, connID string, targetID, text string) error {
	id, err := s.identity(connID)
	if err != nil {
		return err
	}

	delivered := s.reg.ToUser(targetID, EventPrivateMessage, &PrivateMessagePayload{
		FromID:   id.UserID,
		FromName: id.Name,
		Text:     text,
	})
	if !delivered {
		return match.ErrTargetOffline
	}
	return nil
}

func (s *gameServiceImpl) Disconnect(connID string) {
	id, ok := s.reg.Identity(connID)
	if !ok {
		return
	}
	// Other live connections keep the user present; only the last one
	// triggers eviction.
	if s.reg.UserOnline(id.UserID) {
		return
	}

	log.Printf("User %s fully disconnected", id.UserID)
	s.engine.HandleDisconnect(id.UserID)

	// Waiting sessions: a disconnect is an implicit departure.
	changed := false
	for _, sess := range s.lobby.List() {
		if sess.Participant(id.UserID) == nil {
			continue
		}
		left, prevOwner, err := s.lobby.Leave(sess.ID, id.UserID)
		if err != nil {
			continue
		}
		changed = true
		if left != nil && prevOwner != "" {
			s.reg.ToGroup(sessionGroup(sess.ID), EventOwnerChanged, &OwnerChange{
				Session:     left,
				NewOwnerID:  left.OwnerID,
				PrevOwnerID: prevOwner,
			})
		}
	}
	if changed {
		s.broadcastLobby()
	}
}

func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID int64) (*match.Session, error) {
	if sess, err := s.engine.Get(sessionID); err == nil {
		return sess, nil
	}
	return s.lobby.Get(sessionID)
}

func (s *gameServiceImpl) ListActive(ctx context.Context) []*match.Session {
	return s.engine.List()
}

func (s *gameServiceImpl) Stats(ctx context.Context) *Stats {
	conns, users := s.reg.Counts()
	return &Stats{
		Connections:     conns,
		UsersOnline:     users,
		WaitingSessions: len(s.lobby.List()),
		ActiveSessions:  len(s.engine.List()),
	}
}

// Shutdown stops the engine's timers.
func (s *gameServiceImpl) Shutdown() {
	s.engine.Shutdown()
}

// broadcastLobby pushes the current Waiting listing to every lobby watcher.
func (s *gameServiceImpl) broadcastLobby() {
	s.reg.ToGroup(LobbyGroup, EventLobbyChanged, s.lobby.List())
}

// --- engine.Notifier ---

func (s *gameServiceImpl) GameUpdated(sess *match.Session, remaining time.Duration) {
	s.reg.ToGroup(sessionGroup(sess.ID), EventGameUpdated, &GameUpdate{
		Session:     sess,
		RemainingMS: remaining.Milliseconds(),
	})
}

func (s *gameServiceImpl) PlayerLeft(sess *match.Session, userID string) {
	s.reg.LeaveGroup(sessionGroup(sess.ID), userID)
	s.reg.ToGroup(sessionGroup(sess.ID), EventPlayerLeft, &PlayerLeftUpdate{Session: sess, UserID: userID})
}

func (s *gameServiceImpl) OwnerChanged(sess *match.Session, prevOwnerID string) {
	change := &OwnerChange{Session: sess, NewOwnerID: sess.OwnerID, PrevOwnerID: prevOwnerID}
	// The previous owner hears about the transfer before anyone else does.
	s.reg.ToUser(prevOwnerID, EventOwnerChanged, change)
	s.reg.ToGroup(sessionGroup(sess.ID), EventOwnerChanged, change)
}

func (s *gameServiceImpl) GameEnded(sess *match.Session, sum *match.Summary) {
	group := sessionGroup(sess.ID)
	s.reg.ToGroup(group, EventGameEnded, sum)
	s.reg.ToGroup(LobbyGroup, EventGameEnded, sum)
	s.reg.DropGroup(group)
	s.publish(sum)
}

func (s *gameServiceImpl) GameCancelled(sess *match.Session, reason string, sum *match.Summary) {
	group := sessionGroup(sess.ID)
	payload := &Cancellation{Reason: reason, WinnerID: sum.WinnerID, Summary: sum}
	s.reg.ToGroup(group, EventGameCancelled, payload)
	s.reg.ToGroup(LobbyGroup, EventGameCancelled, payload)
	s.reg.DropGroup(group)
	s.publish(sum)
}

func (s *gameServiceImpl) publish(sum *match.Summary) {
	if s.results == nil {
		return
	}
	if err := s.results.PublishResult(sum); err != nil {
		log.Printf("Failed to publish result for session %d: %v", sum.SessionID, err)
	}
}
