package service

import (
	"context"

	"github.com/matchmind/memory-server/game/match"
)

// GameService is the single entry point for inbound commands. Every call
// resolves the caller's identity from the connection registry first; an
// unauthenticated connection is rejected with match.ErrNotAuthenticated
// before any lobby or game logic runs. On success the resulting session (or
// lobby listing) is broadcast to the relevant multicast groups, and the
// operation's own result is returned to the caller separately.
type GameService interface {
	// Authenticate binds an identity to the connection and joins the
	// identity's presence group. An empty user id yields a generated guest
	// identity.
	Authenticate(ctx context.Context, connID, userID, name string) (match.Identity, error)

	// Lobby commands.
	ListLobbies(ctx context.Context) []*match.Session
	CreateLobby(ctx context.Context, connID string, rows, cols int) (*match.Session, error)
	JoinLobby(ctx context.Context, connID string, sessionID int64) (*match.Session, error)
	SetReady(ctx context.Context, connID string, sessionID int64) (*match.Session, error)
	LeaveLobby(ctx context.Context, connID string, sessionID int64) (*LeaveResult, error)
	RemoveParticipant(ctx context.Context, connID string, sessionID int64, targetID string) (*match.Session, error)

	// Game commands.
	StartGame(ctx context.Context, connID string, sessionID int64) (*match.Session, error)
	FlipCard(ctx context.Context, connID string, sessionID int64, cardIndex int) (*match.Session, error)
	LeaveGame(ctx context.Context, connID string, sessionID int64) error

	// Presence commands.
	PrivateMessage(ctx context.Context, connID string, targetID, text string) error

	// Disconnect is invoked by the connection registry when a connection
	// drops. When it was the user's last connection, the user is evicted from
	// whatever session they were in.
	Disconnect(connID string)

	// Observer surface.
	GetSession(ctx context.Context, sessionID int64) (*match.Session, error)
	ListActive(ctx context.Context) []*match.Session
	Stats(ctx context.Context) *Stats

	// Shutdown stops the running sessions' timers.
	Shutdown()
}

// Registry is what the dispatcher needs from the connection layer: identity
// lookup and multicast delivery. The websocket hub implements it. Joining a
// group is idempotent and broadcasting to an empty or unknown group is a
// no-op.
type Registry interface {
	Bind(connID string, id match.Identity)
	Identity(connID string) (match.Identity, bool)
	UserOnline(userID string) bool

	JoinGroup(group, userID string)
	LeaveGroup(group, userID string)
	DropGroup(group string)

	ToConn(connID, event string, data any)
	ToUser(userID, event string, data any) bool
	ToGroup(group, event string, data any)

	Counts() (conns, users int)
}

// ResultPublisher receives terminal game summaries. The external persistence
// system consumes them; the engine itself never writes durable state.
type ResultPublisher interface {
	PublishResult(sum *match.Summary) error
}
