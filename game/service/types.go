package service

import (
	"github.com/matchmind/memory-server/game/match"
)

// Broadcast event names, engine -> clients.
const (
	EventLobbyChanged   = "lobby_changed"
	EventGameStarted    = "game_started"
	EventGameUpdated    = "game_updated"
	EventGameEnded      = "game_ended"
	EventGameCancelled  = "game_cancelled"
	EventPlayerLeft     = "player_left"
	EventOwnerChanged   = "owner_changed"
	EventPrivateMessage = "private_message"
	EventRemoved        = "removed_from_lobby"
)

// GameUpdate is the payload of a game_updated broadcast. RemainingMS is the
// time left on the turn timer, zero when no timer is armed.
type GameUpdate struct {
	Session     *match.Session `json:"session"`
	RemainingMS int64          `json:"remaining_ms"`
}

// PlayerLeftUpdate is the payload of a player_left broadcast.
type PlayerLeftUpdate struct {
	Session *match.Session `json:"session"`
	UserID  string         `json:"user_id"`
}

// OwnerChange is the payload of an owner_changed broadcast.
type OwnerChange struct {
	Session     *match.Session `json:"session"`
	NewOwnerID  string         `json:"new_owner_id"`
	PrevOwnerID string         `json:"prev_owner_id"`
}

// Cancellation is the payload of a game_cancelled broadcast.
type Cancellation struct {
	Reason   string         `json:"reason"`
	WinnerID string         `json:"winner_id,omitempty"`
	Summary  *match.Summary `json:"summary"`
}

// LeaveResult is returned to the caller of LeaveLobby: the refreshed lobby
// listing plus the previous owner's id when the departure transferred
// ownership.
type LeaveResult struct {
	Lobbies     []*match.Session `json:"lobbies"`
	PrevOwnerID string           `json:"prev_owner_id,omitempty"`
}

// PrivateMessagePayload is delivered to the target's presence group.
type PrivateMessagePayload struct {
	FromID   string `json:"from_id"`
	FromName string `json:"from_name"`
	Text     string `json:"text"`
}

// Stats is a point-in-time snapshot of the orchestrator, exposed over the
// REST and MCP observer surfaces.
type Stats struct {
	Connections     int `json:"connections"`
	UsersOnline     int `json:"users_online"`
	WaitingSessions int `json:"waiting_sessions"`
	ActiveSessions  int `json:"active_sessions"`
}
