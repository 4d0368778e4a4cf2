package websocket

import (
	"context"
	"encoding/json"
	"log"
)

// Inbound command names, client -> server.
const (
	CmdAuthenticate      = "authenticate"
	CmdListLobbies       = "list_lobbies"
	CmdCreateLobby       = "create_lobby"
	CmdJoinLobby         = "join_lobby"
	CmdSetReady          = "set_ready"
	CmdLeaveLobby        = "leave_lobby"
	CmdRemoveParticipant = "remove_participant"
	CmdStartGame         = "start_game"
	CmdFlipCard          = "flip_card"
	CmdLeaveGame         = "leave_game"
	CmdPrivateMessage    = "private_message"
)

// Reply is the direct answer to one command, sent only on the caller's own
// connection. Broadcasts triggered by the same command travel separately
// through the multicast groups.
type Reply struct {
	Type  string `json:"type"`
	Cmd   string `json:"cmd"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

type authenticatePayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

type createLobbyPayload struct {
	Rows int `json:"rows"`
	Cols int `json:"cols"`
}

type sessionPayload struct {
	SessionID int64 `json:"session_id"`
}

type removePayload struct {
	SessionID int64  `json:"session_id"`
	TargetID  string `json:"target_id"`
}

type flipPayload struct {
	SessionID int64 `json:"session_id"`
	CardIndex int   `json:"card_index"`
}

type messagePayload struct {
	TargetID string `json:"target_id"`
	Text     string `json:"text"`
}

// route dispatches one inbound command to the game service and answers on
// the caller's connection.
func (h *Hub) route(c *Client, env Envelope) {
	if h.service == nil {
		c.reply(env.Type, nil, errServiceUnavailable)
		return
	}

	ctx := context.Background()

	switch env.Type {
	case CmdAuthenticate:
		var p authenticatePayload
		if !decode(c, env, &p) {
			return
		}
		id, err := h.service.Authenticate(ctx, c.id, p.UserID, p.Name)
		c.reply(env.Type, id, err)

	case CmdListLobbies:
		c.reply(env.Type, h.service.ListLobbies(ctx), nil)

	case CmdCreateLobby:
		var p createLobbyPayload
		if !decode(c, env, &p) {
			return
		}
		sess, err := h.service.CreateLobby(ctx, c.id, p.Rows, p.Cols)
		c.reply(env.Type, sess, err)

	case CmdJoinLobby:
		var p sessionPayload
		if !decode(c, env, &p) {
			return
		}
		sess, err := h.service.JoinLobby(ctx, c.id, p.SessionID)
		c.reply(env.Type, sess, err)

	case CmdSetReady:
		var p sessionPayload
		if !decode(c, env, &p) {
			return
		}
		sess, err := h.service.SetReady(ctx, c.id, p.SessionID)
		c.reply(env.Type, sess, err)

	case CmdLeaveLobby:
		var p sessionPayload
		if !decode(c, env, &p) {
			return
		}
		result, err := h.service.LeaveLobby(ctx, c.id, p.SessionID)
		c.reply(env.Type, result, err)

	case CmdRemoveParticipant:
		var p removePayload
		if !decode(c, env, &p) {
			return
		}
		sess, err := h.service.RemoveParticipant(ctx, c.id, p.SessionID, p.TargetID)
		c.reply(env.Type, sess, err)

	case CmdStartGame:
		var p sessionPayload
		if !decode(c, env, &p) {
			return
		}
		sess, err := h.service.StartGame(ctx, c.id, p.SessionID)
		c.reply(env.Type, sess, err)

	case CmdFlipCard:
		var p flipPayload
		if !decode(c, env, &p) {
			return
		}
		sess, err := h.service.FlipCard(ctx, c.id, p.SessionID, p.CardIndex)
		c.reply(env.Type, sess, err)

	case CmdLeaveGame:
		var p sessionPayload
		if !decode(c, env, &p) {
			return
		}
		err := h.service.LeaveGame(ctx, c.id, p.SessionID)
		c.reply(env.Type, nil, err)

	case CmdPrivateMessage:
		var p messagePayload
		if !decode(c, env, &p) {
			return
		}
		err := h.service.PrivateMessage(ctx, c.id, p.TargetID, p.Text)
		c.reply(env.Type, nil, err)

	default:
		log.Printf("Connection %s sent unknown command %q", c.id, env.Type)
		c.reply(env.Type, nil, errUnknownCommand)
	}
}

// decode unmarshals the command payload, replying with an error on failure.
func decode(c *Client, env Envelope, into any) bool {
	if len(env.Payload) == 0 {
		c.reply(env.Type, nil, errBadPayload)
		return false
	}
	if err := json.Unmarshal(env.Payload, into); err != nil {
		c.reply(env.Type, nil, errBadPayload)
		return false
	}
	return true
}

// reply answers a command on this connection only.
func (c *Client) reply(cmd string, data any, err error) {
	r := &Reply{Type: "reply", Cmd: cmd, OK: err == nil, Data: data}
	if err != nil {
		r.Error = err.Error()
		r.Data = nil
	}

	payload, merr := json.Marshal(r)
	if merr != nil {
		log.Printf("Failed to marshal reply for %s: %v", cmd, merr)
		return
	}
	c.trySend(payload)
}
