// Package websocket provides the WebSocket transport for the memory match
// server.
//
// The websocket package implements:
//   - Connection lifecycle management (upgrade, pumps, cleanup)
//   - Identity binding between connections and authenticated users
//   - Named multicast groups for event fan-out
//   - Command routing to the game service
//
// Architecture:
//
// The package uses a hub-and-spoke model. The Hub is both the connection
// registry the game service broadcasts through and the single event loop
// that routes inbound commands. Each connection runs a read pump and a write
// pump; the read pump feeds decoded envelopes into the hub's loop, which
// processes them one at a time in arrival order. That gives every session a
// strict ordering of its mutations without per-session locks in the
// transport.
//
// Message Protocol:
//
// Clients send JSON envelopes:
//
//	{"type": "flip_card", "payload": {"session_id": 3, "card_index": 7}}
//
// Each command gets a direct reply on the caller's connection:
//
//	{"type": "reply", "cmd": "flip_card", "ok": true, "data": {...}}
//
// Broadcasts triggered by commands or timers arrive separately:
//
//	{"type": "event", "event": "game_updated", "data": {...}}
//
// A user may hold several live connections; events addressed to the user
// reach all of them, and only the last connection dropping marks the user
// offline.
//
// Usage:
//
//	hub := websocket.NewHub()
//	svc := service.NewGameService(hub, publisher, engine.Config{})
//	hub.SetService(svc)
//	go hub.Run()
//
//	http.HandleFunc("/ws", hub.ServeWS)
package websocket
