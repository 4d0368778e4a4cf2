// Package service provides the command dispatcher for the memory match
// server.
//
// The service package implements:
//   - Authentication and guest identity generation
//   - Lobby commands (create, join, ready, leave, remove)
//   - Game commands (start, flip, leave)
//   - Presence commands (private messages, disconnect handling)
//   - Broadcast fan-out to multicast groups
//   - Result publishing for terminal games
//
// Architecture:
//
// The service sits between the transport layer (WebSocket, REST, MCP) and
// the game packages. Every inbound command resolves the caller's identity
// from the connection registry first; unauthenticated connections are
// rejected before any game logic runs. Lobby-phase commands go to the lobby
// manager, in-game commands to the engine, and the service implements the
// engine's Notifier so timer-driven transitions fan out through the same
// registry as command results.
//
// Broadcast Groups:
//
// Three kinds of multicast groups carry events:
//   - "lobby": every authenticated user; receives lobby listings and
//     terminal game results
//   - "session:<id>": members of one session; receives game state updates
//   - per-user presence, addressed via ToUser; receives private messages
//     and individual notifications
//
// Usage:
//
//	hub := websocket.NewHub()
//	svc := service.NewGameService(hub, publisher, engine.Config{})
//	hub.SetService(svc)
//	go hub.Run()
package service
