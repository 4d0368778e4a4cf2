// Package api provides the HTTP REST surface for the memory match server.
//
// The api package implements:
//   - Read-only observer endpoints for lobbies, sessions, and stats
//   - WebSocket upgrade handling
//   - Health checking
//
// Endpoints:
//
//   - GET /api/lobbies - List sessions waiting for players
//   - GET /api/sessions - List running sessions
//   - GET /api/sessions/{id} - Get one session (waiting or running)
//   - GET /api/stats - Connection and session counts
//   - GET /ws - WebSocket upgrade for gameplay
//   - GET /healthz - Health check
//
// Gameplay itself is command-driven over the WebSocket; the REST endpoints
// exist for lobby browsers, dashboards, and the MCP observer tools. All
// responses are JSON, and errors use:
//
//	{"error": "error message"}
package api
