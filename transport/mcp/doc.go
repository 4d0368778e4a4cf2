// Package mcp exposes the orchestrator's read-only surface as MCP tools so
// AI agents can browse lobbies, inspect sessions, and read server stats. It
// is a thin proxy over the REST API rather than a direct dependency on the
// game service, which keeps it runnable against a remote server too.
package mcp
