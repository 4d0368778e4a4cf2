package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matchmind/memory-server/game/match"
	"github.com/matchmind/memory-server/game/service"
)

// Client is a thin MCP client that proxies to the REST API. It exposes the
// orchestrator's observer surface to AI agents: browsing lobbies, inspecting
// running sessions, and reading server stats. Gameplay itself requires a
// live WebSocket connection and is deliberately not exposed here.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// GetMCPServer returns the underlying MCP server for stdio or HTTP serving.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Memory Match Server",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Memory Match Server - MCP Interface

This is a thin observer client that proxies requests to the REST API server.

THE GAME:
A turn-based card-matching (memory) game for 2-5 players. Players take turns
flipping two cards; matching pairs stay face up and keep the turn, mismatches
flip back and pass the turn. The player with the most pairs wins.

AVAILABLE TOOLS:
- list_lobbies: Browse sessions waiting for players
- list_sessions: List running game sessions
- get_session: Inspect a session (participants, board progress, turn state)
- server_stats: Connection and session counts
- game_instructions: Full rules and protocol description

NOTE: Joining and playing requires a WebSocket connection; these tools are
read-only.`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_lobbies",
		Description: "List sessions in the Waiting state that can still be joined",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListLobbies)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List running game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session by id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session id to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "server_stats",
		Description: "Get connection and session counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStats)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get the game rules and the WebSocket command protocol",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleInstructions)
}

// apiCall makes an HTTP request to the REST API and decodes the response.
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	var reqBody *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// Tool handlers

func (c *Client) handleListLobbies(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count   int              `json:"count"`
		Lobbies []*match.Session `json:"lobbies"`
	}

	if err := c.apiCall("GET", "/api/lobbies", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Waiting Lobbies (%d):\n\n", response.Count)
	for _, s := range response.Lobbies {
		fmt.Fprintf(&sb, "- #%d %dx%d (%d/%d players, owner %s)\n",
			s.ID, s.Rows, s.Cols, len(s.Participants), s.Capacity, s.OwnerID)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int              `json:"count"`
		Sessions []*match.Session `json:"sessions"`
	}

	if err := c.apiCall("GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Running Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		fmt.Fprintf(&sb, "- #%d %dx%d, %d players, %d moves\n",
			s.ID, s.Rows, s.Cols, len(s.Participants), s.TotalMoves)
	}

	return mcp.NewToolResultText(sb.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	sessionID, _ := args["session_id"].(string)

	var sess match.Session
	if err := c.apiCall("GET", fmt.Sprintf("/api/sessions/%s", sessionID), nil, &sess); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSession(&sess)), nil
}

func (c *Client) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var stats service.Stats
	if err := c.apiCall("GET", "/api/stats", nil, &stats); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Connections: %d\nUsers online: %d\nWaiting sessions: %d\nActive sessions: %d\n",
		stats.Connections, stats.UsersOnline, stats.WaitingSessions, stats.ActiveSessions)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameInstructions), nil
}

// formatSession renders a session for tool output.
func formatSession(s *match.Session) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Session #%d (%s)\n", s.ID, s.Status)
	fmt.Fprintf(&sb, "Board: %dx%d, capacity %d\n", s.Rows, s.Cols, s.Capacity)
	fmt.Fprintf(&sb, "Owner: %s\n", s.OwnerID)
	fmt.Fprintf(&sb, "Total moves: %d\n\n", s.TotalMoves)

	matched := 0
	for _, card := range s.Board {
		if card.Matched {
			matched++
		}
	}
	if len(s.Board) > 0 {
		fmt.Fprintf(&sb, "Pairs matched: %d/%d\n\n", matched/2, len(s.Board)/2)
	}

	sb.WriteString("Participants:\n")
	for i, p := range s.Participants {
		marker := " "
		if s.Status == match.StatusStarted && i == s.Turn {
			marker = ">"
		}
		status := ""
		if p.Inactive {
			status = " (inactive)"
		}
		fmt.Fprintf(&sb, "%s %s: %d pairs, %d turns%s\n", marker, p.Name, p.PairsFound, p.Turns, status)
	}

	return sb.String()
}

const gameInstructions = `Memory Match - Rules and Protocol

RULES:
- 2-5 players per session. Capacity depends on board size: 3x4 seats 2,
  4x4 seats 3, anything else seats 5.
- The board holds pairs of hidden cards; every symbol appears exactly twice.
- On your turn, flip two cards. A match keeps both face up, scores a pair,
  and you go again. A mismatch flips both back after a short delay and the
  turn passes to the next active player.
- Letting the 20 second turn timer expire evicts you from the game. If only
  one player remains, they win by forfeit.
- When the last pair is matched, the player with the most pairs wins; ties
  go to whoever reached the count first.

PROTOCOL (WebSocket /ws, JSON envelopes {"type": ..., "payload": ...}):
- authenticate {user_id?, name?}  -> bind identity (omit user_id for a guest)
- list_lobbies {}                 -> browse joinable sessions
- create_lobby {rows, cols}       -> open a session
- join_lobby {session_id}
- set_ready {session_id}
- leave_lobby {session_id}
- remove_participant {session_id, target_id}   (owner only)
- start_game {session_id}                      (owner only)
- flip_card {session_id, card_index}
- leave_game {session_id}
- private_message {target_id, text}

Broadcasts arrive as {"type":"event","event":...,"data":...}: lobby_changed,
game_started, game_updated, game_ended, game_cancelled, player_left,
owner_changed, private_message.`
