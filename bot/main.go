// Command bot is an automated player for the memory match server. It connects
// over the WebSocket protocol, creates or joins a lobby, and plays out the
// game. Point two or more bots at the same server to exercise a full match
// end to end.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// Wire types, mirroring the server's protocol.

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type inbound struct {
	Type  string          `json:"type"`
	Cmd   string          `json:"cmd,omitempty"`
	OK    bool            `json:"ok,omitempty"`
	Error string          `json:"error,omitempty"`
	Event string          `json:"event,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type Card struct {
	Symbol   int  `json:"symbol"`
	Matched  bool `json:"matched"`
	Revealed bool `json:"revealed"`
}

type Participant struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Inactive   bool   `json:"inactive"`
	PairsFound int    `json:"pairs_found"`
}

type Session struct {
	ID           int64          `json:"id"`
	Rows         int            `json:"rows"`
	Cols         int            `json:"cols"`
	Capacity     int            `json:"capacity"`
	Status       string         `json:"status"`
	OwnerID      string         `json:"owner_id"`
	Participants []*Participant `json:"participants"`
	Board        []Card         `json:"board"`
	Turn         int            `json:"turn"`
	Phase        string         `json:"phase"`
	Revealed     []int          `json:"revealed"`
}

type gameUpdate struct {
	Session     *Session `json:"session"`
	RemainingMS int64    `json:"remaining_ms"`
}

type summary struct {
	SessionID  int64  `json:"session_id"`
	Reason     string `json:"reason"`
	WinnerID   string `json:"winner_id"`
	WinnerName string `json:"winner_name"`
	TotalMoves int    `json:"total_moves"`
	Players    []struct {
		Name       string `json:"name"`
		PairsFound int    `json:"pairs_found"`
		Forfeited  bool   `json:"forfeited"`
	} `json:"players"`
}

type cancellation struct {
	Reason   string   `json:"reason"`
	WinnerID string   `json:"winner_id"`
	Summary  *summary `json:"summary"`
}

type identity struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
}

// Bot holds the connection and the view of the game it is playing.
type Bot struct {
	conn      *websocket.Conn
	userID    string
	sessionID int64
	session   *Session
	startAt   int
	started   bool
	delay     time.Duration
	verbose   bool
}

func (b *Bot) send(cmdType string, payload any) {
	env := envelope{Type: cmdType}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Fatalf("marshal %s payload: %v", cmdType, err)
		}
		env.Payload = data
	}
	if err := b.conn.WriteJSON(env); err != nil {
		log.Fatalf("send %s: %v", cmdType, err)
	}
}

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "Game server WebSocket URL")
	name := flag.String("name", "bot", "Player name")
	sessionID := flag.Int64("session", 0, "Join an existing lobby by id (0 = create one)")
	rows := flag.Int("rows", 4, "Board rows when creating a lobby")
	cols := flag.Int("cols", 4, "Board columns when creating a lobby")
	startAt := flag.Int("start-at", 2, "Start the game once this many players joined (when owner)")
	delayMs := flag.Int("delay", 300, "Delay before each flip in milliseconds")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	log.Printf("Connecting to %s", *serverURL)
	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()

	bot := &Bot{
		conn:    conn,
		startAt: *startAt,
		delay:   time.Duration(*delayMs) * time.Millisecond,
		verbose: *verbose,
	}

	bot.send("authenticate", map[string]string{"name": *name})
	if *sessionID != 0 {
		bot.sessionID = *sessionID
		bot.send("join_lobby", map[string]int64{"session_id": *sessionID})
	} else {
		bot.send("create_lobby", map[string]int{"rows": *rows, "cols": *cols})
	}

	for {
		var msg inbound
		if err := conn.ReadJSON(&msg); err != nil {
			log.Fatalf("Connection lost: %v", err)
		}

		switch msg.Type {
		case "reply":
			bot.handleReply(msg)
		case "event":
			bot.handleEvent(msg)
		}
	}
}

func (b *Bot) handleReply(msg inbound) {
	if !msg.OK {
		log.Printf("Command %s rejected: %s", msg.Cmd, msg.Error)
		return
	}

	switch msg.Cmd {
	case "authenticate":
		var id identity
		json.Unmarshal(msg.Data, &id)
		b.userID = id.UserID
		log.Printf("Authenticated as %s (%s)", id.Name, id.UserID)

	case "create_lobby", "join_lobby":
		var sess Session
		json.Unmarshal(msg.Data, &sess)
		b.sessionID = sess.ID
		log.Printf("In lobby #%d (%dx%d, %d/%d players)",
			sess.ID, sess.Rows, sess.Cols, len(sess.Participants), sess.Capacity)
		b.send("set_ready", map[string]int64{"session_id": sess.ID})
	}
}

func (b *Bot) handleEvent(msg inbound) {
	switch msg.Event {
	case "lobby_changed":
		var lobbies []*Session
		json.Unmarshal(msg.Data, &lobbies)
		b.maybeStart(lobbies)

	case "game_started":
		var sess Session
		json.Unmarshal(msg.Data, &sess)
		if sess.ID != b.sessionID {
			return
		}
		b.session = &sess
		b.started = true
		log.Printf("Game #%d started with %d players", sess.ID, len(sess.Participants))
		b.takeTurn()

	case "game_updated":
		var update gameUpdate
		json.Unmarshal(msg.Data, &update)
		if update.Session == nil || update.Session.ID != b.sessionID {
			return
		}
		b.session = update.Session
		if b.verbose {
			log.Printf("Update: turn=%d phase=%s revealed=%v remaining=%dms",
				update.Session.Turn, update.Session.Phase, update.Session.Revealed, update.RemainingMS)
		}
		b.takeTurn()

	case "player_left":
		var left struct {
			Session *Session `json:"session"`
			UserID  string   `json:"user_id"`
		}
		json.Unmarshal(msg.Data, &left)
		if left.Session != nil && left.Session.ID == b.sessionID {
			b.session = left.Session
			log.Printf("Player %s left the game", left.UserID)
		}

	case "owner_changed":
		var change struct {
			Session    *Session `json:"session"`
			NewOwnerID string   `json:"new_owner_id"`
		}
		json.Unmarshal(msg.Data, &change)
		if change.Session != nil && change.Session.ID == b.sessionID {
			b.session = change.Session
			if change.NewOwnerID == b.userID {
				log.Printf("This bot is now the lobby owner")
			}
		}

	case "game_ended":
		var sum summary
		json.Unmarshal(msg.Data, &sum)
		if sum.SessionID != b.sessionID {
			return
		}
		printSummary(&sum)
		b.finish(sum.WinnerID)

	case "game_cancelled":
		var c cancellation
		json.Unmarshal(msg.Data, &c)
		if c.Summary == nil || c.Summary.SessionID != b.sessionID {
			return
		}
		log.Printf("Game cancelled (%s)", c.Reason)
		printSummary(c.Summary)
		b.finish(c.WinnerID)
	}
}

// maybeStart starts the game when this bot owns the lobby and enough players
// have joined.
func (b *Bot) maybeStart(lobbies []*Session) {
	if b.started || b.sessionID == 0 {
		return
	}
	for _, sess := range lobbies {
		if sess.ID != b.sessionID || sess.OwnerID != b.userID {
			continue
		}
		if len(sess.Participants) >= b.startAt {
			log.Printf("Lobby #%d reached %d players, starting", sess.ID, len(sess.Participants))
			b.send("start_game", map[string]int64{"session_id": sess.ID})
			b.started = true
		}
	}
}

// takeTurn flips one card if it is this bot's turn and the board accepts a
// flip. Each flip triggers another update, which drives the next flip.
func (b *Bot) takeTurn() {
	sess := b.session
	if sess == nil || sess.Status != "started" || sess.Phase != "picking" {
		return
	}
	if sess.Turn < 0 || sess.Turn >= len(sess.Participants) {
		return
	}
	if sess.Participants[sess.Turn].UserID != b.userID {
		return
	}

	idx := pickCard(sess)
	if idx < 0 {
		return
	}

	time.Sleep(b.delay)
	if b.verbose {
		log.Printf("Flipping card %d", idx)
	}
	b.send("flip_card", map[string]any{"session_id": sess.ID, "card_index": idx})
}

func (b *Bot) finish(winnerID string) {
	if winnerID == b.userID {
		log.Printf("🏆 This bot won!")
	}
	b.conn.Close()
	log.Printf("Done")
	os.Exit(0)
}

func printSummary(sum *summary) {
	log.Printf("Game #%d over (%s), winner: %s, total moves: %d",
		sum.SessionID, sum.Reason, sum.WinnerName, sum.TotalMoves)
	for _, p := range sum.Players {
		note := ""
		if p.Forfeited {
			note = " (forfeited)"
		}
		fmt.Printf("  %s: %d pairs%s\n", p.Name, p.PairsFound, note)
	}
}
