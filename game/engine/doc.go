// Package engine provides the turn state machine for running memory match
// sessions.
//
// The engine package implements:
//   - The two-flip card selection protocol
//   - Match detection and pair scoring
//   - Turn rotation that skips evicted players
//   - Inactivity timers and timeout eviction
//   - Ownership handoff and forfeit termination
//   - Win determination and terminal summaries
//
// Lifecycle:
//
// Sessions enter the engine through Start, handed over from the lobby
// manager once their owner starts the game. From then on the engine owns all
// turn state. When a session ends, for any reason, it is summarized and
// removed immediately; nothing about a finished game stays in memory.
//
// Timing:
//
// Two windows drive the state machine. The turn timeout evicts a player who
// never flips a card on their turn. The resolve delay keeps a flipped pair
// visible before it is matched or hidden again. Both are configurable, and
// there is deliberately no timeout between the first and second flip of a
// selection.
//
// Concurrency:
//
// All mutations run under a single mutex. Deferred work (timeouts, pair
// resolution) runs on timers that re-enter through the same lock and carry an
// epoch token; a callback whose epoch has been superseded is a no-op. This
// makes stale timers harmless even when a session ends or a flip lands while
// the callback is already in flight.
//
// Usage:
//
//	eng := engine.New(notifier, engine.Config{})
//
//	snap, err := eng.Start(sess)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Flip two cards on the current player's turn
//	snap, err = eng.FlipCard(sess.ID, userID, 3)
//	snap, err = eng.FlipCard(sess.ID, userID, 7)
//
// Sessions returned from Start, Get, List, and FlipCard are snapshots; the
// live state stays inside the engine and keeps changing on timers.
//
// Deferred transitions (resolution, timeouts, evictions) are reported through
// the Notifier interface rather than returned from calls.
package engine
