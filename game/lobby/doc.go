// Package lobby manages sessions that have not started yet.
//
// The lobby package implements:
//   - Session creation with capacity derived from board dimensions
//   - Joining with precise rejection reasons (full, already member, not
//     waiting, not found)
//   - Ready toggling, departures, and owner-forced removals
//   - Ownership handoff when the owner leaves
//   - Handoff of a starting session to the game engine via Take
//
// The manager is thread-safe. A session exists in exactly one place at a
// time: here while Waiting, in the engine once Started. Take removes the
// session atomically so no join can race a start.
package lobby
