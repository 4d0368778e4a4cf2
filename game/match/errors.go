package match

import "errors"

// Sentinel errors shared by the lobby manager, the game engine, and the
// dispatcher. None of these are fatal: authentication errors are rejected
// before game logic runs, not-found and state-conflict errors are reported to
// the caller only, and session state is left unchanged.
var (
	ErrNotAuthenticated = errors.New("connection is not authenticated")

	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidDimensions = errors.New("invalid board dimensions")

	ErrNotWaiting      = errors.New("session is not accepting players")
	ErrLobbyFull       = errors.New("session capacity reached")
	ErrAlreadyMember   = errors.New("already a member of this session")
	ErrNotOwner        = errors.New("only the session owner may do that")
	ErrNotMember       = errors.New("not a member of this session")
	ErrNotYourTurn     = errors.New("not your turn")
	ErrInvalidCard     = errors.New("card index out of range")
	ErrTurnLocked      = errors.New("a pair is still being resolved")
	ErrAlreadySelected = errors.New("card is already selected")

	ErrTargetOffline = errors.New("target user is offline")
)
