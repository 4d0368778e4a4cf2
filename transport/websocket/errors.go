package websocket

import "errors"

var (
	errUnknownCommand     = errors.New("unknown command")
	errBadPayload         = errors.New("malformed command payload")
	errServiceUnavailable = errors.New("service unavailable")
)
