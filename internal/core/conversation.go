package core

import "context"

// Conversations is what transports drive. Session ids are chosen by the
// caller.
type Conversations interface {
	SubmitTurn(ctx context.Context, sessionID, text string) (Reply, error)
	CloseSession(ctx context.Context, sessionID string) error
	LongTermLog(ctx context.Context, sessionID string) ([]LongTermEntry, error)
}
