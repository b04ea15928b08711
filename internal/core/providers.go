package core

import "context"

// AIProvider is the opaque model capability: given a prompt and a tool set it
// returns text and optional tool invocations, or fails.
type AIProvider interface {
	Chat(ctx context.Context, history []Message, tools []Tool) (Message, error)
}
