package define

import "context"

// Completer sends a prompt to the inference backend.
type Completer interface {
	Complete(ctx context.Context, agent, prompt string) (string, error)
}
