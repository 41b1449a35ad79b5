package refine

import "context"

// CompletionProvider sends a prompt to a language model and returns the raw text
// of the first choice.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
