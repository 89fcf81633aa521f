package llm

import "context"

// Client produces a completion for a prompt pair. Implementations return
// *shared.UpstreamError when the provider rejects the request so callers
// can distinguish a bad key from a transient failure.
type Client interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
