package llm

import "context"

// OfflineReply is the canned, deliberately non-JSON reply of OfflineCompleter.
const OfflineReply = "offline mode: no model available"

// OfflineCompleter never reaches the network. Its reply cannot be parsed as a
// prediction, so callers exercise their fallback path.
type OfflineCompleter struct{}

// Complete implements Completer.
func (OfflineCompleter) Complete(ctx context.Context, _ []Message, _ *SamplingOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return OfflineReply, nil
}
