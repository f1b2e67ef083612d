package workflow

import "fmt"

// ChannelError reports an LLM channel failure during a phase: network, auth,
// rate limiting after retries, or a malformed provider response. Extraction
// and validation failures are not channel errors and pass through as their
// own types.
type ChannelError struct {
	Phase Phase
	Err   error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("%s: LLM call failed: %v", e.Phase, e.Err)
}

func (e *ChannelError) Unwrap() error { return e.Err }
