package classifier

import (
	"context"
	"encoding/json"
	"errors"
)

// Query is one request to the vision model: a single image plus instructions.
type Query struct {
	Instruction string
	Image       []byte
	MediaType   string
	Temperature float32
	// Schema, when set, is sent as the structured-output schema.
	Schema json.RawMessage
}

// Oracle is a remote multimodal model. Ask returns the model's raw text answer.
// Implementations must be safe for concurrent use.
type Oracle interface {
	Ask(ctx context.Context, q Query) (string, error)
}

var (
	// ErrBlocked is returned by an Oracle that refused to answer for safety reasons.
	ErrBlocked = errors.New("oracle blocked the request")
	// ErrRateLimited is returned by an Oracle whose upstream throttled the call.
	ErrRateLimited = errors.New("oracle rate limited")
	// ErrEmptyAnswer is returned by an Oracle that produced no text.
	ErrEmptyAnswer = errors.New("oracle returned no answer")
)

// Temporary is implemented by oracle errors that may succeed on retry.
type Temporary interface {
	Temporary() bool
}
