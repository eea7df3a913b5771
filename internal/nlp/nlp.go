// Package nlp wraps the external NLP collaborator that decomposes user
// text into a dependency graph of intents. The collaborator owns the
// decomposition and the topological layering of the execution order;
// nothing in this package validates DAG well-formedness beyond checking
// that referenced intent IDs exist.
package nlp

import (
	"context"
	"errors"

	"jack/internal/types"
)

// IntentClient is the contract the intent parser depends on.
// ParseIntent returns intents, an execution order, and optionally a
// clarification; it never sets the acknowledgment flag - that policy
// belongs to the parser.
type IntentClient interface {
	ParseIntent(ctx context.Context, text string, snapshot *types.ContextSnapshot) (*types.IntentParseResult, error)
}

var (
	// ErrNoAPIKey means the client was constructed without credentials.
	ErrNoAPIKey = errors.New("API key not configured")

	// ErrMalformedResponse means the model's output did not decode
	// into a usable parse result.
	ErrMalformedResponse = errors.New("malformed intent response")
)
