// Package parser turns raw user text into an executable intent plan.
//
// The semantic work of decomposing text into a dependency graph lives in
// the NLP client. This package layers a deterministic acknowledgment
// policy on top of that output so the rules stay testable without a
// live model.
package parser

import (
	"context"

	"jack/internal/logging"
	"jack/internal/nlp"
	"jack/internal/types"
)

// fastActions are cheap enough that speaking the answer directly beats
// an acknowledgment followed by the answer.
var fastActions = map[string]bool{
	"get_time":    true,
	"get_date":    true,
	"get_weather": true,
	"simple_math": true,
}

// Parser wraps an intent client with the acknowledgment policy.
type Parser struct {
	client nlp.IntentClient
}

func New(client nlp.IntentClient) *Parser {
	return &Parser{client: client}
}

// ParseInput decomposes text into intents and decides whether the
// request warrants an immediate acknowledgment. Errors from the NLP
// client propagate unchanged. The snapshot may be nil.
func (p *Parser) ParseInput(ctx context.Context, text string, snapshot *types.ContextSnapshot) (*types.IntentParseResult, error) {
	result, err := p.client.ParseIntent(ctx, text, snapshot)
	if err != nil {
		return nil, err
	}

	result.RequiresAcknowledgment = RequiresAcknowledgment(result)
	logging.ParserDebug("parsed %d intent(s), %d group(s), ack=%v",
		len(result.Intents), len(result.ExecutionOrder), result.RequiresAcknowledgment)
	return result, nil
}

// RequiresAcknowledgment applies the acknowledgment policy:
// no ack when clarification is needed, when there is nothing to do,
// or when the single intent is a fast action. Everything else,
// including any multi-intent request, gets acknowledged.
func RequiresAcknowledgment(result *types.IntentParseResult) bool {
	if result.Clarification != nil {
		return false
	}
	if len(result.Intents) == 0 {
		return false
	}
	if len(result.Intents) > 1 {
		return true
	}
	return !fastActions[result.Intents[0].Action]
}

// IsFastAction reports whether action is on the no-acknowledgment
// allow-list.
func IsFastAction(action string) bool {
	return fastActions[action]
}
