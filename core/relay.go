package core

import (
	"context"
	"fmt"
)

const defaultPersona = "You are Coach Tuna, a supportive fitness and nutrition coach. " +
	"Give practical, encouraging advice grounded in the user's goals and training history. " +
	"Keep answers short and concrete. You are not a medical professional; tell users to " +
	"see a doctor for anything that sounds like a medical issue."

// Completer forwards an assembled conversation to the completion API.
type Completer interface {
	Complete(ctx context.Context, system string, msgs []Message) (Reply, error)
}

// Relay is the chat pipeline: validate the conversation, admit it
// through the chat quota, prepend the persona and forward to the
// completion API.
type Relay struct {
	completer Completer
	limiter   *Limiter
	persona   string
}

type RelayConfig struct {
	Completer Completer
	Limiter   *Limiter
	Persona   string
}

func NewRelay(cfg RelayConfig) (*Relay, error) {
	if cfg.Completer == nil {
		return nil, fmt.Errorf("completer is required")
	}
	if cfg.Limiter == nil {
		return nil, fmt.Errorf("limiter is required")
	}
	persona := cfg.Persona
	if persona == "" {
		persona = defaultPersona
	}
	return &Relay{
		completer: cfg.Completer,
		limiter:   cfg.Limiter,
		persona:   persona,
	}, nil
}

// Chat relays one user turn. A blocked key returns ErrRateLimited and
// the completion API is never reached.
func (r *Relay) Chat(ctx context.Context, userID string, msgs []Message) (Reply, error) {
	if userID == "" {
		return Reply{}, fmt.Errorf("userID is required")
	}

	if r.limiter.ShouldBlock(ctx, userID) {
		return Reply{}, ErrRateLimited
	}

	if err := validateConversation(msgs); err != nil {
		return Reply{}, err
	}

	reply, err := r.completer.Complete(ctx, r.persona, msgs)
	if err != nil {
		return Reply{}, fmt.Errorf("completion: %w", err)
	}
	return reply, nil
}
