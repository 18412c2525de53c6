package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
)

// Emitter writes domain events to the outbox table; the worker relays
// them to the broker.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

type emitter struct {
	repo repository.OutboxRepository
}

func NewEmitter(repo repository.OutboxRepository) Emitter {
	return &emitter{repo: repo}
}

func (e *emitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	evt := &model.OutboxEvent{
		EventType: eventType,
		Payload:   body,
	}
	if err := e.repo.Create(ctx, evt); err != nil {
		return fmt.Errorf("failed to emit %s event: %w", eventType, err)
	}
	return nil
}
