// Package events emits change events for MEP and committee lifecycle changes.
package events

import (
	"context"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/parlwatch/hemicycle/pkg/kafka"
	"github.com/parlwatch/hemicycle/pkg/models"
	"github.com/parlwatch/hemicycle/pkg/tracing"
)

// Emitter publishes audit entries as change events. A nil producer disables
// emission, so callers never need to branch on whether Kafka is configured.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// Enabled reports whether events will actually be published
func (e *Emitter) Enabled() bool {
	return e != nil && e.producer != nil
}

// EmitAuditEntry publishes the change recorded by an audit entry
func (e *Emitter) EmitAuditEntry(ctx context.Context, entry *models.AuditEntry, syncRunID string) error {
	if !e.Enabled() {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitAuditEntry")
	defer span.End()

	event := &kafka.ChangeEvent{
		EventType:  fmt.Sprintf("%s.%s", entry.EntityType, eventSuffix(entry.ChangeType)),
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		OldValues:  entry.OldValues,
		NewValues:  entry.NewValues,
		SyncRunID:  syncRunID,
	}

	if err := e.producer.PublishChangeEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", event.EventType)
		return err
	}

	return nil
}

func eventSuffix(changeType string) string {
	switch changeType {
	case models.ChangeCreated:
		return "created"
	case models.ChangeUpdated:
		return "updated"
	case models.ChangeMergeDuplicates:
		return "merged"
	default:
		return changeType
	}
}
