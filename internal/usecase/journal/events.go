package journal

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/simaogato/walletflow/internal/domain"
)

// EventType names a journal change. It doubles as the message routing key.
type EventType string

const (
	EventOperationRecorded EventType = "operation.recorded"
	EventOperationDeleted  EventType = "operation.deleted"
)

// Event describes a committed journal change
type Event struct {
	Type           EventType  `json:"type"`
	OperationID    uuid.UUID  `json:"operation_id"`
	WalletID       uuid.UUID  `json:"wallet_id"`
	TargetWalletID *uuid.UUID `json:"target_wallet_id,omitempty"`
	Kind           string     `json:"kind"`
	Category       string     `json:"category"`
	Amount         string     `json:"amount"`
	OperationTime  time.Time  `json:"operation_time"`
	OccurredAt     time.Time  `json:"occurred_at"`
}

func newEvent(eventType EventType, op *domain.Operation, at time.Time) Event {
	return Event{
		Type:           eventType,
		OperationID:    op.ID,
		WalletID:       op.WalletID,
		TargetWalletID: op.TargetWalletID,
		Kind:           string(op.Kind),
		Category:       string(op.Category),
		Amount:         op.Amount.String(),
		OperationTime:  op.OperationTime,
		OccurredAt:     at,
	}
}

// Publisher delivers journal events to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher discards every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

// MultiPublisher fans an event out to every publisher and joins their errors
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
