package domain

import (
	"context"
	"time"
)

// DestinationStore persists connected destinations. The pipeline reads
// enabled destinations during fan-out and writes back only credential
// refreshes and sync timestamps.
type DestinationStore interface {
	GetByID(ctx context.Context, destinationID string) (*Destination, error)
	GetByOwner(ctx context.Context, ownerID string) ([]*Destination, error)
	GetEnabledByOwner(ctx context.Context, ownerID string) ([]*Destination, error)

	// Upsert replaces any existing destination with the same (OwnerID, Type),
	// keeping the one-destination-per-type invariant.
	Upsert(ctx context.Context, destination *Destination) error
	Delete(ctx context.Context, destinationID string) error

	UpdateCredential(ctx context.Context, destinationID string, credential OAuthCredential) error
	MarkSynced(ctx context.Context, destinationID string, syncedAt time.Time) error
}

type SubscriptionStore interface {
	GetByID(ctx context.Context, subscriptionID string) (*WebhookSubscription, error)
	GetEnabledByOwner(ctx context.Context, ownerID string) ([]*WebhookSubscription, error)
	Create(ctx context.Context, subscription *WebhookSubscription) error
	Delete(ctx context.Context, subscriptionID string) error

	RecordTrigger(ctx context.Context, subscriptionID string, statusCode int, triggeredAt time.Time) error
}

// ResponseStore is the read side of the response lifecycle collaborator.
type ResponseStore interface {
	GetResponse(ctx context.Context, responseID string) (*Response, error)
	GetForm(ctx context.Context, formID string) (*Form, error)
}

// FieldMappingStore returns the explicit mapping for a form and destination
// type, or nil when none exists and heuristic mode applies.
type FieldMappingStore interface {
	GetMapping(ctx context.Context, formID string, destinationType DestinationType) (*FieldMapping, error)
}
