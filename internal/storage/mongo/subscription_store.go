package mongostorage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formtalk/formtalk/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const subscriptionCollection = "webhook_subscriptions"

type subscriptionDocument struct {
	ID               string     `bson:"_id"`
	OwnerID          string     `bson:"owner_id"`
	URL              string     `bson:"url"`
	SubscribedEvents []string   `bson:"subscribed_events"`
	Enabled          bool       `bson:"enabled"`
	CreatedAt        time.Time  `bson:"created_at"`
	LastTriggeredAt  *time.Time `bson:"last_triggered_at,omitempty"`
	LastStatusCode   int        `bson:"last_status_code,omitempty"`
}

type SubscriptionStore struct {
	collection *mongo.Collection
}

func NewSubscriptionStore(database *mongo.Database) *SubscriptionStore {
	return &SubscriptionStore{
		collection: database.Collection(subscriptionCollection),
	}
}

func (s *SubscriptionStore) GetByID(ctx context.Context, subscriptionID string) (*domain.WebhookSubscription, error) {
	var document subscriptionDocument

	err := s.collection.FindOne(ctx, bson.M{"_id": subscriptionID}).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find webhook subscription: %w", err)
	}

	return documentToSubscription(document), nil
}

func (s *SubscriptionStore) GetEnabledByOwner(ctx context.Context, ownerID string) ([]*domain.WebhookSubscription, error) {
	cursor, err := s.collection.Find(ctx, bson.M{"owner_id": ownerID, "enabled": true})
	if err != nil {
		return nil, fmt.Errorf("failed to query webhook subscriptions: %w", err)
	}
	defer cursor.Close(ctx)

	var subscriptions []*domain.WebhookSubscription

	for cursor.Next(ctx) {
		var document subscriptionDocument

		if err := cursor.Decode(&document); err != nil {
			return nil, fmt.Errorf("failed to decode webhook subscription document: %w", err)
		}

		subscriptions = append(subscriptions, documentToSubscription(document))
	}

	return subscriptions, cursor.Err()
}

func (s *SubscriptionStore) Create(ctx context.Context, subscription *domain.WebhookSubscription) error {
	if _, err := s.collection.InsertOne(ctx, subscriptionToDocument(subscription)); err != nil {
		return fmt.Errorf("failed to create webhook subscription: %w", err)
	}

	return nil
}

func (s *SubscriptionStore) Delete(ctx context.Context, subscriptionID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": subscriptionID})
	if err != nil {
		return fmt.Errorf("failed to delete webhook subscription: %w", err)
	}

	if result.DeletedCount == 0 {
		return domain.ErrSubscriptionNotFound
	}

	return nil
}

func (s *SubscriptionStore) RecordTrigger(ctx context.Context, subscriptionID string, statusCode int, triggeredAt time.Time) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": subscriptionID},
		bson.M{"$set": bson.M{
			"last_status_code":  statusCode,
			"last_triggered_at": triggeredAt,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to record webhook trigger: %w", err)
	}

	return nil
}

func subscriptionToDocument(subscription *domain.WebhookSubscription) subscriptionDocument {
	events := make([]string, 0, len(subscription.SubscribedEvents))
	for _, event := range subscription.SubscribedEvents {
		events = append(events, string(event))
	}

	return subscriptionDocument{
		ID:               subscription.ID,
		OwnerID:          subscription.OwnerID,
		URL:              subscription.URL,
		SubscribedEvents: events,
		Enabled:          subscription.Enabled,
		CreatedAt:        subscription.CreatedAt,
		LastTriggeredAt:  subscription.LastTriggeredAt,
		LastStatusCode:   subscription.LastStatusCode,
	}
}

func documentToSubscription(document subscriptionDocument) *domain.WebhookSubscription {
	events := make([]domain.ResponseEventType, 0, len(document.SubscribedEvents))
	for _, event := range document.SubscribedEvents {
		events = append(events, domain.ResponseEventType(event))
	}

	return &domain.WebhookSubscription{
		ID:               document.ID,
		OwnerID:          document.OwnerID,
		URL:              document.URL,
		SubscribedEvents: events,
		Enabled:          document.Enabled,
		CreatedAt:        document.CreatedAt,
		LastTriggeredAt:  document.LastTriggeredAt,
		LastStatusCode:   document.LastStatusCode,
	}
}
