package mongostorage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/formtalk/formtalk/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const destinationCollection = "destinations"

type destinationDocument struct {
	ID           string     `bson:"_id"`
	OwnerID      string     `bson:"owner_id"`
	Type         string     `bson:"type"`
	ConfigJSON   []byte     `bson:"config_json"`
	Enabled      bool       `bson:"enabled"`
	CreatedAt    time.Time  `bson:"created_at"`
	LastSyncedAt *time.Time `bson:"last_synced_at,omitempty"`
}

type DestinationStore struct {
	collection *mongo.Collection
}

func NewDestinationStore(database *mongo.Database) *DestinationStore {
	return &DestinationStore{
		collection: database.Collection(destinationCollection),
	}
}

func (s *DestinationStore) GetByID(ctx context.Context, destinationID string) (*domain.Destination, error) {
	var document destinationDocument

	err := s.collection.FindOne(ctx, bson.M{"_id": destinationID}).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrDestinationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find destination: %w", err)
	}

	return documentToDestination(document)
}

func (s *DestinationStore) GetByOwner(ctx context.Context, ownerID string) ([]*domain.Destination, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID})
}

func (s *DestinationStore) GetEnabledByOwner(ctx context.Context, ownerID string) ([]*domain.Destination, error) {
	return s.find(ctx, bson.M{"owner_id": ownerID, "enabled": true})
}

func (s *DestinationStore) find(ctx context.Context, filter bson.M) ([]*domain.Destination, error) {
	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query destinations: %w", err)
	}
	defer cursor.Close(ctx)

	var destinations []*domain.Destination

	for cursor.Next(ctx) {
		var document destinationDocument

		if err := cursor.Decode(&document); err != nil {
			return nil, fmt.Errorf("failed to decode destination document: %w", err)
		}

		destination, err := documentToDestination(document)
		if err != nil {
			return nil, err
		}

		destinations = append(destinations, destination)
	}

	return destinations, cursor.Err()
}

// Upsert replaces any destination with the same (owner, type) so a reconnect
// swaps config instead of creating a duplicate.
func (s *DestinationStore) Upsert(ctx context.Context, destination *domain.Destination) error {
	document, err := destinationToDocument(destination)
	if err != nil {
		return err
	}

	filter := bson.M{"owner_id": destination.OwnerID, "type": string(destination.Type)}

	_, err = s.collection.ReplaceOne(ctx, filter, document, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert destination: %w", err)
	}

	return nil
}

func (s *DestinationStore) Delete(ctx context.Context, destinationID string) error {
	result, err := s.collection.DeleteOne(ctx, bson.M{"_id": destinationID})
	if err != nil {
		return fmt.Errorf("failed to delete destination: %w", err)
	}

	if result.DeletedCount == 0 {
		return domain.ErrDestinationNotFound
	}

	return nil
}

// UpdateCredential rewrites only the credential part of the stored config.
// Two concurrent refreshes race last-write-wins, which is tolerated.
func (s *DestinationStore) UpdateCredential(ctx context.Context, destinationID string, credential domain.OAuthCredential) error {
	destination, err := s.GetByID(ctx, destinationID)
	if err != nil {
		return err
	}

	config, ok := destination.Config.(domain.OAuthConfig)
	if !ok {
		return fmt.Errorf("destination %s config carries no oauth credential", destinationID)
	}

	config.SetCredential(credential)

	configJSON, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal destination config: %w", err)
	}

	_, err = s.collection.UpdateOne(ctx,
		bson.M{"_id": destinationID},
		bson.M{"$set": bson.M{"config_json": configJSON}},
	)
	if err != nil {
		return fmt.Errorf("failed to update destination credential: %w", err)
	}

	return nil
}

func (s *DestinationStore) MarkSynced(ctx context.Context, destinationID string, syncedAt time.Time) error {
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": destinationID},
		bson.M{"$set": bson.M{"last_synced_at": syncedAt}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark destination synced: %w", err)
	}

	return nil
}

func destinationToDocument(destination *domain.Destination) (destinationDocument, error) {
	configJSON, err := json.Marshal(destination.Config)
	if err != nil {
		return destinationDocument{}, fmt.Errorf("failed to marshal destination config: %w", err)
	}

	return destinationDocument{
		ID:           destination.ID,
		OwnerID:      destination.OwnerID,
		Type:         string(destination.Type),
		ConfigJSON:   configJSON,
		Enabled:      destination.Enabled,
		CreatedAt:    destination.CreatedAt,
		LastSyncedAt: destination.LastSyncedAt,
	}, nil
}

func documentToDestination(document destinationDocument) (*domain.Destination, error) {
	config, err := domain.DecodeDestinationConfig(domain.DestinationType(document.Type), document.ConfigJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config for destination %s: %w", document.ID, err)
	}

	return &domain.Destination{
		ID:           document.ID,
		OwnerID:      document.OwnerID,
		Type:         domain.DestinationType(document.Type),
		Config:       config,
		Enabled:      document.Enabled,
		CreatedAt:    document.CreatedAt,
		LastSyncedAt: document.LastSyncedAt,
	}, nil
}
