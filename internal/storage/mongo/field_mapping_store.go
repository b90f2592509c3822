package mongostorage

import (
	"context"
	"errors"
	"fmt"

	"github.com/formtalk/formtalk/pkg/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const fieldMappingCollection = "field_mappings"

type fieldMappingDocument struct {
	FormID          string                      `bson:"form_id"`
	DestinationType string                      `bson:"destination_type"`
	Entries         []fieldMappingEntryDocument `bson:"entries"`
}

type fieldMappingEntryDocument struct {
	SourceQuestionID     string `bson:"source_question_id"`
	DestinationFieldID   string `bson:"destination_field_id"`
	DestinationFieldName string `bson:"destination_field_name"`
}

type FieldMappingStore struct {
	collection *mongo.Collection
}

func NewFieldMappingStore(database *mongo.Database) *FieldMappingStore {
	return &FieldMappingStore{
		collection: database.Collection(fieldMappingCollection),
	}
}

// GetMapping returns nil without error when no explicit mapping exists; the
// mapping engine falls back to heuristic mode.
func (s *FieldMappingStore) GetMapping(ctx context.Context, formID string, destinationType domain.DestinationType) (*domain.FieldMapping, error) {
	filter := bson.M{"form_id": formID, "destination_type": string(destinationType)}

	var document fieldMappingDocument

	err := s.collection.FindOne(ctx, filter).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find field mapping: %w", err)
	}

	entries := make([]domain.FieldMappingEntry, 0, len(document.Entries))
	for _, entry := range document.Entries {
		entries = append(entries, domain.FieldMappingEntry{
			SourceQuestionID:     entry.SourceQuestionID,
			DestinationFieldID:   entry.DestinationFieldID,
			DestinationFieldName: entry.DestinationFieldName,
		})
	}

	return &domain.FieldMapping{
		FormID:          document.FormID,
		DestinationType: domain.DestinationType(document.DestinationType),
		Entries:         entries,
	}, nil
}
