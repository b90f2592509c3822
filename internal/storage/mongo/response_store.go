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

const (
	formCollection     = "forms"
	responseCollection = "responses"
)

type formDocument struct {
	ID        string             `bson:"_id"`
	OwnerID   string             `bson:"owner_id"`
	Title     string             `bson:"title"`
	Questions []questionDocument `bson:"questions"`
	CreatedAt time.Time          `bson:"created_at"`
}

type questionDocument struct {
	ID   string `bson:"id"`
	Text string `bson:"text"`
	Type string `bson:"type"`
}

type responseDocument struct {
	ID          string           `bson:"_id"`
	FormID      string           `bson:"form_id"`
	Status      string           `bson:"status"`
	Answers     []answerDocument `bson:"answers"`
	SubmittedAt time.Time        `bson:"submitted_at"`
}

type answerDocument struct {
	QuestionID string `bson:"question_id"`
	Value      any    `bson:"value"`
}

// ResponseStore is the pipeline's read-only view of the form and response
// collections owned by the response lifecycle collaborator.
type ResponseStore struct {
	forms     *mongo.Collection
	responses *mongo.Collection
}

func NewResponseStore(database *mongo.Database) *ResponseStore {
	return &ResponseStore{
		forms:     database.Collection(formCollection),
		responses: database.Collection(responseCollection),
	}
}

func (s *ResponseStore) GetResponse(ctx context.Context, responseID string) (*domain.Response, error) {
	var document responseDocument

	err := s.responses.FindOne(ctx, bson.M{"_id": responseID}).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrResponseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find response: %w", err)
	}

	answers := make([]domain.Answer, 0, len(document.Answers))
	for _, answer := range document.Answers {
		answers = append(answers, domain.Answer{
			QuestionID: answer.QuestionID,
			Value:      answer.Value,
		})
	}

	return &domain.Response{
		ID:          document.ID,
		FormID:      document.FormID,
		Status:      domain.ResponseStatus(document.Status),
		Answers:     answers,
		SubmittedAt: document.SubmittedAt,
	}, nil
}

func (s *ResponseStore) GetForm(ctx context.Context, formID string) (*domain.Form, error) {
	var document formDocument

	err := s.forms.FindOne(ctx, bson.M{"_id": formID}).Decode(&document)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrFormNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find form: %w", err)
	}

	questions := make([]domain.Question, 0, len(document.Questions))
	for _, question := range document.Questions {
		questions = append(questions, domain.Question{
			ID:   question.ID,
			Text: question.Text,
			Type: domain.QuestionType(question.Type),
		})
	}

	return &domain.Form{
		ID:        document.ID,
		OwnerID:   document.OwnerID,
		Title:     document.Title,
		Questions: questions,
		CreatedAt: document.CreatedAt,
	}, nil
}
