package domain

import (
	"errors"
	"fmt"
	"time"
)

type ResponseEventType string

const (
	ResponseEvent_Created   ResponseEventType = "response.created"
	ResponseEvent_Updated   ResponseEventType = "response.updated"
	ResponseEvent_Completed ResponseEventType = "response.completed"
)

var ErrSubscriptionNotFound = errors.New("webhook subscription not found")

func ParseResponseEventType(raw string) (ResponseEventType, error) {
	switch ResponseEventType(raw) {
	case ResponseEvent_Created, ResponseEvent_Updated, ResponseEvent_Completed:
		return ResponseEventType(raw), nil
	default:
		return "", fmt.Errorf("unknown response event type %q", raw)
	}
}

// WebhookSubscription is a user-owned HTTPS endpoint subscribed to response
// lifecycle events.
type WebhookSubscription struct {
	ID               string
	OwnerID          string
	URL              string
	SubscribedEvents []ResponseEventType
	Enabled          bool
	CreatedAt        time.Time
	LastTriggeredAt  *time.Time
	LastStatusCode   int
}

func (s WebhookSubscription) Validate() error {
	if err := validateHTTPSURL(s.URL); err != nil {
		return fmt.Errorf("webhook url: %w", err)
	}

	if len(s.SubscribedEvents) == 0 {
		return errors.New("at least one subscribed event is required")
	}

	for _, event := range s.SubscribedEvents {
		if _, err := ParseResponseEventType(string(event)); err != nil {
			return err
		}
	}

	return nil
}

func (s WebhookSubscription) SubscribedTo(event ResponseEventType) bool {
	for _, subscribed := range s.SubscribedEvents {
		if subscribed == event {
			return true
		}
	}

	return false
}

// WebhookEnvelope is the fixed JSON payload POSTed to subscribed endpoints.
type WebhookEnvelope struct {
	ID        string               `json:"id"`
	Event     ResponseEventType    `json:"event"`
	Form      WebhookEnvelopeForm  `json:"form"`
	Response  WebhookEnvelopeReply `json:"response"`
	Timestamp time.Time            `json:"timestamp"`
}

type WebhookEnvelopeForm struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type WebhookEnvelopeReply struct {
	ID          string         `json:"id"`
	Status      ResponseStatus `json:"status"`
	SubmittedAt time.Time      `json:"submitted_at"`
	Answers     map[string]any `json:"answers"`
}

// NewWebhookEnvelope builds the envelope for one event. Answers are keyed by
// question text, unanswered questions are omitted.
func NewWebhookEnvelope(id string, event ResponseEventType, form Form, response Response, answers AnswerSet, now time.Time) WebhookEnvelope {
	answerValues := make(map[string]any)

	for _, entry := range answers.Answered() {
		answerValues[entry.QuestionText] = entry.Value
	}

	return WebhookEnvelope{
		ID:    id,
		Event: event,
		Form: WebhookEnvelopeForm{
			ID:    form.ID,
			Title: form.Title,
		},
		Response: WebhookEnvelopeReply{
			ID:          response.ID,
			Status:      response.Status,
			SubmittedAt: response.SubmittedAt,
			Answers:     answerValues,
		},
		Timestamp: now.UTC(),
	}
}
