package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseEventType(t *testing.T) {
	for _, raw := range []string{"response.created", "response.updated", "response.completed"} {
		event, err := ParseResponseEventType(raw)
		require.NoError(t, err)
		assert.Equal(t, ResponseEventType(raw), event)
	}

	_, err := ParseResponseEventType("response.deleted")
	assert.Error(t, err)
}

func TestSubscribedTo(t *testing.T) {
	subscription := WebhookSubscription{
		SubscribedEvents: []ResponseEventType{ResponseEvent_Completed},
	}

	assert.True(t, subscription.SubscribedTo(ResponseEvent_Completed))
	assert.False(t, subscription.SubscribedTo(ResponseEvent_Updated))
}

func TestNewWebhookEnvelope(t *testing.T) {
	form := Form{
		ID:    "form-1",
		Title: "Signup",
		Questions: []Question{
			{ID: "q1", Text: "Name"},
			{ID: "q2", Text: "Email"},
			{ID: "q3", Text: "Comments"},
		},
	}

	response := Response{
		ID:          "resp-1",
		Status:      ResponseStatus_Completed,
		SubmittedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Answers: []Answer{
			{QuestionID: "q1", Value: "Jane"},
			{QuestionID: "q2", Value: "jane@x.com"},
		},
	}

	answers := NewAnswerSet(form, response)
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	envelope := NewWebhookEnvelope("evt-1", ResponseEvent_Completed, form, response, answers, now)

	assert.Equal(t, "evt-1", envelope.ID)
	assert.Equal(t, ResponseEvent_Completed, envelope.Event)
	assert.Equal(t, WebhookEnvelopeForm{ID: "form-1", Title: "Signup"}, envelope.Form)
	assert.Equal(t, "resp-1", envelope.Response.ID)
	assert.Equal(t, response.SubmittedAt, envelope.Response.SubmittedAt)
	assert.Equal(t, now, envelope.Timestamp)

	// Answers key by question text; the unanswered question is omitted.
	assert.Equal(t, map[string]any{
		"Name":  "Jane",
		"Email": "jane@x.com",
	}, envelope.Response.Answers)
}
