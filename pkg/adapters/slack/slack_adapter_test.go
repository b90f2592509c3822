package slackadapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliver_PostsBlocksToWebhook(t *testing.T) {
	var payload map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &payload))

		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	adapter := NewSlackAdapter(SlackAdapterDependencies{HTTPClient: server.Client()})

	params := domain.DeliverParams{
		Destination: &domain.Destination{
			ID:     "dest-1",
			Type:   domain.DestinationType_Slack,
			Config: &domain.SlackConfig{WebhookURL: server.URL},
		},
		Form: domain.Form{ID: "form-1", Title: "Signup"},
		Answers: domain.AnswerSet{Entries: []domain.AnswerEntry{
			{QuestionID: "q1", QuestionText: "Name", Value: "Jane", Answered: true},
			{QuestionID: "q2", QuestionText: "Email", Value: "jane@x.com", Answered: true},
			{QuestionID: "q3", QuestionText: "Comments"},
		}},
	}

	require.NoError(t, adapter.Deliver(context.Background(), params))

	blocks, ok := payload["blocks"].([]any)
	require.True(t, ok)
	// One header plus a section per answered question; the unanswered one is
	// left out.
	require.Len(t, blocks, 3)

	header := blocks[0].(map[string]any)
	assert.Equal(t, "header", header["type"])
	assert.Equal(t, "New response: Signup", header["text"].(map[string]any)["text"])

	section := blocks[1].(map[string]any)
	assert.Equal(t, "section", section["type"])
	assert.Equal(t, "*Name*\nJane", section["text"].(map[string]any)["text"])
}

func TestDeliver_WrongConfigType(t *testing.T) {
	adapter := NewSlackAdapter(SlackAdapterDependencies{})

	params := domain.DeliverParams{
		Destination: &domain.Destination{
			ID:     "dest-1",
			Type:   domain.DestinationType_Slack,
			Config: &domain.DiscordConfig{WebhookURL: "https://discord.com/api/webhooks/1/t"},
		},
	}

	err := adapter.Deliver(context.Background(), params)

	assert.ErrorIs(t, err, domain.ErrInvalidConfig)
}

func TestDeliver_WebhookFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no_service", http.StatusNotFound)
	}))
	t.Cleanup(server.Close)

	adapter := NewSlackAdapter(SlackAdapterDependencies{HTTPClient: server.Client()})

	params := domain.DeliverParams{
		Destination: &domain.Destination{
			ID:     "dest-1",
			Type:   domain.DestinationType_Slack,
			Config: &domain.SlackConfig{WebhookURL: server.URL},
		},
		Form: domain.Form{ID: "form-1", Title: "Signup"},
	}

	assert.Error(t, adapter.Deliver(context.Background(), params))
}
