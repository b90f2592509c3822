package discordadapter

import (
	"context"
	"testing"

	"github.com/formtalk/formtalk/pkg/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebhookURL(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		expectedID    string
		expectedToken string
		wantErr       bool
	}{
		{
			name:          "canonical webhook url",
			url:           "https://discord.com/api/webhooks/123456/abc-token",
			expectedID:    "123456",
			expectedToken: "abc-token",
		},
		{
			name:          "versioned api path",
			url:           "https://discord.com/api/v10/webhooks/123456/abc-token",
			expectedID:    "123456",
			expectedToken: "abc-token",
		},
		{
			name:    "missing token",
			url:     "https://discord.com/api/webhooks/123456",
			wantErr: true,
		},
		{
			name:    "not a webhook url",
			url:     "https://discord.com/api/channels/123456",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, token, err := parseWebhookURL(tt.url)

			if tt.wantErr {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedID, id)
			assert.Equal(t, tt.expectedToken, token)
		})
	}
}

func TestDeliver_WrongConfigType(t *testing.T) {
	adapter, err := NewDiscordAdapter()
	require.NoError(t, err)

	params := domain.DeliverParams{
		Destination: &domain.Destination{
			ID:     "dest-1",
			Type:   domain.DestinationType_Discord,
			Config: &domain.SlackConfig{WebhookURL: "https://hooks.slack.com/services/x"},
		},
	}

	assert.ErrorIs(t, adapter.Deliver(context.Background(), params), domain.ErrInvalidConfig)
}

func TestDeliver_InvalidWebhookURL(t *testing.T) {
	adapter, err := NewDiscordAdapter()
	require.NoError(t, err)

	params := domain.DeliverParams{
		Destination: &domain.Destination{
			ID:     "dest-1",
			Type:   domain.DestinationType_Discord,
			Config: &domain.DiscordConfig{WebhookURL: "https://discord.com/not-a-webhook"},
		},
	}

	assert.ErrorIs(t, adapter.Deliver(context.Background(), params), domain.ErrInvalidConfig)
}
