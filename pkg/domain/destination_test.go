package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDestinationConfig(t *testing.T) {
	tests := []struct {
		name            string
		destinationType DestinationType
		raw             string
		wantErr         bool
		check           func(t *testing.T, config DestinationConfig)
	}{
		{
			name:            "valid slack config",
			destinationType: DestinationType_Slack,
			raw:             `{"webhook_url":"https://hooks.slack.com/services/T/B/x"}`,
			check: func(t *testing.T, config DestinationConfig) {
				slackConfig, ok := config.(*SlackConfig)
				require.True(t, ok)
				assert.Equal(t, "https://hooks.slack.com/services/T/B/x", slackConfig.WebhookURL)
			},
		},
		{
			name:            "slack http url rejected",
			destinationType: DestinationType_Slack,
			raw:             `{"webhook_url":"http://hooks.slack.com/services/T/B/x"}`,
			wantErr:         true,
		},
		{
			name:            "slack missing url rejected",
			destinationType: DestinationType_Slack,
			raw:             `{}`,
			wantErr:         true,
		},
		{
			name:            "valid discord config",
			destinationType: DestinationType_Discord,
			raw:             `{"webhook_url":"https://discord.com/api/webhooks/1/t"}`,
		},
		{
			name:            "valid google sheets config",
			destinationType: DestinationType_GoogleSheets,
			raw:             `{"spreadsheet_id":"s1","sheet_name":"Sheet1","columns":["Name"],"oauth":{"refresh_token":"r"}}`,
		},
		{
			name:            "google sheets without columns rejected",
			destinationType: DestinationType_GoogleSheets,
			raw:             `{"spreadsheet_id":"s1","oauth":{"refresh_token":"r"}}`,
			wantErr:         true,
		},
		{
			name:            "google sheets without tokens rejected",
			destinationType: DestinationType_GoogleSheets,
			raw:             `{"spreadsheet_id":"s1","columns":["Name"]}`,
			wantErr:         true,
		},
		{
			name:            "valid notion config",
			destinationType: DestinationType_Notion,
			raw:             `{"access_token":"tok","database_id":"db1"}`,
		},
		{
			name:            "notion without database rejected",
			destinationType: DestinationType_Notion,
			raw:             `{"access_token":"tok"}`,
			wantErr:         true,
		},
		{
			name:            "valid pipedrive config",
			destinationType: DestinationType_Pipedrive,
			raw:             `{"oauth":{"refresh_token":"r"},"create_leads":true}`,
			check: func(t *testing.T, config DestinationConfig) {
				pipedriveConfig, ok := config.(*PipedriveConfig)
				require.True(t, ok)
				assert.True(t, pipedriveConfig.CreateLeads)
			},
		},
		{
			name:            "pipedrive without refresh token rejected",
			destinationType: DestinationType_Pipedrive,
			raw:             `{"create_leads":true}`,
			wantErr:         true,
		},
		{
			name:            "unknown destination type rejected",
			destinationType: DestinationType("salesforce"),
			raw:             `{}`,
			wantErr:         true,
		},
		{
			name:            "malformed json rejected",
			destinationType: DestinationType_Slack,
			raw:             `{"webhook_url":`,
			wantErr:         true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config, err := DecodeDestinationConfig(tt.destinationType, []byte(tt.raw))

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}

			require.NoError(t, err)

			if tt.check != nil {
				tt.check(t, config)
			}
		})
	}
}

func TestOAuthConfigCredentialRoundTrip(t *testing.T) {
	configs := []OAuthConfig{
		&GoogleSheetsConfig{SpreadsheetID: "s1", Columns: []string{"A"}},
		&PipedriveConfig{},
	}

	credential := OAuthCredential{
		AccessToken:  "access",
		RefreshToken: "refresh",
	}

	for _, config := range configs {
		config.SetCredential(credential)

		assert.Equal(t, credential, config.Credential())
	}
}

type noopAdapter struct{}

func (noopAdapter) Deliver(ctx context.Context, params DeliverParams) error { return nil }

func TestAdapterSelector(t *testing.T) {
	selector := NewAdapterSelector()

	selector.Register(DestinationType_Slack, noopAdapter{})

	selected, err := selector.Select(context.Background(), DestinationType_Slack)
	require.NoError(t, err)
	assert.NotNil(t, selected)

	_, err = selector.Select(context.Background(), DestinationType_Notion)
	assert.ErrorIs(t, err, ErrAdapterNotFound)
}
