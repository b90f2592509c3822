package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"
)

type DestinationType string

const (
	DestinationType_Slack        DestinationType = "slack"
	DestinationType_Discord      DestinationType = "discord"
	DestinationType_GoogleSheets DestinationType = "google_sheets"
	DestinationType_Notion       DestinationType = "notion"
	DestinationType_Pipedrive    DestinationType = "pipedrive"
)

var (
	ErrDestinationNotFound = errors.New("destination not found")
	ErrAdapterNotFound     = errors.New("adapter not found")
	ErrInvalidConfig       = errors.New("invalid destination config")
)

// Destination is one connected external system owned by a workspace owner.
// At most one destination exists per (OwnerID, Type); reconnecting replaces
// the config instead of creating a second one.
type Destination struct {
	ID           string
	OwnerID      string
	Type         DestinationType
	Config       DestinationConfig
	Enabled      bool
	CreatedAt    time.Time
	LastSyncedAt *time.Time
}

// DestinationConfig is the per-type settings bag, validated at connect time.
type DestinationConfig interface {
	Validate() error
}

// OAuthConfig is implemented by configs that carry a refreshable credential.
type OAuthConfig interface {
	DestinationConfig
	Credential() OAuthCredential
	SetCredential(cred OAuthCredential)
}

type SlackConfig struct {
	WebhookURL string `json:"webhook_url"`
}

func (c *SlackConfig) Validate() error {
	if err := validateHTTPSURL(c.WebhookURL); err != nil {
		return fmt.Errorf("%w: slack webhook url: %v", ErrInvalidConfig, err)
	}

	return nil
}

type DiscordConfig struct {
	WebhookURL string `json:"webhook_url"`
}

func (c *DiscordConfig) Validate() error {
	if err := validateHTTPSURL(c.WebhookURL); err != nil {
		return fmt.Errorf("%w: discord webhook url: %v", ErrInvalidConfig, err)
	}

	return nil
}

type GoogleSheetsConfig struct {
	SpreadsheetID string          `json:"spreadsheet_id"`
	SheetName     string          `json:"sheet_name"`
	Columns       []string        `json:"columns"`
	OAuth         OAuthCredential `json:"oauth"`
}

func (c *GoogleSheetsConfig) Validate() error {
	if c.SpreadsheetID == "" {
		return fmt.Errorf("%w: spreadsheet id is required", ErrInvalidConfig)
	}

	if len(c.Columns) == 0 {
		return fmt.Errorf("%w: at least one column is required", ErrInvalidConfig)
	}

	if c.OAuth.RefreshToken == "" && c.OAuth.AccessToken == "" {
		return fmt.Errorf("%w: google oauth tokens are required", ErrInvalidConfig)
	}

	return nil
}

func (c *GoogleSheetsConfig) Credential() OAuthCredential { return c.OAuth }

func (c *GoogleSheetsConfig) SetCredential(cred OAuthCredential) { c.OAuth = cred }

type NotionConfig struct {
	AccessToken string        `json:"access_token"`
	DatabaseID  string        `json:"database_id"`
	Properties  []FieldSchema `json:"properties"`
}

func (c *NotionConfig) Validate() error {
	if c.AccessToken == "" {
		return fmt.Errorf("%w: notion access token is required", ErrInvalidConfig)
	}

	if c.DatabaseID == "" {
		return fmt.Errorf("%w: notion database id is required", ErrInvalidConfig)
	}

	return nil
}

type PipedriveConfig struct {
	OAuth       OAuthCredential `json:"oauth"`
	CreateLeads bool            `json:"create_leads"`
	APIBaseURL  string          `json:"api_base_url,omitempty"`
}

func (c *PipedriveConfig) Validate() error {
	if c.OAuth.RefreshToken == "" {
		return fmt.Errorf("%w: pipedrive refresh token is required", ErrInvalidConfig)
	}

	return nil
}

func (c *PipedriveConfig) Credential() OAuthCredential { return c.OAuth }

func (c *PipedriveConfig) SetCredential(cred OAuthCredential) { c.OAuth = cred }

// DecodeDestinationConfig decodes the raw connect-time payload into the typed
// config for the destination type and validates it.
func DecodeDestinationConfig(destinationType DestinationType, raw []byte) (DestinationConfig, error) {
	var config DestinationConfig

	switch destinationType {
	case DestinationType_Slack:
		config = &SlackConfig{}
	case DestinationType_Discord:
		config = &DiscordConfig{}
	case DestinationType_GoogleSheets:
		config = &GoogleSheetsConfig{}
	case DestinationType_Notion:
		config = &NotionConfig{}
	case DestinationType_Pipedrive:
		config = &PipedriveConfig{}
	default:
		return nil, fmt.Errorf("%w: unknown destination type %s", ErrInvalidConfig, destinationType)
	}

	if err := json.Unmarshal(raw, config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func validateHTTPSURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("url is required")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	if parsed.Scheme != "https" {
		return fmt.Errorf("url must use https, got %q", parsed.Scheme)
	}

	if parsed.Host == "" {
		return errors.New("url host is required")
	}

	return nil
}
