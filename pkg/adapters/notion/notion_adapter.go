package notionadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/formtalk/formtalk/internal/mapping"
	"github.com/formtalk/formtalk/pkg/domain"
)

const (
	NotionAPIVersion = "2022-06-28"
	NotionAPIBaseURL = "https://api.notion.com/v1"
)

type NotionAdapterDependencies struct {
	Engine mapping.Engine

	// BaseURL overrides the Notion API base URL, used by tests.
	BaseURL    string
	HTTPClient *http.Client
}

// NotionAdapter creates one page per completed response in the database
// configured at connect time, with properties shaped by the mapping engine
// against the property schema captured during connect.
type NotionAdapter struct {
	engine     mapping.Engine
	baseURL    string
	httpClient *http.Client
}

func NewNotionAdapter(deps NotionAdapterDependencies) *NotionAdapter {
	baseURL := deps.BaseURL
	if baseURL == "" {
		baseURL = NotionAPIBaseURL
	}

	httpClient := deps.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	return &NotionAdapter{
		engine:     deps.Engine,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (a *NotionAdapter) Deliver(ctx context.Context, params domain.DeliverParams) error {
	config, ok := params.Destination.Config.(*domain.NotionConfig)
	if !ok {
		return fmt.Errorf("%w: notion destination has no database config", domain.ErrInvalidConfig)
	}

	fields := a.engine.MapFields(params.Answers, params.Mapping, config.Properties, params.SubmittedAt)

	properties := buildProperties(config.Properties, fields)

	body := map[string]any{
		"parent": map[string]any{
			"database_id": config.DatabaseID,
		},
		"properties": properties,
	}

	if _, err := a.makeRequest(ctx, http.MethodPost, "/pages", config.AccessToken, body); err != nil {
		return fmt.Errorf("failed to create notion database page: %w", err)
	}

	return nil
}

func (a *NotionAdapter) makeRequest(ctx context.Context, method, endpoint, accessToken string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", NotionAPIVersion)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Notion API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}

// buildProperties converts the mapped field values into Notion page property
// payloads, keyed by property name.
func buildProperties(schema []domain.FieldSchema, fields map[string]any) map[string]any {
	properties := make(map[string]any)

	for _, field := range schema {
		value, ok := fields[field.Key()]
		if !ok {
			continue
		}

		property, ok := buildProperty(field.Type, value)
		if !ok {
			continue
		}

		properties[field.Name] = property
	}

	return properties
}

func buildProperty(fieldType domain.FieldType, value any) (any, bool) {
	switch fieldType {
	case domain.FieldType_Title:
		return map[string]any{
			"title": []any{richText(mapping.FormatValue(value))},
		}, true

	case domain.FieldType_RichText:
		return map[string]any{
			"rich_text": []any{richText(mapping.FormatValue(value))},
		}, true

	case domain.FieldType_Number:
		number, ok := value.(float64)
		if !ok {
			return nil, false
		}

		return map[string]any{"number": number}, true

	case domain.FieldType_Select:
		name, ok := value.(string)
		if !ok {
			return nil, false
		}

		return map[string]any{
			"select": map[string]any{"name": name},
		}, true

	case domain.FieldType_MultiSelect:
		names, ok := value.([]string)
		if !ok {
			return nil, false
		}

		options := make([]any, 0, len(names))
		for _, name := range names {
			options = append(options, map[string]any{"name": name})
		}

		return map[string]any{"multi_select": options}, true

	case domain.FieldType_Date:
		date, ok := value.(time.Time)
		if !ok {
			return nil, false
		}

		return map[string]any{
			"date": map[string]any{"start": date.UTC().Format(time.RFC3339)},
		}, true

	case domain.FieldType_Checkbox:
		checked, ok := value.(bool)
		if !ok {
			return nil, false
		}

		return map[string]any{"checkbox": checked}, true

	default:
		return nil, false
	}
}

func richText(content string) map[string]any {
	return map[string]any{
		"text": map[string]any{
			"content": content,
		},
	}
}
