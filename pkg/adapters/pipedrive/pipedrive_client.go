package pipedriveadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

type client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func newClient(baseURL, accessToken string, httpClient *http.Client) *client {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}

	return &client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  httpClient,
	}
}

type personPayload struct {
	Name  string
	Email string
	Phone string
	OrgID int
}

func (p personPayload) body() map[string]any {
	body := map[string]any{
		"name": p.Name,
		"email": []map[string]any{
			{"value": p.Email, "primary": true},
		},
	}

	if p.Phone != "" {
		body["phone"] = []map[string]any{
			{"value": p.Phone, "primary": true},
		}
	}

	if p.OrgID != 0 {
		body["org_id"] = p.OrgID
	}

	return body
}

type searchResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items []struct {
			Item struct {
				ID int `json:"id"`
			} `json:"item"`
		} `json:"items"`
	} `json:"data"`
}

type itemResponse struct {
	Success bool `json:"success"`
	Data    struct {
		ID int `json:"id"`
	} `json:"data"`
}

func (c *client) FindPersonByEmail(ctx context.Context, email string) (int, bool, error) {
	endpoint := fmt.Sprintf("/persons/search?term=%s&fields=email&exact_match=true", url.QueryEscape(email))

	respBody, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, false, err
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, false, fmt.Errorf("failed to decode person search response: %w", err)
	}

	if len(result.Data.Items) == 0 {
		return 0, false, nil
	}

	return result.Data.Items[0].Item.ID, true, nil
}

func (c *client) CreatePerson(ctx context.Context, person personPayload) (int, error) {
	respBody, err := c.makeRequest(ctx, http.MethodPost, "/persons", person.body())
	if err != nil {
		return 0, err
	}

	var result itemResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return 0, fmt.Errorf("failed to decode create person response: %w", err)
	}

	return result.Data.ID, nil
}

func (c *client) UpdatePerson(ctx context.Context, personID int, person personPayload) error {
	endpoint := fmt.Sprintf("/persons/%d", personID)

	_, err := c.makeRequest(ctx, http.MethodPut, endpoint, person.body())

	return err
}

func (c *client) FindOrCreateOrganization(ctx context.Context, name string) (int, error) {
	endpoint := fmt.Sprintf("/organizations/search?term=%s&exact_match=true", url.QueryEscape(name))

	respBody, err := c.makeRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	var search searchResponse
	if err := json.Unmarshal(respBody, &search); err != nil {
		return 0, fmt.Errorf("failed to decode organization search response: %w", err)
	}

	if len(search.Data.Items) > 0 {
		return search.Data.Items[0].Item.ID, nil
	}

	createBody, err := c.makeRequest(ctx, http.MethodPost, "/organizations", map[string]any{"name": name})
	if err != nil {
		return 0, err
	}

	var created itemResponse
	if err := json.Unmarshal(createBody, &created); err != nil {
		return 0, fmt.Errorf("failed to decode create organization response: %w", err)
	}

	return created.Data.ID, nil
}

func (c *client) CreateLead(ctx context.Context, title string, personID int) error {
	body := map[string]any{
		"title":     title,
		"person_id": personID,
	}

	_, err := c.makeRequest(ctx, http.MethodPost, "/leads", body)

	return err
}

func (c *client) makeRequest(ctx context.Context, method, endpoint string, body any) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("Pipedrive API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return respBody, nil
}
