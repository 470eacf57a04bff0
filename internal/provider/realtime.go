package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Publisher is the realtime fan-out capability. Publishes are best-effort;
// callers never roll back committed state when one fails.
type Publisher interface {
	Publish(ctx context.Context, channel, name, data string) error
}

const defaultAblyRestURL = "https://rest.ably.io"

// AblyClient publishes channel messages through the Ably REST API using
// basic auth with the full API key (keyName:keySecret).
type AblyClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewAblyClient creates a new AblyClient
func NewAblyClient(apiKey string, httpClient *http.Client) *AblyClient {
	return &AblyClient{BaseURL: defaultAblyRestURL, APIKey: apiKey, HTTPClient: httpClient}
}

func (c *AblyClient) Publish(ctx context.Context, channel, name, data string) error {
	if channel == "" {
		return fmt.Errorf("channel cannot be empty")
	}

	payload, err := json.Marshal(struct {
		Name string `json:"name"`
		Data string `json:"data"`
	}{Name: name, Data: data})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/channels/%s/messages", c.BaseURL, channel)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}

	keyName, keySecret, ok := strings.Cut(c.APIKey, ":")
	if !ok {
		return fmt.Errorf("malformed ably api key, want keyName:keySecret")
	}
	req.SetBasicAuth(keyName, keySecret)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(res.Body)
		return fmt.Errorf("unexpected HTTP status: %s, response: %s", res.Status, string(body))
	}
	return nil
}
