package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"
)

// Button is one interactive reply option. ID carries the answer id as a
// string; Type is always "REPLY" for WhatsApp button replies.
type Button struct {
	Type  string `json:"type"`
	ID    string `json:"id"`
	Title string `json:"title"`
}

// Messenger is the outbound messaging capability the processor and dispatcher
// depend on. The Infobip client below is the production implementation; tests
// substitute fakes.
type Messenger interface {
	SendText(ctx context.Context, to, text string) error
	SendImage(ctx context.Context, to, mediaURL string) error
	SendInteractiveButtons(ctx context.Context, to, bodyText string, buttons []Button) error
	MarkAsRead(ctx context.Context, to, messageID string) error
}

// InfobipClient sends WhatsApp messages through the Infobip HTTP API using
// API-key authorization.
type InfobipClient struct {
	BaseURL    string
	APIKey     string
	Sender     string
	HTTPClient *http.Client
	Logger     *logrus.Logger
}

// NewInfobipClient creates a new InfobipClient
func NewInfobipClient(baseURL, apiKey, sender string, httpClient *http.Client, log *logrus.Logger) *InfobipClient {
	return &InfobipClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Sender:     sender,
		HTTPClient: httpClient,
		Logger:     log,
	}
}

// SendText sends a plain text message to a recipient's phone number.
func (c *InfobipClient) SendText(ctx context.Context, to, text string) error {
	if to == "" || text == "" {
		return fmt.Errorf("recipient (to) and text cannot be empty")
	}

	payload := struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Content struct {
			Text string `json:"text"`
		} `json:"content"`
	}{From: c.Sender, To: to}
	payload.Content.Text = text

	return c.post(ctx, "/whatsapp/1/message/text", payload)
}

// SendImage sends an image message referencing a hosted media URL.
func (c *InfobipClient) SendImage(ctx context.Context, to, mediaURL string) error {
	if to == "" || mediaURL == "" {
		return fmt.Errorf("recipient (to) and media URL cannot be empty")
	}

	payload := struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Content struct {
			MediaURL string `json:"mediaUrl"`
		} `json:"content"`
	}{From: c.Sender, To: to}
	payload.Content.MediaURL = mediaURL

	return c.post(ctx, "/whatsapp/1/message/image", payload)
}

// SendInteractiveButtons sends a message whose reply options are rendered as
// tappable buttons.
func (c *InfobipClient) SendInteractiveButtons(ctx context.Context, to, bodyText string, buttons []Button) error {
	if to == "" || bodyText == "" {
		return fmt.Errorf("recipient (to) and body text cannot be empty")
	}
	if len(buttons) == 0 {
		return fmt.Errorf("interactive message needs at least one button")
	}

	payload := struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Content struct {
			Body struct {
				Text string `json:"text"`
			} `json:"body"`
			Action struct {
				Buttons []Button `json:"buttons"`
			} `json:"action"`
		} `json:"content"`
	}{From: c.Sender, To: to}
	payload.Content.Body.Text = bodyText
	payload.Content.Action.Buttons = buttons

	return c.post(ctx, "/whatsapp/1/message/interactive-buttons", payload)
}

// MarkAsRead reports a delivered inbound message as seen.
func (c *InfobipClient) MarkAsRead(ctx context.Context, to, messageID string) error {
	if messageID == "" {
		return fmt.Errorf("message id cannot be empty")
	}

	url := fmt.Sprintf("%s/whatsapp/1/senders/%s/message/%s/read", c.BaseURL, c.Sender, messageID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "App "+c.APIKey)
	req.Header.Set("Accept", "application/json")

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

func (c *InfobipClient) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "App "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		resBody, _ := io.ReadAll(res.Body)
		c.Logger.WithFields(logrus.Fields{"status": res.Status, "path": path}).Error("infobip send rejected")
		return fmt.Errorf("unexpected HTTP status: %s, response: %s", res.Status, string(resBody))
	}

	c.Logger.WithFields(logrus.Fields{"status": res.Status, "path": path}).Debug("infobip send accepted")
	return nil
}
