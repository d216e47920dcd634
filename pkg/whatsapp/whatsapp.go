// Package whatsapp is a minimal WhatsApp Cloud API client used as the
// push transport when replies are not delivered inline.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const maxResponseSizeBytes = 1 << 20

type Config struct {
	BaseURL       string        `split_words:"true" default:"https://graph.facebook.com/v19.0"`
	PhoneNumberID string        `split_words:"true" required:"true"`
	Token         string        `split_words:"true" required:"true"`
	Timeout       time.Duration `split_words:"true" default:"10s"`
}

type Client struct {
	baseURL       string
	phoneNumberID string
	token         string
	httpClient    *http.Client
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg Config, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("whatsapp base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid whatsapp base url: %w", err)
	}

	phoneNumberID := strings.TrimSpace(cfg.PhoneNumberID)
	if phoneNumberID == "" {
		return nil, errors.New("whatsapp phone number id is required")
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("whatsapp token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:       baseURL,
		phoneNumberID: phoneNumberID,
		token:         token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func MustNew(cfg Config, opts ...Option) *Client {
	client, err := NewClient(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return client
}

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type documentPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Document         documentBody `json:"document"`
}

type documentBody struct {
	Link     string `json:"link"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

func (c *Client) SendText(ctx context.Context, senderID, text string) error {
	return c.send(ctx, textPayload{
		MessagingProduct: "whatsapp",
		To:               senderID,
		Type:             "text",
		Text:             textBody{Body: text},
	})
}

func (c *Client) SendDocument(ctx context.Context, senderID, documentURL, caption string) error {
	return c.send(ctx, documentPayload{
		MessagingProduct: "whatsapp",
		To:               senderID,
		Type:             "document",
		Document: documentBody{
			Link:     documentURL,
			Caption:  caption,
			Filename: "Quote.pdf",
		},
	})
}

func (c *Client) send(ctx context.Context, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal whatsapp payload: %w", err)
	}

	endpoint := c.baseURL + "/" + c.phoneNumberID + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute whatsapp request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return fmt.Errorf("read whatsapp response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("whatsapp http status=%d body=%s", resp.StatusCode, string(raw))
	}
	return nil
}
