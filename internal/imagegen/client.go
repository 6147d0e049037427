// Package imagegen calls the OpenRouter image generation API and fetches
// the resulting image bytes.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"

	// ImageSize is the fixed slide aspect used for every generation.
	ImageSize = "1024x768"

	generateTimeout = 120 * time.Second
	downloadTimeout = 60 * time.Second
)

// Client talks to an OpenRouter-compatible image generation endpoint.
type Client struct {
	baseURL string
	apiKey  string
	referer string
	title   string
	client  *http.Client
}

// NewClient creates an image generation client. referer and title identify
// the application to OpenRouter's attribution headers.
func NewClient(apiKey, referer, title string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		referer: referer,
		title:   title,
		client:  &http.Client{Timeout: generateTimeout},
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Generate requests one image for the prompt and returns the provider's
// short-lived image URL. A non-200 status is a hard failure; there is no
// retry.
func (c *Client) Generate(ctx context.Context, model, prompt string) (string, error) {
	body := map[string]any{
		"model":  model,
		"prompt": prompt,
		"size":   ImageSize,
		"n":      1,
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", c.title)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("http call: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("api error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data []struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		return "", fmt.Errorf("no image url returned")
	}
	return result.Data[0].URL, nil
}

// Download fetches the generated image bytes from the provider URL.
func (c *Client) Download(ctx context.Context, imgURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: downloadTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed with status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
