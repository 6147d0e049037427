// Package storage uploads generated images to the UploadThing file service
// and returns their permanent URLs.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

const (
	defaultBaseURL = "https://api.uploadthing.com"
	uploadTimeout  = 60 * time.Second
)

// Client uploads files to the UploadThing service.
type Client struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewClient creates an upload client authenticated with the service secret.
func NewClient(secret string) *Client {
	return &Client{
		baseURL: defaultBaseURL,
		secret:  secret,
		client:  &http.Client{Timeout: uploadTimeout},
	}
}

// WithBaseURL overrides the service endpoint. Used by tests.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = baseURL
	return c
}

// Upload stores the file and returns its permanent URL. The service
// replies with either {data:{ufsUrl}} or {error}.
func (c *Client) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("files", filename)
	if err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("building upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v6/uploadFiles", &buf)
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Uploadthing-Api-Key", c.secret)

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
		return "", fmt.Errorf("upload failed (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result struct {
		Data *struct {
			UfsURL string `json:"ufsUrl"`
		} `json:"data"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode: %w", err)
	}
	if result.Error != nil {
		return "", fmt.Errorf("upload rejected: %s", result.Error.Message)
	}
	if result.Data == nil || result.Data.UfsURL == "" {
		return "", fmt.Errorf("upload response carried no url")
	}
	return result.Data.UfsURL, nil
}
