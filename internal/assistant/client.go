package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ServiceError is an error reported by the analyze endpoint itself.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("analyze endpoint returned %d: %s", e.Status, e.Message)
}

// Client calls a running server's analyze endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: httpClient}
}

type analyzeRequest struct {
	Text  *string `json:"text"`
	Image *string `json:"image"`
}

type analyzeResponse struct {
	Result string `json:"result"`
	Error  string `json:"error"`
}

// Analyze trims text, sends absent inputs as null and returns the result.
// Endpoint failures are *ServiceError; anything else is a transport error.
func (c *Client) Analyze(ctx context.Context, text, imageDataURI string) (string, error) {
	var body analyzeRequest
	if t := strings.TrimSpace(text); t != "" {
		body.Text = &t
	}
	if imageDataURI != "" {
		body.Image = &imageDataURI
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/analyze", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out analyzeResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &ServiceError{Status: resp.StatusCode, Message: out.Error}
	}
	return out.Result, nil
}

// Display renders an Analyze outcome the way it is shown to users.
func Display(result string, err error) string {
	if err == nil {
		return result
	}
	var se *ServiceError
	if errors.As(err, &se) {
		msg := se.Message
		if msg == "" {
			msg = "Error desconocido"
		}
		return "Error: " + msg
	}
	return "Error de conexión: " + err.Error()
}
