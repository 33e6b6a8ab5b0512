package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Alert is a low-attendance notification payload.
type Alert struct {
	StudentID   string  `json:"student_id"`
	StudentName string  `json:"student_name"`
	CourseCode  string  `json:"course_code"`
	Percentage  float64 `json:"percentage"`
	Band        string  `json:"band"`
}

// Client posts alerts to a configured webhook endpoint.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// New creates a client. With skip set, sends become no-ops (dev mode).
func New(baseURL string, skip bool) *Client {
	return &Client{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one alert.
func (c *Client) Send(ctx context.Context, alert Alert) error {
	if c.Skip {
		return nil
	}

	body, _ := json.Marshal(alert)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/alerts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notify request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("notify error %s: %s", resp.Status, string(b))
	}
	return nil
}

// Health checks if the webhook endpoint is reachable.
func (c *Client) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("notify service unavailable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify service unhealthy: %s", resp.Status)
	}
	return nil
}
