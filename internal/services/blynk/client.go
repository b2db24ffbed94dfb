package blynk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"doorcam/internal/config"
	"doorcam/internal/logger"
)

// Client talks to a Blynk-style dashboard through its HTTP "external API".
// Every call is best-effort: failures are logged and reported as false.
type Client struct {
	server string
	token  string
	http   *http.Client
	logger *logger.Logger
}

func NewClient(cfg config.BlynkConfig, logger *logger.Logger) *Client {
	return &Client{
		server: strings.TrimRight(cfg.Server, "/"),
		token:  cfg.AuthToken,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// SetValue writes value to a virtual pin.
func (c *Client) SetValue(ctx context.Context, pin, value string) bool {
	status, _, err := c.get(ctx, "update", url.Values{"pin": {pin}, "value": {value}})
	if err != nil {
		c.logger.Error("[BLYNK] Error setting pin %s: %v", pin, err)
		return false
	}
	if status != http.StatusOK {
		c.logger.Warning("[BLYNK] Setting pin %s failed: %d", pin, status)
		return false
	}
	return true
}

// GetValue reads the current value of a virtual pin.
func (c *Client) GetValue(ctx context.Context, pin string) (string, bool) {
	status, body, err := c.get(ctx, "get", url.Values{"pin": {pin}})
	if err != nil {
		c.logger.Error("[BLYNK] Error getting pin %s: %v", pin, err)
		return "", false
	}
	if status != http.StatusOK {
		c.logger.Warning("[BLYNK] Getting pin %s failed: %d", pin, status)
		return "", false
	}

	value, err := decodeValue(body)
	if err != nil {
		c.logger.Error("[BLYNK] Error decoding pin %s: %v", pin, err)
		return "", false
	}
	return value, true
}

// LogEvent raises a dashboard event, which Blynk turns into a notification.
func (c *Client) LogEvent(ctx context.Context, code, description string) bool {
	status, _, err := c.get(ctx, "logEvent", url.Values{"code": {code}, "description": {description}})
	if err != nil {
		c.logger.Error("[BLYNK] Error sending notification: %v", err)
		return false
	}
	if status != http.StatusOK {
		c.logger.Warning("[BLYNK] Failed to send notification: %d", status)
		return false
	}
	c.logger.Info("[BLYNK] Notification sent: %s", description)
	return true
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (int, []byte, error) {
	params.Set("token", c.token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.server+"/"+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// decodeValue accepts the JSON array form (["1"]) as well as a bare value.
func decodeValue(body []byte) (string, error) {
	var values []json.RawMessage
	if err := json.Unmarshal(body, &values); err != nil {
		return strings.TrimSpace(string(body)), nil
	}
	if len(values) == 0 {
		return "", fmt.Errorf("empty value list")
	}

	var s string
	if err := json.Unmarshal(values[0], &s); err == nil {
		return s, nil
	}
	return string(values[0]), nil
}
