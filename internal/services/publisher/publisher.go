package publisher

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"doorcam/internal/config"
	"doorcam/internal/logger"
)

// ErrNotConfigured marks a provider without usable credentials.
var ErrNotConfigured = errors.New("provider not configured")

// Provider uploads an image and returns its public URL.
type Provider interface {
	Name() string
	Upload(ctx context.Context, image []byte) (string, error)
}

// Chain tries its providers in order until one returns a URL.
type Chain struct {
	providers []Provider
	logger    *logger.Logger
}

func NewChain(logger *logger.Logger, providers ...Provider) *Chain {
	return &Chain{providers: providers, logger: logger}
}

// New builds the default chain: ImgBB first, Imgur second.
func New(cfg config.UploadConfig, logger *logger.Logger) *Chain {
	client := &http.Client{Timeout: cfg.Timeout}
	return NewChain(logger,
		&ImgBB{Key: cfg.ImgBBKey, Endpoint: cfg.ImgBBURL, HTTP: client},
		&Imgur{ClientID: cfg.ImgurClientID, Endpoint: cfg.ImgurURL, HTTP: client},
	)
}

// Configured reports whether at least one provider has credentials.
func (c *Chain) Configured() bool {
	for _, p := range c.providers {
		if configurable, ok := p.(interface{ Configured() bool }); !ok || configurable.Configured() {
			return true
		}
	}
	return false
}

// Publish uploads the file at path. It never fails loudly: when no provider is
// configured or all of them fail, it returns ok=false.
func (c *Chain) Publish(ctx context.Context, path string) (string, bool) {
	image, err := os.ReadFile(path)
	if err != nil {
		c.logger.Error("Failed to read photo %s: %v", path, err)
		return "", false
	}

	for _, p := range c.providers {
		link, err := p.Upload(ctx, image)
		switch {
		case errors.Is(err, ErrNotConfigured):
			continue
		case err != nil:
			c.logger.Warning("[%s] ❌ Upload failed: %v", p.Name(), err)
			continue
		}
		c.logger.Info("[%s] ✅ Uploaded: %s", p.Name(), link)
		return link, true
	}
	return "", false
}

// ImgBB uploads to api.imgbb.com.
type ImgBB struct {
	Key      string
	Endpoint string
	HTTP     *http.Client
}

func (p *ImgBB) Name() string { return "IMGBB" }

func (p *ImgBB) Configured() bool {
	return p.Key != "" && p.Key != "YOUR_IMGBB_API_KEY"
}

func (p *ImgBB) Upload(ctx context.Context, image []byte) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}

	form := url.Values{
		"key":   {p.Key},
		"image": {base64.StdEncoding.EncodeToString(image)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var payload struct {
		Data struct {
			URL string `json:"url"`
		} `json:"data"`
	}
	if err := doJSON(p.HTTP, req, &payload); err != nil {
		return "", err
	}
	if payload.Data.URL == "" {
		return "", errors.New("response has no url")
	}
	return payload.Data.URL, nil
}

// Imgur uploads anonymously to api.imgur.com.
type Imgur struct {
	ClientID string
	Endpoint string
	HTTP     *http.Client
}

func (p *Imgur) Name() string { return "IMGUR" }

func (p *Imgur) Configured() bool {
	return p.ClientID != "" && p.ClientID != "SKIP" && p.ClientID != "YOUR_IMGUR_CLIENT_ID"
}

func (p *Imgur) Upload(ctx context.Context, image []byte) (string, error) {
	if !p.Configured() {
		return "", ErrNotConfigured
	}

	form := url.Values{
		"image": {base64.StdEncoding.EncodeToString(image)},
		"type":  {"base64"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Client-ID "+p.ClientID)

	var payload struct {
		Data struct {
			Link string `json:"link"`
		} `json:"data"`
	}
	if err := doJSON(p.HTTP, req, &payload); err != nil {
		return "", err
	}
	if payload.Data.Link == "" {
		return "", errors.New("response has no link")
	}
	return payload.Data.Link, nil
}

func doJSON(client *http.Client, req *http.Request, v interface{}) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
