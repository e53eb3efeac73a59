// Package generator produces diary text for a set of attached photos,
// either through the remote generation endpoint or a deterministic local
// template fallback. The fallback never runs silently; callers decide
// when a remote failure should degrade to templated text.
package generator

import (
	"bytes"
	"context"
	"encoding/json/v2"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/daybookapp/daybook-server/internal/config"
	"github.com/daybookapp/daybook-server/internal/domain"
	apperrors "github.com/daybookapp/daybook-server/internal/errors"
)

// Image is one photo sent to the remote generator.
type Image struct {
	Data     string `json:"data"`
	TakenAt  string `json:"takenAt,omitempty"`
	Filename string `json:"filename"`
}

// ImageMeta carries the capture timestamp alongside Images, kept as a
// separate array for endpoint compatibility.
type ImageMeta struct {
	ShotAt int64 `json:"shotAt"`
}

// Request is the remote generation payload.
type Request struct {
	Tone          string         `json:"tone"`
	Images        []Image        `json:"images"`
	PhotosSummary []PhotoSummary `json:"photosSummary"`
	ImagesMeta    []ImageMeta    `json:"imagesMeta"`
}

type response struct {
	OK      bool   `json:"ok"`
	Body    string `json:"body,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Client calls the remote diary-text generation endpoint.
type Client struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	logger      *slog.Logger
	url         string
	timeout     time.Duration
	defaultTone string
}

// NewClient creates a generation client from config. An empty URL leaves
// the client constructed but every Generate call failing fast.
func NewClient(cfg config.GeneratorConfig, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout + 5*time.Second},
		rateLimiter: rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
		logger:      logger,
		url:         cfg.URL,
		timeout:     cfg.Timeout,
		defaultTone: cfg.DefaultTone,
	}
}

// NewRequest assembles the generation payload for a draft's photos.
func (c *Client) NewRequest(tone string, items []domain.PhotoItem, now time.Time) Request {
	if tone == "" {
		tone = c.defaultTone
	}
	if len(items) > domain.MaxPhotos {
		items = items[:domain.MaxPhotos]
	}

	req := Request{
		Tone:          tone,
		Images:        make([]Image, 0, len(items)),
		PhotosSummary: BuildSummary(len(items), now),
		ImagesMeta:    make([]ImageMeta, 0, len(items)),
	}
	for _, item := range items {
		img := Image{Data: item.DataURL, Filename: item.Name}
		if item.ShotAt > 0 {
			img.TakenAt = time.UnixMilli(item.ShotAt).Format("2006-01-02 15:04:05")
		}
		req.Images = append(req.Images, img)
		req.ImagesMeta = append(req.ImagesMeta, ImageMeta{ShotAt: item.ShotAt})
	}
	return req
}

// Generate sends the request and returns the generated diary body. The
// call is bounded by the configured timeout; hitting it surfaces a
// timeout error rather than a retry.
func (c *Client) Generate(ctx context.Context, genReq Request) (string, error) {
	if c.url == "" {
		return "", apperrors.GenerationFailed("no generation endpoint configured")
	}
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return "", apperrors.Wrap(err, "generation rate limit wait")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(genReq)
	if err != nil {
		return "", apperrors.Wrap(err, "encode generation request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return "", apperrors.Wrap(err, "create generation request")
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Calling generation endpoint",
		"url", c.url,
		"photos", len(genReq.Images),
		"tone", genReq.Tone)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", apperrors.GenerationTimeout("generation did not respond in time")
		}
		return "", apperrors.GenerationFailed("generation endpoint unreachable").WithCause(err)
	}
	defer resp.Body.Close() //nolint:errcheck // Response cleanup

	var genResp response
	if decodeErr := json.UnmarshalRead(resp.Body, &genResp); decodeErr != nil && resp.StatusCode == http.StatusOK {
		return "", apperrors.GenerationFailed("generation response was not valid JSON").WithCause(decodeErr)
	}

	if resp.StatusCode != http.StatusOK {
		msg := genResp.Error
		if msg == "" {
			msg = genResp.Message
		}
		if msg == "" {
			return "", apperrors.GenerationFailedf("generation returned status %d", resp.StatusCode)
		}
		return "", apperrors.GenerationFailedf("generation returned status %d: %s", resp.StatusCode, msg)
	}
	if !genResp.OK || genResp.Body == "" {
		msg := genResp.Error
		if msg == "" {
			msg = "unknown"
		}
		return "", apperrors.GenerationFailedf("generation failed: %s", msg)
	}
	return genResp.Body, nil
}
