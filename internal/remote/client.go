package remote

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

	"github.com/DaanHessen/rabbithole/internal/engine"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	// ErrUnavailable covers transport failures and non-success statuses.
	ErrUnavailable = errors.New("quest backend unavailable")
	// ErrMalformedResponse means the backend answered with something unusable.
	ErrMalformedResponse = errors.New("malformed backend response")
)

const maxBody = 1 << 20

// StartRequest announces a player to the backend.
type StartRequest struct {
	TelegramID   string `json:"telegram_id" validate:"required"`
	Username     string `json:"username"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	LanguageCode string `json:"language_code" validate:"omitempty,bcp47_language_tag"`
}

// StartResponse is informational apart from NextScene.
type StartResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	NextScene string `json:"next_scene"`
}

// ChoiceRequest reports one decision.
type ChoiceRequest struct {
	TelegramID string `json:"telegram_id" validate:"required"`
	SceneID    string `json:"scene_id" validate:"required,scene"`
	ChoiceID   string `json:"choice_id" validate:"required"`
	ChoiceText string `json:"choice_text"`
}

// ChoiceResponse is the backend's verdict on a choice.
type ChoiceResponse struct {
	NextSceneID        string          `json:"next_scene_id" validate:"required,scene"`
	AchievementsEarned []string        `json:"achievements_earned" validate:"dive,required"`
	PromoCode          *string         `json:"promo_code"`
	SceneContent       json.RawMessage `json:"scene_content,omitempty"`
}

// Client talks to the quest backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewClient validates baseURL and builds a client whose requests give up after timeout.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL for quest backend: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		validate:   newValidator(),
		logger:     logger.Named("QuestClient"),
	}, nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("scene", func(fl validator.FieldLevel) bool {
		return engine.Scene(fl.Field().String()).Validate()
	})
	return v
}

// Start pings the start endpoint.
func (c *Client) Start(ctx context.Context, req StartRequest) (StartResponse, error) {
	var resp StartResponse
	if err := c.validate.Struct(req); err != nil {
		return resp, fmt.Errorf("invalid start request: %w", err)
	}
	if err := c.postJSON(ctx, "/api/v1/quest/start", req, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}

// Choice submits a decision and returns the normalized response.
func (c *Client) Choice(ctx context.Context, req ChoiceRequest) (ChoiceResponse, error) {
	var resp ChoiceResponse
	if err := c.validate.Struct(req); err != nil {
		return resp, fmt.Errorf("invalid choice request: %w", err)
	}
	if err := c.postJSON(ctx, "/api/v1/quest/choice", req, &resp); err != nil {
		return resp, err
	}
	if err := c.validate.Struct(resp); err != nil {
		c.logger.Warn("Backend response failed validation", zap.Error(err))
		return ChoiceResponse{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.AchievementsEarned == nil {
		resp.AchievementsEarned = []string{}
	}
	if resp.PromoCode != nil && strings.TrimSpace(*resp.PromoCode) == "" {
		resp.PromoCode = nil
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.send(ctx, http.MethodPost, path, body, out, nil)
}

// send performs one request. body is JSON-encoded when non-nil; decorate may
// add headers such as credentials.
func (c *Client) send(ctx context.Context, method, path string, body, out any, decorate func(*http.Request)) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if decorate != nil {
		decorate(httpReq)
	}

	c.logger.Debug("Sending request", zap.String("path", path))
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Request failed", zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Unexpected status from backend",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", truncate(raw, 256)))
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
