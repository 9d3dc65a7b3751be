package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"subtrans/internal/services"
	"subtrans/internal/translate"
)

const (
	defaultBaseURL     = "https://generativelanguage.googleapis.com/v1beta"
	defaultHTTPTimeout = 120 * time.Second
	jsonMimeType       = "application/json"
)

// Config captures the runtime settings required to talk to the Gemini API.
type Config struct {
	APIKey         string
	BaseURL        string
	FastModel      string
	NormalModel    string
	TimeoutSeconds int
}

// Client implements translate.Capability against Gemini's generateContent
// endpoint. It performs single-shot calls; the translation orchestrator owns
// the retry loop, so the client's job is to classify failures as transient
// or permanent.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a Gemini client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg: Config{
			APIKey:         strings.TrimSpace(cfg.APIKey),
			BaseURL:        strings.TrimSpace(cfg.BaseURL),
			FastModel:      strings.TrimSpace(cfg.FastModel),
			NormalModel:    strings.TrimSpace(cfg.NormalModel),
			TimeoutSeconds: cfg.TimeoutSeconds,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.cfg.BaseURL == "" {
		client.cfg.BaseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

func (c *Client) model(mode translate.Mode) string {
	if mode == translate.ModeFast && c.cfg.FastModel != "" {
		return c.cfg.FastModel
	}
	return c.cfg.NormalModel
}

// Translate implements translate.Capability. The request's cues are sent as
// one numbered batch; the response must echo every cue index back under its
// translated_line_N key or the whole call is rejected.
func (c *Client) Translate(ctx context.Context, req translate.Request) (translate.Result, error) {
	var empty translate.Result
	if len(req.Items) == 0 {
		return translate.Result{Items: map[int][]string{}}, nil
	}
	if c.cfg.APIKey == "" {
		return empty, services.Wrap(services.ErrConfiguration, "gemini", "translate", "api key required", nil)
	}

	payload := generateContentRequest{
		SystemInstruction: &content{Parts: []part{{Text: translationSystemPrompt}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: buildTranslationPrompt(req)}}}},
		GenerationConfig: &generationConfig{
			Temperature:      floatPtr(0.2),
			ResponseMimeType: jsonMimeType,
			ResponseSchema:   translationSchema(req.Items),
		},
	}

	raw, err := c.generateContent(ctx, c.model(req.Mode), payload, "translate")
	if err != nil {
		return empty, err
	}

	var decoded map[string]string
	if err := DecodeModelJSON(raw, &decoded); err != nil {
		return empty, services.Wrap(services.ErrTransient, "gemini", "translate", "parse payload", err)
	}

	items := make(map[int][]string, len(decoded))
	for key, value := range decoded {
		index, ok := parseLineKey(key)
		if !ok {
			continue
		}
		items[index] = strings.Split(value, "\n")
	}
	return translate.Result{Items: items}, nil
}

// DetectContext implements translate.Capability.
func (c *Client) DetectContext(ctx context.Context, sample []string, targetLanguage string, mode translate.Mode) (string, error) {
	if c.cfg.APIKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "gemini", "detect context", "api key required", nil)
	}

	payload := generateContentRequest{
		SystemInstruction: &content{Parts: []part{{Text: contextSystemPrompt}}},
		Contents:          []content{{Role: "user", Parts: []part{{Text: buildContextPrompt(sample, targetLanguage)}}}},
		GenerationConfig: &generationConfig{
			Temperature:      floatPtr(0.2),
			ResponseMimeType: jsonMimeType,
			ResponseSchema:   contextSchema(),
		},
	}

	raw, err := c.generateContent(ctx, c.model(mode), payload, "detect context")
	if err != nil {
		return "", err
	}

	var decoded struct {
		Context string `json:"context"`
	}
	if err := DecodeModelJSON(raw, &decoded); err != nil {
		return "", services.Wrap(services.ErrTransient, "gemini", "detect context", "parse payload", err)
	}
	return strings.TrimSpace(decoded.Context), nil
}

type generateContentRequest struct {
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	Contents          []content         `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMimeType string   `json:"responseMimeType,omitempty"`
	ResponseSchema   *schema  `json:"responseSchema,omitempty"`
}

type schema struct {
	Type       string             `json:"type"`
	Properties map[string]*schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
	Error *apiError `json:"error"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type httpStatusError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("gemini request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func (c *Client) generateContent(ctx context.Context, model string, payload generateContentRequest, op string) (string, error) {
	if strings.TrimSpace(model) == "" {
		return "", services.Wrap(services.ErrConfiguration, "gemini", op, "model required", nil)
	}

	endpoint, err := url.JoinPath(c.cfg.BaseURL, "models", model+":generateContent")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "gemini", op, "build url", err)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("gemini %s: encode body: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return "", fmt.Errorf("gemini %s: new request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classifyTransportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "gemini", op, "read body", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		retryAfter, _ := parseRetryAfter(resp.Header.Get("Retry-After"))
		statusErr := &httpStatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
			RetryAfter: retryAfter,
		}
		return "", classifyStatusError(op, statusErr)
	}

	var completion generateContentResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", services.Wrap(services.ErrTransient, "gemini", op, "decode response", err)
	}
	if completion.Error != nil {
		return "", services.Wrap(services.ErrTransient, "gemini", op, "api error", errors.New(strings.TrimSpace(completion.Error.Message)))
	}

	text := extractText(completion)
	if text == "" {
		finish := ""
		if len(completion.Candidates) > 0 {
			finish = completion.Candidates[0].FinishReason
		}
		return "", services.Wrap(services.ErrTransient, "gemini", op,
			"empty content (finish_reason="+strconv.Quote(finish)+")", nil)
	}
	return text, nil
}

func extractText(completion generateContentResponse) string {
	for _, candidate := range completion.Candidates {
		var b strings.Builder
		for _, p := range candidate.Content.Parts {
			b.WriteString(p.Text)
		}
		if text := strings.TrimSpace(b.String()); text != "" {
			return text
		}
	}
	return ""
}

// classifyStatusError maps HTTP failures onto the retry classification: 408,
// 429, and 5xx consume retry attempts, everything else is permanent. A
// Retry-After hint rides along on transient failures so the retry loop can
// honour the server-requested pause.
func classifyStatusError(op string, statusErr *httpStatusError) error {
	switch {
	case statusErr.StatusCode == http.StatusRequestTimeout,
		statusErr.StatusCode == http.StatusTooManyRequests,
		statusErr.StatusCode >= http.StatusInternalServerError:
		err := services.Wrap(services.ErrTransient, "gemini", op, "", statusErr)
		return services.WithRetryDelay(err, statusErr.RetryAfter)
	default:
		return fmt.Errorf("gemini %s: %w", op, statusErr)
	}
}

func classifyTransportError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return services.Wrap(services.ErrTransient, "gemini", op, "timeout", err)
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if errors.Is(urlErr.Err, context.Canceled) || errors.Is(urlErr.Err, context.DeadlineExceeded) {
			return urlErr.Err
		}
		// Connection-level failures are worth a retry.
		return services.Wrap(services.ErrTransient, "gemini", op, "http error", err)
	}
	return services.Wrap(services.ErrTransient, "gemini", op, "http error", err)
}

func parseRetryAfter(value string) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds < 0 {
			return 0, false
		}
		return time.Duration(seconds) * time.Second, true
	}
	if when, err := http.ParseTime(value); err == nil {
		delay := time.Until(when)
		if delay < 0 {
			return 0, false
		}
		return delay, true
	}
	return 0, false
}

func floatPtr(v float64) *float64 {
	return &v
}
