package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/yungbote/healthlog-backend/internal/observability"
	"github.com/yungbote/healthlog-backend/internal/platform/envutil"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

// Client is the subset of the OpenAI Responses API the backend uses.
type Client interface {
	// Plain text (no format constraint)
	GenerateText(ctx context.Context, system string, user string) (string, error)

	// JSON object mode; returns the raw output text without decoding it.
	GenerateJSONText(ctx context.Context, system string, user string) (string, error)

	// Complete is GenerateJSONText under the name the ingestion pipeline expects.
	Complete(ctx context.Context, system string, user string) (string, error)
}

type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Temperature *float64
}

// OptionsFromEnv reads OPENAI_* variables. An empty APIKey means the capability is not configured.
func OptionsFromEnv() Options {
	opts := Options{
		APIKey:  envutil.String("OPENAI_API_KEY", ""),
		BaseURL: envutil.String("OPENAI_BASE_URL", "https://api.openai.com"),
		Model:   envutil.String("OPENAI_MODEL", "gpt-4.1-mini"),
		Timeout: time.Duration(envutil.Int("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second,
	}
	switch strings.ToLower(envutil.String("OPENAI_TEMPERATURE", "0.2")) {
	case "off", "none", "nil", "false":
	default:
		t := envutil.Float("OPENAI_TEMPERATURE", 0.2)
		opts.Temperature = &t
	}
	return opts
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	temperature *float64

	// Models that rejected the temperature parameter once are called without it afterwards.
	noTempMu   sync.RWMutex
	noTempSeen map[string]bool
}

func NewClient(log *logger.Logger, opts Options) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("missing OPENAI_API_KEY")
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &client{
		log:         log.With("service", "OpenAIClient"),
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       strings.TrimSpace(opts.Model),
		httpClient:  &http.Client{Timeout: timeout},
		temperature: opts.Temperature,
		noTempSeen:  map[string]bool{},
	}, nil
}

type httpError struct {
	StatusCode int
	Body       string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("openai http %d: %s", e.StatusCode, e.Body)
}

func (e *httpError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input []inputMessage `json:"input"`
	Text  struct {
		Format map[string]any `json:"format,omitempty"`
	} `json:"text,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

type responsesResponse struct {
	Output []struct {
		Type    string `json:"type"`
		Role    string `json:"role,omitempty"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text,omitempty"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Refusal string `json:"refusal,omitempty"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage,omitempty"`
}

func extractOutputText(resp responsesResponse) string {
	var out strings.Builder
	for _, item := range resp.Output {
		if item.Type == "message" && item.Role == "assistant" {
			for _, c := range item.Content {
				if c.Type == "output_text" && c.Text != "" {
					out.WriteString(c.Text)
				}
			}
		}
	}
	return out.String()
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	return c.generate(ctx, system, user, nil)
}

func (c *client) GenerateJSONText(ctx context.Context, system string, user string) (string, error) {
	return c.generate(ctx, system, user, map[string]any{"type": "json_object"})
}

func (c *client) Complete(ctx context.Context, system string, user string) (string, error) {
	return c.GenerateJSONText(ctx, system, user)
}

func (c *client) generate(ctx context.Context, system, user string, format map[string]any) (string, error) {
	req := responsesRequest{
		Model: c.model,
		Input: []inputMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	req.Text.Format = format
	if c.temperature != nil && !c.modelIsNoTemp(req.Model) {
		req.Temperature = c.temperature
	}

	resp, err := c.doResponses(ctx, &req)
	if err != nil && req.Temperature != nil && isUnsupportedTemperatureParam(err) {
		c.noteNoTempModel(req.Model)
		req.Temperature = nil
		resp, err = c.doResponses(ctx, &req)
	}
	if err != nil {
		return "", err
	}
	if resp.Refusal != "" {
		return "", fmt.Errorf("model refused: %s", resp.Refusal)
	}
	text := extractOutputText(resp)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("no output_text found in response")
	}
	return text, nil
}

// doResponses issues a single request. Callers own retry policy; ingestion never retries.
func (c *client) doResponses(ctx context.Context, req *responsesRequest) (responsesResponse, error) {
	var out responsesResponse
	start := time.Now()

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return out, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/responses", &buf)
	if err != nil {
		return out, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		observability.Current().ObserveLLMRequest(req.Model, statusFromErr(err), time.Since(start))
		c.log.Warn("OpenAI request failed", "model", req.Model, "error", err)
		return out, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	observability.Current().ObserveLLMRequest(req.Model, strconv.Itoa(resp.StatusCode), time.Since(start))
	if readErr != nil {
		return out, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, &httpError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("openai decode error: %w", err)
	}
	c.log.Debug("OpenAI request done",
		"model", req.Model,
		"input_tokens", out.Usage.InputTokens,
		"output_tokens", out.Usage.OutputTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}

func (c *client) modelIsNoTemp(model string) bool {
	c.noTempMu.RLock()
	defer c.noTempMu.RUnlock()
	return c.noTempSeen[strings.ToLower(strings.TrimSpace(model))]
}

func (c *client) noteNoTempModel(model string) {
	c.noTempMu.Lock()
	c.noTempSeen[strings.ToLower(strings.TrimSpace(model))] = true
	c.noTempMu.Unlock()
}

func isUnsupportedTemperatureParam(err error) bool {
	var he *httpError
	if !errors.As(err, &he) || he.StatusCode != http.StatusBadRequest {
		return false
	}
	msg := strings.ToLower(he.Body)
	if !strings.Contains(msg, "temperature") {
		return false
	}
	return strings.Contains(msg, "unsupported") ||
		strings.Contains(msg, "not supported") ||
		strings.Contains(msg, "does not support") ||
		strings.Contains(msg, "unknown parameter") ||
		strings.Contains(msg, "only the default")
}

func statusFromErr(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
