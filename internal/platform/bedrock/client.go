// Package bedrock is an alternate text-completion backend over the Bedrock Converse API.
package bedrock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/yungbote/healthlog-backend/internal/observability"
	"github.com/yungbote/healthlog-backend/internal/platform/envutil"
	"github.com/yungbote/healthlog-backend/internal/platform/logger"
)

const (
	// Inference profile id, not the foundation model id.
	defaultModelID = "us.anthropic.claude-3-7-sonnet-20250219-v1:0"

	defaultMaxTokens   = 1024
	defaultTemperature = 0.2
	defaultTopP        = 0.9
)

var ErrEmptyReply = errors.New("bedrock: empty reply")

type converseAPI interface {
	Converse(context.Context, *bedrockruntime.ConverseInput, ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Options struct {
	ModelID     string
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

func OptionsFromEnv() Options {
	return Options{
		ModelID:     envutil.String("BEDROCK_MODEL_ID", defaultModelID),
		MaxTokens:   int32(envutil.Int("BEDROCK_MAX_TOKENS", defaultMaxTokens)),
		Temperature: float32(envutil.Float("BEDROCK_TEMPERATURE", defaultTemperature)),
		TopP:        float32(envutil.Float("BEDROCK_TOP_P", defaultTopP)),
	}
}

type Client struct {
	log  *logger.Logger
	api  converseAPI
	opts Options
}

func NewClient(log *logger.Logger, api converseAPI, opts Options) *Client {
	if opts.ModelID == "" {
		opts.ModelID = defaultModelID
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}
	if opts.TopP == 0 {
		opts.TopP = defaultTopP
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{log: log.With("client", "BedrockClient"), api: api, opts: opts}
}

// NewFromDefaultConfig loads AWS credentials from the default chain. Retries
// are disabled; the ingestion pipeline never retries an upstream call.
func NewFromDefaultConfig(ctx context.Context, log *logger.Logger, opts Options) (*Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRetryMaxAttempts(1))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return NewClient(log, bedrockruntime.NewFromConfig(awsCfg), opts), nil
}

// Complete sends one system+user turn and returns the assistant text.
func (c *Client) Complete(ctx context.Context, system string, user string) (string, error) {
	in := &bedrockruntime.ConverseInput{
		ModelId: aws.String(c.opts.ModelID),
		Messages: []types.Message{{
			Role:    types.ConversationRoleUser,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: user}},
		}},
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(c.opts.MaxTokens),
			Temperature: aws.Float32(c.opts.Temperature),
			TopP:        aws.Float32(c.opts.TopP),
		},
	}
	if strings.TrimSpace(system) != "" {
		in.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: system}}
	}

	start := time.Now()
	out, err := c.api.Converse(ctx, in)
	if err != nil {
		observability.Current().ObserveLLMRequest(c.opts.ModelID, "error", time.Since(start))
		c.log.Warn("converse failed", "model", c.opts.ModelID, "error", err)
		return "", fmt.Errorf("bedrock converse: %w", err)
	}
	observability.Current().ObserveLLMRequest(c.opts.ModelID, string(out.StopReason), time.Since(start))

	switch out.StopReason {
	case types.StopReasonMaxTokens:
		return "", fmt.Errorf("bedrock: model hit max tokens (%d)", c.opts.MaxTokens)
	case types.StopReasonGuardrailIntervened, types.StopReasonContentFiltered:
		return "", fmt.Errorf("bedrock: reply blocked by safety filters")
	}

	text := textFromOutput(out)
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}

// textFromOutput prefers the last text block that looks like a JSON object,
// otherwise joins all text blocks.
func textFromOutput(out *bedrockruntime.ConverseOutput) string {
	if out == nil || out.Output == nil {
		return ""
	}
	msg, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok || msg == nil {
		return ""
	}
	var texts []string
	for _, cb := range msg.Value.Content {
		if t, ok := cb.(*types.ContentBlockMemberText); ok && t != nil && t.Value != "" {
			texts = append(texts, t.Value)
		}
	}
	for i := len(texts) - 1; i >= 0; i-- {
		s := strings.TrimSpace(texts[i])
		if len(s) > 1 && s[0] == '{' && s[len(s)-1] == '}' {
			return s
		}
	}
	return strings.Join(texts, "\n")
}
