package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI grader.
type OpenAIConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIGrader implements Grader against the OpenAI chat completion API.
type OpenAIGrader struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIGrader builds a grader using the provided configuration.
func NewOpenAIGrader(cfg OpenAIConfig) (*OpenAIGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1536
	}

	return &OpenAIGrader{
		client: openai.NewClientWithConfig(openai.DefaultConfig(cfg.APIKey)),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/aokijuku/grammar-coach-api/pkg/ai/openai"),
		logger: cfg.Logger.With().Str("component", "openai_grader").Logger(),
	}, nil
}

// Grade sends the grading prompt to OpenAI in a single attempt.
func (g *OpenAIGrader) Grade(parent context.Context, input GradeInput) (Review, error) {
	ctx, span := g.tracer.Start(parent, "openai.grade", trace.WithAttributes(
		attribute.String("model", g.cfg.Model),
	))
	defer span.End()

	start := time.Now()
	request := openai.ChatCompletionRequest{
		Model:       g.cfg.Model,
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "あなたは大学入試英語を教える予備校講師です。指示された評価基準と出力フォーマットに厳密に従い、Markdownで回答してください。",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(input),
			},
		},
	}

	resp, err := g.client.CreateChatCompletion(ctx, request)
	gradingDuration.WithLabelValues("openai", g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		gradingFailures.WithLabelValues("openai", g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Review{}, fmt.Errorf("openai grade: %w", err)
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("no choices returned from openai")
		gradingFailures.WithLabelValues("openai", g.cfg.Model).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Review{}, err
	}

	advice := strings.TrimSpace(resp.Choices[0].Message.Content)
	if advice == "" {
		err := fmt.Errorf("empty response from openai")
		gradingFailures.WithLabelValues("openai", g.cfg.Model).Inc()
		return Review{}, err
	}

	return newReview(advice), nil
}
