package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

var (
	gradingDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "coach",
		Subsystem: "ai",
		Name:      "grading_duration_seconds",
		Help:      "Duration of AI grading requests",
	}, []string{"provider", "model"})

	gradingFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "coach",
		Subsystem: "ai",
		Name:      "grading_failures_total",
		Help:      "Number of AI grading failures",
	}, []string{"provider", "model"})
)

// GeminiConfig defines configuration options for the Gemini grader.
type GeminiConfig struct {
	APIKey string
	Model  string
	Logger zerolog.Logger
}

// GeminiGrader implements Grader against the Gemini generative-text API.
type GeminiGrader struct {
	model     *genai.GenerativeModel
	modelName string
	tracer    trace.Tracer
	logger    zerolog.Logger
}

// NewGeminiGrader builds a grader backed by the Gemini API.
func NewGeminiGrader(ctx context.Context, cfg GeminiConfig) (*GeminiGrader, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiGrader{
		model:     client.GenerativeModel(cfg.Model),
		modelName: cfg.Model,
		tracer:    otel.Tracer("github.com/aokijuku/grammar-coach-api/pkg/ai/gemini"),
		logger:    cfg.Logger.With().Str("component", "gemini_grader").Logger(),
	}, nil
}

// Grade sends the grading prompt to Gemini in a single attempt. Grading is the
// one fatal stage of the pipeline, so failures are returned to the caller
// instead of being retried here.
func (g *GeminiGrader) Grade(parent context.Context, input GradeInput) (Review, error) {
	ctx, span := g.tracer.Start(parent, "gemini.grade", trace.WithAttributes(
		attribute.String("model", g.modelName),
	))
	defer span.End()

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, genai.Text(BuildPrompt(input)))
	gradingDuration.WithLabelValues("gemini", g.modelName).Observe(time.Since(start).Seconds())
	if err != nil {
		gradingFailures.WithLabelValues("gemini", g.modelName).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Review{}, fmt.Errorf("gemini grade: %w", err)
	}

	advice := responseText(resp)
	if advice == "" {
		err := fmt.Errorf("empty response from gemini")
		gradingFailures.WithLabelValues("gemini", g.modelName).Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Review{}, err
	}

	return newReview(advice), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	builder := strings.Builder{}
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	return strings.TrimSpace(builder.String())
}
