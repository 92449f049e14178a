package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aokijuku/grammar-coach-api/internal/dto"
	"github.com/aokijuku/grammar-coach-api/internal/observability"
	"github.com/aokijuku/grammar-coach-api/internal/repository"
	"github.com/aokijuku/grammar-coach-api/pkg/ai"
)

// ErrGradingFailed indicates the grading call failed; the whole submission
// fails with it.
var ErrGradingFailed = errors.New("grading failed")

const (
	pushSummaryRunes = 80

	anonymousName = "匿名"
)

// PushNotifier delivers a short text message to a messaging-platform user.
type PushNotifier interface {
	Push(ctx context.Context, to, text string) error
}

// CritiqueMailer delivers the full critique to the student's mailbox.
type CritiqueMailer interface {
	Send(ctx context.Context, to, studentName, advice string) error
}

// ReviewService runs the submission pipeline: grade, persist, notify.
type ReviewService interface {
	Submit(ctx context.Context, req dto.ReviewRequest) (dto.ReviewResponse, error)
	GetByID(ctx context.Context, id string) (dto.ReviewDetail, error)
}

type reviewService struct {
	grader         ai.Grader
	records        repository.ReviewRepository
	push           PushNotifier
	mailer         CritiqueMailer
	history        HistoryInvalidator
	validator      *validator.Validate
	logger         zerolog.Logger
	baseURL        string
	gradingTimeout time.Duration
	stageTimeout   time.Duration
	now            func() time.Time
	newID          func() string
	tracer         trace.Tracer
}

// HistoryInvalidator clears a user's cached history projection.
type HistoryInvalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// ReviewServiceConfig groups the orchestrator dependencies. Records, push,
// mailer and history may be nil; the matching stage degrades to a no-op.
type ReviewServiceConfig struct {
	Grader         ai.Grader
	Records        repository.ReviewRepository
	Push           PushNotifier
	Mailer         CritiqueMailer
	History        HistoryInvalidator
	Validator      *validator.Validate
	Logger         zerolog.Logger
	BaseURL        string
	GradingTimeout time.Duration
	StageTimeout   time.Duration
}

// NewReviewService constructs the submission orchestrator.
func NewReviewService(cfg ReviewServiceConfig) ReviewService {
	if cfg.GradingTimeout <= 0 {
		cfg.GradingTimeout = 30 * time.Second
	}
	if cfg.StageTimeout <= 0 {
		cfg.StageTimeout = 10 * time.Second
	}

	return &reviewService{
		grader:         cfg.Grader,
		records:        cfg.Records,
		push:           cfg.Push,
		mailer:         cfg.Mailer,
		history:        cfg.History,
		validator:      cfg.Validator,
		logger:         cfg.Logger.With().Str("component", "review_service").Logger(),
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		gradingTimeout: cfg.GradingTimeout,
		stageTimeout:   cfg.StageTimeout,
		now:            time.Now,
		newID:          uuid.NewString,
		tracer:         otel.Tracer("github.com/aokijuku/grammar-coach-api/internal/service/review"),
	}
}

// Submit validates the request, grades the explanation, then runs the
// non-fatal stages. Only a grading failure aborts the pipeline; persistence
// and both notifications are best-effort by contract.
func (s *reviewService) Submit(ctx context.Context, req dto.ReviewRequest) (dto.ReviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "review.submit")
	defer span.End()

	req.Normalize()
	if err := s.validator.Struct(req); err != nil {
		span.SetStatus(codes.Error, "validation failed")
		return dto.ReviewResponse{}, err
	}

	name := req.Name
	if name == "" {
		name = anonymousName
	}

	input := ai.GradeInput{
		Name:        name,
		Grade:       req.Grade,
		Target:      req.Target,
		Explanation: req.Explanation,
	}

	gradeCtx, cancel := context.WithTimeout(ctx, s.gradingTimeout)
	defer cancel()

	review, err := s.grader.Grade(gradeCtx, input)
	if err != nil {
		observability.Reviews().WithLabelValues("failed").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "grading failed")
		s.logger.Error().Err(err).Msg("grading stage failed")
		return dto.ReviewResponse{}, fmt.Errorf("%w: %v", ErrGradingFailed, err)
	}

	id := s.newID()
	record := repository.Record{
		ID:          id,
		Timestamp:   s.now(),
		Name:        name,
		Email:       req.Email,
		Grade:       req.Grade,
		Target:      req.Target,
		Explanation: req.Explanation,
		Advice:      review.Advice,
		UserID:      req.UserID,
	}

	s.persist(ctx, record)
	s.notifyPush(ctx, req.UserID, name, review, id)
	s.notifyEmail(ctx, req.Email, name, review)

	observability.Reviews().WithLabelValues("completed").Inc()

	return dto.ReviewResponse{
		Success:  true,
		Analysis: review.Advice,
		ID:       id,
		URL:      s.detailURL(id),
		Score:    review.Score,
	}, nil
}

// GetByID returns the shareable detail view for one stored review.
func (s *reviewService) GetByID(ctx context.Context, id string) (dto.ReviewDetail, error) {
	if s.records == nil {
		return dto.ReviewDetail{}, ErrStoreNotConfigured
	}

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		return dto.ReviewDetail{}, err
	}

	detail := dto.ReviewDetail{
		ID:          record.ID,
		Date:        record.Timestamp.Format("2006/01/02 15:04:05"),
		Name:        record.Name,
		Email:       record.Email,
		Grade:       record.Grade,
		Target:      record.Target,
		Explanation: record.Explanation,
		Advice:      record.Advice,
	}

	if score, ok := ai.ExtractScore(record.Advice); ok {
		detail.Score = &score
	}

	return detail, nil
}

func (s *reviewService) persist(ctx context.Context, record repository.Record) {
	if s.records == nil {
		s.logger.Debug().Msg("record store not configured, skipping persist stage")
		return
	}

	s.bestEffort(ctx, "persist", func(ctx context.Context) error {
		if err := s.records.Append(ctx, record); err != nil {
			return err
		}
		if s.history != nil && record.UserID != "" {
			if err := s.history.Invalidate(ctx, record.UserID); err != nil {
				s.logger.Warn().Err(err).Msg("failed to invalidate history cache")
			}
		}
		return nil
	})
}

func (s *reviewService) notifyPush(ctx context.Context, userID, name string, review ai.Review, id string) {
	if s.push == nil || userID == "" {
		return
	}

	s.bestEffort(ctx, "push", func(ctx context.Context) error {
		return s.push.Push(ctx, userID, s.buildPushMessage(name, review, id))
	})
}

func (s *reviewService) notifyEmail(ctx context.Context, email, name string, review ai.Review) {
	if s.mailer == nil || email == "" {
		return
	}

	s.bestEffort(ctx, "email", func(ctx context.Context) error {
		return s.mailer.Send(ctx, email, name, review.Advice)
	})
}

// bestEffort runs one non-fatal stage: failures are logged and counted,
// never propagated.
func (s *reviewService) bestEffort(ctx context.Context, stage string, fn func(context.Context) error) {
	stageCtx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()

	if err := fn(stageCtx); err != nil {
		observability.StageFailures().WithLabelValues(stage).Inc()
		s.logger.Warn().Err(err).Str("stage", stage).Msg("non-fatal stage failed")
	}
}

func (s *reviewService) buildPushMessage(name string, review ai.Review, id string) string {
	summary := []rune(review.Advice)
	if len(summary) > pushSummaryRunes {
		summary = summary[:pushSummaryRunes]
	}

	builder := strings.Builder{}
	builder.WriteString("🎓 ")
	builder.WriteString(name)
	builder.WriteString("さん、添削完了！\n\n📝 採点結果速報\n")
	builder.WriteString(string(summary))
	builder.WriteString("...\n\n▼ 詳しい解説はこちら\n")
	builder.WriteString(s.detailURL(id))
	builder.WriteString("\n（AI予備校講師より）")
	return builder.String()
}

func (s *reviewService) detailURL(id string) string {
	if s.baseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/result/%s", s.baseURL, id)
}
