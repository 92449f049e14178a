package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aokijuku/grammar-coach-api/internal/dto"
	"github.com/aokijuku/grammar-coach-api/internal/repository"
	"github.com/aokijuku/grammar-coach-api/pkg/ai"
)

type fakeGrader struct {
	calls  int
	input  ai.GradeInput
	review ai.Review
	err    error
}

func (f *fakeGrader) Grade(_ context.Context, input ai.GradeInput) (ai.Review, error) {
	f.calls++
	f.input = input
	if f.err != nil {
		return ai.Review{}, f.err
	}
	return f.review, nil
}

type fakeRecords struct {
	appended []repository.Record
	err      error
}

func (f *fakeRecords) Append(_ context.Context, record repository.Record) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, record)
	return nil
}

func (f *fakeRecords) ListByUser(context.Context, string) ([]repository.Record, error) {
	return nil, nil
}

func (f *fakeRecords) GetByID(context.Context, string) (repository.Record, error) {
	return repository.Record{}, repository.ErrRecordNotFound
}

type fakePush struct {
	calls int
	to    string
	text  string
	err   error
}

func (f *fakePush) Push(_ context.Context, to, text string) error {
	f.calls++
	f.to = to
	f.text = text
	return f.err
}

type fakeMailer struct {
	calls int
	to    string
	name  string
	err   error
}

func (f *fakeMailer) Send(_ context.Context, to, studentName, _ string) error {
	f.calls++
	f.to = to
	f.name = studentName
	return f.err
}

type fakeInvalidator struct {
	userIDs []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, userID string) error {
	f.userIDs = append(f.userIDs, userID)
	return nil
}

type pipelineFixture struct {
	grader      *fakeGrader
	records     *fakeRecords
	push        *fakePush
	mailer      *fakeMailer
	invalidator *fakeInvalidator
	service     ReviewService
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()

	score := 70
	f := &pipelineFixture{
		grader:      &fakeGrader{review: ai.Review{Advice: "**得点**: 70点\nよくできました。", Score: &score}},
		records:     &fakeRecords{},
		push:        &fakePush{},
		mailer:      &fakeMailer{},
		invalidator: &fakeInvalidator{},
	}
	f.service = NewReviewService(ReviewServiceConfig{
		Grader:    f.grader,
		Records:   f.records,
		Push:      f.push,
		Mailer:    f.mailer,
		History:   f.invalidator,
		Validator: validator.New(validator.WithRequiredStructEnabled()),
		Logger:    zerolog.Nop(),
		BaseURL:   "https://coach.example.com",
	})
	return f
}

func validRequest() dto.ReviewRequest {
	return dto.ReviewRequest{
		Name:        "Aya",
		Email:       "aya@example.com",
		Grade:       "高2",
		Target:      "X大学",
		Explanation: "仮定法は現実と違うことを表す",
		UserID:      "U1",
	}
}

func TestSubmitSuccessReturnsVerbatimAdvice(t *testing.T) {
	f := newPipelineFixture(t)

	resp, err := f.service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, f.grader.review.Advice, resp.Analysis)
	require.NotEmpty(t, resp.ID)
	require.Equal(t, "https://coach.example.com/result/"+resp.ID, resp.URL)
	require.NotNil(t, resp.Score)
	require.Equal(t, 70, *resp.Score)

	require.Len(t, f.records.appended, 1)
	require.Equal(t, resp.ID, f.records.appended[0].ID)
	require.Equal(t, "U1", f.records.appended[0].UserID)
	require.Equal(t, 1, f.push.calls)
	require.Equal(t, "U1", f.push.to)
	require.Contains(t, f.push.text, "Ayaさん、添削完了")
	require.Contains(t, f.push.text, resp.URL)
	require.Equal(t, 1, f.mailer.calls)
	require.Equal(t, "aya@example.com", f.mailer.to)
	require.Equal(t, []string{"U1"}, f.invalidator.userIDs)
}

func TestSubmitMissingExplanationMakesNoExternalCalls(t *testing.T) {
	f := newPipelineFixture(t)

	req := validRequest()
	req.Explanation = ""

	_, err := f.service.Submit(context.Background(), req)

	var validationErrors validator.ValidationErrors
	require.ErrorAs(t, err, &validationErrors)
	require.Zero(t, f.grader.calls)
	require.Empty(t, f.records.appended)
	require.Zero(t, f.push.calls)
	require.Zero(t, f.mailer.calls)
}

func TestSubmitGradingFailureIsFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.grader.err = errors.New("upstream 503")

	_, err := f.service.Submit(context.Background(), validRequest())
	require.ErrorIs(t, err, ErrGradingFailed)
	require.Empty(t, f.records.appended)
	require.Zero(t, f.push.calls)
	require.Zero(t, f.mailer.calls)
}

func TestSubmitStoreFailureIsNonFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.records.err = errors.New("sheet quota exceeded")

	resp, err := f.service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, f.grader.review.Advice, resp.Analysis)
	require.Equal(t, 1, f.push.calls)
	require.Equal(t, 1, f.mailer.calls)
	require.Empty(t, f.invalidator.userIDs)
}

func TestSubmitPushFailureIsNonFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.push.err = errors.New("push forbidden")

	resp, err := f.service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, 1, f.mailer.calls)
}

func TestSubmitMailFailureIsNonFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.mailer.err = errors.New("relay refused")

	resp, err := f.service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Len(t, f.records.appended, 1)
}

func TestSubmitWithoutUserIDSkipsPush(t *testing.T) {
	f := newPipelineFixture(t)

	req := validRequest()
	req.UserID = ""

	resp, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Zero(t, f.push.calls)
	require.Len(t, f.records.appended, 1)
	require.Equal(t, 1, f.mailer.calls)
}

func TestSubmitWithoutEmailSkipsMail(t *testing.T) {
	f := newPipelineFixture(t)

	req := validRequest()
	req.Email = ""

	resp, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Zero(t, f.mailer.calls)
	require.Equal(t, 1, f.push.calls)
}

func TestSubmitAnonymousNameDefault(t *testing.T) {
	f := newPipelineFixture(t)

	req := validRequest()
	req.Name = ""

	_, err := f.service.Submit(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, "匿名", f.grader.input.Name)
	require.Equal(t, "匿名", f.records.appended[0].Name)
}

func TestSubmitWithoutStoreStillSucceeds(t *testing.T) {
	f := newPipelineFixture(t)
	svc := NewReviewService(ReviewServiceConfig{
		Grader:    f.grader,
		Push:      f.push,
		Mailer:    f.mailer,
		Validator: validator.New(validator.WithRequiredStructEnabled()),
		Logger:    zerolog.Nop(),
		BaseURL:   "https://coach.example.com",
	})

	resp, err := svc.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)
	require.Equal(t, 1, f.push.calls)
}

func TestSubmitTruncatesPushSummary(t *testing.T) {
	f := newPipelineFixture(t)

	long := make([]rune, 0, 300)
	for i := 0; i < 300; i++ {
		long = append(long, 'あ')
	}
	f.grader.review = ai.Review{Advice: string(long)}

	_, err := f.service.Submit(context.Background(), validRequest())
	require.NoError(t, err)
	require.Contains(t, f.push.text, string(long[:80])+"...")
	require.NotContains(t, f.push.text, string(long[:81]))
}

func TestGetByIDMapsRecord(t *testing.T) {
	records := &stubDetailRecords{record: repository.Record{
		ID:          "id-1",
		Timestamp:   time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC),
		Name:        "Aya",
		Explanation: "説明",
		Advice:      "**得点**: 88点",
	}}

	svc := NewReviewService(ReviewServiceConfig{
		Grader:    &fakeGrader{},
		Records:   records,
		Validator: validator.New(validator.WithRequiredStructEnabled()),
		Logger:    zerolog.Nop(),
	})

	detail, err := svc.GetByID(context.Background(), "id-1")
	require.NoError(t, err)
	require.Equal(t, "id-1", detail.ID)
	require.Equal(t, "2026/04/01 09:00:00", detail.Date)
	require.NotNil(t, detail.Score)
	require.Equal(t, 88, *detail.Score)
}

func TestGetByIDWithoutStore(t *testing.T) {
	svc := NewReviewService(ReviewServiceConfig{
		Grader:    &fakeGrader{},
		Validator: validator.New(validator.WithRequiredStructEnabled()),
		Logger:    zerolog.Nop(),
	})

	_, err := svc.GetByID(context.Background(), "id-1")
	require.ErrorIs(t, err, ErrStoreNotConfigured)
}

type stubDetailRecords struct {
	record repository.Record
}

func (s *stubDetailRecords) Append(context.Context, repository.Record) error { return nil }

func (s *stubDetailRecords) ListByUser(context.Context, string) ([]repository.Record, error) {
	return nil, nil
}

func (s *stubDetailRecords) GetByID(_ context.Context, id string) (repository.Record, error) {
	if id == s.record.ID {
		return s.record, nil
	}
	return repository.Record{}, repository.ErrRecordNotFound
}
