package handler_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aokijuku/grammar-coach-api/internal/dto"
	"github.com/aokijuku/grammar-coach-api/internal/handler"
	"github.com/aokijuku/grammar-coach-api/internal/service"
)

type mockHistoryService struct {
	calls   int
	userID  string
	entries []dto.HistoryEntry
	err     error
}

func (m *mockHistoryService) ListByUser(_ context.Context, userID string) ([]dto.HistoryEntry, error) {
	m.calls++
	m.userID = userID
	if m.err != nil {
		return nil, m.err
	}
	return m.entries, nil
}

func (m *mockHistoryService) Invalidate(context.Context, string) error { return nil }

func newHistoryApp(svc service.HistoryService) *fiber.App {
	app := fiber.New()
	handler.NewHistoryHandler(svc, zerolog.Nop()).Register(app.Group("/api/v1/history"))
	return app
}

func TestHistoryHandler_Success(t *testing.T) {
	svc := &mockHistoryService{entries: []dto.HistoryEntry{
		{Date: "2026/04/01 11:00:00", Explanation: "二回目", Advice: "添削2"},
		{Date: "2026/04/01 09:00:00", Explanation: "一回目", Advice: "添削1"},
	}}
	app := newHistoryApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/history?userId=U1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "U1", svc.userID)

	var payload dto.HistoryResponse
	decodeBody(t, resp, &payload)
	require.Len(t, payload.History, 2)
	require.Equal(t, "二回目", payload.History[0].Explanation)
}

func TestHistoryHandler_MissingUserIDIs400(t *testing.T) {
	svc := &mockHistoryService{}
	app := newHistoryApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.calls)

	var payload struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &payload)
	require.Equal(t, "userId is required", payload.Error)
}

func TestHistoryHandler_EmptyHistoryIsSuccess(t *testing.T) {
	svc := &mockHistoryService{entries: []dto.HistoryEntry{}}
	app := newHistoryApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/history?userId=U9", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload dto.HistoryResponse
	decodeBody(t, resp, &payload)
	require.NotNil(t, payload.History)
	require.Empty(t, payload.History)
}

func TestHistoryHandler_StoreNotConfiguredIs500(t *testing.T) {
	svc := &mockHistoryService{err: service.ErrStoreNotConfigured}
	app := newHistoryApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/history?userId=U1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)

	var payload struct {
		Error string `json:"error"`
	}
	decodeBody(t, resp, &payload)
	require.Equal(t, "server config error", payload.Error)
}

func TestHistoryHandler_StoreErrorIs500(t *testing.T) {
	svc := &mockHistoryService{err: errors.New("sheet unreachable")}
	app := newHistoryApp(svc)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/history?userId=U1", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}
