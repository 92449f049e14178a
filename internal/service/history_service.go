package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aokijuku/grammar-coach-api/internal/dto"
	"github.com/aokijuku/grammar-coach-api/internal/observability"
	"github.com/aokijuku/grammar-coach-api/internal/repository"
)

// ErrStoreNotConfigured indicates the spreadsheet store credentials are absent.
var ErrStoreNotConfigured = errors.New("record store not configured")

// HistoryService projects a user's stored reviews, newest first.
type HistoryService interface {
	ListByUser(ctx context.Context, userID string) ([]dto.HistoryEntry, error)
	Invalidate(ctx context.Context, userID string) error
}

type historyService struct {
	records  repository.ReviewRepository
	cache    *redis.Client
	cacheTTL time.Duration
	logger   zerolog.Logger
}

// NewHistoryService builds the history projection. The cache client may be
// nil; lookups then always hit the store.
func NewHistoryService(records repository.ReviewRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) HistoryService {
	if ttl <= 0 {
		ttl = time.Minute
	}

	return &historyService{
		records:  records,
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger.With().Str("component", "history_service").Logger(),
	}
}

func (s *historyService) ListByUser(ctx context.Context, userID string) ([]dto.HistoryEntry, error) {
	if s.records == nil {
		return nil, ErrStoreNotConfigured
	}

	cacheKey := historyCacheKey(userID)

	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			var entries []dto.HistoryEntry
			if unmarshalErr := json.Unmarshal([]byte(cached), &entries); unmarshalErr == nil {
				observability.HistoryCache().WithLabelValues("hit").Inc()
				s.logger.Debug().Str("user_id", userID).Msg("history cache hit")
				return entries, nil
			}
		} else if err != redis.Nil {
			s.logger.Warn().Err(err).Msg("failed to read history cache")
		}
		observability.HistoryCache().WithLabelValues("miss").Inc()
	}

	records, err := s.records.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]dto.HistoryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, dto.HistoryEntry{
			Date:        record.Timestamp.Format("2006/01/02 15:04:05"),
			Explanation: record.Explanation,
			Advice:      record.Advice,
		})
	}

	if s.cache != nil {
		if payload, err := json.Marshal(entries); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL).Err(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to store history cache")
			}
		}
	}

	return entries, nil
}

// Invalidate drops one user's cached projection so the next lookup reflects a
// freshly appended row.
func (s *historyService) Invalidate(ctx context.Context, userID string) error {
	if s.cache == nil || userID == "" {
		return nil
	}

	return s.cache.Del(ctx, historyCacheKey(userID)).Err()
}

func historyCacheKey(userID string) string {
	return fmt.Sprintf("history:user:%s", userID)
}
