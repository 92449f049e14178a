package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ErrRecordNotFound indicates no stored record matches the given id.
var ErrRecordNotFound = errors.New("record not found")

// Column headers of the backing sheet. The store is shared with school staff,
// so the labels stay in Japanese.
const (
	colID          = "ID"
	colTimestamp   = "日時"
	colName        = "氏名"
	colEmail       = "Email"
	colGrade       = "学年"
	colTarget      = "志望校"
	colExplanation = "生徒の説明"
	colAdvice      = "AI添削"
	colUserID      = "ユーザーID"
)

var canonicalHeader = []string{
	colID, colTimestamp, colName, colEmail, colGrade,
	colTarget, colExplanation, colAdvice, colUserID,
}

const timestampLayout = "2006/01/02 15:04:05"

// Record is one persisted review row.
type Record struct {
	ID          string
	Timestamp   time.Time
	Name        string
	Email       string
	Grade       string
	Target      string
	Explanation string
	Advice      string
	UserID      string
}

// ReviewRepository persists graded reviews in an append-only tabular store.
type ReviewRepository interface {
	Append(ctx context.Context, record Record) error
	ListByUser(ctx context.Context, userID string) ([]Record, error)
	GetByID(ctx context.Context, id string) (Record, error)
}

// valuesClient is the narrow slice of the spreadsheet values API the
// repository needs. Tests substitute an in-memory implementation.
type valuesClient interface {
	Get(ctx context.Context, readRange string) ([][]interface{}, error)
	Update(ctx context.Context, writeRange string, values [][]interface{}) error
	Append(ctx context.Context, writeRange string, values [][]interface{}) error
}

type reviewRepository struct {
	values   valuesClient
	sheet    string
	location *time.Location
	logger   zerolog.Logger
}

func newReviewRepository(values valuesClient, sheet string, logger zerolog.Logger) *reviewRepository {
	if sheet == "" {
		sheet = "Responses"
	}

	location, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		location = time.FixedZone("JST", 9*60*60)
	}

	return &reviewRepository{
		values:   values,
		sheet:    sheet,
		location: location,
		logger:   logger.With().Str("component", "review_repository").Logger(),
	}
}

// Append writes one row, creating or normalizing the header row first. Rows
// are only ever appended; existing rows are never touched.
func (r *reviewRepository) Append(ctx context.Context, record Record) error {
	if err := r.ensureHeader(ctx); err != nil {
		return err
	}

	row := []interface{}{
		record.ID,
		record.Timestamp.In(r.location).Format(timestampLayout),
		record.Name,
		record.Email,
		record.Grade,
		record.Target,
		record.Explanation,
		record.Advice,
		record.UserID,
	}

	if err := r.values.Append(ctx, r.rangeRef("A1"), [][]interface{}{row}); err != nil {
		return fmt.Errorf("append review row: %w", err)
	}

	return nil
}

// ListByUser returns every stored record for the given user id, most recent
// first.
func (r *reviewRepository) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	records, err := r.load(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]Record, 0, len(records))
	for _, record := range records {
		if record.UserID == userID {
			matched = append(matched, record)
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	return matched, nil
}

// GetByID returns the record with the given generated id.
func (r *reviewRepository) GetByID(ctx context.Context, id string) (Record, error) {
	records, err := r.load(ctx)
	if err != nil {
		return Record{}, err
	}

	for _, record := range records {
		if record.ID == id {
			return record, nil
		}
	}

	return Record{}, ErrRecordNotFound
}

func (r *reviewRepository) load(ctx context.Context) ([]Record, error) {
	rows, err := r.values.Get(ctx, r.rangeRef("A1:Z"))
	if err != nil {
		return nil, fmt.Errorf("read sheet: %w", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}

	index := headerIndex(rows[0])
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		records = append(records, r.recordFromRow(row, index))
	}

	return records, nil
}

func (r *reviewRepository) ensureHeader(ctx context.Context) error {
	rows, err := r.values.Get(ctx, r.rangeRef("1:1"))
	if err != nil {
		return fmt.Errorf("read header row: %w", err)
	}

	var header []interface{}
	if len(rows) > 0 {
		header = rows[0]
	}

	if headerComplete(header) {
		return nil
	}

	canonical := make([]interface{}, len(canonicalHeader))
	for i, column := range canonicalHeader {
		canonical[i] = column
	}

	if len(header) > 0 {
		r.logger.Warn().Msg("normalizing legacy sheet header")
	}

	if err := r.values.Update(ctx, r.rangeRef("A1"), [][]interface{}{canonical}); err != nil {
		return fmt.Errorf("write header row: %w", err)
	}

	return nil
}

func (r *reviewRepository) recordFromRow(row []interface{}, index map[string]int) Record {
	record := Record{
		ID:          cell(row, index, colID),
		Name:        cell(row, index, colName),
		Email:       cell(row, index, colEmail),
		Grade:       cell(row, index, colGrade),
		Target:      cell(row, index, colTarget),
		Explanation: cell(row, index, colExplanation),
		Advice:      cell(row, index, colAdvice),
		UserID:      cell(row, index, colUserID),
	}

	if raw := cell(row, index, colTimestamp); raw != "" {
		if ts, err := time.ParseInLocation(timestampLayout, raw, r.location); err == nil {
			record.Timestamp = ts
		}
	}

	return record
}

func (r *reviewRepository) rangeRef(cells string) string {
	return fmt.Sprintf("%s!%s", r.sheet, cells)
}

func headerIndex(header []interface{}) map[string]int {
	index := make(map[string]int, len(header))
	for i, value := range header {
		name := strings.TrimSpace(fmt.Sprint(value))
		if name != "" {
			index[name] = i
		}
	}
	return index
}

func headerComplete(header []interface{}) bool {
	index := headerIndex(header)
	for _, column := range canonicalHeader {
		if _, ok := index[column]; !ok {
			return false
		}
	}
	return true
}

func cell(row []interface{}, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[i]))
}
