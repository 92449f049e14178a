package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetsConfig holds the credentials for the spreadsheet store.
type SheetsConfig struct {
	SpreadsheetID       string
	SheetName           string
	ServiceAccountEmail string
	// PrivateKey is the service account PEM key with real newlines.
	PrivateKey string
}

// NewSheetsRepository builds a ReviewRepository backed by the Google Sheets
// API, authenticated as a service account.
func NewSheetsRepository(ctx context.Context, cfg SheetsConfig, logger zerolog.Logger) (ReviewRepository, error) {
	if cfg.SpreadsheetID == "" || cfg.ServiceAccountEmail == "" || cfg.PrivateKey == "" {
		return nil, fmt.Errorf("spreadsheet id and service account credentials are required")
	}

	auth := &jwt.Config{
		Email:      cfg.ServiceAccountEmail,
		PrivateKey: []byte(cfg.PrivateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}

	service, err := sheets.NewService(ctx, option.WithTokenSource(auth.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	values := &sheetsValues{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
	}

	return newReviewRepository(values, cfg.SheetName, logger), nil
}

// sheetsValues adapts the spreadsheets.values API to the valuesClient
// interface.
type sheetsValues struct {
	service       *sheets.Service
	spreadsheetID string
}

func (s *sheetsValues) Get(ctx context.Context, readRange string) ([][]interface{}, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *sheetsValues) Update(ctx context.Context, writeRange string, values [][]interface{}) error {
	_, err := s.service.Spreadsheets.Values.
		Update(s.spreadsheetID, writeRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	return err
}

func (s *sheetsValues) Append(ctx context.Context, writeRange string, values [][]interface{}) error {
	_, err := s.service.Spreadsheets.Values.
		Append(s.spreadsheetID, writeRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	return err
}
