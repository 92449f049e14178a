package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/aokijuku/grammar-coach-api/internal/config"
	"github.com/aokijuku/grammar-coach-api/internal/database"
	"github.com/aokijuku/grammar-coach-api/internal/handler"
	"github.com/aokijuku/grammar-coach-api/internal/middleware"
	"github.com/aokijuku/grammar-coach-api/internal/repository"
	"github.com/aokijuku/grammar-coach-api/internal/router"
	"github.com/aokijuku/grammar-coach-api/internal/service"
	"github.com/aokijuku/grammar-coach-api/pkg/ai"
	"github.com/aokijuku/grammar-coach-api/pkg/line"
	"github.com/aokijuku/grammar-coach-api/pkg/mailer"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	ctx := context.Background()

	grader, err := newGrader(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to create grader: %v", err)
	}

	var records repository.ReviewRepository
	if cfg.SheetsConfigured() {
		records, err = repository.NewSheetsRepository(ctx, repository.SheetsConfig{
			SpreadsheetID:       cfg.SpreadsheetID,
			SheetName:           cfg.SheetName,
			ServiceAccountEmail: cfg.ServiceAccountEmail,
			PrivateKey:          cfg.ServiceAccountKey,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create sheets repository: %v", err)
		}
	} else {
		logger.Warn().Msg("spreadsheet credentials not set, persistence disabled")
	}

	var cache *redis.Client
	if cfg.RedisURL != "" {
		cache, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer cache.Close()
	}

	var push service.PushNotifier
	if cfg.LineChannelToken != "" {
		notifier, err := line.New(cfg.LineChannelToken, logger)
		if err != nil {
			log.Fatalf("failed to create line notifier: %v", err)
		}
		push = notifier
	} else {
		logger.Warn().Msg("line channel token not set, push notifications disabled")
	}

	var critiqueMailer service.CritiqueMailer
	if cfg.MailConfigured() {
		m, err := mailer.New(mailer.Config{
			Host:       cfg.SMTPHost,
			Port:       cfg.SMTPPort,
			Username:   cfg.SenderEmail,
			Password:   cfg.SenderPassword,
			SenderName: cfg.SenderName,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create mailer: %v", err)
		}
		critiqueMailer = &mailerAdapter{mailer: m}
	} else {
		logger.Warn().Msg("mail relay credentials not set, email notifications disabled")
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	historyService := service.NewHistoryService(records, cache, cfg.HistoryCacheTTL, logger)
	reviewService := service.NewReviewService(service.ReviewServiceConfig{
		Grader:         grader,
		Records:        records,
		Push:           push,
		Mailer:         critiqueMailer,
		History:        historyService,
		Validator:      validate,
		Logger:         logger,
		BaseURL:        cfg.BaseURL,
		GradingTimeout: cfg.GradingTimeout,
		StageTimeout:   cfg.StageTimeout,
	})

	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	historyHandler := handler.NewHistoryHandler(historyService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		ReviewHandler:  reviewHandler,
		HistoryHandler: historyHandler,
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func newGrader(ctx context.Context, cfg config.Config, logger zerolog.Logger) (ai.Grader, error) {
	switch cfg.AIProvider {
	case "openai":
		return ai.NewOpenAIGrader(ai.OpenAIConfig{
			APIKey: cfg.OpenAIAPIKey,
			Model:  cfg.OpenAIModel,
			Logger: logger,
		})
	default:
		return ai.NewGeminiGrader(ctx, ai.GeminiConfig{
			APIKey: cfg.GeminiAPIKey,
			Model:  cfg.GeminiModel,
			Logger: logger,
		})
	}
}

// mailerAdapter narrows the mailer API to the orchestrator's interface.
type mailerAdapter struct {
	mailer *mailer.Mailer
}

func (a *mailerAdapter) Send(ctx context.Context, to, studentName, advice string) error {
	return a.mailer.Send(ctx, mailer.Message{To: to, StudentName: studentName, Advice: advice})
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
