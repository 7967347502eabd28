package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/ulugbekdev/tolov-bot/internal/config"
	"github.com/ulugbekdev/tolov-bot/internal/dialog"
	"github.com/ulugbekdev/tolov-bot/internal/handlers"
	"github.com/ulugbekdev/tolov-bot/internal/middleware"
	"github.com/ulugbekdev/tolov-bot/internal/scheduler"
	"github.com/ulugbekdev/tolov-bot/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	rdb, err := store.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "tolov_bot")
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer rdb.Close()

	sessionStore := store.NewRedisSessionStore(rdb, cfg.SessionTTLHours)
	reminderStore := store.NewRedisReminderStore(rdb)

	pgStore, err := store.NewPostgresStore(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	defer pgStore.Close()

	httpClient := &http.Client{
		Timeout: 10 * time.Minute,
	}
	pollTimeout := 50 * time.Second

	b, err := bot.New(
		cfg.BotToken,
		bot.WithHTTPClient(pollTimeout, httpClient),
	)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	messenger := handlers.NewBotMessenger(b)

	reminderScheduler := scheduler.NewScheduler(pgStore, reminderStore, messenger)
	reminderScheduler.Start()
	defer reminderScheduler.Stop()

	engine := dialog.NewEngine(
		pgStore,
		pgStore,
		sessionStore,
		reminderScheduler,
		handlers.NewBotUsernameResolver(b),
		messenger,
	)

	h := handlers.NewHandlers(engine, pgStore, pgStore, cfg.AdminID)

	middlewares := middleware.NewMessageAnalyzer(cfg.AdminID)
	handlerChain := middlewares.AdminGateMiddleware(
		middlewares.AnalyzeMessageMiddleware(
			h.MainHandler,
		),
	)

	b.RegisterHandlerMatchFunc(func(update *models.Update) bool {
		return update.Message != nil
	}, handlerChain)

	log.Println("Bot started. Press Ctrl+C to stop.")
	b.Start(ctx)
}
