package main

import (
	"context"
	"navbot/internal/adapters/generator"
	"navbot/internal/adapters/handler"
	"navbot/internal/adapters/health"
	"navbot/internal/adapters/renderer"
	"navbot/internal/adapters/sender"
	"navbot/internal/adapters/storage"
	"navbot/internal/config"
	"navbot/internal/core/domain/command"
	"navbot/internal/core/port"
	"navbot/internal/core/service"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Info().Msg("starting navbot...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	var logLevel zerolog.Level

	switch cfg.Bot.LogLevel {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	store, err := storage.NewSQLite(cfg.Storage.Path)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.Storage.Path).Msg("failed opening session store")
	}
	defer store.Close()

	var textGenerator port.TextGenerator
	if cfg.OpenAI.APIKey != "" {
		textGenerator = generator.NewOpenAI(generator.Config{
			APIKey:      cfg.OpenAI.APIKey,
			BaseURL:     cfg.OpenAI.BaseURL,
			Model:       cfg.OpenAI.Model,
			MaxTokens:   cfg.OpenAI.MaxTokens,
			Temperature: cfg.OpenAI.Temperature,
		}, service.SystemPrompt)
	} else {
		log.Warn().Msg("no OpenAI API key configured, running with fallback content")
	}

	// the default handler is bound late because it needs the sender,
	// which needs the bot instance
	var flowHandler *handler.Flow

	b, err := bot.New(cfg.Telegram.BotToken,
		bot.WithDefaultHandler(func(ctx context.Context, b *bot.Bot, update *models.Update) {
			flowHandler.HandleDefault(ctx, b, update)
		}))
	if err != nil {
		log.Fatal().Err(err).Msg("failed initializing telegram bot")
	}

	s := sender.NewTelegram(b)
	tracker := service.NewMemoryTracker()
	quiz := service.NewQuiz()
	advisor := service.NewAdvisor(textGenerator, tracker)
	reports := renderer.NewPDF(cfg.Report.FontPath)

	flow := service.NewFlow(store, quiz, advisor, s, s, s, reports, tracker,
		cfg.Bot.MaxNiches, cfg.Bot.MaxPlans)

	commandRegistry := &command.Registry{}
	commandRegistry.Register(command.NewStart(flow, s, tracker, store, textGenerator, "/start"))
	commandRegistry.Register(command.NewHelp(s, tracker, "/help"))
	commandRegistry.Register(command.NewStats(s, tracker, store, "/stats"))
	commandRegistry.Register(command.NewBalance(s, textGenerator, tracker, "/balance"))
	commandRegistry.Register(command.NewRestart(flow, s, tracker, "/restart"))
	commandRegistry.Register(command.NewDonate(s, tracker, "/donate"))

	commandHandler := handler.NewCommand(commandRegistry, cfg.Bot.HandlerTimeout)
	flowHandler = handler.NewFlow(flow, cfg.Bot.HandlerTimeout)

	b.RegisterHandler(bot.HandlerTypeMessageText, "/", bot.MatchTypePrefix, commandHandler.Handle)
	b.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, flowHandler.HandleCallback)

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatal().Err(err).Msg("failed initializing scheduler")
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(cfg.Storage.SweepEvery),
		gocron.NewTask(func() {
			cutoff := time.Now().Add(-cfg.Storage.SessionIdle)
			removed, err := store.DeleteIdle(context.Background(), cutoff)
			if err != nil {
				log.Err(err).Msg("session sweep failed")
				return
			}
			if removed > 0 {
				log.Info().Int("removed", removed).Msg("swept idle sessions")
			}
		}),
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed scheduling session sweep")
	}

	scheduler.Start()
	defer func() {
		if err := scheduler.Shutdown(); err != nil {
			log.Err(err).Msg("scheduler shutdown failed")
		}
	}()

	healthServer := health.NewServer(cfg.Health.Port)
	go func() {
		if err := healthServer.Start(); err != nil {
			log.Err(err).Msg("health server failed")
		}
	}()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			log.Err(err).Msg("health server shutdown failed")
		}
	}()

	log.Info().Msg("bot listening")
	b.Start(ctx)
}
