package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"medassist/internal/config"
	"medassist/internal/core"
	"medassist/internal/db"
	httpserver "medassist/internal/http"
	"medassist/internal/llm"
	"medassist/internal/translate"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "server",
		Short: "Multilingual assistant that answers questions about a patient's medical records",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(chatCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the medical_records table if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.RequireDatabase(); err != nil {
				return err
			}
			ctx := context.Background()
			conn, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			if err := db.Migrate(ctx, conn); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	}
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	logger := zerolog.New(out).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	return logger.Level(level)
}

// pipeline is everything a front end needs to drive conversations.
type pipeline struct {
	sessions *core.Store
	chat     *core.ChatService
}

// newPipeline wires the gateways to the session store.  records may be nil,
// in which case every prompt says no records exist.
func newPipeline(cfg *config.Config, records core.RecordStore, logger zerolog.Logger) *pipeline {
	var client translate.Client
	if t := translate.NewOpenAITranslator(cfg.TranslateAPIKey, cfg.OpenAIBaseURL, cfg.TranslateModel); t != nil {
		client = t
	} else {
		logger.Warn().Msg("TRANSLATE_API_KEY not set, language switching will keep the original text")
	}
	gateway := translate.NewGateway(client)

	if cfg.OpenAIAPIKey == "" {
		logger.Warn().Msg("OPENAI_API_KEY not set, every reply will be the apology text")
	}
	chat := core.NewChatService(
		llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ChatModel),
		core.NewRecordFetcher(records, cfg.RecordLimit, logger),
		gateway,
		logger,
	)
	chat.Timeout = cfg.LLMTimeout

	sessions := core.NewStore(core.SessionOptions{
		BaseLanguage:     cfg.BaseLanguage,
		Translator:       gateway,
		TranslateTimeout: cfg.TranslateTimeout,
		Logger:           logger,
	})
	return &pipeline{sessions: sessions, chat: chat}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg, os.Stdout)
	if err := cfg.RequireDatabase(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	conn, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer conn.Close()
	if err := db.Migrate(ctx, conn); err != nil {
		logger.Fatal().Err(err).Msg("failed to run migrations")
	}
	logger.Info().Msg("connected to database")

	p := newPipeline(cfg, db.NewRepository(conn), logger)
	defer p.sessions.CloseAll()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(httpserver.Recovery(logger))
	e.Use(httpserver.RequestID())
	e.Use(httpserver.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", httpserver.RequestIDHeader},
	}))

	httpserver.NewHandler(p.sessions, p.chat, logger).RegisterRoutes(e)

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
