// Package main wires the AI code review backend.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/ai"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/cli"
	githubadapter "github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/postgres"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/config"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/transport/httpserver"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/history"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/review"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/webhook"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/version"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zlog, err := logger.New(cfg.Logging.Level)
	if err != nil {
		return fmt.Errorf("logger init failed: %w", err)
	}
	defer func() { _ = zlog.Sync() }()

	store := postgres.New(ctx, zlog, cfg.Postgres)
	if err := store.OnStart(ctx); err != nil {
		return fmt.Errorf("postgres start failed: %w", err)
	}
	defer func() { _ = store.OnStop(context.Background()) }()

	provider := githubadapter.NewClient(cfg.GitHub.Token)
	if cfg.GitHub.BaseURL != "" {
		provider.SetBaseURL(cfg.GitHub.BaseURL)
	}
	provider.SetTimeout(cfg.GitHub.RequestTimeout)

	completions := ai.NewClient(cfg.AI.APIKey, cfg.AI.Model)
	if cfg.AI.BaseURL != "" {
		completions.SetBaseURL(cfg.AI.BaseURL)
	}
	completions.SetTimeout(cfg.AI.RequestTimeout)
	completions.SetMaxTokens(cfg.AI.MaxTokens)

	orchestrator := review.NewOrchestrator(review.Deps{
		Comments: store,
		Reviews:  store,
		AI:       completions,
		Log:      zlog.Named("review"),
		BotLogin: cfg.Review.BotLogin,
	})

	backfill := history.NewService(history.Deps{
		Store:       store,
		Log:         zlog.Named("history"),
		Months:      cfg.Review.HistoryMonths,
		Concurrency: cfg.Review.BackfillConcurrency,
	})

	dispatcher := webhook.NewDispatcher(webhook.Deps{
		Accounts:     store,
		PullRequests: store,
		Comments:     store,
		Reviews:      store,
		History:      backfill,
		Reviewer:     orchestrator,
		Log:          zlog.Named("webhook"),
		BotLogin:     cfg.Review.BotLogin,
	})

	server := httpserver.New(zlog, dispatcher, httpserver.Options{
		Secret:       cfg.GitHub.WebhookSecret,
		Provider:     provider,
		ReadTimeout:  cfg.GitHub.RequestTimeout,
		WriteTimeout: cfg.GitHub.RequestTimeout,
	})

	root := cli.NewRootCommand(cli.Dependencies{
		Log:             zlog,
		Server:          server,
		ServerAddr:      cfg.ServerAddr(),
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Provider:        provider,
		Registrar:       store,
		Backfiller:      backfill,
		Version:         version.Value(),
	})

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, cli.ErrVersionRequested) {
			return nil
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}
