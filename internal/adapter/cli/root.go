// Package cli defines the command line surface of the service.
package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/adapter/github"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/domain"
	"github.com/moises-herrera/quick-reviewer-backend-sub000/internal/usecase/history"
)

// ErrVersionRequested indicates the user requested the CLI version and no
// further work should be done.
var ErrVersionRequested = errors.New("version requested")

// WebServer is the HTTP surface the serve command controls.
type WebServer interface {
	Listen(addr string) error
	Shutdown() error
}

// BackfillProvider combines the provider operations the backfill command
// consumes.
type BackfillProvider interface {
	GetRepository(ctx context.Context, owner, repo string) (*github.RepoRef, error)
	history.GitProvider
}

// Registrar persists the repositories the backfill command targets.
type Registrar interface {
	SaveAccount(ctx context.Context, account domain.Account) error
	SaveRepositories(ctx context.Context, repos []domain.Repository) error
}

// Backfiller imports historical pull requests for a repository.
type Backfiller interface {
	Backfill(ctx context.Context, provider history.GitProvider, repo domain.Repository) error
}

// Dependencies captures the collaborators for the CLI.
type Dependencies struct {
	Log             *zap.SugaredLogger
	Server          WebServer
	ServerAddr      string
	ShutdownTimeout time.Duration
	Provider        BackfillProvider
	Registrar       Registrar
	Backfiller      Backfiller
	Version         string
}

// NewRootCommand constructs the root Cobra command.
func NewRootCommand(deps Dependencies) *cobra.Command {
	versionString := deps.Version
	if versionString == "" {
		versionString = "v0.0.0"
	}

	root := &cobra.Command{
		Use:   "quickreviewer",
		Short: "AI code review backend",
	}
	root.SilenceUsage = true
	root.SilenceErrors = true

	root.AddCommand(serveCommand(deps))
	root.AddCommand(backfillCommand(deps))

	var showVersion bool
	root.PersistentFlags().BoolVarP(&showVersion, "version", "v", false, "Show version and exit")
	versionHandler := func(cmd *cobra.Command, args []string) error {
		if showVersion {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), versionString)
			return ErrVersionRequested
		}
		return nil
	}
	root.PersistentPreRunE = versionHandler
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if err := versionHandler(cmd, args); err != nil {
			return err
		}
		return cmd.Help()
	}

	return root
}

// serveCommand runs the webhook server until the context is cancelled, then
// drains it within the shutdown timeout.
func serveCommand(deps Dependencies) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			log := deps.Log

			go func() {
				if err := deps.Server.Listen(deps.ServerAddr); err != nil {
					log.Errorw("failed to start server", "error", err)
				}
			}()
			log.Infow("server listening", "addr", deps.ServerAddr)

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), deps.ShutdownTimeout)
			defer cancel()
			done := make(chan struct{})
			go func() {
				_ = deps.Server.Shutdown()
				close(done)
			}()

			select {
			case <-done:
				log.Infow("server stopped")
			case <-shutdownCtx.Done():
				log.Warnw("server shutdown timeout", "timeout", deps.ShutdownTimeout)
			}
			return nil
		},
	}
}

// backfillCommand imports the pull request history of one repository on
// demand, registering it first so foreign keys hold.
func backfillCommand(deps Dependencies) *cobra.Command {
	var owner string
	var repo string

	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Import pull request history for a repository",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			ref, err := deps.Provider.GetRepository(ctx, owner, repo)
			if err != nil {
				return fmt.Errorf("fetch repository %s/%s: %w", owner, repo, err)
			}

			account := domain.Account{
				ID:        ref.Owner.ID,
				Login:     ref.Owner.Login,
				Type:      ref.Owner.Type,
				CreatedAt: time.Now().UTC(),
			}
			if err := deps.Registrar.SaveAccount(ctx, account); err != nil {
				return fmt.Errorf("register account: %w", err)
			}

			repository := domain.Repository{
				ID:        ref.ID,
				AccountID: ref.Owner.ID,
				Owner:     ref.Owner.Login,
				Name:      ref.Name,
				FullName:  ref.FullName,
			}
			if err := deps.Registrar.SaveRepositories(ctx, []domain.Repository{repository}); err != nil {
				return fmt.Errorf("register repository: %w", err)
			}

			if err := deps.Backfiller.Backfill(ctx, deps.Provider, repository); err != nil {
				return fmt.Errorf("backfill %s: %w", repository.FullName, err)
			}
			deps.Log.Infow("backfill complete", "repository", repository.FullName)
			return nil
		},
	}

	cmd.Flags().StringVar(&owner, "owner", "", "Repository owner login")
	cmd.Flags().StringVar(&repo, "repo", "", "Repository name")
	_ = cmd.MarkFlagRequired("owner")
	_ = cmd.MarkFlagRequired("repo")

	return cmd
}
