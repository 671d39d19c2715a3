package cli

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/docket-labs/docket/pkg/cli/config"
	httpctrl "github.com/docket-labs/docket/pkg/controller/http"
	"github.com/docket-labs/docket/pkg/domain/interfaces"
	"github.com/docket-labs/docket/pkg/service/realtime"
	"github.com/docket-labs/docket/pkg/usecase"
	"github.com/docket-labs/docket/pkg/utils/logging"
)

func cmdServe() *cli.Command {
	var addr string
	var configPath string
	var sentryDSN string
	var noAuthn bool
	var authCfg config.Auth
	var repoCfg config.Repository

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "HTTP server address",
			Value:       ":8080",
			Sources:     cli.EnvVars("DOCKET_ADDR"),
			Destination: &addr,
		},
		&cli.StringFlag{
			Name:        "config",
			Usage:       "Path to TOML application configuration",
			Sources:     cli.EnvVars("DOCKET_CONFIG"),
			Destination: &configPath,
		},
		&cli.StringFlag{
			Name:        "sentry-dsn",
			Usage:       "Sentry DSN for error reporting",
			Sources:     cli.EnvVars("DOCKET_SENTRY_DSN"),
			Destination: &sentryDSN,
		},
		&cli.BoolFlag{
			Name:        "no-authn",
			Usage:       "Skip authentication and trust identity headers (development only)",
			Category:    "Authentication",
			Sources:     cli.EnvVars("DOCKET_NO_AUTHN"),
			Destination: &noAuthn,
		},
	}

	flags = append(flags, authCfg.Flags()...)
	flags = append(flags, repoCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if sentryDSN != "" {
				if err := sentry.Init(sentry.ClientOptions{Dsn: sentryDSN}); err != nil {
					return goerr.Wrap(err, "failed to initialize sentry")
				}
				defer sentry.Flush(2 * time.Second)
				logging.Default().Info("Sentry error reporting enabled")
			}

			// Load policy and seed users
			appCfg := &config.AppConfig{}
			if configPath != "" {
				loaded, err := config.LoadAppConfiguration(configPath)
				if err != nil {
					return goerr.Wrap(err, "failed to load application configuration")
				}
				appCfg = loaded
			}

			// Initialize repository based on backend type
			repo, err := repoCfg.Configure(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to initialize repository")
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			if err := seedUsers(ctx, repo, appCfg); err != nil {
				return goerr.Wrap(err, "failed to seed users")
			}

			// Live transport
			hub := realtime.NewHub()

			uc := usecase.New(repo,
				usecase.WithPublisher(hub),
				usecase.WithPolicy(appCfg.ToDomainPolicy()),
			)

			// HTTP server
			httpOpts := []httpctrl.Options{
				httpctrl.WithHub(hub),
			}
			if noAuthn {
				logging.Default().Warn("Running in no-authn mode (development only)")
				if authCfg.IsConfigured() {
					logging.Default().Warn("jwt-secret is ignored in no-authn mode")
				}
				httpOpts = append(httpOpts, httpctrl.WithNoAuthn(true))
			} else {
				verifier, err := authCfg.Configure()
				if err != nil {
					return goerr.Wrap(err, "failed to configure authentication")
				}
				httpOpts = append(httpOpts, httpctrl.WithVerifier(verifier))
			}

			server := &http.Server{
				Addr:              addr,
				Handler:           httpctrl.New(uc, httpOpts...),
				ReadHeaderTimeout: 30 * time.Second,
			}

			// Setup signal handling for graceful shutdown
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			errCh := make(chan error, 1)
			go func() {
				logging.Default().Info("Starting HTTP server", "addr", addr)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- goerr.Wrap(err, "failed to start server")
				}
			}()

			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)

				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()

				if err := server.Shutdown(shutdownCtx); err != nil {
					return goerr.Wrap(err, "failed to shutdown server gracefully")
				}

				logging.Default().Info("Server shutdown completed")
				return nil
			}
		},
	}
}

// seedUsers upserts the configured user directory into the repository
func seedUsers(ctx context.Context, repo interfaces.Repository, appCfg *config.AppConfig) error {
	users := appCfg.SeedUsers()
	for _, u := range users {
		if _, err := repo.User().Put(ctx, u); err != nil {
			return goerr.Wrap(err, "failed to seed user", goerr.V("user_id", u.ID))
		}
	}
	if len(users) > 0 {
		logging.Default().Info("Seeded user directory", "count", len(users))
	}
	return nil
}
