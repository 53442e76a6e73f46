package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/iudanet/tripsync/internal/server"
	"github.com/iudanet/tripsync/internal/server/handlers"
	"github.com/iudanet/tripsync/internal/server/middleware"
	"github.com/iudanet/tripsync/internal/server/storage/sqlite"
)

// jwtSecretEnv переменная окружения с секретом, если --jwt-secret не задан
const jwtSecretEnv = "TRIPSYNC_JWT_SECRET"

const shutdownTimeout = 10 * time.Second

type rootFlags struct {
	dbPath    string
	jwtSecret string
	logLevel  string
}

func (f *rootFlags) secret() ([]byte, error) {
	secret := f.jwtSecret
	if secret == "" {
		secret = os.Getenv(jwtSecretEnv)
	}
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required: use --jwt-secret or %s", jwtSecretEnv)
	}
	return []byte(secret), nil
}

func (f *rootFlags) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", f.logLevel, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// newRootCommand собирает команды tripsync-server
// out для вывода команд, logOut для логов
func newRootCommand(out, logOut io.Writer) *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "tripsync-server",
		Short:         "Reference catalog API for tripsync",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(logOut)

	root.PersistentFlags().StringVar(&flags.dbPath, "db", "tripsync-server.db", "path to SQLite database")
	root.PersistentFlags().StringVar(&flags.jwtSecret, "jwt-secret", "", "HMAC secret for access tokens (env "+jwtSecretEnv+")")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level: debug, info, warn, error")

	root.AddCommand(
		newServeCommand(flags, logOut, nil),
		newTokenCommand(flags),
		newVersionCommand(),
	)
	return root
}

// newServeCommand запускает HTTP сервер до отмены контекста
// ready, если не nil, получает адрес после начала прослушивания
func newServeCommand(flags *rootFlags, logOut io.Writer, ready chan<- string) *cobra.Command {
	var (
		addr       string
		rate       int
		rateWindow time.Duration
		tokenTTL   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := flags.logger(logOut)
			if err != nil {
				return err
			}
			secret, err := flags.secret()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			store, err := sqlite.New(ctx, flags.dbPath)
			if err != nil {
				return fmt.Errorf("failed to open storage: %w", err)
			}
			defer func() {
				if err := store.Close(); err != nil {
					logger.Error("Failed to close storage", "error", err)
				}
			}()

			var limiter *middleware.RateLimiter
			if rate > 0 {
				limiter = middleware.NewRateLimiter(rate, rateWindow, logger)
				defer limiter.Stop()
			}

			router := server.NewRouter(server.Config{
				Version: Version,
				JWT:     handlers.JWTConfig{Secret: secret, AccessTokenTTL: tokenTTL},
			}, store, store, limiter, logger)

			return serve(ctx, addr, router, logger, ready)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().IntVar(&rate, "rate", 100, "requests per client per window, 0 disables rate limiting")
	cmd.Flags().DurationVar(&rateWindow, "rate-window", time.Minute, "rate limit window")
	cmd.Flags().DurationVar(&tokenTTL, "token-ttl", 24*time.Hour, "lifetime of issued tokens")
	return cmd
}

func serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger, ready chan<- string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	logger.Info("Server started", "addr", ln.Addr().String())
	if ready != nil {
		ready <- ln.Addr().String()
	}

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// newTokenCommand выпускает access token для разработки
func newTokenCommand(flags *rootFlags) *cobra.Command {
	var (
		subject string
		ttl     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token signed with the server secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := flags.secret()
			if err != nil {
				return err
			}
			if subject == "" {
				return fmt.Errorf("subject cannot be empty")
			}

			token, expiresAt, err := handlers.GenerateAccessToken(handlers.JWTConfig{
				Secret:         secret,
				AccessTokenTTL: ttl,
			}, subject)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}

			cmd.Println(token)
			cmd.PrintErrf("Expires: %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&subject, "subject", "dev", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("TripSync Server\n")
			cmd.Printf("Version:    %s\n", Version)
			cmd.Printf("Build Date: %s\n", BuildDate)
			cmd.Printf("Git Commit: %s\n", GitCommit)
		},
	}
}
