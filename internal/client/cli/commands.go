package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/iudanet/tripsync/internal/client/app"
	"github.com/iudanet/tripsync/internal/client/broadcast"
	"github.com/iudanet/tripsync/internal/client/config"
	"github.com/iudanet/tripsync/internal/client/iocli"
	"github.com/iudanet/tripsync/internal/client/state"
	"github.com/iudanet/tripsync/pkg/api"
)

// Options параметры корневой команды
type Options struct {
	IO iocli.IO
	// LogOutput куда пишутся логи; по умолчанию stderr
	LogOutput io.Writer
	// Hub связывает экземпляры внутри процесса; nil означает канал поверх
	// файла БД, общий для всех процессов с этим файлом
	Hub       *broadcast.Hub
	Version   string
	BuildDate string
	GitCommit string
}

type rootFlags struct {
	configPath string
	apiURL     string
	dbPath     string
	channel    string
	logLevel   string
}

// NewRootCommand создает дерево команд клиента
func NewRootCommand(opts Options) *cobra.Command {
	if opts.IO == nil {
		opts.IO = iocli.NewStdio()
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}

	flags := &rootFlags{}
	root := &cobra.Command{
		Use:   "tripsync",
		Short: "Travel catalog client with offline cache and live sync",
		Long: `tripsync keeps a local copy of the travel catalog (destinations,
activities, packages, bookings), applies edits optimistically and
picks up remote changes by polling the API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", config.DefaultPath(), "path to config file")
	pf.StringVar(&flags.apiURL, "api-url", "", "catalog API base URL (overrides config)")
	pf.StringVar(&flags.dbPath, "db", "", "path to local database (overrides config)")
	pf.StringVar(&flags.channel, "channel", "", "cross-instance channel name (overrides config)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newListCommand(opts, flags),
		newCreateCommand(opts, flags),
		newUpdateCommand(opts, flags),
		newDeleteCommand(opts, flags),
		newWatchCommand(opts, flags),
		newCacheCommand(opts, flags),
		newTokenCommand(opts, flags),
		newStatusCommand(opts, flags),
		newVersionCommand(opts),
	)
	return root
}

// load читает конфигурацию и применяет явно заданные флаги
func (f *rootFlags) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	changed := cmd.Flags().Changed
	if changed("api-url") {
		cfg.APIURL = f.apiURL
	}
	if changed("db") {
		cfg.DBPath = f.dbPath
	}
	if changed("channel") {
		cfg.Channel = f.channel
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withCli открывает экземпляр движка на время выполнения команды
func withCli(cmd *cobra.Command, opts Options, flags *rootFlags, fn func(ctx context.Context, c *Cli) error) error {
	cfg, err := flags.load(cmd)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(opts.LogOutput, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := app.Open(ctx, cfg, opts.Hub, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Failed to close runtime", "error", err)
		}
	}()

	return fn(ctx, NewFromRuntime(opts.IO, rt))
}

func newListCommand(opts Options, flags *rootFlags) *cobra.Command {
	var (
		filters []string
		refresh bool
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "list TYPE",
		Short: "List entities, served from cache while it is fresh",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}
			parsed, err := parseFilters(filters)
			if err != nil {
				return err
			}
			return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
				return c.runList(ctx, entityType, listOptions{filters: parsed, refresh: refresh, asJSON: asJSON})
			})
		},
	}
	cmd.Flags().StringArrayVarP(&filters, "filter", "f", nil, "filter as key=value, may be repeated")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cache and fetch from the API")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print raw JSON")
	return cmd
}

func newCreateCommand(opts Options, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "create TYPE JSON",
		Short:   "Create an entity",
		Example: `  tripsync create destinations '{"name":"Lisbon","country":"PT"}'`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}
			return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
				return c.runCreate(ctx, entityType, args[1])
			})
		},
	}
}

func newUpdateCommand(opts Options, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "update TYPE ID JSON",
		Short:   "Update fields of an entity",
		Example: `  tripsync update destinations 42 '{"name":"Porto"}'`,
		Args:    cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}
			return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
				// update и delete работают по загруженному списку
				if _, err := c.engine.Store.Fetch(ctx, entityType, state.FetchOptions{}); err != nil {
					return err
				}
				return c.runUpdate(ctx, entityType, args[1], args[2])
			})
		},
	}
}

func newDeleteCommand(opts Options, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete TYPE ID",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			entityType, err := parseEntityType(args[0])
			if err != nil {
				return err
			}
			return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
				if _, err := c.engine.Store.Fetch(ctx, entityType, state.FetchOptions{}); err != nil {
					return err
				}
				return c.runDelete(ctx, entityType, args[1])
			})
		},
	}
}

func newWatchCommand(opts Options, flags *rootFlags) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "watch [TYPE...]",
		Short: "Poll the API and print every change until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			types := make([]api.EntityType, 0, len(args))
			for _, arg := range args {
				entityType, err := parseEntityType(arg)
				if err != nil {
					return err
				}
				types = append(types, entityType)
			}
			return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
				return c.runWatch(ctx, watchOptions{types: types, once: once})
			})
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "poll every type once and exit")
	return cmd
}

func newCacheCommand(opts Options, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local cache",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove every cached snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
				return c.runCacheClear(ctx)
			})
		},
	})
	return cmd
}

func newTokenCommand(opts Options, flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the API access token",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set [TOKEN]",
			Short: "Store an access token; prompts when TOKEN is omitted",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var token string
				if len(args) == 1 {
					token = args[0]
				}
				return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
					return c.runTokenSet(ctx, token)
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove the stored access token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
					return c.runTokenClear(ctx)
				})
			},
		},
	)
	return cmd
}

func newStatusCommand(opts Options, flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show token, cache and polling status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCli(cmd, opts, flags, func(ctx context.Context, c *Cli) error {
				return c.runStatus(ctx)
			})
		},
	}
}

func newVersionCommand(opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			opts.IO.Println("TripSync Client")
			opts.IO.Printf("Version:    %s\n", opts.Version)
			opts.IO.Printf("Build Date: %s\n", opts.BuildDate)
			opts.IO.Printf("Git Commit: %s\n", opts.GitCommit)
		},
	}
}
