// Package cli implements the nwb-lens command-line interface.
//
// Commands cover the full inspection workflow: export a file's
// structure (optionally with validator findings) to JSON, DOT, or SVG;
// run the validator and summarize its findings; browse a file
// interactively; and manage the result cache. All commands support
// --verbose (-v) for debug-level logging.
package cli

import (
	"context"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/h-mayorquin/nwb-lens/pkg/buildinfo"
	"github.com/h-mayorquin/nwb-lens/pkg/cache"
	"github.com/h-mayorquin/nwb-lens/pkg/config"
	"github.com/h-mayorquin/nwb-lens/pkg/inspect"
	"github.com/h-mayorquin/nwb-lens/pkg/session"
	"github.com/h-mayorquin/nwb-lens/pkg/source/jsonfile"
)

// appName is the application name used for directories and display.
const appName = "nwb-lens"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	verbose    bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Inspect the structure of neurophysiology data files",
		Long:         `nwb-lens extracts the full object hierarchy of a neurophysiology data file into a navigable tree, overlays best-practice findings from an external validator, and exports the result as JSON or Graphviz diagrams.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		Args:         cobra.MaximumNArgs(1),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if c.verbose {
				c.Logger.SetLevel(log.DebugLevel)
			}
		},
		// Running with a bare file argument opens the interactive browser.
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			return c.runExplore(cmd, args[0])
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: user config dir)")
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable result caching")

	root.AddCommand(c.exportCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// loadConfig reads the config file selected by --config.
func (c *CLI) loadConfig() (config.Config, error) {
	return config.Load(c.configPath)
}

// newSession builds a session manager from the configuration.
func (c *CLI) newSession(ctx context.Context, cfg config.Config) (*session.Manager, error) {
	store, err := c.newCache(ctx, cfg)
	if err != nil {
		c.Logger.Warn("cache unavailable, continuing without", "err", err)
		store = cache.NewNullCache()
	}
	runner := inspect.NewRunner(cfg.Inspector.Command, c.Logger)
	runner.Timeout = cfg.Inspector.Timeout()

	return session.NewManager(session.Options{
		Loader:       jsonfile.New(),
		Cache:        store,
		Runner:       runner,
		Logger:       c.Logger,
		MaxStringLen: cfg.UI.MaxStringLen,
	})
}

func (c *CLI) newCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache || cfg.Cache.Backend == "none" {
		return cache.NewNullCache(), nil
	}
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	dir := cfg.Cache.Dir
	if dir == "" {
		var err error
		dir, err = config.CacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
	}
	return cache.NewFileCache(dir)
}
