package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/goutamreddy/fractal/pkg/buildinfo"
	"github.com/goutamreddy/fractal/pkg/cache"
	"github.com/goutamreddy/fractal/pkg/config"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/observability"
	"github.com/goutamreddy/fractal/pkg/pipeline"
	"github.com/goutamreddy/fractal/pkg/planner"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "fractal"

	// redisEnv names the environment variable holding a Redis address for
	// the plan cache. The --redis flag takes precedence.
	redisEnv = "FRACTAL_REDIS_ADDR"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Out receives command output. Defaults to os.Stdout.
	Out io.Writer
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Out: os.Stdout}
}

// SetLogLevel updates the logger's level. At debug level planner and cache
// events are logged as well.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
	if level <= log.DebugLevel {
		h := observability.NewLogHooks(c.Logger)
		observability.SetPlannerHooks(h)
		observability.SetCacheHooks(h)
	}
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "fractal",
		Short: "Fractal plans patterns of transformed body copies",
		Long: `Fractal turns a pattern configuration (scale, rotations and translation,
each constant or compounding per copy) into the exact transform every copy
receives, and can apply that plan to a document of solid bodies.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.initCommand())
	root.AddCommand(c.planCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.sessionCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheOpts selects the plan cache backend.
type cacheOpts struct {
	noCache   bool
	redisAddr string
}

func (o *cacheOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the plan cache")
	cmd.Flags().StringVar(&o.redisAddr, "redis", "", "cache plans in Redis at host:port (default $"+redisEnv+")")
}

// redisAddrOrEnv returns the --redis address, falling back to $FRACTAL_REDIS_ADDR.
func (o cacheOpts) redisAddrOrEnv() string {
	if o.redisAddr != "" {
		return o.redisAddr
	}
	return os.Getenv(redisEnv)
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, opts cacheOpts) (*pipeline.Runner, error) {
	cache, err := c.newCache(ctx, opts)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

// newCache opens the configured cache. An unusable cache directory falls
// back to no caching; an unreachable Redis server is an error.
func (c *CLI) newCache(ctx context.Context, opts cacheOpts) (cache.Cache, error) {
	if opts.noCache {
		return cache.NewNullCache(), nil
	}
	if addr := opts.redisAddrOrEnv(); addr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		rc, err := cache.NewRedisCache(pingCtx, cache.RedisConfig{Addr: addr})
		if err != nil {
			return nil, err
		}
		return cache.Instrument(rc, "plan"), nil
	}

	dir, err := cacheDir()
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache(), nil
	}
	return cache.Instrument(fc, "plan"), nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/fractal/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Spec Loading
// =============================================================================

// specOpts are the flags that select and override a spec.
type specOpts struct {
	configPath string
	copies     int
	seed       uint64
}

func (o *specOpts) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.configPath, "config", "c", "", "configuration file (default ./"+config.DefaultFileName+" if present)")
	cmd.Flags().IntVarP(&o.copies, "copies", "n", 0, "override the number of copies")
	cmd.Flags().Uint64Var(&o.seed, "seed", 0, "override the random seed")
}

// loadSpec reads the configuration named by --config, or ./fractal.toml
// when it exists, or the defaults. Flags the user set override the file.
func (o *specOpts) loadSpec(cmd *cobra.Command) (planner.Spec, error) {
	f := config.Default()
	path := o.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultFileName); err == nil {
			path = config.DefaultFileName
		}
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return planner.Spec{}, err
		}
		f = loaded
		loggerFromContext(cmd.Context()).Debug("loaded config", "path", path)
	}

	spec, err := f.Spec()
	if err != nil {
		return planner.Spec{}, err
	}
	if cmd.Flags().Changed("copies") {
		spec.NumCopies = o.copies
	}
	if cmd.Flags().Changed("seed") {
		spec.Seed = o.seed
	}
	return spec, nil
}

// =============================================================================
// Output Helpers
// =============================================================================

// writeOutput writes data to path, or to w when path is empty or "-".
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := w.Write(data)
		return err
	}
	if err := errors.ValidatePath(path); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
