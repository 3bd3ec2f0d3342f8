package cli

import (
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/goutamreddy/fractal/pkg/server"
	"github.com/goutamreddy/fractal/pkg/session"
)

// serveCommand creates the serve command, which exposes planning over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr        string
		sessionsDir string
		cacheFlags  cacheOpts
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning API over HTTP",
		Long: `Serve exposes POST /v1/plan and the session routes. With --redis (or
$` + redisEnv + `) both the plan cache and the sessions live in Redis, so several
instances can share them; otherwise plans are cached on disk and sessions
are stored in --sessions-dir.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx, cacheFlags)
			if err != nil {
				return err
			}
			defer runner.Close()

			var store session.Store
			if redisAddr := cacheFlags.redisAddrOrEnv(); redisAddr != "" {
				rs := session.NewRedisStore(redis.NewClient(&redis.Options{Addr: redisAddr}), "")
				defer rs.Close()
				store = rs
			} else {
				fs, err := session.NewFileStore(sessionsDir)
				if err != nil {
					return err
				}
				store = fs
			}

			srv := server.New(runner, store, c.Logger)
			printInfo("Listening on %s", addr)
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cacheFlags.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&sessionsDir, "sessions-dir", "", "session directory (default ~/.config/fractal/sessions)")

	return cmd
}
