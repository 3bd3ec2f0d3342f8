package cli

import (
	"bytes"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/goutamreddy/fractal/pkg/config"
	"github.com/goutamreddy/fractal/pkg/planner"
	"github.com/goutamreddy/fractal/pkg/session"
)

// sessionCommand creates the session management command.
func (c *CLI) sessionCommand() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "session",
		Short: "Store and replay configurations",
		Long: `Sessions keep a configuration between runs. Create one from a config file,
reset individual stages to their defaults and plan from it again later.`,
	}
	cmd.PersistentFlags().StringVar(&dir, "dir", "", "session directory (default ~/.config/fractal/sessions)")

	open := func() (*session.FileStore, error) {
		return session.NewFileStore(dir)
	}

	cmd.AddCommand(c.sessionNewCommand(open))
	cmd.AddCommand(c.sessionListCommand(open))
	cmd.AddCommand(c.sessionShowCommand(open))
	cmd.AddCommand(c.sessionResetCommand(open))
	cmd.AddCommand(c.sessionPlanCommand(open))
	cmd.AddCommand(c.sessionDeleteCommand(open))

	return cmd
}

type storeOpener func() (*session.FileStore, error)

func (c *CLI) sessionNewCommand(open storeOpener) *cobra.Command {
	var (
		spec specOpts
		name string
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a session from a configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := spec.loadSpec(cmd)
			if err != nil {
				return err
			}
			if err := s.Validate(); err != nil {
				return err
			}
			store, err := open()
			if err != nil {
				return err
			}
			sess := session.New(name, s)
			if err := store.Set(cmd.Context(), sess); err != nil {
				return err
			}
			fmt.Fprintln(c.Out, sess.ID)
			printSuccess("Created session")
			printNextStep("Plan it", "fractal session plan "+sess.ID)
			return nil
		},
	}
	spec.register(cmd)
	cmd.Flags().StringVar(&name, "name", "", "session name")
	return cmd
}

func (c *CLI) sessionListCommand(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			list, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printInfo("No sessions")
				return nil
			}
			for _, s := range list {
				name := s.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(c.Out, "%s\t%s\t%d copies\t%s\n",
					s.ID, name, s.Spec.NumCopies, s.UpdatedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func (c *CLI) sessionShowCommand(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session as TOML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			sess, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printKeyValue("id", sess.ID)
			if sess.Name != "" {
				printKeyValue("name", sess.Name)
			}
			printKeyValue("updated", sess.UpdatedAt.Local().Format(time.DateTime))

			var buf bytes.Buffer
			if err := config.Encode(&buf, config.FromSpec(sess.Spec)); err != nil {
				return err
			}
			_, err = c.Out.Write(buf.Bytes())
			return err
		},
	}
}

func (c *CLI) sessionResetCommand(open storeOpener) *cobra.Command {
	var stages []string
	cmd := &cobra.Command{
		Use:   "reset <id>",
		Short: "Reset stages of a session to their defaults",
		Long: `Reset restores the base transform and randomization of the named stages.
Enabled flags and modes are kept.

Stages: scale, internal-rotation, translation, external-rotation.`,
		Example: `  fractal session reset 6f1c... --stage scale --stage translation`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(stages) == 0 {
				return fmt.Errorf("at least one --stage is required")
			}
			store, err := open()
			if err != nil {
				return err
			}
			sess, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, name := range stages {
				stage, err := planner.ParseStage(name)
				if err != nil {
					return err
				}
				if err := sess.ResetStage(stage); err != nil {
					return err
				}
				printSuccess("Reset %s", stage)
			}
			return store.Set(cmd.Context(), sess)
		},
	}
	cmd.Flags().StringArrayVar(&stages, "stage", nil, "stage to reset (repeatable)")
	return cmd
}

func (c *CLI) sessionPlanCommand(open storeOpener) *cobra.Command {
	opts := planOpts{format: formatTable}
	cmd := &cobra.Command{
		Use:   "plan <id>",
		Short: "Plan a stored session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			sess, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.runPlan(cmd.Context(), sess.Spec, opts)
		},
	}
	opts.cache.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: table, json, dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show full matrices in diagrams")
	return cmd
}

func (c *CLI) sessionDeleteCommand(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			if err := store.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			printSuccess("Deleted session %s", args[0])
			return nil
		},
	}
}
