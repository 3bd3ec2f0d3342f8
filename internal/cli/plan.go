package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/pipeline"
	"github.com/goutamreddy/fractal/pkg/planner"
)

// formatTable prints the plan as a terminal table. It is only available on
// the command line.
const formatTable = "table"

// planOpts holds the command-line flags for the plan command.
type planOpts struct {
	spec        specOpts
	cache       cacheOpts
	format      string // table (default), json, dot or svg
	output      string // output file, stdout when empty
	detailed    bool   // matrix rows in diagram labels
	refresh     bool   // bypass cached plans
	interactive bool   // edit the spec in a terminal UI first
}

// planCommand creates the plan command.
func (c *CLI) planCommand() *cobra.Command {
	opts := planOpts{format: formatTable}

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the per-copy transforms of a configuration",
		Long: `Plan loads a configuration (--config, ./fractal.toml or the defaults) and
prints the transform every copy receives, in application order.

Formats:
  table  terminal table (default)
  json   the plan as {"steps": [...]}; readable by other tools
  dot    Graphviz source of the plan diagram
  svg    the rendered plan diagram`,
		Example: `  fractal plan
  fractal plan -c spiral.toml --copies 12
  fractal plan --format svg --detailed -o plan.svg
  fractal plan --interactive`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := opts.spec.loadSpec(cmd)
			if err != nil {
				return err
			}
			if opts.interactive {
				edited, ok, err := editSpec(spec)
				if err != nil {
					return err
				}
				if !ok {
					printInfo("Cancelled")
					return nil
				}
				spec = edited
			}
			return c.runPlan(cmd.Context(), spec, opts)
		},
	}

	opts.spec.register(cmd)
	opts.cache.register(cmd)
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: table, json, dot, svg")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show full matrices in diagrams")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute even when a cached plan exists")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "edit the configuration before planning")

	return cmd
}

// runPlan executes the pipeline for spec and writes the result.
func (c *CLI) runPlan(ctx context.Context, spec planner.Spec, opts planOpts) error {
	format := opts.format
	if format != formatTable {
		if err := pipeline.ValidateFormat(format); err != nil {
			return err
		}
	}

	runner, err := c.newRunner(ctx, opts.cache)
	if err != nil {
		return err
	}
	defer runner.Close()

	renderFormat := format
	if format == formatTable {
		renderFormat = pipeline.FormatJSON
	}

	var spinner *Spinner
	if renderFormat == pipeline.FormatSVG {
		spinner = newSpinnerWithContext(ctx, "Rendering plan diagram...")
		spinner.Start()
	}
	prog := newProgress(c.Logger)
	res, planErr := runner.Execute(ctx, pipeline.Options{
		Spec:     spec,
		Formats:  []string{renderFormat},
		Detailed: opts.detailed,
		Refresh:  opts.refresh,
	})
	if res == nil {
		if spinner != nil {
			spinner.StopWithError("Planning failed")
		}
		return planErr
	}
	if spinner != nil {
		spinner.StopWithSuccess("Rendered plan diagram")
	}
	prog.done(fmt.Sprintf("Planned %d copies", res.Stats.Copies))

	printWarnings(res.Warnings)
	if planErr != nil {
		printWarning("some steps were skipped: %s", errors.UserMessage(planErr))
	}

	if format == formatTable {
		if len(res.Steps) == 0 {
			printInfo("Nothing to apply: every stage is disabled or the identity")
		} else {
			fmt.Fprintln(c.Out, planTable(res.Steps))
		}
		printPlanStats(res.Stats.Copies, res.Stats.Steps, res.CacheInfo.PlanHit)
		return planErr
	}

	if err := writeOutput(c.Out, opts.output, res.Artifacts[format]); err != nil {
		return err
	}
	if opts.output != "" && opts.output != "-" {
		printSuccess("Wrote %s plan", format)
		printFile(opts.output)
		printPlanStats(res.Stats.Copies, res.Stats.Steps, res.CacheInfo.PlanHit)
	}
	return planErr
}
