package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	channel "Culvert/internal/calc/channel"
	observability "Culvert/internal/observability"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	maxIter  int
	asJSON   bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "channelcalc",
		Short: "Uniform flow in partially full circular pipes",
		Long: `Solve the Manning equation for a circular pipe flowing partially full.

Give four of diameter, relative depth, slope, roughness and flow rate,
select the fifth with --target, and the tool reports it together with
the section geometry, boundary shear stress and mean velocity.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().IntVar(&opts.maxIter, "max-iter", channel.DefaultSolver.MaxIter, "Root-finder iteration cap")
	cmd.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "Print the result as JSON")

	cmd.AddCommand(newSolveCmd(opts), newDesignCmd(opts))
	return cmd
}

func (o *rootOptions) handler() (*channel.Handler, error) {
	log, err := observability.NewLogger(o.logLevel)
	if err != nil {
		return nil, err
	}
	return &channel.Handler{
		Solver: channel.Solver{MaxIter: o.maxIter, Tolerance: channel.DefaultSolver.Tolerance},
		Log:    log,
	}, nil
}

func newSolveCmd(opts *rootOptions) *cobra.Command {
	in := channel.DefaultInput()
	var target string

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve for one unknown of the Manning equation",
		Long: `Solve for the quantity named by --target using the other four.

Targets: Q (flow rate), D (diameter), yD (relative depth), S (slope),
n (roughness). Without a target nothing is computed.

Examples:
  # Depth ratio carried by a 1 m pipe at 0.5 m³/s
  channelcalc solve --target yD --diameter 1 --slope 0.0045 --roughness 0.013 --flow 0.5

  # Capacity at half depth
  channelcalc solve --target Q --diameter 1 --relative-depth 0.5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := channel.ParseTarget(target)
			if err != nil {
				return err
			}
			if t == channel.TargetNone {
				fmt.Fprintln(cmd.OutOrStdout(), channel.ErrNoTarget.Message)
				return nil
			}
			in.Target = t

			h, err := opts.handler()
			if err != nil {
				return err
			}
			defer h.Log.Sync()

			res, err := h.Solve(context.Background(), in)
			if err != nil {
				return err
			}
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "Quantity to solve for (Q, D, yD, S, n)")
	cmd.Flags().Float64VarP(&in.DiameterM, "diameter", "d", in.DiameterM, "Pipe diameter D (m)")
	cmd.Flags().Float64Var(&in.RelativeDepth, "relative-depth", in.RelativeDepth, "Relative depth y/D")
	cmd.Flags().Float64VarP(&in.Slope, "slope", "s", in.Slope, "Bed slope S (m/m)")
	cmd.Flags().Float64VarP(&in.Roughness, "roughness", "n", in.Roughness, "Manning roughness n")
	cmd.Flags().Float64VarP(&in.FlowRateM3S, "flow", "q", in.FlowRateM3S, "Flow rate Q (m³/s)")
	cmd.Flags().Float64Var(&in.SpecificWeightNM3, "gamma", channel.DefaultSpecificWeight, "Specific weight of water γ (N/m³)")
	return cmd
}

func printResult(out io.Writer, res channel.Result) {
	fmt.Fprintf(out, "Solved for %s\n\n", res.Target.Label())
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, line := range res.Summary() {
		label, value, _ := strings.Cut(line, ": ")
		fmt.Fprintf(w, "  %s:\t%s\n", label, value)
	}
	w.Flush()
	if res.Iterations > 0 {
		fmt.Fprintf(out, "\nConverged in %d iterations.\n", res.Iterations)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
