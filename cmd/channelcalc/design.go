package main

import (
	"context"
	"fmt"

	channel "Culvert/internal/calc/channel"
	autodesign "Culvert/internal/calc/premium/autodesign"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newDesignCmd(opts *rootOptions) *cobra.Command {
	defaults := channel.DefaultInput()
	in := autodesign.ChannelAutoInput{
		FlowRateM3S: defaults.FlowRateM3S,
		Slope:       defaults.Slope,
		Roughness:   defaults.Roughness,
	}

	cmd := &cobra.Command{
		Use:   "design",
		Short: "Pick the smallest standard pipe for a design flow",
		Long: `Size a pipe for a design flow: the exact diameter carrying the flow at
the fill limit is rounded up to the next standard size and the depth in
that pipe is reported.

Examples:
  channelcalc design --flow 0.8 --slope 0.0045 --roughness 0.013 --max-fill 0.7`,
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := opts.handler()
			if err != nil {
				return err
			}
			defer h.Log.Sync()

			res, err := autodesign.Channel(context.Background(), h, in)
			if err != nil {
				return err
			}
			h.Log.Debug("design", zap.Float64("required_m", res.RequiredDiameterM), zap.Float64("selected_m", res.SelectedDiameterM))
			if opts.asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Required diameter: %.4f m at y/D %.2f\n", res.RequiredDiameterM, res.MaxRelativeDepth)
			fmt.Fprintf(out, "Selected diameter: %.0f mm\n\n", res.SelectedDiameterM*1000)
			printResult(out, res.Design)
			return nil
		},
	}

	cmd.Flags().Float64VarP(&in.FlowRateM3S, "flow", "q", in.FlowRateM3S, "Design flow rate Q (m³/s)")
	cmd.Flags().Float64VarP(&in.Slope, "slope", "s", in.Slope, "Bed slope S (m/m)")
	cmd.Flags().Float64VarP(&in.Roughness, "roughness", "n", in.Roughness, "Manning roughness n")
	cmd.Flags().Float64Var(&in.MaxRelativeDepth, "max-fill", autodesign.DefaultMaxRelativeDepth, "Largest allowed y/D")
	cmd.Flags().Float64Var(&in.SpecificWeightNM3, "gamma", channel.DefaultSpecificWeight, "Specific weight of water γ (N/m³)")
	return cmd
}
