package autodesign

import (
	"context"
	"fmt"

	channel "Culvert/internal/calc/channel"
	batch "Culvert/internal/calc/premium/batch"
)

// DefaultMaxRelativeDepth applies when neither the request nor the caller's
// settings give a fill limit.
const DefaultMaxRelativeDepth = 0.75

// StandardDiametersMM are nominal internal diameters of manufactured pipe.
var StandardDiametersMM = []float64{
	150, 200, 250, 300, 375, 450, 525, 600, 750, 900,
	1050, 1200, 1500, 1800, 2100, 2400, 3000,
}

type ChannelAutoInput struct {
	FlowRateM3S       float64 `json:"flow_rate_m3s" validate:"gt=0"`
	Slope             float64 `json:"slope" validate:"gt=0"`
	Roughness         float64 `json:"roughness" validate:"gt=0"`
	MaxRelativeDepth  float64 `json:"max_relative_depth" validate:"gte=0,lte=1"`
	SpecificWeightNM3 float64 `json:"specific_weight_n_m3,omitempty" validate:"gte=0"`
}

type ChannelAutoResult struct {
	RequiredDiameterM float64        `json:"required_diameter_m"`
	SelectedDiameterM float64        `json:"selected_diameter_m"`
	MaxRelativeDepth  float64        `json:"max_relative_depth"`
	Design            channel.Result `json:"design"`
	OKFill            bool           `json:"ok_fill"`
	Notes             string         `json:"notes"`
}

// Channel sizes the pipe in two solves: the exact diameter that carries the
// flow at the fill limit, then the depth in the next standard size up.
func Channel(ctx context.Context, s batch.Solver, in ChannelAutoInput) (ChannelAutoResult, error) {
	if !(in.FlowRateM3S > 0) || !(in.Slope > 0) || !(in.Roughness > 0) {
		return ChannelAutoResult{}, &channel.Error{Kind: channel.KindInvalidInput, Message: "flow rate, slope and roughness must be positive"}
	}
	if in.MaxRelativeDepth <= 0 {
		in.MaxRelativeDepth = DefaultMaxRelativeDepth
	}
	if in.MaxRelativeDepth > 1 {
		return ChannelAutoResult{}, &channel.Error{Kind: channel.KindInvalidInput, Message: "max relative depth must be in (0, 1]"}
	}

	required, err := s.Solve(ctx, channel.Input{
		Target:            channel.TargetDiameter,
		RelativeDepth:     in.MaxRelativeDepth,
		Slope:             in.Slope,
		Roughness:         in.Roughness,
		FlowRateM3S:       in.FlowRateM3S,
		SpecificWeightNM3: in.SpecificWeightNM3,
	})
	if err != nil {
		return ChannelAutoResult{}, err
	}

	selected, ok := StandardDiameter(required.DiameterM)
	if !ok {
		largest := StandardDiametersMM[len(StandardDiametersMM)-1] / 1000
		return ChannelAutoResult{}, &channel.Error{
			Kind:    channel.KindInvalidInput,
			Message: fmt.Sprintf("required diameter %.3f m exceeds the largest standard pipe (%.1f m)", required.DiameterM, largest),
		}
	}

	design, err := s.Solve(ctx, channel.Input{
		Target:            channel.TargetRelativeDepth,
		DiameterM:         selected,
		Slope:             in.Slope,
		Roughness:         in.Roughness,
		FlowRateM3S:       in.FlowRateM3S,
		SpecificWeightNM3: in.SpecificWeightNM3,
	})
	if err != nil {
		return ChannelAutoResult{}, err
	}

	return ChannelAutoResult{
		RequiredDiameterM: required.DiameterM,
		SelectedDiameterM: selected,
		MaxRelativeDepth:  in.MaxRelativeDepth,
		Design:            design,
		OKFill:            design.RelativeDepth <= in.MaxRelativeDepth+1e-9,
		Notes:             "Auto-sized pipe (smallest standard diameter within the fill limit).",
	}, nil
}

// StandardDiameter returns the smallest standard diameter, in metres, not
// below d.
func StandardDiameter(d float64) (float64, bool) {
	for _, mm := range StandardDiametersMM {
		if m := mm / 1000; m >= d*(1-1e-9) {
			return m, true
		}
	}
	return 0, false
}
