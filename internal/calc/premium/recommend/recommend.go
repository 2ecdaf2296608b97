package recommend

import (
	"context"
	"fmt"
	"math"

	channel "Culvert/internal/calc/channel"
	batch "Culvert/internal/calc/premium/batch"
)

const (
	DefaultMinVelocityMS    = 0.6
	DefaultMaxVelocityMS    = 5.0
	DefaultMinShearNM2      = 1.0
	DefaultMaxRelativeDepth = 0.75
)

type ChannelRecommendInput struct {
	channel.Input
	MinVelocityMS    float64 `json:"min_velocity_m_s" validate:"gte=0"`
	MaxVelocityMS    float64 `json:"max_velocity_m_s" validate:"gte=0"`
	MinShearNM2      float64 `json:"min_shear_n_m2" validate:"gte=0"`
	MaxRelativeDepth float64 `json:"max_relative_depth" validate:"gte=0,lte=1"`
}

type ChannelRecommendResult struct {
	Result          channel.Result `json:"result"`
	OKMinVelocity   bool           `json:"ok_min_velocity"`
	OKMaxVelocity   bool           `json:"ok_max_velocity"`
	OKShear         bool           `json:"ok_shear"`
	OKFill          bool           `json:"ok_fill"`
	MinSlope        float64        `json:"min_self_cleansing_slope"`
	Recommendations []string       `json:"recommendations"`
	Notes           string         `json:"notes"`
}

// Channel solves the input and checks the flow against self-cleansing and
// scour limits. Non-positive limits take the defaults above.
func Channel(ctx context.Context, s batch.Solver, in ChannelRecommendInput) (ChannelRecommendResult, error) {
	if in.MinVelocityMS <= 0 {
		in.MinVelocityMS = DefaultMinVelocityMS
	}
	if in.MaxVelocityMS <= 0 {
		in.MaxVelocityMS = DefaultMaxVelocityMS
	}
	if in.MinShearNM2 <= 0 {
		in.MinShearNM2 = DefaultMinShearNM2
	}
	if in.MaxRelativeDepth <= 0 {
		in.MaxRelativeDepth = DefaultMaxRelativeDepth
	}
	if in.MaxVelocityMS < in.MinVelocityMS {
		return ChannelRecommendResult{}, &channel.Error{Kind: channel.KindInvalidInput, Message: "max velocity is below min velocity"}
	}

	res, err := s.Solve(ctx, in.Input)
	if err != nil {
		return ChannelRecommendResult{}, err
	}

	out := ChannelRecommendResult{
		Result:          res,
		OKMinVelocity:   res.VelocityMS >= in.MinVelocityMS,
		OKMaxVelocity:   res.VelocityMS <= in.MaxVelocityMS,
		OKShear:         res.ShearStressNM2 >= in.MinShearNM2,
		OKFill:          res.RelativeDepth <= in.MaxRelativeDepth,
		Recommendations: []string{},
		Notes:           "Self-cleansing and scour checks at the computed uniform flow.",
	}

	// V grows with sqrt(S) and tau with S at a fixed section.
	out.MinSlope = res.Slope * math.Max(
		math.Pow(in.MinVelocityMS/res.VelocityMS, 2),
		in.MinShearNM2/res.ShearStressNM2,
	)

	if !out.OKMinVelocity {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Velocity %.2f m/s is below the self-cleansing minimum %.2f m/s: steepen the slope to at least %.5f.",
			res.VelocityMS, in.MinVelocityMS, out.MinSlope))
	}
	if !out.OKShear {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Boundary shear %.2f N/m² is below %.2f N/m², sediment may settle.",
			res.ShearStressNM2, in.MinShearNM2))
	}
	if !out.OKMaxVelocity {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Velocity %.2f m/s exceeds %.2f m/s: flatten the slope or use a rougher lining.",
			res.VelocityMS, in.MaxVelocityMS))
	}
	if !out.OKFill {
		out.Recommendations = append(out.Recommendations, fmt.Sprintf(
			"Depth ratio %.2f exceeds the fill limit %.2f: use a larger diameter.",
			res.RelativeDepth, in.MaxRelativeDepth))
	}
	return out, nil
}
