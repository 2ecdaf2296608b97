package channel

import "math"

// FlowState is the wetted circular segment for one (D, y/D) pair.
type FlowState struct {
	ThetaRad         float64 `json:"theta_rad"`
	AreaM2           float64 `json:"area_m2"`
	WettedPerimeterM float64 `json:"wetted_perimeter_m"`
	HydraulicRadiusM float64 `json:"hydraulic_radius_m"`
	RadiusDefined    bool    `json:"-"`
}

// CentralAngle returns the angle subtended at the pipe centre by the water
// surface chord: theta = 2*acos(1 - 2*yD).
func CentralAngle(yD float64) (float64, error) {
	if !(yD >= 0 && yD <= 1) {
		return 0, newError(KindInvalidInput, "relative depth %g outside [0, 1]", yD)
	}
	return 2 * math.Acos(1-2*yD), nil
}

func FlowArea(theta, d float64) float64 {
	return (theta - math.Sin(theta)) * d * d / 8
}

func WettedPerimeter(theta, d float64) float64 {
	return theta * d / 2
}

// HydraulicRadius reports ok=false for an empty channel (P == 0).
func HydraulicRadius(area, perimeter float64) (float64, bool) {
	if perimeter == 0 {
		return 0, false
	}
	return area / perimeter, true
}

// Section computes the flow state of a pipe of diameter d filled to yD.
func Section(d, yD float64) (FlowState, error) {
	theta, err := CentralAngle(yD)
	if err != nil {
		return FlowState{}, err
	}
	area := FlowArea(theta, d)
	p := WettedPerimeter(theta, d)
	r, ok := HydraulicRadius(area, p)
	return FlowState{
		ThetaRad:         theta,
		AreaM2:           area,
		WettedPerimeterM: p,
		HydraulicRadiusM: r,
		RadiusDefined:    ok,
	}, nil
}
