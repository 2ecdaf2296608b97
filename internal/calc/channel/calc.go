package channel

import (
	"fmt"
	"math"
	"strings"
)

// Target selects the one quantity the solver computes.
type Target string

const (
	TargetNone          Target = ""
	TargetDiameter      Target = "diameter"
	TargetRelativeDepth Target = "relative_depth"
	TargetSlope         Target = "slope"
	TargetRoughness     Target = "roughness"
	TargetFlowRate      Target = "flow_rate"
)

var Targets = []Target{TargetFlowRate, TargetDiameter, TargetRelativeDepth, TargetSlope, TargetRoughness}

func ParseTarget(s string) (Target, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return TargetNone, nil
	case "diameter", "d":
		return TargetDiameter, nil
	case "relative_depth", "yd", "y/d":
		return TargetRelativeDepth, nil
	case "slope", "s":
		return TargetSlope, nil
	case "roughness", "n":
		return TargetRoughness, nil
	case "flow_rate", "q":
		return TargetFlowRate, nil
	}
	return TargetNone, newError(KindInvalidInput, "unknown target %q", s)
}

func (t *Target) UnmarshalText(b []byte) error {
	v, err := ParseTarget(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t Target) Label() string {
	switch t {
	case TargetDiameter:
		return "Diameter (D)"
	case TargetRelativeDepth:
		return "y/D"
	case TargetSlope:
		return "Slope (S)"
	case TargetRoughness:
		return "Roughness (n)"
	case TargetFlowRate:
		return "Flow Rate (Q)"
	}
	return "none"
}

type Input struct {
	Target            Target  `json:"target"`
	DiameterM         float64 `json:"diameter_m"`
	RelativeDepth     float64 `json:"relative_depth"`
	Slope             float64 `json:"slope"`
	Roughness         float64 `json:"roughness"`
	FlowRateM3S       float64 `json:"flow_rate_m3s"`
	SpecificWeightNM3 float64 `json:"specific_weight_n_m3,omitempty"`
}

type Result struct {
	Target            Target  `json:"target"`
	DiameterM         float64 `json:"diameter_m"`
	RelativeDepth     float64 `json:"relative_depth"`
	Slope             float64 `json:"slope"`
	Roughness         float64 `json:"roughness"`
	FlowRateM3S       float64 `json:"flow_rate_m3s"`
	SpecificWeightNM3 float64 `json:"specific_weight_n_m3"`
	FlowState
	Derived
	Iterations int    `json:"iterations,omitempty"`
	Notes      string `json:"notes"`
}

// DefaultInput mirrors the values the calculator form starts with.
func DefaultInput() Input {
	return Input{
		Target:        TargetFlowRate,
		DiameterM:     1.0,
		RelativeDepth: 0.5,
		Slope:         0.0045,
		Roughness:     0.013,
		FlowRateM3S:   0.1,
	}
}

type Solver struct {
	MaxIter   int
	Tolerance float64
}

var DefaultSolver = Solver{MaxIter: 100, Tolerance: 1e-6}

func Solve(in Input) (Result, error) {
	return DefaultSolver.Solve(in)
}

// Solve resolves in.Target from the other four quantities. Whatever value
// the input carries for the target field is ignored.
func (s Solver) Solve(in Input) (Result, error) {
	if in.Target == TargetNone {
		return Result{}, ErrNoTarget
	}
	if s.MaxIter <= 0 {
		s.MaxIter = DefaultSolver.MaxIter
	}
	if s.Tolerance <= 0 {
		s.Tolerance = DefaultSolver.Tolerance
	}
	if !(in.SpecificWeightNM3 > 0) {
		in.SpecificWeightNM3 = DefaultSpecificWeight
	}
	if err := validate(in); err != nil {
		return Result{}, err
	}

	d, yD, slope, n, q := in.DiameterM, in.RelativeDepth, in.Slope, in.Roughness, in.FlowRateM3S
	iterations := 0

	switch in.Target {
	case TargetFlowRate:
		fs, err := Section(d, yD)
		if err != nil {
			return Result{}, err
		}
		k, err := conveyance(fs)
		if err != nil {
			return Result{}, err
		}
		q = k * math.Sqrt(slope) / n
	case TargetRoughness:
		fs, err := Section(d, yD)
		if err != nil {
			return Result{}, err
		}
		k, err := conveyance(fs)
		if err != nil {
			return Result{}, err
		}
		n = k * math.Sqrt(slope) / q
	case TargetSlope:
		fs, err := Section(d, yD)
		if err != nil {
			return Result{}, err
		}
		k, err := conveyance(fs)
		if err != nil {
			return Result{}, err
		}
		slope = math.Pow(q*n/k, 2)
	case TargetRelativeDepth:
		f := func(y float64) float64 { return flowAt(d, y, n, slope) - q }
		root, it, err := findRoot(f, relativeDepthSpace, s.MaxIter, s.Tolerance*math.Max(1, q))
		iterations = it
		if err != nil {
			return Result{}, err
		}
		if !(root > 0 && root <= 1) {
			return Result{}, newError(KindNonConvergence, "relative depth %g outside (0, 1]", root)
		}
		yD = root
	case TargetDiameter:
		f := func(x float64) float64 { return flowAt(x, yD, n, slope) - q }
		root, it, err := findRoot(f, diameterSpace, s.MaxIter, s.Tolerance*math.Max(1, q))
		iterations = it
		if err != nil {
			return Result{}, err
		}
		if !(root > 0) || math.IsInf(root, 0) {
			return Result{}, newError(KindNonConvergence, "diameter %g is not positive", root)
		}
		d = root
	default:
		return Result{}, newError(KindInvalidInput, "unknown target %q", in.Target)
	}

	for _, out := range []struct {
		name string
		v    float64
	}{{"flow rate", q}, {"roughness", n}, {"slope", slope}} {
		if math.IsNaN(out.v) || math.IsInf(out.v, 0) || out.v <= 0 {
			return Result{}, newError(KindInvalidInput, "inputs produce a non-physical %s (%g)", out.name, out.v)
		}
	}

	fs, err := Section(d, yD)
	if err != nil {
		return Result{}, err
	}
	der, err := derive(fs, q, slope, in.SpecificWeightNM3)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Target:            in.Target,
		DiameterM:         d,
		RelativeDepth:     yD,
		Slope:             slope,
		Roughness:         n,
		FlowRateM3S:       q,
		SpecificWeightNM3: in.SpecificWeightNM3,
		FlowState:         fs,
		Derived:           der,
		Iterations:        iterations,
		Notes:             "Manning uniform flow in a partially full circular pipe.",
	}, nil
}

// conveyance is A*R^(2/3), the geometric part of the Manning equation.
func conveyance(fs FlowState) (float64, error) {
	if !fs.RadiusDefined {
		return 0, newError(KindUndefinedGeometry, "hydraulic radius undefined: wetted perimeter is zero")
	}
	k := fs.AreaM2 * math.Pow(fs.HydraulicRadiusM, 2.0/3.0)
	if k == 0 {
		return 0, newError(KindUndefinedGeometry, "flow area is zero")
	}
	return k, nil
}

// flowAt is the Manning discharge for a candidate geometry. An empty or
// invalid section carries no flow.
func flowAt(d, yD, n, slope float64) float64 {
	fs, err := Section(d, yD)
	if err != nil || !fs.RadiusDefined {
		return 0
	}
	return fs.AreaM2 * math.Pow(fs.HydraulicRadiusM, 2.0/3.0) * math.Sqrt(slope) / n
}

func validate(in Input) error {
	check := func(t Target, name string, v float64) error {
		if in.Target == t {
			return nil
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return newError(KindInvalidInput, "%s must be a positive number, got %g", name, v)
		}
		return nil
	}
	if err := check(TargetDiameter, "diameter", in.DiameterM); err != nil {
		return err
	}
	if err := check(TargetRelativeDepth, "relative depth", in.RelativeDepth); err != nil {
		return err
	}
	if in.Target != TargetRelativeDepth && in.RelativeDepth > 1 {
		return newError(KindInvalidInput, "relative depth must be in (0, 1], got %g", in.RelativeDepth)
	}
	if err := check(TargetSlope, "slope", in.Slope); err != nil {
		return err
	}
	if err := check(TargetRoughness, "roughness", in.Roughness); err != nil {
		return err
	}
	if err := check(TargetFlowRate, "flow rate", in.FlowRateM3S); err != nil {
		return err
	}
	if math.IsInf(in.SpecificWeightNM3, 0) {
		return newError(KindInvalidInput, "specific weight must be finite")
	}
	return nil
}

// Summary renders the tuple with the precision used on calculation sheets,
// marking the solved field.
func (r Result) Summary() []string {
	mark := func(t Target) string {
		if r.Target == t {
			return " (calculated)"
		}
		return ""
	}
	return []string{
		fmt.Sprintf("Flow Rate (Q): %.4f m³/s%s", r.FlowRateM3S, mark(TargetFlowRate)),
		fmt.Sprintf("Diameter (D): %.4f m%s", r.DiameterM, mark(TargetDiameter)),
		fmt.Sprintf("y/D: %.2f%s", r.RelativeDepth, mark(TargetRelativeDepth)),
		fmt.Sprintf("Slope (S): %.5f m/m%s", r.Slope, mark(TargetSlope)),
		fmt.Sprintf("Roughness (n): %.4f%s", r.Roughness, mark(TargetRoughness)),
		fmt.Sprintf("Shear Stress (τ): %.2f N/m²", r.ShearStressNM2),
		fmt.Sprintf("Velocity (V): %.2f m/s", r.VelocityMS),
	}
}
