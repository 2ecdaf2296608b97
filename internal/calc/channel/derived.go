package channel

// DefaultSpecificWeight of water in N/m3, as used for tractive tension.
const DefaultSpecificWeight = 9000.0

type Derived struct {
	ShearStressNM2 float64 `json:"shear_stress_n_m2"`
	VelocityMS     float64 `json:"velocity_m_s"`
}

// ShearStress is tau = gamma*R*S. Undefined when R is.
func ShearStress(r float64, rDefined bool, slope, gamma float64) (float64, bool) {
	if !rDefined {
		return 0, false
	}
	return gamma * r * slope, true
}

// Velocity is V = Q/A. Undefined for an empty section.
func Velocity(q, area float64) (float64, bool) {
	if area == 0 {
		return 0, false
	}
	return q / area, true
}

func derive(fs FlowState, q, slope, gamma float64) (Derived, error) {
	tau, ok := ShearStress(fs.HydraulicRadiusM, fs.RadiusDefined, slope, gamma)
	if !ok {
		return Derived{}, newError(KindUndefinedGeometry, "hydraulic radius undefined: wetted perimeter is zero")
	}
	v, ok := Velocity(q, fs.AreaM2)
	if !ok {
		return Derived{}, newError(KindUndefinedGeometry, "velocity undefined: flow area is zero")
	}
	return Derived{ShearStressNM2: tau, VelocityMS: v}, nil
}
