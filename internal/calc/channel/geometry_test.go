package channel

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestCentralAngle(t *testing.T) {
	cases := []struct {
		yD   float64
		want float64
	}{
		{0, 0},
		{0.5, math.Pi},
		{1, 2 * math.Pi},
	}
	for _, c := range cases {
		got, err := CentralAngle(c.yD)
		if err != nil {
			t.Fatalf("CentralAngle(%g): %v", c.yD, err)
		}
		if !scalar.EqualWithinAbs(got, c.want, 1e-12) {
			t.Fatalf("CentralAngle(%g) = %g, want %g", c.yD, got, c.want)
		}
	}
}

func TestCentralAngleRejectsOutOfRange(t *testing.T) {
	for _, yD := range []float64{-0.1, 1.5, math.NaN(), math.Inf(1)} {
		_, err := CentralAngle(yD)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("CentralAngle(%g): expected invalid input, got %v", yD, err)
		}
	}
}

func TestSectionHalfFull(t *testing.T) {
	fs, err := Section(1, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(fs.AreaM2, math.Pi/8, 1e-12) {
		t.Fatalf("area = %g, want %g", fs.AreaM2, math.Pi/8)
	}
	if !scalar.EqualWithinAbs(fs.WettedPerimeterM, math.Pi/2, 1e-12) {
		t.Fatalf("perimeter = %g, want %g", fs.WettedPerimeterM, math.Pi/2)
	}
	if !fs.RadiusDefined || !scalar.EqualWithinAbs(fs.HydraulicRadiusM, 0.25, 1e-12) {
		t.Fatalf("radius = %g (defined %v), want 0.25", fs.HydraulicRadiusM, fs.RadiusDefined)
	}
}

func TestSectionFullPipe(t *testing.T) {
	const d = 2.0
	fs, err := Section(d, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !scalar.EqualWithinAbs(fs.ThetaRad, 2*math.Pi, 1e-12) {
		t.Fatalf("theta = %g, want 2π", fs.ThetaRad)
	}
	if !scalar.EqualWithinAbs(fs.AreaM2, math.Pi*d*d/4, 1e-12) {
		t.Fatalf("area = %g, want %g", fs.AreaM2, math.Pi*d*d/4)
	}
	if !scalar.EqualWithinAbs(fs.WettedPerimeterM, math.Pi*d, 1e-12) {
		t.Fatalf("perimeter = %g, want %g", fs.WettedPerimeterM, math.Pi*d)
	}
	if !scalar.EqualWithinAbs(fs.HydraulicRadiusM, d/4, 1e-12) {
		t.Fatalf("radius = %g, want %g", fs.HydraulicRadiusM, d/4)
	}
}

func TestSectionEmptyChannel(t *testing.T) {
	fs, err := Section(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if fs.AreaM2 != 0 || fs.WettedPerimeterM != 0 {
		t.Fatalf("expected empty section, got %+v", fs)
	}
	if fs.RadiusDefined {
		t.Fatal("hydraulic radius must be undefined for an empty channel")
	}
	if _, ok := ShearStress(fs.HydraulicRadiusM, fs.RadiusDefined, 0.01, DefaultSpecificWeight); ok {
		t.Fatal("shear stress must be undefined without a hydraulic radius")
	}
	if _, ok := Velocity(0.1, fs.AreaM2); ok {
		t.Fatal("velocity must be undefined for zero area")
	}
}

func TestShearStress(t *testing.T) {
	tau, ok := ShearStress(0.25, true, 0.0045, DefaultSpecificWeight)
	if !ok || !scalar.EqualWithinAbs(tau, 10.125, 1e-12) {
		t.Fatalf("tau = %g (ok %v), want 10.125", tau, ok)
	}
}
