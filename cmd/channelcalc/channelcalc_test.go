package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	channel "Culvert/internal/calc/channel"
	autodesign "Culvert/internal/calc/premium/autodesign"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSolveFlowRate(t *testing.T) {
	out, err := run(t, "solve", "--target", "Q", "--diameter", "1", "--relative-depth", "0.5", "--slope", "0.0045", "--roughness", "0.013")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Solved for Flow Rate (Q)", "0.8042 m³/s (calculated)", "Shear Stress (τ):", "2.05 m/s"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestSolveRelativeDepthJSON(t *testing.T) {
	out, err := run(t, "solve", "-t", "yD", "--flow", "0.8041729538895976", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res channel.Result
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.Target != channel.TargetRelativeDepth || res.RelativeDepth < 0.4999 || res.RelativeDepth > 0.5001 {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSolveWithoutTarget(t *testing.T) {
	out, err := run(t, "solve")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if strings.TrimSpace(out) != "nothing selected" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestSolveErrors(t *testing.T) {
	_, err := run(t, "solve", "--target", "velocity")
	if !errors.Is(err, channel.ErrInvalidInput) {
		t.Fatalf("unknown target: got %v", err)
	}

	_, err = run(t, "solve", "--target", "Q", "--roughness=-0.01")
	if !errors.Is(err, channel.ErrInvalidInput) {
		t.Fatalf("negative roughness: got %v", err)
	}

	_, err = run(t, "solve", "--target", "yD", "--flow", "100")
	if !errors.Is(err, channel.ErrNonConvergence) {
		t.Fatalf("unreachable flow: got %v", err)
	}
	if err != nil && !strings.HasPrefix(err.Error(), "non_convergence: ") {
		t.Fatalf("error should read kind: message, got %q", err.Error())
	}
}

func TestDesign(t *testing.T) {
	out, err := run(t, "design", "--flow", "0.8041729538895976", "--max-fill", "0.5", "--json")
	if err != nil {
		t.Fatal(err)
	}
	var res autodesign.ChannelAutoResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if res.SelectedDiameterM != 1.05 || !res.OKFill {
		t.Fatalf("unexpected design %+v", res)
	}

	out, err = run(t, "design", "--flow", "0.8041729538895976", "--max-fill", "0.5")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Selected diameter: 1050 mm") || !strings.Contains(out, "y/D") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}
