package channel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// Defaults supplies request-scoped fallbacks, e.g. the caller's preferred
// specific weight.
type Defaults interface {
	SpecificWeight(ctx context.Context) float64
}

// Recorder observes solver outcomes. outcome is "ok" or an error Kind.
type Recorder interface {
	ObserveSolve(target, outcome string, iterations int)
}

type Handler struct {
	Solver   Solver
	Defaults Defaults
	Metrics  Recorder
	Log      *zap.Logger
}

func (h *Handler) Calc(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	res, err := h.Solve(r.Context(), input)
	if err != nil {
		WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}

// Solve fills request defaults, runs the solver and records the outcome.
// The premium tools go through here so every solve is observed the same way.
func (h *Handler) Solve(ctx context.Context, in Input) (Result, error) {
	if in.SpecificWeightNM3 <= 0 && h.Defaults != nil {
		in.SpecificWeightNM3 = h.Defaults.SpecificWeight(ctx)
	}
	res, err := h.Solver.Solve(in)
	if h.Metrics != nil {
		h.Metrics.ObserveSolve(string(in.Target), Outcome(err), res.Iterations)
	}
	if err != nil && h.Log != nil {
		h.Log.Debug("solve failed", zap.String("target", string(in.Target)), zap.Error(err))
	}
	return res, err
}

func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var e *Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "internal"
}

func Status(err error) int {
	var e *Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case KindInvalidInput, KindNoTarget:
		return http.StatusBadRequest
	case KindUndefinedGeometry, KindNonConvergence:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// WriteError sends err as {"kind": ..., "message": ...}.
func WriteError(w http.ResponseWriter, err error) {
	var e *Error
	if !errors.As(err, &e) {
		e = &Error{Kind: "internal", Message: "Calculation error"}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(Status(err))
	json.NewEncoder(w).Encode(e)
}
