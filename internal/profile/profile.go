package profile

import (
	"Culvert/internal/auth"
	"Culvert/internal/repo"
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// DefaultMaxRelativeDepth is the design fill limit when a user has none.
const DefaultMaxRelativeDepth = 0.75

type ProfileHandler struct {
	Repo repo.Repository
	// Fallback applies when the user has not saved settings.
	Fallback repo.Settings
	Log      *zap.Logger

	validate *validator.Validate
}

type UpdateSettingsRequest struct {
	SpecificWeightNM3 float64 `json:"specific_weight_n_m3" validate:"gt=0,lte=20000"`
	MaxRelativeDepth  float64 `json:"max_relative_depth" validate:"gt=0,lte=1"`
}

func NewProfileHandler(r repo.Repository, fallback repo.Settings, log *zap.Logger) *ProfileHandler {
	if fallback.MaxRelativeDepth <= 0 {
		fallback.MaxRelativeDepth = DefaultMaxRelativeDepth
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileHandler{Repo: r, Fallback: fallback, Log: log, validate: validator.New()}
}

// Settings resolves the caller's settings, falling back per field.
func (h *ProfileHandler) Settings(ctx context.Context) repo.Settings {
	out := h.Fallback
	userID, ok := auth.UserID(ctx)
	if !ok {
		return out
	}
	s, err := h.Repo.GetSettings(ctx, userID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			h.Log.Warn("load settings failed", zap.Int("user_id", userID), zap.Error(err))
		}
		return out
	}
	if s.SpecificWeightNM3 > 0 {
		out.SpecificWeightNM3 = s.SpecificWeightNM3
	}
	if s.MaxRelativeDepth > 0 {
		out.MaxRelativeDepth = s.MaxRelativeDepth
	}
	return out
}

// SpecificWeight lets the handler act as the channel solver's defaults.
func (h *ProfileHandler) SpecificWeight(ctx context.Context) float64 {
	return h.Settings(ctx).SpecificWeightNM3
}

func (h *ProfileHandler) MaxRelativeDepth(ctx context.Context) float64 {
	return h.Settings(ctx).MaxRelativeDepth
}

func (h *ProfileHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.UserID(r.Context()); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Settings(r.Context()))
}

func (h *ProfileHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s := repo.Settings{SpecificWeightNM3: req.SpecificWeightNM3, MaxRelativeDepth: req.MaxRelativeDepth}
	if err := h.Repo.SaveSettings(r.Context(), userID, s); err != nil {
		h.Log.Error("save settings failed", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "DB error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
