package recommend

import (
	"context"
	"encoding/json"
	"net/http"

	channel "Culvert/internal/calc/channel"
	batch "Culvert/internal/calc/premium/batch"

	"github.com/go-playground/validator/v10"
)

// validate is shared by all requests.
var validate = validator.New()

// Limits supplies the caller's fill limit.
type Limits interface {
	MaxRelativeDepth(ctx context.Context) float64
}

type Handler struct {
	Solver batch.Solver
	Limits Limits
}

func NewHandler(s batch.Solver, limits Limits) *Handler {
	return &Handler{Solver: s, Limits: limits}
}

func (h *Handler) Channel(w http.ResponseWriter, r *http.Request) {
	var input ChannelRecommendInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		channel.WriteError(w, &channel.Error{Kind: channel.KindInvalidInput, Message: err.Error()})
		return
	}
	if input.MaxRelativeDepth <= 0 && h.Limits != nil {
		input.MaxRelativeDepth = h.Limits.MaxRelativeDepth(r.Context())
	}
	res, err := Channel(r.Context(), h.Solver, input)
	if err != nil {
		channel.WriteError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
