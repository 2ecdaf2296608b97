package batch

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type Handler struct {
	Solver   Solver
	MaxItems int
	Workers  int
}

func (h *Handler) Channel(w http.ResponseWriter, r *http.Request) {
	var input ChannelBatchInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	if h.MaxItems > 0 && len(input.Items) > h.MaxItems {
		http.Error(w, fmt.Sprintf("Too many items (max %d)", h.MaxItems), http.StatusBadRequest)
		return
	}
	res, err := CalculateChannel(r.Context(), h.Solver, input, h.Workers)
	if err != nil {
		http.Error(w, "Calculation error", http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(res)
}
