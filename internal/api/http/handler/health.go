package handler

import "net/http"

type healthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

// Health reports liveness and the user store state. A degraded store does
// not make the server unhealthy.
func (h *Auth) Health(w http.ResponseWriter, r *http.Request) {
	handle := h.store.Acquire(r.Context())
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Store:  handle.Reason().String(),
	})
}
