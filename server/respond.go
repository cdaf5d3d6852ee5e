package server

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// chatRequest is the body accepted by the chat endpoint.
type chatRequest struct {
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
}

// agentList is the payload served by the collection route.
type agentList struct {
	Agents []string `json:"agents"`
}

// errorResponse mirrors the {"detail": ...} error shape of the HTTP surface.
type errorResponse struct {
	Detail string `json:"detail"`
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, errorResponse{Detail: detail})
}

func respondNotFound(w http.ResponseWriter, path string) {
	respondError(w, http.StatusNotFound, fmt.Sprintf("Agent '%s' not found", path))
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
