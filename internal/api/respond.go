package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bastionworks/garrison/internal/engine"
	"github.com/bastionworks/garrison/internal/world"
)

type errorBody struct {
	Error string       `json:"error"`
	World *world.World `json:"world,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}

// writeError maps engine errors onto the wire: missing worlds are 404,
// conflicts are 409 carrying the authoritative snapshot when available,
// caller mistakes are 400, anything else is a logged 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var conflict *engine.Conflict
	switch {
	case errors.Is(err, world.ErrWorldNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "world not found"})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: conflict.Err.Error(), World: conflict.World})
	case engine.IsConflict(err), errors.Is(err, world.ErrWorldExists):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, engine.ErrInvalidInput), errors.Is(err, world.ErrUnknownOption):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "handling request", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// decodeJSON reads a small JSON body. Failures are caller mistakes.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request body: %w", engine.ErrInvalidInput)
	}
	return nil
}
