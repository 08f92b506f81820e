package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"lip-sprint/internal/game"
)

func readJSON(body io.Reader, dest any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
	})
}

// writeEngineError maps engine error kinds onto HTTP statuses. Anything
// that is not an engine error is a server fault.
func writeEngineError(w http.ResponseWriter, err error) {
	var engineErr *game.Error
	if !errors.As(err, &engineErr) {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeError(w, statusForKind(engineErr.Kind), engineErr.Message)
}

func statusForKind(kind game.Kind) int {
	switch kind {
	case game.KindInvalidInput:
		return http.StatusBadRequest
	case game.KindNotFound:
		return http.StatusNotFound
	case game.KindForbidden:
		return http.StatusForbidden
	case game.KindInvalidState, game.KindRoomFull:
		return http.StatusConflict
	case game.KindExhausted:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
