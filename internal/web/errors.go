package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"vibetab/internal/layout"
)

var errReadOnly = errors.New("read-only server")

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// With names the widget a collision was detected against.
	With string `json:"with,omitempty"`
}

// statusFor maps layout errors to HTTP statuses: rejected placements are conflicts, unknown
// widgets are 404 and malformed input is 400.
func statusFor(err error) (int, string) {
	var nf layout.NotFoundError
	switch {
	case errors.Is(err, errReadOnly):
		return http.StatusForbidden, "read_only"
	case errors.As(err, &nf):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, layout.ErrCollision):
		return http.StatusConflict, "collision"
	case errors.Is(err, layout.ErrOutOfBounds):
		return http.StatusConflict, "out_of_bounds"
	case errors.Is(err, layout.ErrLocked):
		return http.StatusConflict, "locked"
	case errors.Is(err, layout.ErrNoSpace):
		return http.StatusConflict, "no_space"
	case errors.Is(err, layout.ErrInvalid):
		return http.StatusBadRequest, "invalid"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	body := errorBody{Error: err.Error(), Code: code}
	var ce *layout.CollisionError
	if errors.As(err, &ce) {
		body.With = ce.WithID
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
