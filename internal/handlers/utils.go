// internal/handlers/utils.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/botanybattle/server/internal/errs"
)

// writeJSON serializes v with the proper content type.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP status codes.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusServiceUnavailable
	switch errs.KindOf(err) {
	case errs.KindValidation:
		status = http.StatusBadRequest
	case errs.KindNotFound:
		status = http.StatusNotFound
	case errs.KindAuthorization:
		status = http.StatusForbidden
	case errs.KindConflict:
		status = http.StatusConflict
	case errs.KindTransientStore:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// authenticate resolves the calling player from the auth_token cookie.
func (s *Server) authenticate(r *http.Request) (uuid.UUID, error) {
	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return uuid.Nil, errs.Authorization("missing auth token")
	}
	sub, err := s.Tokens.Verify(cookie.Value)
	if err != nil {
		return uuid.Nil, errs.Authorization("invalid auth token")
	}
	playerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, errs.Authorization("invalid player id in token")
	}
	return playerID, nil
}

// pathSessionID parses the {id} path segment.
func pathSessionID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return uuid.Nil, errs.Validation("invalid session id")
	}
	return id, nil
}
