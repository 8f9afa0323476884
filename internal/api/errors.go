package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"shareit/internal/database"
	"shareit/internal/models"
)

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// handleError maps service errors onto HTTP statuses: missing entities and
// duplicate emails are 404, validation failures 400, access denial 403,
// booking business-rule violations stay unclassified 500 as in the
// original error contract.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound), errors.Is(err, database.ErrEmailTaken):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, database.ErrNotRented), errors.Is(err, database.ErrUnknownState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, database.ErrAccessDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, database.ErrNotAvailable),
		errors.Is(err, database.ErrOwnItem),
		errors.Is(err, database.ErrAlreadyProcessed):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("unhandled error")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// userID reads the caller identity header.
func userID(r *http.Request) (int64, error) {
	raw := r.Header.Get(models.UserIDHeader)
	if raw == "" {
		return 0, errors.New(models.UserIDHeader + " header is required")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.New(models.UserIDHeader + " header must be a number")
	}
	return id, nil
}

// pathID reads a numeric :id path parameter set by pat.
func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(r.URL.Query().Get(":"+name), 10, 64)
}
