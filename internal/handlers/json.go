// Package handlers implements the JSON API. Each resource gets its own
// handler struct consuming a narrow slice of the store; write access is
// gated by an upstream layer, not here.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"printsite/internal/images"
	"printsite/internal/storage"
)

// systemUserID is the fallback owner seeded by the first migration, used when
// the upstream gateway does not forward a user id with the request.
const systemUserID int64 = 1

// formUserID reads the creator id forwarded by the gateway as a form field,
// falling back to the system user.
func formUserID(r *http.Request) int64 {
	if v, err := strconv.ParseInt(r.FormValue("created_by"), 10, 64); err == nil && v > 0 {
		return v
	}
	return systemUserID
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "err", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, errorBody{Error: msg})
}

// respondStoreError maps the error taxonomy onto status codes.
func respondStoreError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var verr *images.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, storage.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, storage.ErrUniqueViolation):
		respondError(w, http.StatusConflict, "already exists")
	case errors.Is(err, storage.ErrCheckViolation):
		respondError(w, http.StatusBadRequest, "constraint violation")
	case errors.Is(err, storage.ErrFKViolation):
		respondError(w, http.StatusBadRequest, "referenced record does not exist")
	default:
		logger.Error("request failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func queryInt64(r *http.Request, key string, fallback int64) int64 {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}

// queryBool returns nil when the parameter is absent or unparseable, so
// filters distinguish "don't care" from true/false.
func queryBool(r *http.Request, key string) *bool {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return nil
	}
	return &v
}
