package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/lotto/internal/domain"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

var errUnavailable = errors.New("service not configured")

func writeJSON(w http.ResponseWriter, status int, data interface{}, log zerolog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string, log zerolog.Logger) {
	writeJSON(w, status, map[string]string{"error": message}, log)
}

// writeFailure maps err to a status: configuration errors are the caller's fault
func writeFailure(w http.ResponseWriter, err error, log zerolog.Logger) {
	switch {
	case errors.Is(err, errUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error(), log)
	case domain.IsConfigurationError(err):
		writeError(w, http.StatusBadRequest, err.Error(), log)
	default:
		log.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, err.Error(), log)
	}
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ConfigError("request body is empty")
		}
		return domain.ConfigError("invalid request body: %v", err)
	}
	return nil
}

func combinationFrom(numbers []int) (domain.Combination, error) {
	c, err := domain.NewCombination(numbers)
	if err != nil {
		return c, fmt.Errorf("numbers: %w", err)
	}
	return c, nil
}
