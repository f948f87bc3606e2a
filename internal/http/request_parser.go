// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating request
// data: path parameters, the horizon query and JSON bodies.

package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"saldo/internal/core"
)

const maxBodyBytes = 1 << 20 // 1 MiB

const maxGroupKeyLength = 64

// groupFromRequest extracts and validates the {group} path value. On
// failure it writes the error response and returns false.
func groupFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	groupKey := r.PathValue("group")
	if err := validateGroupKey(groupKey); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return "", false
	}
	return groupKey, true
}

// idFromRequest extracts the {id} path value.
func idFromRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "id path parameter is required")
		return "", false
	}
	return id, true
}

// validateGroupKey enforces the key charset so group keys can double as
// document IDs in the remote store.
func validateGroupKey(key string) error {
	if key == "" {
		return fmt.Errorf("group key is required")
	}
	if len(key) > maxGroupKeyLength {
		return fmt.Errorf("group key too long: max %d characters", maxGroupKeyLength)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '.':
		default:
			return fmt.Errorf("group key contains invalid character %q", r)
		}
	}
	return nil
}

// horizonFromQuery parses the horizon query parameter, defaulting to 30
// days.
func horizonFromQuery(r *http.Request) (core.Horizon, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("horizon"))
	if raw == "" {
		return core.HorizonMonth, nil
	}
	return core.ParseHorizon(raw)
}

// decodeJSON decodes the request body into v. On failure it writes a
// 400 response and returns false; an unparseable date field is a domain
// validation failure and answers 422 like the other validation errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, core.ErrMalformedDate) {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// newID generates a random identifier for items created without one.
func newID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("id_%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1 // remove character
		}
		return r
	}, s)
}
