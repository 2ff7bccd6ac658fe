// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP surface: public v1 reads, public
// submissions, the editor API, dashboard reads, and the cron endpoints.
// All responses are JSON. Errors travel as apperror values and are mapped
// to status codes in exactly one place, writeError.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/mongo"

	"birdatlas/internal/apperror"
)

// maxBodyBytes caps JSON request bodies. Photo uploads use multipart
// limits of their own.
const maxBodyBytes = 1 << 20

// errorResponse is the uniform error envelope.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

// writeSuccess writes the bare success envelope for operations with no
// meaningful response body.
func writeSuccess(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeError maps an error to its status code and envelope. Unrecognized
// errors become opaque 500s; their details go to the log, not the client.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	code := "internal"

	switch {
	case errors.Is(err, apperror.ErrValidation):
		status, code = http.StatusUnprocessableEntity, "validation"
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, mongo.ErrNoDocuments):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrForbidden):
		status, code = http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	}

	msg := http.StatusText(status)
	var appErr *apperror.AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		msg = appErr.Message
	}

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "error", err)
		msg = "internal server error"
	}

	writeJSON(w, status, errorResponse{Error: code, Message: msg})
}

// decodeJSON reads a size-capped JSON body into dst. A malformed body is
// a validation error, never a 500.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.Validation("body", "invalid JSON body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return apperror.Validation("body", "request body must contain a single JSON object")
	}
	return nil
}
