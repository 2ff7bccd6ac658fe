// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"

	"birdatlas/internal/apperror"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperror.NotFound("hotspot", "L1"), http.StatusNotFound, "not_found"},
		{"mongo no documents", mongo.ErrNoDocuments, http.StatusNotFound, "not_found"},
		{"validation", apperror.Validation("name", "name is required"), http.StatusUnprocessableEntity, "validation"},
		{"conflict", apperror.Conflict("already resolved"), http.StatusConflict, "conflict"},
		{"forbidden", apperror.Forbidden("nope"), http.StatusForbidden, "forbidden"},
		{"unauthorized", apperror.Unauthorized("who are you"), http.StatusUnauthorized, "unauthorized"},
		{"unknown error", errors.New("disk on fire"), http.StatusInternalServerError, "internal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeError(w, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}

			var resp errorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("response is not JSON: %v", err)
			}
			if resp.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", resp.Error, tt.wantCode)
			}
			if resp.Message == "" {
				t.Error("message should never be empty")
			}
		})
	}
}

func TestWriteErrorHidesInternalDetails(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(w, errors.New("pg: connection refused at 10.0.0.5"))

	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Error("internal error details leaked to the client")
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	for _, body := range []string{"", "{", `{"a":1}{"b":2}`, `[1,2,3]extra`} {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		w := httptest.NewRecorder()
		var dst map[string]any
		if err := decodeJSON(w, r, &dst); err == nil {
			t.Errorf("decodeJSON(%q) should fail", body)
		}
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"needsDeleting":true}`))
	w := httptest.NewRecorder()
	var dst struct {
		Name string `json:"name"`
	}
	if err := decodeJSON(w, r, &dst); err == nil {
		t.Error("unknown field should be rejected")
	}
}
