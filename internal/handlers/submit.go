// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"birdatlas/internal/apperror"
	"birdatlas/internal/models"
	"birdatlas/internal/notify"
	"birdatlas/internal/storage"
	"birdatlas/internal/store"
)

// maxUploadBytes caps one photo submission's multipart body.
const maxUploadBytes = 32 << 20

// Submissions groups the public write endpoints: suggested edits and
// photo uploads. Both are rate limited at the router and create pending
// review records; nothing a visitor sends goes live without moderation.
type Submissions struct {
	hotspots  *store.HotspotStore
	revisions *store.RevisionStore
	photos    *store.PhotoBatchStore
	storage   *storage.Client
	notifier  notify.Notifier
}

// NewSubmissions creates the public submission handler group. storageClient
// may be nil if S3 is not configured; photo uploads are then rejected.
func NewSubmissions(hotspots *store.HotspotStore, revisions *store.RevisionStore, photos *store.PhotoBatchStore, storageClient *storage.Client, notifier notify.Notifier) *Submissions {
	return &Submissions{
		hotspots:  hotspots,
		revisions: revisions,
		photos:    photos,
		storage:   storageClient,
		notifier:  notifier,
	}
}

// suggestRequest carries a visitor's proposed edits. Absent fields mean
// "no change"; a present field is the full proposed replacement.
type suggestRequest struct {
	By    string `json:"by"`
	Email string `json:"email,omitempty"`
	Notes string `json:"notes,omitempty"`

	About *string `json:"about,omitempty"`
	Birds *string `json:"birds,omitempty"`
	Tips  *string `json:"tips,omitempty"`
	Hikes *string `json:"hikes,omitempty"`

	Roadside   *string `json:"roadside,omitempty"`
	Restrooms  *string `json:"restrooms,omitempty"`
	Accessible *string `json:"accessible,omitempty"`
	Fee        *string `json:"fee,omitempty"`
}

// Suggest accepts a proposed edit for one hotspot and stores it as a
// pending revision. The current field values are captured alongside the
// proposed ones so reviewers see exactly what the contributor diffed
// against. A proposal identical to the current value is dropped; if
// nothing remains the submission is rejected.
func (s *Submissions) Suggest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locationID := chi.URLParam(r, "locationId")

	var req suggestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if err := validateSubmitter(req.By, req.Email); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Notes) > maxNotesLen {
		writeError(w, apperror.Validation("notes", "notes are too long (max 2,000 characters)"))
		return
	}

	h, err := s.hotspots.Get(ctx, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h == nil {
		writeError(w, apperror.NotFound("hotspot", locationID))
		return
	}

	rev := models.Revision{
		LocationID: h.LocationID,
		StateCode:  h.StateCode,
		By:         strings.TrimSpace(req.By),
		Email:      strings.TrimSpace(req.Email),
		Notes:      strings.TrimSpace(req.Notes),
	}

	sections := []struct {
		field    string
		proposed *string
		current  string
		dst      **models.FieldEdit
	}{
		{"about", req.About, h.About, &rev.About},
		{"birds", req.Birds, h.Birds, &rev.Birds},
		{"tips", req.Tips, h.Tips, &rev.Tips},
		{"hikes", req.Hikes, h.Hikes, &rev.Hikes},
	}
	for _, sec := range sections {
		if sec.proposed == nil || *sec.proposed == sec.current {
			continue
		}
		if err := validateSection(sec.field, *sec.proposed); err != nil {
			writeError(w, err)
			return
		}
		*sec.dst = &models.FieldEdit{Old: sec.current, New: *sec.proposed}
	}

	features := []struct {
		field    string
		proposed *string
		current  models.FeatureValue
		dst      **models.FieldEdit
	}{
		{"roadside", req.Roadside, h.Features.Roadside, &rev.Roadside},
		{"restrooms", req.Restrooms, h.Features.Restrooms, &rev.Restrooms},
		{"accessible", req.Accessible, h.Features.Accessible, &rev.Accessible},
		{"fee", req.Fee, h.Features.Fee, &rev.Fee},
	}
	for _, feat := range features {
		if feat.proposed == nil || *feat.proposed == string(feat.current) {
			continue
		}
		if err := validateFeature(feat.field, *feat.proposed); err != nil {
			writeError(w, err)
			return
		}
		*feat.dst = &models.FieldEdit{Old: string(feat.current), New: *feat.proposed}
	}

	if err := s.revisions.Create(ctx, &rev); err != nil {
		writeError(w, err)
		return
	}

	s.notifier.SubmissionReceived(ctx, "revision", h.LocationID, rev.By)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": rev.ID.Hex()})
}

// allowedPhotoTypes are the content types accepted for photo uploads.
var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// UploadPhotos accepts a multipart photo submission for one hotspot.
// Originals go to object storage immediately; the photos stay invisible
// until an editor approves them out of the pending batch.
func (s *Submissions) UploadPhotos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locationID := chi.URLParam(r, "locationId")

	if s.storage == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{
			Error:   "unavailable",
			Message: "photo uploads are not available right now",
		})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, apperror.Validation("body", "invalid multipart upload"))
		return
	}

	by := r.FormValue("by")
	email := r.FormValue("email")
	caption := r.FormValue("caption")
	if err := validateSubmitter(by, email); err != nil {
		writeError(w, err)
		return
	}
	if len(caption) > maxCaptionLen {
		writeError(w, apperror.Validation("caption", "caption is too long (max 500 characters)"))
		return
	}

	files := r.MultipartForm.File["photos"]
	if len(files) == 0 {
		writeError(w, apperror.Validation("photos", "at least one photo is required"))
		return
	}

	h, err := s.hotspots.Get(ctx, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h == nil {
		writeError(w, apperror.NotFound("hotspot", locationID))
		return
	}

	batch := models.PhotoBatch{
		LocationID: h.LocationID,
		StateCode:  h.StateCode,
		By:         strings.TrimSpace(by),
		Email:      strings.TrimSpace(email),
	}

	for _, fh := range files {
		contentType := fh.Header.Get("Content-Type")
		if !allowedPhotoTypes[contentType] {
			writeError(w, apperror.Validation("photos", "only JPEG, PNG, and WebP photos are accepted"))
			return
		}

		file, err := fh.Open()
		if err != nil {
			writeError(w, err)
			return
		}

		key := storage.UploadKey(h.LocationID, fh.Filename)
		url, err := s.storage.Upload(ctx, key, contentType, file, fh.Size)
		file.Close()
		if err != nil {
			writeError(w, err)
			return
		}

		batch.Images = append(batch.Images, models.BatchImage{
			Status: models.StatusPending,
			Image: models.Image{
				ID:          uuid.NewString(),
				SmURL:       url,
				OriginalURL: url,
				By:          batch.By,
				Email:       batch.Email,
				Caption:     strings.TrimSpace(caption),
			},
		})
	}

	if err := s.photos.Create(ctx, &batch); err != nil {
		writeError(w, err)
		return
	}

	s.notifier.SubmissionReceived(ctx, "photos", h.LocationID, batch.By)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "id": batch.ID.Hex()})
}
