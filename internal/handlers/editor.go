// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"birdatlas/internal/apperror"
	"birdatlas/internal/auth"
	"birdatlas/internal/cache"
	"birdatlas/internal/middleware"
	"birdatlas/internal/models"
	"birdatlas/internal/region"
	"birdatlas/internal/store"
)

// Editor groups the authenticated hotspot and moderation endpoints.
// Every mutation checks the caller's region scope before writing and
// revalidates the response cache after.
type Editor struct {
	regions   *region.Registry
	hotspots  *store.HotspotStore
	revisions *store.RevisionStore
	photos    *store.PhotoBatchStore
	respCache *cache.ResponseCache
}

// NewEditor creates the editor handler group.
func NewEditor(regions *region.Registry, hotspots *store.HotspotStore, revisions *store.RevisionStore, photos *store.PhotoBatchStore, respCache *cache.ResponseCache) *Editor {
	return &Editor{
		regions:   regions,
		hotspots:  hotspots,
		revisions: revisions,
		photos:    photos,
		respCache: respCache,
	}
}

// requireScope checks that the caller may edit content in the given
// region code.
func requireScope(claims *auth.Claims, codeStr string) error {
	code, err := region.ParseCode(codeStr)
	if err != nil {
		return apperror.Validation("regionCode", "invalid region code "+codeStr)
	}
	if !claims.CanEdit(code) {
		return apperror.Forbidden("your account cannot edit content in " + codeStr)
	}
	return nil
}

// deepestCode returns the most specific region code a hotspot carries.
func deepestCode(h *models.Hotspot) string {
	if h.CountyCode != "" {
		return h.CountyCode
	}
	return h.StateCode
}

// resolvedBy is the reviewer name recorded on moderation decisions.
func resolvedBy(claims *auth.Claims) string {
	if claims.Name != "" {
		return claims.Name
	}
	return claims.Subject
}

// validateHotspot checks a hotspot's required fields and that its region
// codes form a consistent, known chain.
func (e *Editor) validateHotspot(h *models.Hotspot) error {
	if err := validateEntityName("name", h.Name); err != nil {
		return err
	}
	for _, sec := range []struct{ field, value string }{
		{"about", h.About}, {"birds", h.Birds}, {"tips", h.Tips}, {"hikes", h.Hikes},
	} {
		if err := validateSection(sec.field, sec.value); err != nil {
			return err
		}
	}

	state, err := region.ParseCode(h.StateCode)
	if err != nil || state.Level() != region.LevelState {
		return apperror.Validation("stateCode", "a valid state code is required")
	}
	if _, ok := e.regions.StateByCode(h.StateCode); !ok {
		return apperror.Validation("stateCode", "unknown state "+h.StateCode)
	}
	if h.CountryCode != state.CountryCode() {
		return apperror.Validation("countryCode", "country code does not match the state")
	}
	if h.CountyCode != "" {
		county, err := region.ParseCode(h.CountyCode)
		if err != nil || county.Level() != region.LevelCounty {
			return apperror.Validation("countyCode", "invalid county code")
		}
		if !state.IsAncestorOf(county) {
			return apperror.Validation("countyCode", "county is not in the state")
		}
		if _, ok := e.regions.CountyByCode(h.CountyCode); !ok {
			return apperror.Validation("countyCode", "unknown county "+h.CountyCode)
		}
	}
	return nil
}

// UpsertHotspot creates or replaces one hotspot. The location id comes
// from the URL, never the body.
func (e *Editor) UpsertHotspot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	var h models.Hotspot
	if err := decodeJSON(w, r, &h); err != nil {
		writeError(w, err)
		return
	}
	h.LocationID = chi.URLParam(r, "locationId")

	if err := e.validateHotspot(&h); err != nil {
		writeError(w, err)
		return
	}
	if err := requireScope(claims, deepestCode(&h)); err != nil {
		writeError(w, err)
		return
	}

	// Group/drive membership and citations are maintained by their own
	// stores, never the edit form. Carry them over from the stored
	// document so a full replace cannot drop or forge them.
	existing, err := e.hotspots.Get(ctx, h.LocationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if existing != nil {
		h.GroupIDs = existing.GroupIDs
		h.DriveIDs = existing.DriveIDs
		h.Citations = existing.Citations
		h.CreatedAt = existing.CreatedAt
	} else {
		h.GroupIDs = nil
		h.DriveIDs = nil
		h.Citations = nil
	}

	if err := e.hotspots.Upsert(ctx, &h); err != nil {
		writeError(w, err)
		return
	}

	e.respCache.InvalidateLocation(ctx, h.LocationID, h.RegionCodes())
	writeJSON(w, http.StatusOK, &h)
}

// GetHotspot serves one hotspot for the edit form, uncached and with the
// raw markdown sections.
func (e *Editor) GetHotspot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locationID := chi.URLParam(r, "locationId")

	h, err := e.hotspots.Get(ctx, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h == nil {
		writeError(w, apperror.NotFound("hotspot", locationID))
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// DeleteHotspot removes one hotspot outright. Region-scoped like every
// other mutation.
func (e *Editor) DeleteHotspot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)
	locationID := chi.URLParam(r, "locationId")

	h, err := e.hotspots.Get(ctx, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h == nil {
		writeError(w, apperror.NotFound("hotspot", locationID))
		return
	}
	if err := requireScope(claims, deepestCode(h)); err != nil {
		writeError(w, err)
		return
	}

	if err := e.hotspots.Delete(ctx, locationID); err != nil {
		writeError(w, err)
		return
	}

	e.respCache.InvalidateLocation(ctx, locationID, h.RegionCodes())
	writeSuccess(w)
}

// deletionRequest toggles the needs-deleting flag.
type deletionRequest struct {
	NeedsDeleting bool `json:"needsDeleting"`
}

// MarkHotspotDeletion flags a hotspot for the cleanup cron instead of
// deleting it immediately. Cleanup only removes flagged hotspots that
// also have no content, so a flagged hotspot with text stays put.
func (e *Editor) MarkHotspotDeletion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)
	locationID := chi.URLParam(r, "locationId")

	var req deletionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	h, err := e.hotspots.Get(ctx, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h == nil {
		writeError(w, apperror.NotFound("hotspot", locationID))
		return
	}
	if err := requireScope(claims, deepestCode(h)); err != nil {
		writeError(w, err)
		return
	}

	if err := e.hotspots.SetNeedsDeleting(ctx, locationID, req.NeedsDeleting); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

// ListRevisions serves pending revisions for one state, oldest first.
// Listing every state at once is admin only.
func (e *Editor) ListRevisions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)
	stateCode := r.URL.Query().Get("state")

	if stateCode == "" {
		if claims.Role != auth.RoleAdmin {
			writeError(w, apperror.Forbidden("listing all states requires admin"))
			return
		}
	} else if err := requireScope(claims, stateCode); err != nil {
		writeError(w, err)
		return
	}

	revisions, err := e.revisions.ListPending(ctx, stateCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, revisions)
}

// revisionForReview loads a revision and checks the caller's scope over
// it. Revisions missing a state code predate denormalization and are
// admin only.
func (e *Editor) revisionForReview(r *http.Request, claims *auth.Claims) (primitive.ObjectID, *models.Revision, error) {
	idParam := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		return primitive.NilObjectID, nil, apperror.NotFound("revision", idParam)
	}

	rev, err := e.revisions.Get(r.Context(), id)
	if err != nil {
		return primitive.NilObjectID, nil, err
	}
	if rev == nil {
		return primitive.NilObjectID, nil, apperror.NotFound("revision", idParam)
	}

	if rev.StateCode == "" {
		if claims.Role != auth.RoleAdmin {
			return primitive.NilObjectID, nil, apperror.Forbidden("reviewing this revision requires admin")
		}
	} else if err := requireScope(claims, rev.StateCode); err != nil {
		return primitive.NilObjectID, nil, err
	}

	return id, rev, nil
}

// ApproveRevision applies a pending revision to its hotspot.
func (e *Editor) ApproveRevision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, rev, err := e.revisionForReview(r, claims)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := e.revisions.Approve(ctx, id, resolvedBy(claims)); err != nil {
		writeError(w, err)
		return
	}

	e.invalidateHotspot(r, rev.LocationID)
	writeSuccess(w)
}

// RejectRevision marks a pending revision rejected without touching the
// hotspot.
func (e *Editor) RejectRevision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, _, err := e.revisionForReview(r, claims)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := e.revisions.Reject(ctx, id, resolvedBy(claims)); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

// ListPhotoBatches serves pending photo batches for one state. Same
// scoping rules as revisions.
func (e *Editor) ListPhotoBatches(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)
	stateCode := r.URL.Query().Get("state")

	if stateCode == "" {
		if claims.Role != auth.RoleAdmin {
			writeError(w, apperror.Forbidden("listing all states requires admin"))
			return
		}
	} else if err := requireScope(claims, stateCode); err != nil {
		writeError(w, err)
		return
	}

	batches, err := e.photos.ListPending(ctx, stateCode)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, batches)
}

// batchForReview loads a photo batch and checks the caller's scope.
func (e *Editor) batchForReview(r *http.Request, claims *auth.Claims) (primitive.ObjectID, *models.PhotoBatch, error) {
	idParam := chi.URLParam(r, "batchId")
	id, err := primitive.ObjectIDFromHex(idParam)
	if err != nil {
		return primitive.NilObjectID, nil, apperror.NotFound("photo batch", idParam)
	}

	batch, err := e.photos.Get(r.Context(), id)
	if err != nil {
		return primitive.NilObjectID, nil, err
	}
	if batch == nil {
		return primitive.NilObjectID, nil, apperror.NotFound("photo batch", idParam)
	}

	if batch.StateCode == "" {
		if claims.Role != auth.RoleAdmin {
			return primitive.NilObjectID, nil, apperror.Forbidden("reviewing this batch requires admin")
		}
	} else if err := requireScope(claims, batch.StateCode); err != nil {
		return primitive.NilObjectID, nil, err
	}

	return id, batch, nil
}

// ApprovePhoto accepts one image out of a pending batch and attaches it
// to the hotspot.
func (e *Editor) ApprovePhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, batch, err := e.batchForReview(r, claims)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := e.photos.ApproveImage(ctx, id, chi.URLParam(r, "imageId")); err != nil {
		writeError(w, err)
		return
	}

	e.invalidateHotspot(r, batch.LocationID)
	writeSuccess(w)
}

// RejectPhoto declines one image out of a pending batch.
func (e *Editor) RejectPhoto(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, _, err := e.batchForReview(r, claims)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := e.photos.RejectImage(ctx, id, chi.URLParam(r, "imageId")); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

// invalidateHotspot revalidates the cached responses for a hotspot after
// a moderation decision changed it.
func (e *Editor) invalidateHotspot(r *http.Request, locationID string) {
	ctx := r.Context()
	h, err := e.hotspots.Get(ctx, locationID)
	if err != nil || h == nil {
		e.respCache.InvalidateLocation(ctx, locationID, nil)
		return
	}
	e.respCache.InvalidateLocation(ctx, locationID, h.RegionCodes())
}
