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
	"birdatlas/internal/markdown"
	"birdatlas/internal/middleware"
	"birdatlas/internal/models"
	"birdatlas/internal/region"
	"birdatlas/internal/slug"
	"birdatlas/internal/store"
)

// Content groups the editor CRUD endpoints for hotspot groups, birding
// drives, and articles. Membership back-references and denormalized
// region lists are the stores' job; these handlers only validate, check
// scope, and revalidate caches.
type Content struct {
	regions   *region.Registry
	hotspots  *store.HotspotStore
	groups    *store.GroupStore
	drives    *store.DriveStore
	articles  *store.ArticleStore
	respCache *cache.ResponseCache
}

// NewContent creates the content handler group.
func NewContent(regions *region.Registry, hotspots *store.HotspotStore, groups *store.GroupStore, drives *store.DriveStore, articles *store.ArticleStore, respCache *cache.ResponseCache) *Content {
	return &Content{
		regions:   regions,
		hotspots:  hotspots,
		groups:    groups,
		drives:    drives,
		articles:  articles,
		respCache: respCache,
	}
}

// requireMemberScope verifies that every referenced hotspot exists and
// that the caller may edit each one's region.
func (c *Content) requireMemberScope(r *http.Request, claims *auth.Claims, ids []string) ([]models.Hotspot, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	members, err := c.hotspots.ByLocationIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	found := make(map[string]bool, len(members))
	for i := range members {
		found[members[i].LocationID] = true
		if err := requireScope(claims, deepestCode(&members[i])); err != nil {
			return nil, err
		}
	}
	for _, id := range ids {
		if !found[id] {
			return nil, apperror.Validation("hotspotIds", "unknown hotspot "+id)
		}
	}
	return members, nil
}

// invalidateCodes revalidates region listings and each member hotspot's
// page.
func (c *Content) invalidateCodes(r *http.Request, codes []string, memberIDs []string) {
	ctx := r.Context()
	c.respCache.InvalidateRegions(ctx, codes)
	for _, id := range memberIDs {
		c.respCache.InvalidateLocation(ctx, id, nil)
	}
}

// --- Groups ---

// CreateGroup creates a hotspot group and wires its back-references.
func (c *Content) CreateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	var g models.Group
	if err := decodeJSON(w, r, &g); err != nil {
		writeError(w, err)
		return
	}
	if err := validateEntityName("name", g.Name); err != nil {
		writeError(w, err)
		return
	}
	if err := validateSection("about", g.About); err != nil {
		writeError(w, err)
		return
	}
	if _, err := c.requireMemberScope(r, claims, g.HotspotIDs); err != nil {
		writeError(w, err)
		return
	}

	g.ID = primitive.NilObjectID
	if g.Slug == "" {
		g.Slug = slug.WithFallback(g.Name, primitive.NewObjectID().Hex())
	}
	g.Slug = slug.MakeUnique(g.Slug, func(s string) bool {
		existing, err := c.groups.GetBySlug(ctx, s)
		return err == nil && existing != nil
	})

	if err := c.groups.Create(ctx, &g); err != nil {
		writeError(w, err)
		return
	}

	created, err := c.groups.Get(ctx, g.ID)
	if err == nil && created != nil {
		g = *created
	}
	c.invalidateCodes(r, append(append([]string{}, g.StateCodes...), g.CountyCodes...), g.HotspotIDs)
	writeJSON(w, http.StatusCreated, &g)
}

// UpdateGroup replaces a group and reconciles its membership, including
// removing back-references from dropped members.
func (c *Content) UpdateGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.NotFound("group", chi.URLParam(r, "id")))
		return
	}

	previous, err := c.groups.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if previous == nil {
		writeError(w, apperror.NotFound("group", id.Hex()))
		return
	}

	var g models.Group
	if err := decodeJSON(w, r, &g); err != nil {
		writeError(w, err)
		return
	}
	g.ID = id
	g.CreatedAt = previous.CreatedAt
	if err := validateEntityName("name", g.Name); err != nil {
		writeError(w, err)
		return
	}
	if err := validateSection("about", g.About); err != nil {
		writeError(w, err)
		return
	}
	if g.Slug == "" {
		g.Slug = previous.Slug
	}
	if g.Slug != previous.Slug {
		g.Slug = slug.MakeUnique(g.Slug, func(s string) bool {
			existing, err := c.groups.GetBySlug(ctx, s)
			return err == nil && existing != nil && existing.ID != id
		})
	}

	// Scope covers both the new membership and anything being dropped.
	if _, err := c.requireMemberScope(r, claims, g.HotspotIDs); err != nil {
		writeError(w, err)
		return
	}
	if _, err := c.requireMemberScope(r, claims, previous.HotspotIDs); err != nil {
		writeError(w, err)
		return
	}

	if err := c.groups.Update(ctx, &g); err != nil {
		writeError(w, err)
		return
	}

	updated, err := c.groups.Get(ctx, id)
	if err == nil && updated != nil {
		g = *updated
	}
	codes := append(append([]string{}, g.StateCodes...), g.CountyCodes...)
	codes = append(codes, previous.StateCodes...)
	codes = append(codes, previous.CountyCodes...)
	members := append(append([]string{}, g.HotspotIDs...), previous.HotspotIDs...)
	c.invalidateCodes(r, codes, members)
	writeJSON(w, http.StatusOK, &g)
}

// DeleteGroup removes a group and clears its back-references.
func (c *Content) DeleteGroup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.NotFound("group", chi.URLParam(r, "id")))
		return
	}

	g, err := c.groups.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if g == nil {
		writeError(w, apperror.NotFound("group", id.Hex()))
		return
	}
	if _, err := c.requireMemberScope(r, claims, g.HotspotIDs); err != nil {
		writeError(w, err)
		return
	}

	if err := c.groups.Delete(ctx, id); err != nil {
		writeError(w, err)
		return
	}

	c.invalidateCodes(r, append(append([]string{}, g.StateCodes...), g.CountyCodes...), g.HotspotIDs)
	writeSuccess(w)
}

// GetGroupBySlug serves one group page.
func (c *Content) GetGroupBySlug(w http.ResponseWriter, r *http.Request) {
	g, err := c.groups.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	if g == nil {
		writeError(w, apperror.NotFound("group", chi.URLParam(r, "slug")))
		return
	}
	setCDNHeaders(w)
	writeJSON(w, http.StatusOK, g)
}

// --- Drives ---

// validateDrive checks a drive's required fields.
func (c *Content) validateDrive(d *models.Drive) error {
	if err := validateEntityName("name", d.Name); err != nil {
		return err
	}
	if err := validateSection("about", d.About); err != nil {
		return err
	}
	if _, ok := c.regions.StateByCode(d.StateCode); !ok {
		return apperror.Validation("stateCode", "a valid state code is required")
	}
	if len(d.Entries) == 0 {
		return apperror.Validation("entries", "a drive needs at least one stop")
	}
	return nil
}

// CreateDrive creates a birding drive.
func (c *Content) CreateDrive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	var d models.Drive
	if err := decodeJSON(w, r, &d); err != nil {
		writeError(w, err)
		return
	}
	if err := c.validateDrive(&d); err != nil {
		writeError(w, err)
		return
	}
	if err := requireScope(claims, d.StateCode); err != nil {
		writeError(w, err)
		return
	}
	if _, err := c.requireMemberScope(r, claims, d.HotspotIDs()); err != nil {
		writeError(w, err)
		return
	}

	d.ID = primitive.NilObjectID
	if d.Slug == "" {
		d.Slug = slug.WithFallback(d.Name, primitive.NewObjectID().Hex())
	}
	d.Slug = slug.MakeUnique(d.Slug, func(s string) bool {
		existing, err := c.drives.GetBySlug(ctx, d.StateCode, s)
		return err == nil && existing != nil
	})

	if err := c.drives.Create(ctx, &d); err != nil {
		writeError(w, err)
		return
	}

	created, err := c.drives.Get(ctx, d.ID)
	if err == nil && created != nil {
		d = *created
	}
	c.invalidateCodes(r, append([]string{d.StateCode}, d.CountyCodes...), d.HotspotIDs())
	writeJSON(w, http.StatusCreated, &d)
}

// UpdateDrive replaces a drive and reconciles its stops.
func (c *Content) UpdateDrive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.NotFound("drive", chi.URLParam(r, "id")))
		return
	}

	previous, err := c.drives.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if previous == nil {
		writeError(w, apperror.NotFound("drive", id.Hex()))
		return
	}

	var d models.Drive
	if err := decodeJSON(w, r, &d); err != nil {
		writeError(w, err)
		return
	}
	d.ID = id
	d.CreatedAt = previous.CreatedAt
	if err := c.validateDrive(&d); err != nil {
		writeError(w, err)
		return
	}
	if d.Slug == "" {
		d.Slug = previous.Slug
	}
	if d.Slug != previous.Slug || d.StateCode != previous.StateCode {
		d.Slug = slug.MakeUnique(d.Slug, func(s string) bool {
			existing, err := c.drives.GetBySlug(ctx, d.StateCode, s)
			return err == nil && existing != nil && existing.ID != id
		})
	}
	if err := requireScope(claims, d.StateCode); err != nil {
		writeError(w, err)
		return
	}
	if _, err := c.requireMemberScope(r, claims, d.HotspotIDs()); err != nil {
		writeError(w, err)
		return
	}
	if _, err := c.requireMemberScope(r, claims, previous.HotspotIDs()); err != nil {
		writeError(w, err)
		return
	}

	if err := c.drives.Update(ctx, &d); err != nil {
		writeError(w, err)
		return
	}

	updated, err := c.drives.Get(ctx, id)
	if err == nil && updated != nil {
		d = *updated
	}
	codes := append([]string{d.StateCode, previous.StateCode}, d.CountyCodes...)
	codes = append(codes, previous.CountyCodes...)
	members := append(d.HotspotIDs(), previous.HotspotIDs()...)
	c.invalidateCodes(r, codes, members)
	writeJSON(w, http.StatusOK, &d)
}

// DeleteDrive removes a drive and clears its back-references.
func (c *Content) DeleteDrive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.NotFound("drive", chi.URLParam(r, "id")))
		return
	}

	d, err := c.drives.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if d == nil {
		writeError(w, apperror.NotFound("drive", id.Hex()))
		return
	}
	if err := requireScope(claims, d.StateCode); err != nil {
		writeError(w, err)
		return
	}

	if err := c.drives.Delete(ctx, id); err != nil {
		writeError(w, err)
		return
	}

	c.invalidateCodes(r, append([]string{d.StateCode}, d.CountyCodes...), d.HotspotIDs())
	writeSuccess(w)
}

// GetDriveBySlug serves one drive page.
func (c *Content) GetDriveBySlug(w http.ResponseWriter, r *http.Request) {
	d, err := c.drives.GetBySlug(r.Context(), chi.URLParam(r, "stateCode"), chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}
	if d == nil {
		writeError(w, apperror.NotFound("drive", chi.URLParam(r, "slug")))
		return
	}
	setCDNHeaders(w)
	writeJSON(w, http.StatusOK, d)
}

// --- Articles ---

// validateArticle checks an article's required fields and region codes.
func (c *Content) validateArticle(claims *auth.Claims, a *models.Article) error {
	if err := validateEntityName("title", a.Title); err != nil {
		return err
	}
	if err := validateSection("body", a.Body); err != nil {
		return err
	}
	if len(a.RegionCodes) == 0 {
		return apperror.Validation("regionCodes", "an article needs at least one region")
	}
	for _, codeStr := range a.RegionCodes {
		if _, ok := c.regions.Get(codeStr); !ok {
			return apperror.Validation("regionCodes", "unknown region "+codeStr)
		}
		if err := requireScope(claims, codeStr); err != nil {
			return err
		}
	}
	return nil
}

// CreateArticle creates an article.
func (c *Content) CreateArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	var a models.Article
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, err)
		return
	}
	if err := c.validateArticle(claims, &a); err != nil {
		writeError(w, err)
		return
	}

	a.ID = primitive.NilObjectID
	if a.Slug == "" {
		a.Slug = slug.WithFallback(a.Title, primitive.NewObjectID().Hex())
	}
	if a.By == "" {
		a.By = resolvedBy(claims)
	}

	if err := c.articles.Create(ctx, &a); err != nil {
		writeError(w, err)
		return
	}

	c.respCache.InvalidateRegions(ctx, a.RegionCodes)
	writeJSON(w, http.StatusCreated, &a)
}

// UpdateArticle replaces an article.
func (c *Content) UpdateArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.NotFound("article", chi.URLParam(r, "id")))
		return
	}

	previous, err := c.articles.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if previous == nil {
		writeError(w, apperror.NotFound("article", id.Hex()))
		return
	}

	var a models.Article
	if err := decodeJSON(w, r, &a); err != nil {
		writeError(w, err)
		return
	}
	a.ID = id
	a.CreatedAt = previous.CreatedAt
	if err := c.validateArticle(claims, &a); err != nil {
		writeError(w, err)
		return
	}
	if a.Slug == "" {
		a.Slug = previous.Slug
	}

	if err := c.articles.Update(ctx, &a); err != nil {
		writeError(w, err)
		return
	}

	c.respCache.InvalidateRegions(ctx, append(append([]string{}, a.RegionCodes...), previous.RegionCodes...))
	writeJSON(w, http.StatusOK, &a)
}

// DeleteArticle removes an article.
func (c *Content) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := middleware.ClaimsFromCtx(ctx)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.NotFound("article", chi.URLParam(r, "id")))
		return
	}

	a, err := c.articles.Get(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	if a == nil {
		writeError(w, apperror.NotFound("article", id.Hex()))
		return
	}
	for _, codeStr := range a.RegionCodes {
		if err := requireScope(claims, codeStr); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := c.articles.Delete(ctx, id); err != nil {
		writeError(w, err)
		return
	}

	c.respCache.InvalidateRegions(ctx, a.RegionCodes)
	writeSuccess(w)
}

// GetArticle serves one article with its body rendered to HTML.
func (c *Content) GetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, apperror.NotFound("article", chi.URLParam(r, "id")))
		return
	}

	a, err := c.articles.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if a == nil {
		writeError(w, apperror.NotFound("article", id.Hex()))
		return
	}

	bodyHTML, err := markdown.ToHTML(a.Body)
	if err != nil {
		writeError(w, err)
		return
	}

	setCDNHeaders(w)
	writeJSON(w, http.StatusOK, struct {
		*models.Article
		BodyHTML string `json:"bodyHtml"`
	}{a, bodyHTML})
}
