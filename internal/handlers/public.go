// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"birdatlas/internal/analytics"
	"birdatlas/internal/apperror"
	"birdatlas/internal/cache"
	"birdatlas/internal/markdown"
	"birdatlas/internal/middleware"
	"birdatlas/internal/models"
	"birdatlas/internal/region"
	"birdatlas/internal/store"
)

// Public groups the read-only v1 endpoints served to the website. It
// checks the Valkey response cache before hitting MongoDB and stores the
// marshaled body on miss, so a cached hit never touches the database.
type Public struct {
	regions   *region.Registry
	hotspots  *store.HotspotStore
	groups    *store.GroupStore
	drives    *store.DriveStore
	articles  *store.ArticleStore
	respCache *cache.ResponseCache
	views     *analytics.Store
}

// NewPublic creates the public handler group.
func NewPublic(regions *region.Registry, hotspots *store.HotspotStore, groups *store.GroupStore, drives *store.DriveStore, articles *store.ArticleStore, respCache *cache.ResponseCache, views *analytics.Store) *Public {
	return &Public{
		regions:   regions,
		hotspots:  hotspots,
		groups:    groups,
		drives:    drives,
		articles:  articles,
		respCache: respCache,
		views:     views,
	}
}

// setCDNHeaders marks a public response as edge-cacheable. The s-maxage
// matches the Valkey TTL so the CDN and the response cache expire together.
func setCDNHeaders(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "public, max-age=300, s-maxage=900")
}

// hotspotResponse is the hotspot document plus its sections rendered to
// HTML and the resolved region name.
type hotspotResponse struct {
	*models.Hotspot
	AboutHTML  string `json:"aboutHtml,omitempty"`
	BirdsHTML  string `json:"birdsHtml,omitempty"`
	TipsHTML   string `json:"tipsHtml,omitempty"`
	HikesHTML  string `json:"hikesHtml,omitempty"`
	RegionName string `json:"regionName,omitempty"`
}

// Hotspot serves one hotspot page's data.
func (p *Public) Hotspot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locationID := chi.URLParam(r, "locationId")

	if cached, ok := p.respCache.Get(ctx, cache.HotspotKey(locationID)); ok {
		setCDNHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	h, err := p.hotspots.Get(ctx, locationID)
	if err != nil {
		writeError(w, err)
		return
	}
	if h == nil {
		writeError(w, apperror.NotFound("hotspot", locationID))
		return
	}

	resp := hotspotResponse{Hotspot: h}
	if resp.AboutHTML, err = markdown.ToHTML(h.About); err != nil {
		writeError(w, err)
		return
	}
	if resp.BirdsHTML, err = markdown.ToHTML(h.Birds); err != nil {
		writeError(w, err)
		return
	}
	if resp.TipsHTML, err = markdown.ToHTML(h.Tips); err != nil {
		writeError(w, err)
		return
	}
	if resp.HikesHTML, err = markdown.ToHTML(h.Hikes); err != nil {
		writeError(w, err)
		return
	}

	code := h.StateCode
	if h.CountyCode != "" {
		code = h.CountyCode
	}
	if reg, ok := p.regions.Get(code); ok {
		resp.RegionName = reg.DetailedName()
	}

	body, err := json.Marshal(resp)
	if err != nil {
		writeError(w, err)
		return
	}
	p.respCache.Set(ctx, cache.HotspotKey(locationID), body)

	setCDNHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// Regions serves the full flat region listing used by navigation menus.
// The hierarchy is embedded and immutable, so this only needs CDN caching.
func (p *Public) Regions(w http.ResponseWriter, r *http.Request) {
	setCDNHeaders(w)
	writeJSON(w, http.StatusOK, p.regions.All())
}

// hotspotSummary is the list-view projection of a hotspot.
type hotspotSummary struct {
	LocationID   string        `json:"locationId"`
	Name         string        `json:"name"`
	CountyCode   string        `json:"countyCode,omitempty"`
	Featured     *models.Image `json:"featuredImg,omitempty"`
	SpeciesCount int           `json:"species,omitempty"`
	NoContent    bool          `json:"noContent"`
}

// regionResponse is one region page: the region itself plus everything
// listed under it.
type regionResponse struct {
	*region.Region
	DetailedName string           `json:"detailedName"`
	Cities       []region.City    `json:"cities,omitempty"`
	HotspotCount int64            `json:"hotspotCount"`
	Hotspots     []hotspotSummary `json:"hotspots"`
	Groups       []models.Group   `json:"groups"`
	Drives       []models.Drive   `json:"drives,omitempty"`
	Articles     []models.Article `json:"articles"`
}

// Region serves one region page's data: the region record, its hotspots,
// and the groups, drives, and articles scoped to it.
func (p *Public) Region(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	codeParam := chi.URLParam(r, "code")

	code, err := region.ParseCode(codeParam)
	if err != nil {
		writeError(w, apperror.NotFound("region", codeParam))
		return
	}
	reg, ok := p.regions.Get(code.String())
	if !ok {
		writeError(w, apperror.NotFound("region", codeParam))
		return
	}

	if cached, ok := p.respCache.Get(ctx, cache.RegionKey(code.String())); ok {
		setCDNHeaders(w)
		w.Header().Set("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	hotspots, err := p.hotspots.ListByRegion(ctx, code)
	if err != nil {
		writeError(w, err)
		return
	}
	groups, err := p.groups.ListByRegion(ctx, code)
	if err != nil {
		writeError(w, err)
		return
	}
	articles, err := p.articles.ListByRegion(ctx, code.String())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := regionResponse{
		Region:       reg,
		DetailedName: reg.DetailedName(),
		HotspotCount: int64(len(hotspots)),
		Hotspots:     make([]hotspotSummary, 0, len(hotspots)),
		Groups:       groups,
		Articles:     articles,
	}
	for i := range hotspots {
		h := &hotspots[i]
		resp.Hotspots = append(resp.Hotspots, hotspotSummary{
			LocationID:   h.LocationID,
			Name:         h.Name,
			CountyCode:   h.CountyCode,
			Featured:     h.Featured,
			SpeciesCount: h.SpeciesCount,
			NoContent:    h.NoContent,
		})
	}

	if code.Level() == region.LevelState {
		resp.Cities = p.regions.Cities(code.String())
		if resp.Drives, err = p.drives.ListByState(ctx, code.String()); err != nil {
			writeError(w, err)
			return
		}
	}

	body, err := json.Marshal(resp)
	if err != nil {
		writeError(w, err)
		return
	}
	p.respCache.Set(ctx, cache.RegionKey(code.String()), body)

	setCDNHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.Write(body)
}

// pageviewRequest reports one qualifying page visit.
type pageviewRequest struct {
	Entity      string   `json:"entity"`
	RegionCodes []string `json:"regionCodes"`
}

// Pageview records a page visit in the monthly counters. Crawler traffic
// and signed-in editors are excluded so counts reflect public visitors.
// The response is 204 either way; the client cannot tell whether its view
// was counted.
func (p *Public) Pageview(w http.ResponseWriter, r *http.Request) {
	var req pageviewRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	entity := analytics.EntityType(req.Entity)
	switch entity {
	case analytics.EntityHotspot, analytics.EntityGroup, analytics.EntityDrive,
		analytics.EntityArticle, analytics.EntityRegion:
	default:
		writeError(w, apperror.Validation("entity", "unknown entity type"))
		return
	}

	if middleware.IsBot(r) || middleware.ClaimsFromCtx(r.Context()) != nil ||
		middleware.SessionFromCtx(r.Context()) != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := p.views.Log(r.Context(), req.RegionCodes, entity, time.Now()); err != nil {
		// Counting must never break a page; log and report success.
		slog.Error("pageview log failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}
