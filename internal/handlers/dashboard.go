// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"birdatlas/internal/analytics"
	"birdatlas/internal/apperror"
	"birdatlas/internal/auth"
	"birdatlas/internal/middleware"
	"birdatlas/internal/region"
	"birdatlas/internal/session"
	"birdatlas/internal/store"
)

// Dashboard serves the editor dashboard's session-backed reads. A bearer
// token opens a session; subsequent dashboard requests carry only the
// session cookie.
type Dashboard struct {
	regions   *region.Registry
	sessions  *session.Store
	hotspots  *store.HotspotStore
	revisions *store.RevisionStore
	photos    *store.PhotoBatchStore
	views     *analytics.Store
}

// NewDashboard creates the dashboard handler group.
func NewDashboard(regions *region.Registry, sessions *session.Store, hotspots *store.HotspotStore, revisions *store.RevisionStore, photos *store.PhotoBatchStore, views *analytics.Store) *Dashboard {
	return &Dashboard{
		regions:   regions,
		sessions:  sessions,
		hotspots:  hotspots,
		revisions: revisions,
		photos:    photos,
		views:     views,
	}
}

// Login exchanges validated bearer claims for a dashboard session cookie.
// Runs behind Authenticate and RequireEditor.
func (d *Dashboard) Login(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromCtx(r.Context())

	_, err := d.sessions.Create(r.Context(), w, &session.Data{
		Subject: claims.Subject,
		Name:    claims.Name,
		Email:   claims.Email,
		Role:    claims.Role,
		Regions: claims.Regions,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

// Logout destroys the dashboard session.
func (d *Dashboard) Logout(w http.ResponseWriter, r *http.Request) {
	if err := d.sessions.Destroy(r.Context(), w, r); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w)
}

// Me serves the session identity for the dashboard shell.
func (d *Dashboard) Me(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// regionSummary is one assigned region's pending-work snapshot.
type regionSummary struct {
	Code             string `json:"code"`
	Name             string `json:"name"`
	HotspotCount     int64  `json:"hotspotCount"`
	PendingRevisions int64  `json:"pendingRevisions"`
	PendingPhotos    int64  `json:"pendingPhotos"`
}

// Summary serves per-region pending counts for the session's assigned
// regions. Admins get every state that has pending work.
func (d *Dashboard) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)
	if sess == nil {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	pendingRevs, err := d.revisions.CountPendingByState(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	pendingPhotos, err := d.photos.CountPendingByState(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	var codes []string
	if sess.Role == auth.RoleAdmin {
		seen := make(map[string]bool)
		for code := range pendingRevs {
			seen[code] = true
		}
		for code := range pendingPhotos {
			if !seen[code] {
				codes = append(codes, code)
			}
		}
		for code := range pendingRevs {
			codes = append(codes, code)
		}
	} else {
		codes = sess.Regions
	}

	summaries := make([]regionSummary, 0, len(codes))
	for _, codeStr := range codes {
		reg, ok := d.regions.Get(codeStr)
		if !ok {
			continue
		}
		code, err := region.ParseCode(codeStr)
		if err != nil {
			continue
		}
		count, err := d.hotspots.CountByRegion(ctx, code)
		if err != nil {
			writeError(w, err)
			return
		}
		summaries = append(summaries, regionSummary{
			Code:             codeStr,
			Name:             reg.DetailedName(),
			HotspotCount:     count,
			PendingRevisions: pendingForCode(pendingRevs, code),
			PendingPhotos:    pendingForCode(pendingPhotos, code),
		})
	}

	writeJSON(w, http.StatusOK, summaries)
}

// Views serves the monthly pageview report. Without a region it lists
// every bucket of one month; with ?region it returns that region's
// month-by-month series for the year.
func (d *Dashboard) Views(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if middleware.SessionFromCtx(ctx) == nil {
		writeError(w, apperror.Unauthorized("no active session"))
		return
	}

	now := time.Now()
	year := queryInt(r, "year", now.Year())
	month := queryInt(r, "month", int(now.Month()))
	if year < 2000 || year > now.Year()+1 {
		writeError(w, apperror.Validation("year", "year out of range"))
		return
	}
	if month < 1 || month > 12 {
		writeError(w, apperror.Validation("month", "month must be 1-12"))
		return
	}

	if regionCode := r.URL.Query().Get("region"); regionCode != "" {
		if _, ok := d.regions.Get(regionCode); !ok {
			writeError(w, apperror.NotFound("region", regionCode))
			return
		}
		series, err := d.views.RegionSeries(ctx, regionCode, year)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, series)
		return
	}

	report, err := d.views.MonthlyReport(ctx, year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// queryInt reads an integer query parameter, falling back when absent or
// malformed.
func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// pendingForCode sums the per-state pending counts that fall under the
// given region code.
func pendingForCode(byState map[string]int64, code region.Code) int64 {
	var total int64
	for stateCode, n := range byState {
		state, err := region.ParseCode(stateCode)
		if err != nil {
			continue
		}
		if code.Contains(state) || state.Contains(code) {
			total += n
		}
	}
	return total
}
