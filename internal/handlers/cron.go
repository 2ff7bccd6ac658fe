// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"crypto/subtle"
	"net/http"

	"birdatlas/internal/apperror"
	"birdatlas/internal/cache"
	"birdatlas/internal/models"
	"birdatlas/internal/notify"
	"birdatlas/internal/region"
	"birdatlas/internal/store"
)

// Cron groups the scheduler-invoked maintenance endpoints. Callers
// authenticate with a shared secret in the query string; the platform
// scheduler cannot send headers.
type Cron struct {
	secret    string
	hotspots  *store.HotspotStore
	revisions *store.RevisionStore
	photos    *store.PhotoBatchStore
	profiles  *store.ProfileStore
	respCache *cache.ResponseCache
	notifier  notify.Notifier
}

// NewCron creates the cron handler group.
func NewCron(secret string, hotspots *store.HotspotStore, revisions *store.RevisionStore, photos *store.PhotoBatchStore, profiles *store.ProfileStore, respCache *cache.ResponseCache, notifier notify.Notifier) *Cron {
	return &Cron{
		secret:    secret,
		hotspots:  hotspots,
		revisions: revisions,
		photos:    photos,
		profiles:  profiles,
		respCache: respCache,
		notifier:  notifier,
	}
}

// authorize checks the shared secret with a constant-time compare.
func (c *Cron) authorize(r *http.Request) error {
	if c.secret == "" {
		return apperror.Forbidden("cron endpoints are disabled")
	}
	given := r.URL.Query().Get("secret")
	if subtle.ConstantTimeCompare([]byte(given), []byte(c.secret)) != 1 {
		return apperror.Unauthorized("bad cron secret")
	}
	return nil
}

// Cleanup deletes hotspots that are flagged for deletion and hold no
// content. Flagged hotspots that still carry text or images survive.
func (c *Cron) Cleanup(w http.ResponseWriter, r *http.Request) {
	if err := c.authorize(r); err != nil {
		writeError(w, err)
		return
	}

	deleted, err := c.hotspots.DeleteStale(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if deleted > 0 {
		c.respCache.InvalidateAll(r.Context())
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "deleted": deleted})
}

// Digest sends each daily subscriber a summary of the pending review work
// in their subscribed regions. Subscribers with nothing pending get no
// notification.
func (c *Cron) Digest(w http.ResponseWriter, r *http.Request) {
	if err := c.authorize(r); err != nil {
		writeError(w, err)
		return
	}
	ctx := r.Context()

	pendingRevs, err := c.revisions.CountPendingByState(ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	pendingPhotos, err := c.photos.CountPendingByState(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	subscribers, err := c.profiles.DailySubscribers(ctx)
	if err != nil {
		writeError(w, err)
		return
	}

	notified := 0
	for i := range subscribers {
		digests := buildDigests(&subscribers[i], pendingRevs, pendingPhotos)
		if len(digests) == 0 || subscribers[i].Email == "" {
			continue
		}
		c.notifier.SendDigest(ctx, subscribers[i].Email, digests)
		notified++
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "notified": notified})
}

// buildDigests collects the pending counts that fall under one
// subscriber's region subscriptions. Counts are keyed by state, so a
// country subscription sweeps up its states and a county subscription
// matches the state it sits in.
func buildDigests(p *models.Profile, pendingRevs, pendingPhotos map[string]int64) []notify.Digest {
	var digests []notify.Digest
	for _, codeStr := range p.Subscriptions {
		code, err := region.ParseCode(codeStr)
		if err != nil {
			continue
		}

		var revs, photos int64
		for stateCode, n := range pendingRevs {
			if state, err := region.ParseCode(stateCode); err == nil &&
				(code.Contains(state) || state.Contains(code)) {
				revs += n
			}
		}
		for stateCode, n := range pendingPhotos {
			if state, err := region.ParseCode(stateCode); err == nil &&
				(code.Contains(state) || state.Contains(code)) {
				photos += n
			}
		}

		if revs > 0 || photos > 0 {
			digests = append(digests, notify.Digest{
				RegionCode:       codeStr,
				PendingRevisions: revs,
				PendingPhotos:    photos,
			})
		}
	}
	return digests
}
