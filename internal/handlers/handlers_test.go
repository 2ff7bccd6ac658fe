// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handlers_test exercises the full route tree end to end against real
// MongoDB and Valkey instances. Tests are skipped when either backend is
// unavailable. Pageview tests only cover the excluded paths, so Postgres
// is not required.
package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"birdatlas/internal/analytics"
	"birdatlas/internal/auth"
	"birdatlas/internal/cache"
	"birdatlas/internal/database"
	"birdatlas/internal/handlers"
	"birdatlas/internal/models"
	"birdatlas/internal/notify"
	"birdatlas/internal/region"
	"birdatlas/internal/router"
	"birdatlas/internal/session"
	"birdatlas/internal/store"
)

const testCronSecret = "test-cron-secret"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testEnv wires the full application the way main does, against the test
// database and a dedicated Valkey DB.
type testEnv struct {
	handler   http.Handler
	db        *database.DB
	tokens    *auth.TokenService
	hotspots  *store.HotspotStore
	revisions *store.RevisionStore
	photos    *store.PhotoBatchStore
	groups    *store.GroupStore
	profiles  *store.ProfileStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	db, err := database.Connect(ctx, envOr("MONGO_URI", "mongodb://localhost:27017"), envOr("MONGO_DB", "birdatlas_test"))
	if err != nil {
		t.Skipf("skipping integration test: MongoDB not reachable: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		db.Close(ctx)
	})

	client := redis.NewClient(&redis.Options{Addr: envOr("VALKEY_ADDR", "localhost:6379"), DB: 13})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}
	client.FlushDB(context.Background())
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	regions, err := region.Load()
	if err != nil {
		t.Fatalf("load regions: %v", err)
	}
	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars", "birdatlas-test")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}

	hotspots := store.NewHotspotStore(db)
	revisions := store.NewRevisionStore(db, hotspots)
	photos := store.NewPhotoBatchStore(db, hotspots)
	groups := store.NewGroupStore(db, hotspots)
	drives := store.NewDriveStore(db, hotspots)
	articles := store.NewArticleStore(db)
	profiles := store.NewProfileStore(db)

	respCache := cache.NewResponseCache(client, time.Minute)
	sessions := session.NewStore(client, false)
	notifier := notify.NewLogNotifier(nil)

	// Pageview tests stay on the excluded paths, so the analytics store
	// never reaches its database.
	views := analytics.NewStore(nil)

	h := router.New(router.Deps{
		Tokens:      tokens,
		Sessions:    sessions,
		Public:      handlers.NewPublic(regions, hotspots, groups, drives, articles, respCache, views),
		Submissions: handlers.NewSubmissions(hotspots, revisions, photos, nil, notifier),
		Editor:      handlers.NewEditor(regions, hotspots, revisions, photos, respCache),
		Content:     handlers.NewContent(regions, hotspots, groups, drives, articles, respCache),
		Account:     handlers.NewAccount(regions, profiles),
		Dashboard:   handlers.NewDashboard(regions, sessions, hotspots, revisions, photos, views),
		Cron:        handlers.NewCron(testCronSecret, hotspots, revisions, photos, profiles, respCache, notifier),
	})

	return &testEnv{
		handler:   h,
		db:        db,
		tokens:    tokens,
		hotspots:  hotspots,
		revisions: revisions,
		photos:    photos,
		groups:    groups,
		profiles:  profiles,
	}
}

func (e *testEnv) token(t *testing.T, role string, regions []string) string {
	t.Helper()
	tok, err := e.tokens.Issue(&auth.Claims{
		Subject: "u-" + role,
		Name:    "Test " + role,
		Email:   role + "@example.com",
		Role:    role,
		Regions: regions,
	}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

// do runs one request through the router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("User-Agent", "Mozilla/5.0 (integration test)")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return body
}

// seedHotspot inserts one hotspot through the store and registers cleanup.
func (e *testEnv) seedHotspot(t *testing.T, locationID, about string) *models.Hotspot {
	t.Helper()
	h := &models.Hotspot{
		LocationID:  locationID,
		Name:        "Handler Test Marsh " + locationID,
		CountryCode: "US",
		StateCode:   "US-OH",
		CountyCode:  "US-OH-105",
		Lat:         39.6,
		Lng:         -82.9,
		About:       about,
	}
	if err := e.hotspots.Upsert(context.Background(), h); err != nil {
		t.Fatalf("seed hotspot %s: %v", locationID, err)
	}
	t.Cleanup(func() {
		e.db.Collection(database.CollHotspots).DeleteOne(context.Background(), bson.M{"_id": locationID})
	})
	return h
}

func (e *testEnv) cleanRevisions(t *testing.T, locationID string) {
	t.Helper()
	t.Cleanup(func() {
		e.db.Collection(database.CollRevisions).DeleteMany(context.Background(), bson.M{"locationId": locationID})
	})
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d, want 200", w.Code)
	}
}

func TestPublicHotspot(t *testing.T) {
	env := newTestEnv(t)
	env.seedHotspot(t, "L9100001", "# Best Trails\n\nStart at the **north** lot.")

	w := env.do(t, http.MethodGet, "/api/v1/hotspot/L9100001", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if cc := w.Header().Get("Cache-Control"); !strings.Contains(cc, "s-maxage") {
		t.Errorf("Cache-Control = %q, want CDN directives", cc)
	}

	body := decodeBody(t, w)
	if body["locationId"] != "L9100001" {
		t.Errorf("locationId = %v", body["locationId"])
	}
	aboutHTML, _ := body["aboutHtml"].(string)
	if !strings.Contains(aboutHTML, "<h1") || !strings.Contains(aboutHTML, "<strong>north</strong>") {
		t.Errorf("aboutHtml = %q, want rendered markdown", aboutHTML)
	}
	regionName, _ := body["regionName"].(string)
	if regionName == "" {
		t.Error("regionName missing from hotspot response")
	}

	// Second read must come from the response cache with the same body.
	w2 := env.do(t, http.MethodGet, "/api/v1/hotspot/L9100001", "", nil)
	if w2.Code != http.StatusOK {
		t.Fatalf("cached status = %d", w2.Code)
	}
	if w2.Body.String() != w.Body.String() {
		t.Error("cached response body differs from first read")
	}
}

func TestPublicHotspotNotFound(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/v1/hotspot/L0000000", "", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] != "not_found" {
		t.Errorf("error = %v, want not_found", body["error"])
	}
}

func TestPublicRegion(t *testing.T) {
	env := newTestEnv(t)
	env.seedHotspot(t, "L9100002", "Quiet woods.")

	w := env.do(t, http.MethodGet, "/api/v1/region/US-OH", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	hotspots, _ := body["hotspots"].([]any)
	found := false
	for _, raw := range hotspots {
		if h, ok := raw.(map[string]any); ok && h["locationId"] == "L9100002" {
			found = true
		}
	}
	if !found {
		t.Error("seeded hotspot missing from region listing")
	}
	if _, ok := body["cities"]; !ok {
		t.Error("state region response missing cities")
	}

	if w := env.do(t, http.MethodGet, "/api/v1/region/ZZ-99", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown region status = %d, want 404", w.Code)
	}
}

func TestSuggestCreatesRevision(t *testing.T) {
	env := newTestEnv(t)
	env.seedHotspot(t, "L9100003", "Old about text.")
	env.cleanRevisions(t, "L9100003")

	w := env.do(t, http.MethodPost, "/api/v1/hotspot/L9100003/suggest", "", map[string]any{
		"by":       "Finch Walker",
		"email":    "finch@example.com",
		"about":    "New about text with a boardwalk.",
		"roadside": "Yes",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	idHex, _ := body["id"].(string)
	id, err := primitive.ObjectIDFromHex(idHex)
	if err != nil {
		t.Fatalf("response id %q is not an object id", idHex)
	}

	rev, err := env.revisions.Get(context.Background(), id)
	if err != nil || rev == nil {
		t.Fatalf("revision not stored: %v", err)
	}
	if rev.Status != models.StatusPending {
		t.Errorf("status = %q, want pending", rev.Status)
	}
	if rev.StateCode != "US-OH" {
		t.Errorf("stateCode = %q, want US-OH", rev.StateCode)
	}
	if rev.About == nil || rev.About.Old != "Old about text." || rev.About.New != "New about text with a boardwalk." {
		t.Errorf("about edit = %+v, want old/new pair", rev.About)
	}
	if rev.Roadside == nil || rev.Roadside.New != "Yes" {
		t.Errorf("roadside edit = %+v", rev.Roadside)
	}
	if rev.Birds != nil {
		t.Error("untouched field birds recorded an edit")
	}
}

func TestSuggestRejectsNoChange(t *testing.T) {
	env := newTestEnv(t)
	env.seedHotspot(t, "L9100004", "Unchanged text.")
	env.cleanRevisions(t, "L9100004")

	w := env.do(t, http.MethodPost, "/api/v1/hotspot/L9100004/suggest", "", map[string]any{
		"by":    "Finch Walker",
		"about": "Unchanged text.",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["error"] != "validation" {
		t.Errorf("error = %v, want validation", body["error"])
	}
}

func TestSuggestUnknownHotspot(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/v1/hotspot/L0000001/suggest", "", map[string]any{
		"by":    "Finch Walker",
		"about": "Anything.",
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestPhotoUploadUnavailableWithoutStorage(t *testing.T) {
	env := newTestEnv(t)
	env.seedHotspot(t, "L9100005", "")

	w := env.do(t, http.MethodPost, "/api/v1/hotspot/L9100005/photos", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestEditorAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/editor/revisions?state=US-OH", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token status = %d, want 401", w.Code)
	}

	plain := env.token(t, "", nil)
	w = env.do(t, http.MethodGet, "/api/editor/revisions?state=US-OH", plain, nil)
	if w.Code != http.StatusForbidden {
		t.Errorf("non-editor status = %d, want 403", w.Code)
	}
}

func TestEditorRegionScope(t *testing.T) {
	env := newTestEnv(t)
	t.Cleanup(func() {
		env.db.Collection(database.CollHotspots).DeleteOne(context.Background(), bson.M{"_id": "L9100006"})
	})

	body := map[string]any{
		"name":        "Scope Test Overlook",
		"countryCode": "US",
		"stateCode":   "US-OH",
		"countyCode":  "US-OH-105",
		"lat":         39.9,
		"lng":         -82.8,
	}

	outOfScope := env.token(t, auth.RoleEditor, []string{"US-NY"})
	w := env.do(t, http.MethodPut, "/api/editor/hotspot/L9100006", outOfScope, body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("out-of-scope status = %d, want 403, body %s", w.Code, w.Body.String())
	}

	inScope := env.token(t, auth.RoleEditor, []string{"US-OH"})
	w = env.do(t, http.MethodPut, "/api/editor/hotspot/L9100006", inScope, body)
	if w.Code != http.StatusOK {
		t.Fatalf("in-scope status = %d, body %s", w.Code, w.Body.String())
	}

	admin := env.token(t, auth.RoleAdmin, nil)
	w = env.do(t, http.MethodDelete, "/api/editor/hotspot/L9100006", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("admin delete status = %d, body %s", w.Code, w.Body.String())
	}

	stored, err := env.hotspots.Get(context.Background(), "L9100006")
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if stored != nil {
		t.Error("hotspot survived delete")
	}
}

func TestEditorRejectsInvalidRegionChain(t *testing.T) {
	env := newTestEnv(t)

	admin := env.token(t, auth.RoleAdmin, nil)
	w := env.do(t, http.MethodPut, "/api/editor/hotspot/L9100007", admin, map[string]any{
		"name":        "Mismatched Chain",
		"countryCode": "US",
		"stateCode":   "US-OH",
		"countyCode":  "US-NY-061",
		"lat":         40.7,
		"lng":         -73.9,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body %s", w.Code, w.Body.String())
	}
}

func TestUpsertHotspotKeepsModeratedFields(t *testing.T) {
	env := newTestEnv(t)
	seeded := env.seedHotspot(t, "L9100010", "Survey notes.")

	group := &models.Group{
		Name:       "Backref Wildlife Area",
		Slug:       "backref-wildlife-area-l9100010",
		HotspotIDs: []string{"L9100010"},
	}
	if err := env.groups.Create(context.Background(), group); err != nil {
		t.Fatalf("create group: %v", err)
	}
	t.Cleanup(func() {
		env.db.Collection(database.CollGroups).DeleteOne(context.Background(), bson.M{"_id": group.ID})
	})

	// A citation lands on the hotspot the way revision approval records one.
	if _, err := env.db.Collection(database.CollHotspots).UpdateOne(context.Background(),
		bson.M{"_id": "L9100010"},
		bson.M{"$set": bson.M{"citations": []models.Citation{{Name: "Finch Walker"}}}},
	); err != nil {
		t.Fatalf("seed citation: %v", err)
	}

	// The edit form cannot rewrite membership or attribution, even when the
	// request body tries to.
	admin := env.token(t, auth.RoleAdmin, nil)
	w := env.do(t, http.MethodPut, "/api/editor/hotspot/L9100010", admin, map[string]any{
		"name":        "Survey Marsh Renamed",
		"countryCode": "US",
		"stateCode":   "US-OH",
		"countyCode":  "US-OH-105",
		"lat":         39.6,
		"lng":         -82.9,
		"groupIds":    []string{"not-a-real-group"},
		"citations":   []map[string]any{{"name": "Forged Contributor"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("upsert status = %d, body %s", w.Code, w.Body.String())
	}

	stored, err := env.hotspots.Get(context.Background(), "L9100010")
	if err != nil || stored == nil {
		t.Fatalf("hotspot after upsert: %v", err)
	}
	if stored.Name != "Survey Marsh Renamed" {
		t.Errorf("name = %q, edit not applied", stored.Name)
	}
	if len(stored.GroupIDs) != 1 || stored.GroupIDs[0] != group.ID.Hex() {
		t.Errorf("groupIds = %v, want only %s", stored.GroupIDs, group.ID.Hex())
	}
	if !stored.HasCitation("Finch Walker") {
		t.Error("existing citation lost on upsert")
	}
	if stored.HasCitation("Forged Contributor") {
		t.Error("request body injected a citation")
	}
	if d := stored.CreatedAt.Sub(seeded.CreatedAt); d < -time.Second || d > time.Second {
		t.Errorf("createdAt changed on upsert: was %v, now %v", seeded.CreatedAt, stored.CreatedAt)
	}
}

func TestRevisionModeration(t *testing.T) {
	env := newTestEnv(t)
	env.seedHotspot(t, "L9100008", "Original section.")
	env.cleanRevisions(t, "L9100008")

	w := env.do(t, http.MethodPost, "/api/v1/hotspot/L9100008/suggest", "", map[string]any{
		"by":    "Finch Walker",
		"about": "Moderated replacement section.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("suggest status = %d, body %s", w.Code, w.Body.String())
	}
	idHex := decodeBody(t, w)["id"].(string)

	// An editor scoped to another state cannot review it.
	outOfScope := env.token(t, auth.RoleEditor, []string{"US-NY"})
	w = env.do(t, http.MethodPost, "/api/editor/revision/"+idHex+"/approve", outOfScope, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("out-of-scope approve status = %d, want 403", w.Code)
	}

	inScope := env.token(t, auth.RoleEditor, []string{"US-OH"})
	w = env.do(t, http.MethodPost, "/api/editor/revision/"+idHex+"/approve", inScope, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("approve status = %d, body %s", w.Code, w.Body.String())
	}

	h, err := env.hotspots.Get(context.Background(), "L9100008")
	if err != nil || h == nil {
		t.Fatalf("hotspot after approval: %v", err)
	}
	if h.About != "Moderated replacement section." {
		t.Errorf("about = %q, approved edit not applied", h.About)
	}
	if !h.HasCitation("Finch Walker") {
		t.Error("approved contributor missing from citations")
	}
}

func TestGroupSlugUniqueness(t *testing.T) {
	env := newTestEnv(t)
	admin := env.token(t, auth.RoleAdmin, nil)

	createGroup := func() string {
		w := env.do(t, http.MethodPost, "/api/editor/groups", admin, map[string]any{
			"name": "Duplicate Name Preserve",
		})
		if w.Code != http.StatusCreated {
			t.Fatalf("create group status = %d, body %s", w.Code, w.Body.String())
		}
		body := decodeBody(t, w)
		idHex, _ := body["id"].(string)
		id, err := primitive.ObjectIDFromHex(idHex)
		if err != nil {
			t.Fatalf("group id %q is not an object id", idHex)
		}
		t.Cleanup(func() {
			env.db.Collection(database.CollGroups).DeleteOne(context.Background(), bson.M{"_id": id})
		})
		s, _ := body["slug"].(string)
		return s
	}

	first := createGroup()
	second := createGroup()

	if first != "duplicate-name-preserve" {
		t.Errorf("first slug = %q", first)
	}
	if second != "duplicate-name-preserve-2" {
		t.Errorf("second slug = %q, want numbered variant", second)
	}
}

func TestCronAuth(t *testing.T) {
	env := newTestEnv(t)

	if w := env.do(t, http.MethodGet, "/api/cron/cleanup", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("no secret status = %d, want 401", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/cron/cleanup?secret=wrong", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret status = %d, want 401", w.Code)
	}

	w := env.do(t, http.MethodGet, "/api/cron/cleanup?secret="+testCronSecret, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if body := decodeBody(t, w); body["success"] != true {
		t.Errorf("body = %v, want success envelope", body)
	}
}

func TestCronDigest(t *testing.T) {
	env := newTestEnv(t)
	env.seedHotspot(t, "L9100009", "Digest seed.")
	env.cleanRevisions(t, "L9100009")

	w := env.do(t, http.MethodPost, "/api/v1/hotspot/L9100009/suggest", "", map[string]any{
		"by":    "Finch Walker",
		"about": "Digest-worthy change.",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("suggest status = %d", w.Code)
	}

	subject := "digest-sub-1"
	if err := env.profiles.Upsert(context.Background(), &models.Profile{
		Subject:       subject,
		Email:         "digest@example.com",
		Subscriptions: []string{"US-OH"},
		Frequency:     models.FrequencyDaily,
	}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	t.Cleanup(func() {
		env.db.Collection(database.CollProfiles).DeleteOne(context.Background(), bson.M{"_id": subject})
	})

	w = env.do(t, http.MethodGet, "/api/cron/digest?secret="+testCronSecret, "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("digest status = %d, body %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	notified, _ := body["notified"].(float64)
	if notified < 1 {
		t.Errorf("notified = %v, want at least 1", body["notified"])
	}
}

func TestPageviewExclusions(t *testing.T) {
	env := newTestEnv(t)

	payload, _ := json.Marshal(map[string]any{
		"entity":      "hotspot",
		"regionCodes": []string{"US", "US-OH"},
	})

	// Crawler traffic returns 204 without touching the counters.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pageview", bytes.NewReader(payload))
	req.Header.Set("User-Agent", "curl/8.5.0")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("bot status = %d, want 204", w.Code)
	}

	// Signed-in editors are excluded the same way.
	editor := env.token(t, auth.RoleEditor, []string{"US-OH"})
	req = httptest.NewRequest(http.MethodPost, "/api/v1/pageview", bytes.NewReader(payload))
	req.Header.Set("User-Agent", "Mozilla/5.0 (integration test)")
	req.Header.Set("Authorization", "Bearer "+editor)
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("editor status = %d, want 204", w.Code)
	}

	// So are dashboard visitors carrying only the session cookie.
	login := env.do(t, http.MethodPost, "/api/editor/session", editor, nil)
	if login.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", login.Code, login.Body.String())
	}
	var cookie *http.Cookie
	for _, c := range login.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("login set no session cookie")
	}
	req = httptest.NewRequest(http.MethodPost, "/api/v1/pageview", bytes.NewReader(payload))
	req.Header.Set("User-Agent", "Mozilla/5.0 (integration test)")
	req.AddCookie(cookie)
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("session cookie status = %d, want 204", w.Code)
	}

	// Unknown entity types are rejected before any exclusion check.
	resp := env.do(t, http.MethodPost, "/api/v1/pageview", "", map[string]any{
		"entity":      "homepage",
		"regionCodes": []string{"US"},
	})
	if resp.Code != http.StatusUnprocessableEntity {
		t.Errorf("unknown entity status = %d, want 422", resp.Code)
	}
}

func TestDashboardSession(t *testing.T) {
	env := newTestEnv(t)

	editor := env.token(t, auth.RoleEditor, []string{"US-OH"})
	w := env.do(t, http.MethodPost, "/api/editor/session", editor, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", w.Code, w.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("login set no session cookie")
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard/me", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (integration test)")
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("me status = %d, body %s", rec.Code, rec.Body.String())
	}
	body := map[string]any{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode me response: %v", err)
	}
	if body["role"] != auth.RoleEditor {
		t.Errorf("me role = %v, want editor", body["role"])
	}

	// Without the cookie the dashboard refuses.
	w2 := env.do(t, http.MethodGet, "/api/dashboard/me", "", nil)
	if w2.Code != http.StatusUnauthorized {
		t.Errorf("no cookie status = %d, want 401", w2.Code)
	}
	w3 := env.do(t, http.MethodGet, "/api/dashboard/views", "", nil)
	if w3.Code != http.StatusUnauthorized {
		t.Errorf("views without cookie status = %d, want 401", w3.Code)
	}
}
