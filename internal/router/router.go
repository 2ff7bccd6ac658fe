// Package router sets up all HTTP routes and middleware chains for the
// birdatlas server. It organizes routes into public, submission, editor,
// dashboard, and cron groups with appropriate middleware stacks.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"birdatlas/internal/auth"
	"birdatlas/internal/handlers"
	"birdatlas/internal/middleware"
	"birdatlas/internal/session"
)

// Deps is everything the route tree needs. Handler groups are built in
// main and passed in already wired.
type Deps struct {
	Tokens      *auth.TokenService
	Sessions    *session.Store
	Public      *handlers.Public
	Submissions *handlers.Submissions
	Editor      *handlers.Editor
	Content     *handlers.Content
	Account     *handlers.Account
	Dashboard   *handlers.Dashboard
	Cron        *handlers.Cron
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Authenticate(d.Tokens))

	// Health check.
	r.Get("/health", healthHandler)

	// Submission endpoints get their own limiter so a burst of page reads
	// never starves a legitimate contributor, and vice versa.
	submitLimiter := middleware.NewRateLimiter(10, time.Minute)

	r.Route("/api/v1", func(r chi.Router) {
		// Public reads, CDN- and Valkey-cached.
		r.Get("/regions", d.Public.Regions)
		r.Get("/region/{code}", d.Public.Region)
		r.Get("/hotspot/{locationId}", d.Public.Hotspot)
		r.Get("/group/{slug}", d.Content.GetGroupBySlug)
		r.Get("/drive/{stateCode}/{slug}", d.Content.GetDriveBySlug)
		r.Get("/article/{id}", d.Content.GetArticle)

		// Pageview counting. The session is loaded so dashboard visitors
		// are excluded from the counters alongside bearer-token callers.
		r.With(middleware.LoadSession(d.Sessions)).Post("/pageview", d.Public.Pageview)

		// Public submissions, rate limited per client IP.
		r.Group(func(r chi.Router) {
			r.Use(submitLimiter.Middleware)
			r.Post("/hotspot/{locationId}/suggest", d.Submissions.Suggest)
			r.Post("/hotspot/{locationId}/photos", d.Submissions.UploadPhotos)
		})
	})

	// Editor API: bearer token, editor or admin role. Region scope is
	// enforced per handler.
	r.Route("/api/editor", func(r chi.Router) {
		r.Use(middleware.RequireEditor)

		r.Post("/session", d.Dashboard.Login)
		r.Delete("/session", d.Dashboard.Logout)

		r.Route("/hotspot/{locationId}", func(r chi.Router) {
			r.Get("/", d.Editor.GetHotspot)
			r.Put("/", d.Editor.UpsertHotspot)
			r.Delete("/", d.Editor.DeleteHotspot)
			r.Patch("/deletion", d.Editor.MarkHotspotDeletion)
		})

		r.Get("/revisions", d.Editor.ListRevisions)
		r.Post("/revision/{id}/approve", d.Editor.ApproveRevision)
		r.Post("/revision/{id}/reject", d.Editor.RejectRevision)

		r.Get("/photos", d.Editor.ListPhotoBatches)
		r.Post("/photo/{batchId}/image/{imageId}/approve", d.Editor.ApprovePhoto)
		r.Post("/photo/{batchId}/image/{imageId}/reject", d.Editor.RejectPhoto)

		r.Post("/groups", d.Content.CreateGroup)
		r.Put("/group/{id}", d.Content.UpdateGroup)
		r.Delete("/group/{id}", d.Content.DeleteGroup)

		r.Post("/drives", d.Content.CreateDrive)
		r.Put("/drive/{id}", d.Content.UpdateDrive)
		r.Delete("/drive/{id}", d.Content.DeleteDrive)

		r.Post("/articles", d.Content.CreateArticle)
		r.Put("/article/{id}", d.Content.UpdateArticle)
		r.Delete("/article/{id}", d.Content.DeleteArticle)

		r.Get("/profile", d.Account.GetProfile)
		r.Put("/profile", d.Account.UpdateProfile)
	})

	// Dashboard reads authenticate with the session cookie, not a token.
	r.Route("/api/dashboard", func(r chi.Router) {
		r.Use(middleware.LoadSession(d.Sessions))
		r.Get("/me", d.Dashboard.Me)
		r.Get("/summary", d.Dashboard.Summary)
		r.Get("/views", d.Dashboard.Views)
	})

	// Cron endpoints authenticate with the shared secret, checked in the
	// handlers.
	r.Route("/api/cron", func(r chi.Router) {
		r.Get("/cleanup", d.Cron.Cleanup)
		r.Get("/digest", d.Cron.Digest)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
