package handlers

import (
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/reelplanner/backend/internal/middleware"
)

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts  AccountStore
	Sessions  SessionManager
	Verifier  middleware.TokenVerifier
	Ideas     IdeaPlanner
	Hashtags  HashtagTracker
	Profiles  ProfileManager
	Stats     StatsProvider
	Gate      AccessGate
	Snapshots SnapshotExporter

	Health HealthHandler

	// AuthLimiter throttles the account endpoints per client address.
	AuthLimiter    middleware.RateLimiter
	AuthRetryAfter time.Duration
}

// RegisterRoutes wires HTTP handlers into the provided router. Content routes
// sit behind the publication gate; auth, publication reads and admin routes
// stay reachable while the application is unpublished.
func RegisterRoutes(r chi.Router, deps Dependencies) {
	authHandler := AuthHandler{Accounts: deps.Accounts, Sessions: deps.Sessions, Roles: deps.Gate}
	gate := GateHandler{Gate: deps.Gate}
	ideas := IdeaHandler{Ideas: deps.Ideas}
	hashtags := HashtagHandler{Hashtags: deps.Hashtags}
	profiles := ProfileHandler{Profiles: deps.Profiles}
	admin := AdminHandler{Stats: deps.Stats, Gate: deps.Gate, Snapshots: deps.Snapshots}

	r.Get("/healthz", deps.Health.Handle)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.RateLimit(deps.AuthLimiter, "auth", deps.AuthRetryAfter))
			r.Post("/signup", authHandler.SignUp)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)
			r.Post("/logout", authHandler.Logout)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(deps.Verifier))

			r.Get("/publication", gate.Publication)
			r.Get("/me/role", gate.Role)

			r.Group(func(r chi.Router) {
				r.Use(middleware.PublicationGate(deps.Gate))

				r.Get("/profile", profiles.Get)
				r.Put("/profile", profiles.Save)

				r.Get("/ideas", ideas.List)
				r.Post("/ideas", ideas.Save)
				r.Post("/ideas/schedule", ideas.Schedule)
				r.Delete("/ideas/draft", ideas.DeleteDraft)
				r.Get("/calendar", ideas.Calendar)

				r.Get("/hashtags", hashtags.List)
				r.Post("/hashtags", hashtags.Upsert)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Get("/statistics", admin.Statistics)
				r.Get("/users/count", admin.UserCount)
				r.Get("/users/activity", admin.Activity)
				r.Put("/roles", admin.AssignRole)
				r.Put("/publication", admin.SetPublication)
				r.Post("/publication/toggle", admin.TogglePublication)
				r.Post("/snapshots", admin.Snapshot)
			})
		})
	})
}
