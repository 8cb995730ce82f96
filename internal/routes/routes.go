package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/markolybrx/Celi-AI/internal/handlers"
)

func SetupRoutes(r *chi.Mux) {
	// Auth routes
	r.Post("/api/register", handlers.Register)
	r.Post("/api/login", handlers.Login)
	r.Post("/api/logout", handlers.Logout)
	r.Get("/api/me", handlers.GetMe)

	// Journaling routes
	r.Post("/api/entries", handlers.ProcessEntry)
	r.Get("/api/history", handlers.GetHistory)
	r.Get("/api/history/{timestamp}", handlers.GetEntry)
	r.Get("/api/media/{id}", handlers.ServeMedia)

	// Profile and progression routes
	r.Get("/api/profile", handlers.GetProfile)
	r.Put("/api/profile", handlers.UpdateProfile)
	r.Post("/api/profile/avatar", handlers.UpdateAvatar)
	r.Get("/api/ranks", handlers.GetAllRanks)

	// Dashboard content (generated by the worker)
	r.Get("/api/insight", handlers.GetWeeklyInsight)
	r.Get("/api/trivia", handlers.GetDailyTrivia)

	// Account wipe (two-step confirmation)
	r.Post("/api/account/clear", handlers.ClearAccount)
}
