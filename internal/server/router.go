package server

import (
	"net/http"

	"turflog/internal/handlers"
)

func newRouter() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/api/login", handlers.Login)
	mux.HandleFunc("/api/signup", handlers.Signup)
	mux.HandleFunc("/api/logout", handlers.Logout)
	mux.HandleFunc("/api/session", handlers.Session)

	protected := func(h http.HandlerFunc) http.Handler {
		return handlers.RequireAuthentication(h)
	}
	mux.Handle("/api/fertilizers", protected(handlers.FertilizerResource))
	mux.Handle("/api/fertilizers/", protected(handlers.FertilizerResource))
	mux.Handle("/api/logs", protected(handlers.LogResource))
	mux.Handle("/api/logs/", protected(handlers.LogResource))
	mux.Handle("/api/settings", protected(handlers.Settings))
	mux.Handle("/api/stats/products", protected(handlers.ProductStats))
	mux.Handle("/api/stats/periods", protected(handlers.PeriodStats))
	mux.Handle("/api/stats/usage", protected(handlers.UsageStats))
	mux.Handle("/api/stats/comparison", protected(handlers.Comparison))
	mux.Handle("/api/guidelines", protected(handlers.GuidelineIndex))
	mux.Handle("/api/assistant/chat", protected(handlers.AssistantChat))
	mux.Handle("/api/assistant/datasheet", protected(handlers.AssistantDatasheet))

	admin := func(h http.HandlerFunc) http.Handler {
		return handlers.RequireAdmin(h)
	}
	mux.Handle("/api/admin/users", admin(handlers.AdminUserResource))
	mux.Handle("/api/admin/users/", admin(handlers.AdminUserResource))
	mux.Handle("/api/admin/export/", admin(handlers.AdminExportLogs))

	return mux
}
