package handlers

import (
	"net/http"

	"tutor-app/internal/app"
	"tutor-app/internal/auth"
)

// NewRouter wires every endpoint. Transcript, chat and settings routes run
// behind the identity middleware.
func NewRouter(config *app.Config, authService *auth.Service) http.Handler {
	chatHandlers := NewChatHandlers(config)
	settingsHandlers := NewSettingsHandlers(config.DB)
	authHandlers := NewAuthHandlers(authService)

	protected := func(h http.HandlerFunc) http.Handler {
		return authService.Identity(h)
	}

	// Go 1.22+ method-based routing
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /api/health", HealthHandler)
	mux.HandleFunc("GET /api/models", chatHandlers.GetModelsHandler)
	mux.HandleFunc("POST /api/register", authHandlers.RegisterHandler)
	mux.HandleFunc("POST /api/login", authHandlers.LoginHandler)

	// Protected routes
	mux.Handle("GET /api/messages", protected(chatHandlers.GetMessagesHandler))
	mux.Handle("POST /api/chat", protected(chatHandlers.ChatHandler))
	mux.Handle("GET /api/settings", protected(settingsHandlers.GetSettingsHandler))
	mux.Handle("POST /api/settings", protected(settingsHandlers.SaveSettingsHandler))
	mux.Handle("PATCH /api/settings", protected(settingsHandlers.UpdateSettingsHandler))

	return RequestLogger(Recover(EnableCORS(mux)))
}
