package routes

import (
	"net/http"

	"doorcam/internal/handlers"
	"doorcam/internal/logger"
	"doorcam/internal/middleware"
	"doorcam/internal/services/storage"
	"doorcam/internal/services/websocket"
)

// Deps are the services the HTTP surface reads from.
type Deps struct {
	Status      handlers.SnapshotSource
	Camera      string
	Store       *storage.PhotoStore
	Hub         *websocket.HubService
	Logger      *logger.Logger
	AccessToken string
}

// SetupRoutes registers the live view, status, gallery and log endpoints and
// wraps the mux with the access token middleware.
func SetupRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	// Live view and status
	mux.HandleFunc("/api/view", handlers.ViewWebsocketHandler(d.Hub, d.Logger))
	mux.HandleFunc("/api/status", handlers.StatusHandler(d.Status, d.Camera, d.Hub.GetClientCount, d.Logger))

	// Gallery
	mux.HandleFunc("/api/pictures", handlers.DisplayPicturesHandler(d.Store, d.Logger))
	mux.HandleFunc("/api/pictures/view", handlers.ViewPictureHandler(d.Store))
	mux.HandleFunc("/api/pictures/thumb", handlers.ThumbnailHandler(d.Store, d.Logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handlers.ShowLogsHandler(d.Logger, logger.InfoFile))
	mux.HandleFunc("/logs/warning", handlers.ShowLogsHandler(d.Logger, logger.WarningFile))
	mux.HandleFunc("/logs/error", handlers.ShowLogsHandler(d.Logger, logger.ErrorFile))

	mux.HandleFunc("/logs/info/clear", handlers.ClearLogsHandler(d.Logger, logger.InfoFile))
	mux.HandleFunc("/logs/warning/clear", handlers.ClearLogsHandler(d.Logger, logger.WarningFile))
	mux.HandleFunc("/logs/error/clear", handlers.ClearLogsHandler(d.Logger, logger.ErrorFile))

	return middleware.AuthMiddleware(d.AccessToken, mux)
}
