package handlers

import (
	"encoding/json"
	"net/http"

	"doorcam/internal/logger"
	"doorcam/internal/models"
)

// SnapshotSource is anything that can report the controller view.
type SnapshotSource interface {
	Snapshot() models.Snapshot
}

// StatusResponse is the /api/status payload.
type StatusResponse struct {
	models.Snapshot
	Camera  string `json:"camera"`
	Viewers int    `json:"viewers"`
}

// StatusHandler reports the controller state, photo count and last URL.
func StatusHandler(source SnapshotSource, camera string, viewers func() int, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{Snapshot: source.Snapshot(), Camera: camera}
		if viewers != nil {
			resp.Viewers = viewers()
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}
