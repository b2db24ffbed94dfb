package routes

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"doorcam/internal/logger"
	"doorcam/internal/models"
	"doorcam/internal/services/storage"
	"doorcam/internal/services/websocket"
)

type idle struct{}

func (idle) Snapshot() models.Snapshot { return models.Snapshot{} }

func TestSetupRoutes(t *testing.T) {
	l, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	defer l.Close()

	store, err := storage.NewPhotoStore(filepath.Join(t.TempDir(), "door_photos"), l)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	router := SetupRoutes(Deps{
		Status:      idle{},
		Camera:      "Default",
		Store:       store,
		Hub:         websocket.NewHubService(l),
		Logger:      l,
		AccessToken: "s3cret",
	})

	tests := []struct {
		path string
		want int
	}{
		{"/api/status?token=s3cret", http.StatusOK},
		{"/api/pictures?token=s3cret", http.StatusOK},
		{"/logs/info?token=s3cret", http.StatusOK},
		{"/api/status", http.StatusUnauthorized},
		{"/nope?token=s3cret", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}
