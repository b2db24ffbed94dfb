package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"

	"doorcam/internal/logger"
	"doorcam/internal/services/storage"
)

const (
	defaultPageSize   = 24
	maxPageSize       = 500
	defaultThumbWidth = 320
	maxThumbWidth     = 1280
)

// PicturesData is a paginated response payload for the photo gallery.
type PicturesData struct {
	Pictures    []storage.PhotoInfo `json:"pictures"`
	Size        int64               `json:"size"`
	Length      int                 `json:"length"`
	TotalPages  int                 `json:"totalPages"`
	CurrentPage int                 `json:"currentPage"`
	Limit       int                 `json:"pageSize"`
}

// DisplayPicturesHandler lists saved photos newest first with pagination.
func DisplayPicturesHandler(store *storage.PhotoStore, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultPageSize)
		if limit > maxPageSize {
			limit = maxPageSize
		}

		photos, err := store.List()
		if err != nil {
			logger.Error("Error reading photos directory: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		var totalSize int64
		for _, p := range photos {
			totalSize += p.Size
		}

		totalPages := (len(photos) + limit - 1) / limit

		// pages past the end are empty; checked before multiplying
		start := len(photos)
		if page <= totalPages {
			start = (page - 1) * limit
		}
		end := start + limit
		if end > len(photos) {
			end = len(photos)
		}

		data := PicturesData{
			Pictures:    photos[start:end],
			Size:        totalSize,
			Length:      len(photos),
			TotalPages:  totalPages,
			CurrentPage: page,
			Limit:       limit,
		}
		if data.Pictures == nil {
			data.Pictures = []storage.PhotoInfo{}
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ViewPictureHandler serves a single photo named by the "image" query parameter.
func ViewPictureHandler(store *storage.PhotoStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("image")
		if name == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}

		f, err := store.Open(name)
		if err != nil {
			photoError(w, err)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeContent(w, r, name, info.ModTime(), f)
	}
}

// ThumbnailHandler renders a downscaled JPEG of a stored photo. The width
// query parameter is clamped to maxThumbWidth.
func ThumbnailHandler(store *storage.PhotoStore, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		name := q.Get("image")
		if name == "" {
			http.Error(w, "Image parameter is required", http.StatusBadRequest)
			return
		}
		width := atoiDefault(q.Get("width"), defaultThumbWidth)
		if width > maxThumbWidth {
			width = maxThumbWidth
		}

		var buf bytes.Buffer
		if err := store.Thumbnail(&buf, name, width); err != nil {
			if !errors.Is(err, storage.ErrInvalidName) && !errors.Is(err, os.ErrNotExist) {
				logger.Error("Failed to render thumbnail for %s: %v", name, err)
			}
			photoError(w, err)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Write(buf.Bytes())
	}
}

func photoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrInvalidName):
		http.Error(w, "Invalid image name", http.StatusBadRequest)
	case errors.Is(err, os.ErrNotExist):
		http.NotFound(w, nil)
	default:
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
