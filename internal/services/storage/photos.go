package storage

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"doorcam/internal/logger"

	"github.com/disintegration/imaging"
	"gocv.io/x/gocv"
)

const (
	photoPrefix     = "door_photo_"
	photoExt        = ".jpg"
	timestampLayout = "20060102_150405"
	maxCollisions   = 999 // suffix stays three digits so names sort
)

// ErrInvalidName is returned for names that are not stored photos.
var ErrInvalidName = errors.New("invalid photo name")

// PhotoInfo describes a stored photo.
type PhotoInfo struct {
	Name       string    `json:"name"`
	CapturedAt time.Time `json:"captured_at"`
	Size       int64     `json:"size"`
}

// PhotoStore writes captured frames to a directory. The directory listing is
// the only index of what has been captured.
type PhotoStore struct {
	dir    string
	logger *logger.Logger
}

func NewPhotoStore(dir string, logger *logger.Logger) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photos directory: %w", err)
	}
	return &PhotoStore{dir: dir, logger: logger}, nil
}

// Dir returns the photos directory.
func (s *PhotoStore) Dir() string {
	return s.dir
}

// Save encodes frame as JPEG and writes it under a name derived from at with
// second resolution. Photos taken within the same second get a zero-padded
// numeric suffix (_002, _003, ...).
func (s *PhotoStore) Save(frame gocv.Mat, at time.Time) (string, error) {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return "", fmt.Errorf("failed to encode photo: %w", err)
	}
	defer buf.Close()

	base := photoPrefix + at.Format(timestampLayout)
	for n := 1; n <= maxCollisions; n++ {
		name := base + photoExt
		if n > 1 {
			name = fmt.Sprintf("%s_%03d%s", base, n, photoExt)
		}
		path := filepath.Join(s.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("failed to create %s: %w", name, err)
		}

		if _, err := f.Write(buf.GetBytes()); err != nil {
			f.Close()
			os.Remove(path)
			return "", fmt.Errorf("failed to write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("failed to close %s: %w", name, err)
		}

		s.logger.Info("[PHOTO] ✅ Saved: %s", path)
		return path, nil
	}
	return "", fmt.Errorf("too many photos for %s", base)
}

// List returns stored photos, newest first.
func (s *PhotoStore) List() ([]PhotoInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read photos directory: %w", err)
	}

	var photos []PhotoInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		capturedAt, err := parsePhotoName(e.Name())
		if err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil {
			s.logger.Error("Error getting file info for %s: %v", e.Name(), err)
			continue
		}
		photos = append(photos, PhotoInfo{Name: e.Name(), CapturedAt: capturedAt, Size: info.Size()})
	}

	// names sort chronologically
	slices.SortFunc(photos, func(a, b PhotoInfo) int {
		return strings.Compare(b.Name, a.Name)
	})
	return photos, nil
}

// Open returns a reader for a stored photo after validating its name.
func (s *PhotoStore) Open(name string) (*os.File, error) {
	if _, err := parsePhotoName(name); err != nil {
		return nil, err
	}
	return os.Open(filepath.Join(s.dir, name))
}

// Thumbnail writes a JPEG of the named photo scaled to width pixels.
func (s *PhotoStore) Thumbnail(w io.Writer, name string, width int) error {
	if _, err := parsePhotoName(name); err != nil {
		return err
	}
	if width <= 0 {
		return fmt.Errorf("invalid thumbnail width %d", width)
	}

	img, err := imaging.Open(filepath.Join(s.dir, name))
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", name, err)
	}

	var thumb image.Image = img
	if img.Bounds().Dx() > width {
		thumb = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	return imaging.Encode(w, thumb, imaging.JPEG)
}

// parsePhotoName accepts door_photo_YYYYMMDD_HHMMSS[_N].jpg and nothing else.
func parsePhotoName(name string) (time.Time, error) {
	if name != filepath.Base(name) || !strings.HasPrefix(name, photoPrefix) || !strings.HasSuffix(name, photoExt) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	stamp := strings.TrimSuffix(strings.TrimPrefix(name, photoPrefix), photoExt)
	if len(stamp) < len(timestampLayout) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	t, err := time.ParseInLocation(timestampLayout, stamp[:len(timestampLayout)], time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	if suffix := stamp[len(timestampLayout):]; suffix != "" {
		if len(suffix) < 2 || suffix[0] != '_' || strings.Trim(suffix[1:], "0123456789") != "" {
			return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
		}
	}
	return t, nil
}
