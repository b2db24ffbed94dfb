//go:build !linux

package camera

import (
	"errors"

	"doorcam/internal/config"
)

func openRawWebcam(cfg config.CameraConfig) (Device, error) {
	return nil, errors.New("raw V4L2 backend is only available on Linux")
}
