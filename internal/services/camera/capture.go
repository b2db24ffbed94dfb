package camera

import (
	"fmt"

	"doorcam/internal/config"

	"gocv.io/x/gocv"
)

var captureAPIs = map[string]gocv.VideoCaptureAPI{
	"dshow": gocv.VideoCaptureDshow,
	"msmf":  gocv.VideoCaptureMSMF,
	"v4l2":  gocv.VideoCaptureV4L2,
	"any":   gocv.VideoCaptureAny,
}

var captureAPINames = map[string]string{
	"dshow": "DirectShow",
	"msmf":  "Media Foundation",
	"v4l2":  "V4L2",
	"any":   "Default",
}

// captureDevice is an OpenCV VideoCapture bound to one backend.
type captureDevice struct {
	vc *gocv.VideoCapture
}

func openCapture(cfg config.CameraConfig, api gocv.VideoCaptureAPI) (Device, error) {
	vc, err := gocv.VideoCaptureDeviceWithAPI(cfg.Index, api)
	if err != nil {
		return nil, err
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("device %d not opened", cfg.Index)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.FrameWidth))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.FrameHeight))
	return &captureDevice{vc: vc}, nil
}

func (d *captureDevice) Read(dst *gocv.Mat) error {
	if ok := d.vc.Read(dst); !ok || dst.Empty() {
		return ErrReadFailed
	}
	return nil
}

func (d *captureDevice) Close() error {
	return d.vc.Close()
}
