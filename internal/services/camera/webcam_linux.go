//go:build linux

package camera

import (
	"errors"
	"fmt"
	"image"

	"doorcam/internal/config"

	"github.com/blackjack/webcam"
	"gocv.io/x/gocv"
)

const (
	fmtYUYV  webcam.PixelFormat = 0x56595559
	fmtMJPEG webcam.PixelFormat = 0x47504a4d

	frameTimeout  = 5 // seconds
	maxFrameWaits = 3
)

// rawWebcam reads straight from a V4L2 device node, bypassing OpenCV's
// capture backends. Only MJPEG and YUYV are understood.
type rawWebcam struct {
	cam    *webcam.Webcam
	format webcam.PixelFormat
	w, h   uint32
}

func openRawWebcam(cfg config.CameraConfig) (Device, error) {
	cam, err := webcam.Open(cfg.Device)
	if err != nil {
		return nil, err
	}

	formats := cam.GetSupportedFormats()
	var format webcam.PixelFormat
	for _, f := range []webcam.PixelFormat{fmtMJPEG, fmtYUYV} {
		if _, ok := formats[f]; ok {
			format = f
			break
		}
	}
	if format == 0 {
		cam.Close()
		return nil, errors.New("no supported pixel format (need MJPEG or YUYV)")
	}

	f, w, h, err := cam.SetImageFormat(format, uint32(cfg.FrameWidth), uint32(cfg.FrameHeight))
	if err != nil {
		cam.Close()
		return nil, fmt.Errorf("SetImageFormat error: %w", err)
	}
	if err := cam.StartStreaming(); err != nil {
		cam.Close()
		return nil, fmt.Errorf("failed to start streaming: %w", err)
	}

	return &rawWebcam{cam: cam, format: f, w: w, h: h}, nil
}

func (d *rawWebcam) Read(dst *gocv.Mat) error {
	for i := 0; ; i++ {
		err := d.cam.WaitForFrame(frameTimeout)
		switch err.(type) {
		case nil:
		case *webcam.Timeout:
			if i+1 < maxFrameWaits {
				continue
			}
			return fmt.Errorf("%w: %v", ErrReadFailed, err)
		default:
			return fmt.Errorf("%w: %v", ErrReadFailed, err)
		}
		break
	}

	frame, err := d.cam.ReadFrame()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	if len(frame) == 0 {
		return ErrReadFailed
	}

	decoded, err := d.decode(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	old := *dst
	*dst = decoded
	old.Close()
	return nil
}

func (d *rawWebcam) decode(frame []byte) (gocv.Mat, error) {
	switch d.format {
	case fmtMJPEG:
		return gocv.IMDecode(frame, gocv.IMReadColor)
	case fmtYUYV:
		img := image.NewYCbCr(image.Rect(0, 0, int(d.w), int(d.h)), image.YCbCrSubsampleRatio422)
		if len(frame) < len(img.Cb)*4 {
			return gocv.Mat{}, fmt.Errorf("short YUYV frame: %d bytes", len(frame))
		}
		for i := range img.Cb {
			ii := i * 4
			img.Y[i*2] = frame[ii]
			img.Y[i*2+1] = frame[ii+2]
			img.Cb[i] = frame[ii+1]
			img.Cr[i] = frame[ii+3]
		}
		return gocv.ImageToMatRGB(img)
	default:
		return gocv.Mat{}, errors.New("unknown format")
	}
}

func (d *rawWebcam) Close() error {
	return d.cam.Close()
}
