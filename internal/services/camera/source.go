package camera

import (
	"errors"
	"fmt"

	"doorcam/internal/config"
	"doorcam/internal/logger"

	"gocv.io/x/gocv"
)

var (
	// ErrNoBackend is returned when no acquisition strategy produced a frame.
	ErrNoBackend = errors.New("could not open camera with any backend")
	// ErrReadFailed is returned when a device stops delivering frames.
	ErrReadFailed = errors.New("failed to read frame")
)

// Device is an opened video device.
type Device interface {
	// Read fills dst with the next frame.
	Read(dst *gocv.Mat) error
	Close() error
}

// Strategy is one way of acquiring a device.
type Strategy struct {
	Name string
	Open func() (Device, error)
}

// Source is the camera the main loop pulls frames from.
type Source struct {
	device Device
	name   string
	logger *logger.Logger
}

// Open tries the backends named in cfg in order.
func Open(cfg config.CameraConfig, logger *logger.Logger) (*Source, error) {
	strategies, err := Strategies(cfg)
	if err != nil {
		return nil, err
	}
	return OpenWith(strategies, logger)
}

// OpenWith tries each strategy until one opens a device that delivers a test
// frame.
func OpenWith(strategies []Strategy, logger *logger.Logger) (*Source, error) {
	probe := gocv.NewMat()
	defer probe.Close()

	for _, s := range strategies {
		logger.Info("[CAMERA] Trying %s backend...", s.Name)

		device, err := s.Open()
		if err != nil {
			logger.Warning("[CAMERA] %s backend unavailable: %v", s.Name, err)
			continue
		}
		if err := device.Read(&probe); err != nil {
			logger.Warning("[CAMERA] %s backend opened but gave no frame: %v", s.Name, err)
			device.Close()
			continue
		}

		logger.Info("[CAMERA] ✅ Camera opened with %s backend", s.Name)
		return &Source{device: device, name: s.Name, logger: logger}, nil
	}
	return nil, ErrNoBackend
}

// Strategies maps backend names to acquisition strategies.
func Strategies(cfg config.CameraConfig) ([]Strategy, error) {
	var strategies []Strategy
	for _, name := range cfg.Backends {
		switch name {
		case "webcam":
			strategies = append(strategies, Strategy{Name: "raw V4L2 (" + cfg.Device + ")", Open: func() (Device, error) {
				return openRawWebcam(cfg)
			}})
		default:
			api, ok := captureAPIs[name]
			if !ok {
				return nil, fmt.Errorf("unknown camera backend %q", name)
			}
			strategies = append(strategies, Strategy{Name: captureAPINames[name], Open: func() (Device, error) {
				return openCapture(cfg, api)
			}})
		}
	}
	return strategies, nil
}

// Name returns the backend that opened the device.
func (s *Source) Name() string {
	return s.name
}

// ReadFrame fills dst with the next frame. Any error is fatal for the caller.
func (s *Source) ReadFrame(dst *gocv.Mat) error {
	return s.device.Read(dst)
}

// Close releases the device.
func (s *Source) Close() error {
	s.logger.Info("[CAMERA] Camera stopped")
	return s.device.Close()
}
