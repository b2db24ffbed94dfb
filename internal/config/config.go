package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every tunable of the doorbell camera. It is built once by Load
// and passed by pointer to constructors; nothing mutates it afterwards.
type Config struct {
	Camera  CameraConfig
	Motion  MotionConfig
	Capture CaptureConfig
	Blynk   BlynkConfig
	Upload  UploadConfig
	Tasks   TaskConfig

	PhotosDirectory string
	LogDirectory    string
	ShowWindow      bool
	Port            int    // 0 disables the HTTP live view
	AccessToken     string // static token for the HTTP surface, empty disables the check
}

type CameraConfig struct {
	Index       int
	Device      string   // V4L2 device node used by the raw webcam backend
	Backends    []string // acquisition order, e.g. dshow,msmf,v4l2,webcam,any
	FrameWidth  int
	FrameHeight int
}

type MotionConfig struct {
	BlurKernel       int
	DiffThreshold    float32
	DilateIterations int
	MinContourArea   float64
	ReferenceWeight  float64 // weight of the old reference when blending
}

type CaptureConfig struct {
	Cooldown time.Duration
}

type BlynkConfig struct {
	AuthToken string
	Server    string
	Timeout   time.Duration

	LockPin      string
	DoorbellPin  string
	PhotoURLPin  string
	PhotoTimePin string
	EventCode    string
}

type UploadConfig struct {
	ImgBBKey      string
	ImgBBURL      string
	ImgurClientID string
	ImgurURL      string
	Timeout       time.Duration
}

type TaskConfig struct {
	Workers   int
	QueueSize int
}

// Load reads an optional .env file and then the process environment.
func Load() *Config {
	// .env is optional
	_ = godotenv.Load()

	return &Config{
		Camera: CameraConfig{
			Index:       getEnvAsInt("CAMERA_INDEX", 0),
			Device:      getEnv("CAMERA_DEVICE", "/dev/video0"),
			Backends:    getEnvAsList("CAMERA_BACKENDS", []string{"dshow", "msmf", "v4l2", "webcam", "any"}),
			FrameWidth:  getEnvAsInt("FRAME_WIDTH", 640),
			FrameHeight: getEnvAsInt("FRAME_HEIGHT", 480),
		},
		Motion: MotionConfig{
			BlurKernel:       getEnvAsInt("BLUR_KERNEL", 21),
			DiffThreshold:    float32(getEnvAsFloat("DIFF_THRESHOLD", 25)),
			DilateIterations: getEnvAsInt("DILATE_ITERATIONS", 2),
			MinContourArea:   getEnvAsFloat("MIN_CONTOUR_AREA", 500),
			ReferenceWeight:  getEnvAsFloat("REFERENCE_WEIGHT", 0.7),
		},
		Capture: CaptureConfig{
			Cooldown: getEnvAsSeconds("MOTION_COOLDOWN", 10*time.Second),
		},
		Blynk: BlynkConfig{
			AuthToken:    getEnv("BLYNK_AUTH_TOKEN", ""),
			Server:       getEnv("BLYNK_SERVER", "https://blynk.cloud/external/api"),
			Timeout:      getEnvAsSeconds("BLYNK_TIMEOUT", 5*time.Second),
			LockPin:      getEnv("BLYNK_LOCK_PIN", "V1"),
			DoorbellPin:  getEnv("BLYNK_DOORBELL_PIN", "V2"),
			PhotoURLPin:  getEnv("BLYNK_PHOTO_URL_PIN", "V5"),
			PhotoTimePin: getEnv("BLYNK_PHOTO_TIME_PIN", "V6"),
			EventCode:    getEnv("BLYNK_EVENT_CODE", "doorbell"),
		},
		Upload: UploadConfig{
			ImgBBKey:      getEnv("IMGBB_API_KEY", ""),
			ImgBBURL:      getEnv("IMGBB_URL", "https://api.imgbb.com/1/upload"),
			ImgurClientID: getEnv("IMGUR_CLIENT_ID", "SKIP"),
			ImgurURL:      getEnv("IMGUR_URL", "https://api.imgur.com/3/image"),
			Timeout:       getEnvAsSeconds("UPLOAD_TIMEOUT", 30*time.Second),
		},
		Tasks: TaskConfig{
			Workers:   getEnvAsInt("TASK_WORKERS", 4),
			QueueSize: getEnvAsInt("TASK_QUEUE_SIZE", 100),
		},
		PhotosDirectory: getEnv("PHOTOS_DIR", filepath.Join(".", "door_photos")),
		LogDirectory:    getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ShowWindow:      getEnvAsBool("SHOW_WINDOW", true),
		Port:            getEnvAsInt("PORT", 8080),
		AccessToken:     getEnv("ACCESS_TOKEN", ""),
	}
}

// Validate reports settings that would make the detector or the controller
// misbehave.
func (c *Config) Validate() error {
	var errs []error

	if c.Motion.BlurKernel <= 0 || c.Motion.BlurKernel%2 == 0 {
		errs = append(errs, fmt.Errorf("BLUR_KERNEL must be a positive odd number, got %d", c.Motion.BlurKernel))
	}
	if c.Motion.DiffThreshold <= 0 || c.Motion.DiffThreshold >= 255 {
		errs = append(errs, fmt.Errorf("DIFF_THRESHOLD must be in (0, 255), got %v", c.Motion.DiffThreshold))
	}
	if c.Motion.DilateIterations < 0 {
		errs = append(errs, fmt.Errorf("DILATE_ITERATIONS must not be negative, got %d", c.Motion.DilateIterations))
	}
	if c.Motion.MinContourArea < 0 {
		errs = append(errs, fmt.Errorf("MIN_CONTOUR_AREA must not be negative, got %v", c.Motion.MinContourArea))
	}
	if c.Motion.ReferenceWeight < 0 || c.Motion.ReferenceWeight > 1 {
		errs = append(errs, fmt.Errorf("REFERENCE_WEIGHT must be in [0, 1], got %v", c.Motion.ReferenceWeight))
	}
	if c.Capture.Cooldown <= 0 {
		errs = append(errs, fmt.Errorf("MOTION_COOLDOWN must be positive, got %v", c.Capture.Cooldown))
	}
	if c.Blynk.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("BLYNK_TIMEOUT must be positive, got %v", c.Blynk.Timeout))
	}
	if c.Upload.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("UPLOAD_TIMEOUT must be positive, got %v", c.Upload.Timeout))
	}
	if c.Tasks.Workers <= 0 {
		errs = append(errs, fmt.Errorf("TASK_WORKERS must be positive, got %d", c.Tasks.Workers))
	}
	if c.Tasks.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("TASK_QUEUE_SIZE must be positive, got %d", c.Tasks.QueueSize))
	}
	if len(c.Camera.Backends) == 0 {
		errs = append(errs, errors.New("CAMERA_BACKENDS must name at least one backend"))
	}
	if c.PhotosDirectory == "" {
		errs = append(errs, errors.New("PHOTOS_DIR must not be empty"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsSeconds accepts either a Go duration ("1m30s") or a plain number of seconds.
func getEnvAsSeconds(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(strings.ToLower(item)); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return defaultValue
	}
	return items
}
