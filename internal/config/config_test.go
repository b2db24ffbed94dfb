package config

import (
	"testing"
	"time"
)

// ========================================
// Load Tests
// ========================================

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MOTION_COOLDOWN", "")
	t.Setenv("MIN_CONTOUR_AREA", "")
	t.Setenv("CAMERA_BACKENDS", "")

	cfg := Load()

	if cfg.Capture.Cooldown != 10*time.Second {
		t.Errorf("Expected cooldown 10s, got %v", cfg.Capture.Cooldown)
	}
	if cfg.Motion.MinContourArea != 500 {
		t.Errorf("Expected min contour area 500, got %v", cfg.Motion.MinContourArea)
	}
	if cfg.Motion.BlurKernel != 21 {
		t.Errorf("Expected blur kernel 21, got %d", cfg.Motion.BlurKernel)
	}
	if cfg.Blynk.PhotoURLPin != "V5" || cfg.Blynk.PhotoTimePin != "V6" {
		t.Errorf("Unexpected photo pins %q/%q", cfg.Blynk.PhotoURLPin, cfg.Blynk.PhotoTimePin)
	}
	if len(cfg.Camera.Backends) == 0 || cfg.Camera.Backends[0] != "dshow" {
		t.Errorf("Unexpected backend order %v", cfg.Camera.Backends)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config should validate, got %v", err)
	}
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("MOTION_COOLDOWN", "3")
	t.Setenv("MIN_CONTOUR_AREA", "1200.5")
	t.Setenv("CAMERA_BACKENDS", " V4L2, any ,")
	t.Setenv("SHOW_WINDOW", "false")
	t.Setenv("BLYNK_AUTH_TOKEN", "secret")

	cfg := Load()

	if cfg.Capture.Cooldown != 3*time.Second {
		t.Errorf("Expected cooldown 3s, got %v", cfg.Capture.Cooldown)
	}
	if cfg.Motion.MinContourArea != 1200.5 {
		t.Errorf("Expected min contour area 1200.5, got %v", cfg.Motion.MinContourArea)
	}
	if len(cfg.Camera.Backends) != 2 || cfg.Camera.Backends[0] != "v4l2" || cfg.Camera.Backends[1] != "any" {
		t.Errorf("Unexpected backends %v", cfg.Camera.Backends)
	}
	if cfg.ShowWindow {
		t.Error("Expected window to be disabled")
	}
	if cfg.Blynk.AuthToken != "secret" {
		t.Errorf("Expected token 'secret', got %q", cfg.Blynk.AuthToken)
	}
}

func TestGetEnvAsSeconds(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", 7 * time.Second},
		{"15", 15 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"2m", 2 * time.Minute},
		{"soon", 7 * time.Second},
	}

	for _, tt := range tests {
		t.Setenv("DOORCAM_TEST_SECONDS", tt.value)
		result := getEnvAsSeconds("DOORCAM_TEST_SECONDS", 7*time.Second)
		if result != tt.expected {
			t.Errorf("getEnvAsSeconds(%q) = %v, expected %v", tt.value, result, tt.expected)
		}
	}
}

// ========================================
// Validate Tests
// ========================================

func TestValidate_RejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"even blur kernel", func(c *Config) { c.Motion.BlurKernel = 20 }},
		{"zero threshold", func(c *Config) { c.Motion.DiffThreshold = 0 }},
		{"negative dilate", func(c *Config) { c.Motion.DilateIterations = -1 }},
		{"weight above one", func(c *Config) { c.Motion.ReferenceWeight = 1.5 }},
		{"zero cooldown", func(c *Config) { c.Capture.Cooldown = 0 }},
		{"zero blynk timeout", func(c *Config) { c.Blynk.Timeout = 0 }},
		{"zero upload timeout", func(c *Config) { c.Upload.Timeout = 0 }},
		{"no workers", func(c *Config) { c.Tasks.Workers = 0 }},
		{"no backends", func(c *Config) { c.Camera.Backends = nil }},
		{"no photos dir", func(c *Config) { c.PhotosDirectory = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Load()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestValidate_ZeroTimeoutsFromEnvironment(t *testing.T) {
	t.Setenv("UPLOAD_TIMEOUT", "0")
	t.Setenv("BLYNK_TIMEOUT", "0s")

	cfg := Load()
	if cfg.Upload.Timeout != 0 || cfg.Blynk.Timeout != 0 {
		t.Fatalf("Expected zero timeouts to be loaded, got upload=%v blynk=%v", cfg.Upload.Timeout, cfg.Blynk.Timeout)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Zero timeouts would disable HTTP timeouts and must be rejected")
	}
}
