package display

import (
	"testing"
	"time"

	"gocv.io/x/gocv"
)

func countColor(m gocv.Mat, b, g, r uint8) int {
	n := 0
	for y := 0; y < m.Rows(); y++ {
		for x := 0; x < m.Cols(); x++ {
			v := m.GetVecbAt(y, x)
			if v[0] == b && v[1] == g && v[2] == r {
				n++
			}
		}
	}
	return n
}

func TestOverlay_StatusColor(t *testing.T) {
	tests := []struct {
		name    string
		motion  bool
		b, g, r uint8
	}{
		{"monitoring is green", false, 0, 255, 0},
		{"motion is red", true, 0, 0, 255},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
			defer frame.Close()

			Overlay{Motion: tt.motion, PhotosTaken: 3, Now: time.Now()}.Draw(&frame)

			if countColor(frame, tt.b, tt.g, tt.r) == 0 {
				t.Errorf("Expected status text in BGR(%d,%d,%d)", tt.b, tt.g, tt.r)
			}
			if countColor(frame, 255, 255, 255) == 0 {
				t.Error("Expected white timestamp and counter")
			}
		})
	}
}

func TestOverlay_EmptyFrame(t *testing.T) {
	frame := gocv.NewMat()
	defer frame.Close()

	// must not panic
	Overlay{Now: time.Now()}.Draw(&frame)
}

func TestWindow_NilIsHeadless(t *testing.T) {
	var w *Window
	frame := gocv.NewMat()
	defer frame.Close()

	if key := w.Show(frame); key != -1 {
		t.Errorf("Expected -1 from a nil window, got %d", key)
	}
	if err := w.Close(); err != nil {
		t.Errorf("Close on nil window: %v", err)
	}
}
