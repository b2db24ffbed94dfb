package motion

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"doorcam/internal/config"
	"doorcam/internal/logger"

	"gocv.io/x/gocv"
)

const (
	frameWidth  = 160
	frameHeight = 120
)

// ========================================
// Test Setup Helpers
// ========================================

func newTestDetector(t *testing.T) *Detector {
	t.Helper()

	l, err := logger.New(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	t.Cleanup(func() { l.Close() })

	d := NewDetector(config.MotionConfig{
		BlurKernel:       21,
		DiffThreshold:    25,
		DilateIterations: 2,
		MinContourArea:   500,
		ReferenceWeight:  0.7,
	}, l)
	t.Cleanup(func() { d.Close() })
	return d
}

func solidFrame(t *testing.T, value uint8, width, height int) gocv.Mat {
	t.Helper()
	v := float64(value)
	m := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(v, v, v, 0), height, width, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { m.Close() })
	return m
}

func frameWithBlock(t *testing.T, block image.Rectangle) gocv.Mat {
	t.Helper()
	m := solidFrame(t, 0, frameWidth, frameHeight)
	if err := gocv.Rectangle(&m, block, color.RGBA{R: 255, G: 255, B: 255, A: 0}, -1); err != nil {
		t.Fatalf("Failed to draw block: %v", err)
	}
	return m
}

func detect(t *testing.T, d *Detector, frame gocv.Mat) Result {
	t.Helper()
	res, err := d.Detect(frame)
	if err != nil {
		t.Fatalf("Detect failed: %v", err)
	}
	t.Cleanup(func() { res.Annotated.Close() })
	return res
}

// ========================================
// Detection Tests
// ========================================

func TestDetect_FirstFrameIsWarmUp(t *testing.T) {
	d := newTestDetector(t)

	res := detect(t, d, frameWithBlock(t, image.Rect(40, 30, 100, 90)))

	if res.Motion {
		t.Error("First frame must not report motion")
	}
	if len(res.Regions) != 0 {
		t.Errorf("Expected no regions on warm-up, got %d", len(res.Regions))
	}
	if res.Annotated.Empty() {
		t.Error("Warm-up should still return a displayable frame")
	}
}

func TestDetect_IdenticalFramesNeverReportMotion(t *testing.T) {
	d := newTestDetector(t)
	frame := frameWithBlock(t, image.Rect(40, 30, 100, 90))

	for i := 0; i < 25; i++ {
		res := detect(t, d, frame)
		if res.Motion {
			t.Fatalf("Frame %d: unexpected motion with %d regions", i, len(res.Regions))
		}
	}
}

func TestDetect_LargeRegionReportsMotion(t *testing.T) {
	d := newTestDetector(t)
	block := image.Rect(60, 40, 100, 80)

	detect(t, d, solidFrame(t, 0, frameWidth, frameHeight))
	res := detect(t, d, frameWithBlock(t, block))

	if !res.Motion {
		t.Fatal("Expected motion for a 40x40 bright block")
	}

	covered := false
	for _, region := range res.Regions {
		if region.Area <= 500 {
			t.Errorf("Region %+v should not qualify", region)
		}
		if block.In(region.Rect()) {
			covered = true
		}
	}
	if !covered {
		t.Errorf("No region covers block %v: %+v", block, res.Regions)
	}

	// the annotated frame carries the green rectangle, the input is untouched
	if res.Annotated.Cols() != frameWidth || res.Annotated.Rows() != frameHeight {
		t.Errorf("Annotated frame has wrong size %dx%d", res.Annotated.Cols(), res.Annotated.Rows())
	}
}

func TestDetect_SmallRegionIgnored(t *testing.T) {
	d := newTestDetector(t)

	detect(t, d, solidFrame(t, 0, frameWidth, frameHeight))
	res := detect(t, d, frameWithBlock(t, image.Rect(77, 57, 83, 63)))

	if res.Motion {
		t.Errorf("Expected no motion for a 6x6 block, got regions %+v", res.Regions)
	}
}

func TestDetect_GrayscaleInput(t *testing.T) {
	d := newTestDetector(t)

	gray := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 0, 0, 0), frameHeight, frameWidth, gocv.MatTypeCV8UC1)
	defer gray.Close()

	detect(t, d, gray)
	res := detect(t, d, gray)
	if res.Motion {
		t.Error("Identical grayscale frames should not report motion")
	}
}

// ========================================
// Reference Frame Tests
// ========================================

func TestDetect_ReferenceBlend(t *testing.T) {
	d := newTestDetector(t)

	detect(t, d, solidFrame(t, 100, frameWidth, frameHeight))
	detect(t, d, solidFrame(t, 200, frameWidth, frameHeight))

	// 0.7*100 + 0.3*200
	assertReference(t, d, 130)

	detect(t, d, solidFrame(t, 200, frameWidth, frameHeight))

	// 0.7*130 + 0.3*200
	assertReference(t, d, 151)
}

func assertReference(t *testing.T, d *Detector, expected int) {
	t.Helper()
	points := []image.Point{{0, 0}, {frameWidth / 2, frameHeight / 2}, {frameWidth - 1, frameHeight - 1}}
	for _, p := range points {
		got := int(d.reference.GetUCharAt(p.Y, p.X))
		if got < expected-1 || got > expected+1 {
			t.Errorf("Reference at %v = %d, expected %d±1", p, got, expected)
		}
	}
}

func TestDetect_SizeMismatch(t *testing.T) {
	d := newTestDetector(t)

	detect(t, d, solidFrame(t, 0, frameWidth, frameHeight))

	_, err := d.Detect(solidFrame(t, 0, frameWidth/2, frameHeight/2))
	if !errors.Is(err, ErrFrameSizeMismatch) {
		t.Fatalf("Expected ErrFrameSizeMismatch, got %v", err)
	}

	// the reference survives a rejected frame
	res := detect(t, d, solidFrame(t, 0, frameWidth, frameHeight))
	if res.Motion {
		t.Error("Unexpected motion after mismatch")
	}
}

func TestDetect_ResetStartsNewWarmUp(t *testing.T) {
	d := newTestDetector(t)

	detect(t, d, solidFrame(t, 0, frameWidth, frameHeight))
	d.Reset()

	res := detect(t, d, frameWithBlock(t, image.Rect(60, 40, 100, 80)))
	if res.Motion {
		t.Error("Frame after Reset must be a warm-up")
	}
}

func TestDetect_EmptyFrame(t *testing.T) {
	d := newTestDetector(t)

	empty := gocv.NewMat()
	defer empty.Close()

	if _, err := d.Detect(empty); err == nil {
		t.Error("Expected error for empty frame")
	}
}
