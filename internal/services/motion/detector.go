package motion

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"doorcam/internal/config"
	"doorcam/internal/logger"
	"doorcam/internal/models"

	"gocv.io/x/gocv"
)

// ErrFrameSizeMismatch is returned when a frame does not match the reference size.
var ErrFrameSizeMismatch = errors.New("frame size does not match reference frame")

var regionColor = color.RGBA{R: 0, G: 255, B: 0, A: 0}

// Result is the outcome of a single Detect call. Annotated is a copy of the
// input frame with the regions drawn on it; the caller owns it and must Close it.
type Result struct {
	Motion    bool
	Regions   []models.MotionRegion
	Annotated gocv.Mat
}

// Detector finds motion by differencing each frame against a slowly blended
// reference frame. It is not safe for concurrent use.
type Detector struct {
	blurSize         image.Point
	threshold        float32
	dilateIterations int
	minContourArea   float64
	referenceWeight  float64

	reference    gocv.Mat
	hasReference bool
	kernel       gocv.Mat
	logger       *logger.Logger
}

func NewDetector(cfg config.MotionConfig, logger *logger.Logger) *Detector {
	return &Detector{
		blurSize:         image.Pt(cfg.BlurKernel, cfg.BlurKernel),
		threshold:        cfg.DiffThreshold,
		dilateIterations: cfg.DilateIterations,
		minContourArea:   cfg.MinContourArea,
		referenceWeight:  cfg.ReferenceWeight,
		kernel:           gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3)),
		logger:           logger,
	}
}

// Detect compares frame against the reference frame. The first call only
// initializes the reference and never reports motion.
func (d *Detector) Detect(frame gocv.Mat) (Result, error) {
	if frame.Empty() {
		return Result{}, errors.New("empty frame")
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := d.smooth(frame, &gray); err != nil {
		return Result{}, err
	}

	if !d.hasReference {
		d.reference = gray.Clone()
		d.hasReference = true
		d.logger.Info("Motion reference initialized (%dx%d)", gray.Cols(), gray.Rows())
		return Result{Annotated: frame.Clone()}, nil
	}

	if gray.Rows() != d.reference.Rows() || gray.Cols() != d.reference.Cols() {
		return Result{}, fmt.Errorf("%w: got %dx%d, reference is %dx%d", ErrFrameSizeMismatch,
			gray.Cols(), gray.Rows(), d.reference.Cols(), d.reference.Rows())
	}

	delta := gocv.NewMat()
	defer delta.Close()
	if err := gocv.AbsDiff(d.reference, gray, &delta); err != nil {
		return Result{}, fmt.Errorf("failed to compute absolute difference: %w", err)
	}

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(delta, &thresh, d.threshold, 255, gocv.ThresholdBinary)
	for i := 0; i < d.dilateIterations; i++ {
		if err := gocv.Dilate(thresh, &thresh, d.kernel); err != nil {
			return Result{}, fmt.Errorf("failed to dilate mask: %w", err)
		}
	}

	regions := d.findRegions(thresh)

	// The reference adapts every tick, motion or not.
	if err := gocv.AddWeighted(d.reference, d.referenceWeight, gray, 1-d.referenceWeight, 0, &d.reference); err != nil {
		return Result{}, fmt.Errorf("failed to blend reference frame: %w", err)
	}

	annotated := frame.Clone()
	for _, region := range regions {
		if err := gocv.Rectangle(&annotated, region.Rect(), regionColor, 2); err != nil {
			annotated.Close()
			return Result{}, fmt.Errorf("failed to draw rectangle: %w", err)
		}
	}

	return Result{
		Motion:    len(regions) > 0,
		Regions:   regions,
		Annotated: annotated,
	}, nil
}

// smooth converts frame to a blurred single-channel image.
func (d *Detector) smooth(frame gocv.Mat, dst *gocv.Mat) error {
	src := frame
	if frame.Channels() != 1 {
		if err := gocv.CvtColor(frame, dst, gocv.ColorBGRToGray); err != nil {
			return fmt.Errorf("failed to convert image to grayscale: %w", err)
		}
		src = *dst
	}

	if err := gocv.GaussianBlur(src, dst, d.blurSize, 0, 0, gocv.BorderDefault); err != nil {
		return fmt.Errorf("failed to blur frame: %w", err)
	}
	return nil
}

// findRegions returns the bounding boxes of external contours larger than the
// minimum area.
func (d *Detector) findRegions(mask gocv.Mat) []models.MotionRegion {
	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var regions []models.MotionRegion
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area <= d.minContourArea {
			continue
		}
		regions = append(regions, models.NewMotionRegion(gocv.BoundingRect(contour), area))
	}
	return regions
}

// Reset drops the reference frame; the next Detect call is a warm-up again.
func (d *Detector) Reset() {
	if d.hasReference {
		d.reference.Close()
		d.hasReference = false
	}
}

// Close releases native resources held by the detector.
func (d *Detector) Close() error {
	d.Reset()
	return d.kernel.Close()
}
