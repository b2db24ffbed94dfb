package models

import (
	"image"
	"time"

	"gocv.io/x/gocv"
)

// MotionRegion is a bounding rectangle of a changed area in a frame.
type MotionRegion struct {
	X      int     `json:"x"`
	Y      int     `json:"y"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Area   float64 `json:"area"`
}

// Rect returns the region as an image.Rectangle.
func (r MotionRegion) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// NewMotionRegion builds a region from a bounding rectangle and contour area.
func NewMotionRegion(rect image.Rectangle, area float64) MotionRegion {
	return MotionRegion{
		X:      rect.Min.X,
		Y:      rect.Min.Y,
		Width:  rect.Dx(),
		Height: rect.Dy(),
		Area:   area,
	}
}

// MotionEvent is produced when at least one region exceeds the minimum area.
// Frame is borrowed from the main loop and is only valid during the tick.
type MotionEvent struct {
	Timestamp time.Time
	Frame     gocv.Mat
	Regions   []MotionRegion
}
