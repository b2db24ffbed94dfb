package display

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gocv.io/x/gocv"
)

const timestampLayout = "2006-01-02 15:04:05"

var (
	green = color.RGBA{G: 255}
	red   = color.RGBA{R: 255}
	white = color.RGBA{R: 255, G: 255, B: 255}
)

// Overlay describes what is written on top of a frame.
type Overlay struct {
	Motion      bool
	PhotosTaken int64
	Now         time.Time
}

// Draw writes the status line top-left, the timestamp bottom-left and the
// photo counter top-right.
func (o Overlay) Draw(frame *gocv.Mat) {
	if frame.Empty() {
		return
	}
	w, h := frame.Cols(), frame.Rows()

	status, c := "Status: Monitoring", green
	if o.Motion {
		status, c = "Status: MOTION!", red
	}
	gocv.PutText(frame, status, image.Pt(10, 30), gocv.FontHersheySimplex, 0.7, c, 2)
	gocv.PutText(frame, o.Now.Format(timestampLayout), image.Pt(10, h-10), gocv.FontHersheySimplex, 0.5, white, 1)
	gocv.PutText(frame, fmt.Sprintf("Photos: %d", o.PhotosTaken), image.Pt(w-120, 30), gocv.FontHersheySimplex, 0.5, white, 1)
}
