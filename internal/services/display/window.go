package display

import "gocv.io/x/gocv"

// Window is the local preview. A nil *Window is valid and shows nothing,
// which is how headless runs are handled.
type Window struct {
	win *gocv.Window
}

func NewWindow(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Show displays frame and returns the key pressed during a 1ms wait, or -1.
func (w *Window) Show(frame gocv.Mat) int {
	if w == nil {
		return -1
	}
	w.win.IMShow(frame)
	return w.win.WaitKey(1)
}

func (w *Window) Close() error {
	if w == nil {
		return nil
	}
	return w.win.Close()
}
