package video

import "gocv.io/x/gocv"

// Window displays RGB frames on screen, for visual debugging of detection
// runs.
type Window struct {
	win *gocv.Window
	bgr gocv.Mat
}

// NewWindow opens a named display window.
func NewWindow(title string) *Window {
	return &Window{
		win: gocv.NewWindow(title),
		bgr: gocv.NewMat(),
	}
}

// Show displays an RGB frame and pumps the UI event loop. It returns false
// once the user requested exit with the escape key.
func (w *Window) Show(frame gocv.Mat) bool {
	gocv.CvtColor(frame, &w.bgr, gocv.ColorRGBToBGR)
	w.win.IMShow(w.bgr)
	return w.win.WaitKey(1) != 27
}

// Close releases the window and its conversion buffer.
func (w *Window) Close() error {
	w.bgr.Close()
	return w.win.Close()
}
