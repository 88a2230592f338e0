// Package devicetest provides an in-memory device.Device that records every
// primitive call, for tests that must not touch real hardware.
package devicetest

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"
	"time"

	"agentdesk/internal/device"
)

// Recorder implements device.Device. Calls are appended to Calls in the
// order they happen, formatted like "move(10,20)" or "keydown(win)".
type Recorder struct {
	mu sync.Mutex

	Width, Height int
	X, Y          int
	Background    color.Color

	// Errors makes the named primitive ("move", "capture", "keydown", ...)
	// fail with the given error. A full call such as "keydown(t)" fails only
	// that call.

	calls []string
}

// New returns a recorder with a 64x48 white screen and the cursor at (0,0).
func New() *Recorder {
	return &Recorder{
		Width:      64,
		Height:     48,
		Background: color.White,
		Errors:     map[string]error{},
	}
}

var _ device.Device = (*Recorder)(nil)

func (r *Recorder) record(name, format string, args ...interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	call := name + "(" + fmt.Sprintf(format, args...) + ")"
	if err := r.Errors[name]; err != nil {
		return err
	}
	if err := r.Errors[call]; err != nil {
		return err
	}
	r.calls = append(r.calls, call)
	return nil
}

// Calls returns a copy of the recorded primitive calls.
func (r *Recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.calls))
	copy(out, r.calls)
	return out
}

// Reset forgets the recorded calls.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = nil
}

func (r *Recorder) MoveCursor(x, y int) error {
	if err := r.record("move", "%d,%d", x, y); err != nil {
		return err
	}
	r.mu.Lock()
	r.X, r.Y = x, y
	r.mu.Unlock()
	return nil
}

func (r *Recorder) DragTo(x, y int, d time.Duration) error {
	if err := r.record("drag", "%d,%d,%s", x, y, d); err != nil {
		return err
	}
	r.mu.Lock()
	r.X, r.Y = x, y
	r.mu.Unlock()
	return nil
}

func (r *Recorder) KeyDown(id string) error { return r.record("keydown", "%s", id) }
func (r *Recorder) KeyUp(id string) error   { return r.record("keyup", "%s", id) }

func (r *Recorder) Click(b device.Button) error { return r.record("click", "%s", b) }
func (r *Recorder) DoubleClick() error          { return r.record("doubleclick", "") }

func (r *Recorder) WriteText(s string, perChar time.Duration) error {
	return r.record("write", "%q,%s", s, perChar)
}

func (r *Recorder) ScrollBy(delta int) error { return r.record("scroll", "%d", delta) }

func (r *Recorder) CursorPosition() (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.Errors["position"]; err != nil {
		return 0, 0, err
	}
	return r.X, r.Y, nil
}

// CaptureRaster returns a fresh image filled with Background.
func (r *Recorder) CaptureRaster() (image.Image, error) {
	if err := r.record("capture", ""); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.Background), image.Point{}, draw.Src)
	return img, nil
}

func (r *Recorder) ScreenSize() (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Width, r.Height, nil
}
