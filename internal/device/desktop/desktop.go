//go:build cgo

// Package desktop drives the local display with robotgo.
package desktop

import (
	"fmt"
	"image"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"

	"agentdesk/internal/device"
)

// dragStep is the interval between intermediate pointer moves of a drag.
const dragStep = 10 * time.Millisecond

// Desktop drives the local display through robotgo and captures it with
// kbinani/screenshot. Coordinates are relative to the selected display.
type Desktop struct {
	display int
	bounds  image.Rectangle
}

// New binds to display index n, falling back to the primary display
// when n is out of range.
func New(n int) (device.Device, error) {
	num := screenshot.NumActiveDisplays()
	if num <= 0 {
		return nil, fmt.Errorf("no active displays found")
	}
	if n < 0 || n >= num {
		n = 0
	}
	return &Desktop{display: n, bounds: screenshot.GetDisplayBounds(n)}, nil
}

func (d *Desktop) MoveCursor(x, y int) error {
	robotgo.Move(d.bounds.Min.X+x, d.bounds.Min.Y+y)
	return nil
}

func (d *Desktop) DragTo(x, y int, dur time.Duration) error {
	sx, sy := robotgo.GetMousePos()
	tx, ty := d.bounds.Min.X+x, d.bounds.Min.Y+y

	steps := int(dur / dragStep)
	if steps < 1 {
		steps = 1
	}

	if err := robotgo.Toggle("left"); err != nil {
		return fmt.Errorf("press left button: %w", err)
	}
	for i := 1; i <= steps; i++ {
		robotgo.Move(sx+(tx-sx)*i/steps, sy+(ty-sy)*i/steps)
		time.Sleep(dragStep)
	}
	if err := robotgo.Toggle("left", "up"); err != nil {
		return fmt.Errorf("release left button: %w", err)
	}
	return nil
}

func (d *Desktop) KeyDown(id string) error {
	if err := robotgo.KeyToggle(id, "down"); err != nil {
		return fmt.Errorf("key down %q: %w", id, err)
	}
	return nil
}

func (d *Desktop) KeyUp(id string) error {
	if err := robotgo.KeyToggle(id, "up"); err != nil {
		return fmt.Errorf("key up %q: %w", id, err)
	}
	return nil
}

func (d *Desktop) Click(b device.Button) error {
	robotgo.Click(string(b), false)
	return nil
}

func (d *Desktop) DoubleClick() error {
	robotgo.Click(string(device.ButtonLeft), true)
	return nil
}

func (d *Desktop) WriteText(s string, perChar time.Duration) error {
	for _, r := range s {
		robotgo.TypeStr(string(r))
		if perChar > 0 {
			time.Sleep(perChar)
		}
	}
	return nil
}

func (d *Desktop) ScrollBy(delta int) error {
	robotgo.Scroll(0, delta)
	return nil
}

func (d *Desktop) CursorPosition() (int, int, error) {
	x, y := robotgo.GetMousePos()
	return x - d.bounds.Min.X, y - d.bounds.Min.Y, nil
}

func (d *Desktop) CaptureRaster() (image.Image, error) {
	img, err := screenshot.CaptureRect(d.bounds)
	if err != nil {
		return nil, fmt.Errorf("capture display %d: %w", d.display, err)
	}
	return img, nil
}

func (d *Desktop) ScreenSize() (int, int, error) {
	return d.bounds.Dx(), d.bounds.Dy(), nil
}
