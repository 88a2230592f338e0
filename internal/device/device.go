// Package device defines the host automation layer: the pointer, keyboard
// and display primitives everything else is built on. Backends live in the
// desktop and browser subpackages.
package device

import (
	"errors"
	"image"
	"time"
)

type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonMiddle Button = "middle"
)

// ErrUnsupported is returned by backends that cannot run in this build.
var ErrUnsupported = errors.New("device backend not supported in this build")

// Device is the primitive surface of one display with its pointer and
// keyboard. Implementations are not safe for concurrent use; the cursor and
// keyboard are a single shared resource.
type Device interface {
	// MoveCursor moves the pointer to absolute device coordinates.
	MoveCursor(x, y int) error
	// DragTo holds the left button from the current position to (x, y).
	DragTo(x, y int, d time.Duration) error
	KeyDown(id string) error
	KeyUp(id string) error
	Click(b Button) error
	DoubleClick() error
	// WriteText types s one character at a time, pausing perChar between them.
	WriteText(s string, perChar time.Duration) error
	// ScrollBy scrolls vertically. Positive is up, negative is down.
	ScrollBy(delta int) error
	CursorPosition() (x, y int, err error)
	// CaptureRaster grabs the whole display without the system cursor.
	CaptureRaster() (image.Image, error)
	ScreenSize() (w, h int, err error)
}
