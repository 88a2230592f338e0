package capture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"

	"agentdesk/internal/device"
)

var (
	// ErrNotFound is returned by Lookup for unknown artifact ids.
	ErrNotFound = errors.New("screenshot not found")
	// ErrNoRaster means the device reported success but returned no image.
	ErrNoRaster = errors.New("device returned no raster")
)

type Size struct {
	Width, Height int
}

// Artifact is one persisted screenshot.
type Artifact struct {
	ID     string
	Path   string
	Data   []byte // PNG
	Width  int
	Height int
}

type Options struct {
	// Dir receives the PNG files. Created on first capture.
	Dir string
	// Settle is slept after persisting, before returning, so that redraws
	// triggered by the preceding action have landed.
	Settle time.Duration
	// Resize is the default target used when Capture is given nil.
	Resize *Size
}

// Capturer grabs the display, marks the cursor and stores the result.
type Capturer struct {
	dev  device.Device
	opts Options
}

func New(dev device.Device, opts Options) *Capturer {
	return &Capturer{dev: dev, opts: opts}
}

// Dir returns the output directory.
func (c *Capturer) Dir() string { return c.opts.Dir }

// Capture takes one screenshot. resize overrides the configured target; the
// image is only resampled when the target differs from the native size.
// Any failure is returned as a single wrapped error and leaves no file.
func (c *Capturer) Capture(resize *Size) (*Artifact, error) {
	a, err := c.capture(resize)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screenshot: %w", err)
	}
	time.Sleep(c.opts.Settle)
	return a, nil
}

func (c *Capturer) capture(resize *Size) (*Artifact, error) {
	raster, err := c.dev.CaptureRaster()
	if err != nil {
		return nil, err
	}
	if raster == nil {
		return nil, ErrNoRaster
	}
	x, y, err := c.dev.CursorPosition()
	if err != nil {
		return nil, fmt.Errorf("cursor position: %w", err)
	}

	img := drawable(raster)
	b := img.Bounds()
	drawCursor(img, b.Min.X+x, b.Min.Y+y)

	var out image.Image = img
	if resize == nil {
		resize = c.opts.Resize
	}
	if resize != nil && resize.Width > 0 && resize.Height > 0 &&
		(resize.Width != b.Dx() || resize.Height != b.Dy()) {
		dst := image.NewRGBA(image.Rect(0, 0, resize.Width, resize.Height))
		xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
		out = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	if err := os.MkdirAll(c.opts.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", c.opts.Dir, err)
	}
	id := newID()
	path := filepath.Join(c.opts.Dir, fileName(id))
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write %s: %w", path, err)
	}

	return &Artifact{
		ID:     id,
		Path:   path,
		Data:   buf.Bytes(),
		Width:  out.Bounds().Dx(),
		Height: out.Bounds().Dy(),
	}, nil
}

// Lookup returns the path of a previously captured artifact.
func (c *Capturer) Lookup(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", ErrNotFound
	}
	path := filepath.Join(c.opts.Dir, fileName(id))
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return path, nil
}

// newID returns a random uuid in its 32 hex digit form.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func fileName(id string) string {
	return "screenshot_" + id + ".png"
}
