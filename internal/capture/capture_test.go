package capture_test

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdesk/internal/capture"
	"agentdesk/internal/device/devicetest"
)

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func isRed(c color.Color) bool {
	r, g, b, _ := c.RGBA()
	return r == 0xffff && g == 0 && b == 0
}

func TestCaptureOverlaysCursor(t *testing.T) {
	dev := devicetest.New()
	dev.X, dev.Y = 30, 24
	c := capture.New(dev, capture.Options{Dir: t.TempDir()})

	a, err := c.Capture(nil)
	require.NoError(t, err)

	img := decode(t, a.Data)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())

	// Circle outline.
	assert.True(t, isRed(img.At(40, 24)), "circle right edge")
	assert.True(t, isRed(img.At(30, 14)), "circle top edge")
	// Crosshair arms reach twice the radius.
	assert.True(t, isRed(img.At(50, 24)), "horizontal arm")
	assert.True(t, isRed(img.At(30, 44)), "vertical arm")
	// Inside the ring, off the crosshair.
	assert.False(t, isRed(img.At(34, 28)))
	// Far corner untouched.
	assert.False(t, isRed(img.At(0, 0)))
}

func TestCaptureCursorNearEdge(t *testing.T) {
	dev := devicetest.New()
	dev.X, dev.Y = 0, 0
	c := capture.New(dev, capture.Options{Dir: t.TempDir()})

	a, err := c.Capture(nil)
	require.NoError(t, err)
	img := decode(t, a.Data)
	assert.True(t, isRed(img.At(10, 0)))
	assert.True(t, isRed(img.At(0, 20)))
}

func TestCapturePersistsUniqueFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "outputs")
	c := capture.New(devicetest.New(), capture.Options{Dir: dir})

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		a, err := c.Capture(nil)
		require.NoError(t, err)

		assert.False(t, seen[a.ID], "duplicate id %s", a.ID)
		seen[a.ID] = true

		assert.Equal(t, dir, filepath.Dir(a.Path))
		assert.Regexp(t, regexp.MustCompile(`^screenshot_[0-9a-f]{32}\.png$`), filepath.Base(a.Path))

		onDisk, err := os.ReadFile(a.Path)
		require.NoError(t, err)
		assert.Equal(t, a.Data, onDisk)
	}
}

func TestCaptureResize(t *testing.T) {
	c := capture.New(devicetest.New(), capture.Options{Dir: t.TempDir()})

	a, err := c.Capture(&capture.Size{Width: 32, Height: 24})
	require.NoError(t, err)
	assert.Equal(t, 32, a.Width)
	assert.Equal(t, 24, a.Height)
	img := decode(t, a.Data)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())
}

func TestCaptureDefaultResizeFromOptions(t *testing.T) {
	c := capture.New(devicetest.New(), capture.Options{
		Dir:    t.TempDir(),
		Resize: &capture.Size{Width: 16, Height: 12},
	})

	a, err := c.Capture(nil)
	require.NoError(t, err)
	assert.Equal(t, 16, a.Width)
	assert.Equal(t, 12, a.Height)
}

func TestCaptureSameSizeSkipsResample(t *testing.T) {
	c := capture.New(devicetest.New(), capture.Options{Dir: t.TempDir()})

	a, err := c.Capture(&capture.Size{Width: 64, Height: 48})
	require.NoError(t, err)
	assert.Equal(t, 64, a.Width)
	assert.Equal(t, 48, a.Height)
}

func TestCaptureFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	dev := devicetest.New()
	dev.Errors["capture"] = errors.New("display gone")
	c := capture.New(dev, capture.Options{Dir: dir})

	a, err := c.Capture(nil)
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "failed to capture screenshot")
	assert.Contains(t, err.Error(), "display gone")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLookup(t *testing.T) {
	c := capture.New(devicetest.New(), capture.Options{Dir: t.TempDir()})
	a, err := c.Capture(nil)
	require.NoError(t, err)

	path, err := c.Lookup(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a.Path, path)

	_, err = c.Lookup("../../etc/passwd")
	assert.ErrorIs(t, err, capture.ErrNotFound)

	_, err = c.Lookup("0123456789abcdef0123456789abcdef")
	assert.ErrorIs(t, err, capture.ErrNotFound)
}
