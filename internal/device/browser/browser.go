// Package browser drives a headless Chromium page through Playwright.
package browser

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"agentdesk/internal/device"
)

// Options configures the headless browser backend.
type Options struct {
	URL      string
	Width    int
	Height   int
	Headless bool
}

// Browser drives a single Playwright page as if it were a display. The page
// has no real cursor, so the last pointer position is tracked here.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	width   int
	height  int
	x, y    int
}

// New starts Playwright, launches Chromium and opens opts.URL.
func New(opts Options) (device.Device, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid browser viewport %dx%d", opts.Width, opts.Height)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("could not launch browser: %w", err)
	}
	page, err := browser.NewPage(playwright.BrowserNewPageOptions{
		Viewport: &playwright.Size{Width: opts.Width, Height: opts.Height},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("could not create page: %w", err)
	}
	if opts.URL != "" {
		if _, err := page.Goto(opts.URL); err != nil {
			browser.Close()
			pw.Stop()
			return nil, fmt.Errorf("could not navigate to %s: %w", opts.URL, err)
		}
	}

	return &Browser{
		pw:      pw,
		browser: browser,
		page:    page,
		width:   opts.Width,
		height:  opts.Height,
	}, nil
}

func (b *Browser) MoveCursor(x, y int) error {
	if err := b.page.Mouse().Move(float64(x), float64(y)); err != nil {
		return err
	}
	b.x, b.y = x, y
	return nil
}

func (b *Browser) DragTo(x, y int, d time.Duration) error {
	mouse := b.page.Mouse()
	if err := mouse.Down(); err != nil {
		return err
	}
	steps := int(d / (10 * time.Millisecond))
	if steps < 1 {
		steps = 1
	}
	err := mouse.Move(float64(x), float64(y), playwright.MouseMoveOptions{Steps: playwright.Int(steps)})
	upErr := mouse.Up()
	if err == nil {
		err = upErr
	}
	if err != nil {
		return err
	}
	b.x, b.y = x, y
	return nil
}

func (b *Browser) KeyDown(id string) error {
	return b.page.Keyboard().Down(playwrightKey(id))
}

func (b *Browser) KeyUp(id string) error {
	return b.page.Keyboard().Up(playwrightKey(id))
}

func (b *Browser) Click(btn device.Button) error {
	return b.page.Mouse().Click(float64(b.x), float64(b.y), playwright.MouseClickOptions{
		Button: mouseButton(btn),
	})
}

func (b *Browser) DoubleClick() error {
	return b.page.Mouse().Dblclick(float64(b.x), float64(b.y))
}

func (b *Browser) WriteText(s string, perChar time.Duration) error {
	delay := float64(perChar / time.Millisecond)
	return b.page.Keyboard().Type(s, playwright.KeyboardTypeOptions{Delay: playwright.Float(delay)})
}

func (b *Browser) ScrollBy(delta int) error {
	// Wheel deltas grow downwards.
	return b.page.Mouse().Wheel(0, float64(-delta))
}

func (b *Browser) CursorPosition() (int, int, error) {
	return b.x, b.y, nil
}

func (b *Browser) CaptureRaster() (image.Image, error) {
	buf, err := b.page.Screenshot()
	if err != nil {
		return nil, fmt.Errorf("page screenshot: %w", err)
	}
	img, err := png.Decode(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("decode page screenshot: %w", err)
	}
	return img, nil
}

func (b *Browser) ScreenSize() (int, int, error) {
	return b.width, b.height, nil
}

// Close shuts the browser and the Playwright driver down.
func (b *Browser) Close() error {
	if err := b.browser.Close(); err != nil {
		return err
	}
	return b.pw.Stop()
}

func mouseButton(btn device.Button) *playwright.MouseButton {
	switch btn {
	case device.ButtonRight:
		return playwright.MouseButtonRight
	case device.ButtonMiddle:
		return playwright.MouseButtonMiddle
	default:
		return playwright.MouseButtonLeft
	}
}

var playwrightKeys = map[string]string{
	"enter":     "Enter",
	"esc":       "Escape",
	"ctrl":      "Control",
	"alt":       "Alt",
	"shift":     "Shift",
	"win":       "Meta",
	"cmd":       "Meta",
	"tab":       "Tab",
	"backspace": "Backspace",
	"delete":    "Delete",
	"space":     " ",
	"up":        "ArrowUp",
	"down":      "ArrowDown",
	"left":      "ArrowLeft",
	"right":     "ArrowRight",
	"pageup":    "PageUp",
	"pagedown":  "PageDown",
	"home":      "Home",
	"end":       "End",
	"insert":    "Insert",
}

// playwrightKey maps a device key id onto Playwright's key names.
func playwrightKey(id string) string {
	if k, ok := playwrightKeys[id]; ok {
		return k
	}
	if len([]rune(id)) <= 1 {
		return id
	}
	if strings.HasPrefix(id, "f") && len(id) <= 3 {
		return strings.ToUpper(id)
	}
	return strings.ToUpper(id[:1]) + id[1:]
}
