// Package computer turns symbolic agent actions into device primitives and
// returns text and screenshot results.
//
// A Computer is a single logical actor over one device. It holds no locks:
// callers must dispatch one action at a time (see package worker).
package computer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agentdesk/internal/capture"
	"agentdesk/internal/device"
	"agentdesk/internal/keys"
	"agentdesk/internal/logger"
	"agentdesk/internal/scaling"
)

// Timings are the fixed pauses and magnitudes used by actions.
type Timings struct {
	Typing       time.Duration // per character
	Drag         time.Duration
	Hover        time.Duration
	Wait         time.Duration
	ScrollAmount int
}

func DefaultTimings() Timings {
	return Timings{
		Typing:       12 * time.Millisecond,
		Drag:         500 * time.Millisecond,
		Hover:        500 * time.Millisecond,
		Wait:         time.Second,
		ScrollAmount: 100,
	}
}

// Screenshotter produces screenshot artifacts. *capture.Capturer is the
// production implementation.
type Screenshotter interface {
	Capture(resize *capture.Size) (*capture.Artifact, error)
}

type Options struct {
	// Scaling enables API<->device coordinate translation.
	Scaling bool
	// APISize is the resolution the agent reasons in. Zero means the device
	// resolution.
	APISize       scaling.Size
	DisplayNumber *int
	Timings       Timings
	Logger        *logger.Logger
}

// Computer dispatches actions against one device.
type Computer struct {
	dev     device.Device
	shots   Screenshotter
	scaler  scaling.Scaler
	screen  scaling.Size
	display *int
	timings Timings
	log     *logger.Logger
}

// New reads the device resolution once and fixes the scaling strategy.
func New(dev device.Device, shots Screenshotter, opts Options) (*Computer, error) {
	w, h, err := dev.ScreenSize()
	if err != nil {
		return nil, fmt.Errorf("failed to read screen size: %w", err)
	}
	screen := scaling.Size{Width: w, Height: h}

	log := opts.Logger
	if log == nil {
		log = logger.New()
	}
	if opts.Timings == (Timings{}) {
		opts.Timings = DefaultTimings()
	}
	if opts.Scaling && scaling.Upscales(opts.APISize, screen) {
		log.Notice("scaling target %dx%d exceeds the %dx%d display, using device coordinates",
			opts.APISize.Width, opts.APISize.Height, w, h)
	}

	return &Computer{
		dev:     dev,
		shots:   shots,
		scaler:  scaling.New(opts.Scaling, opts.APISize, screen),
		screen:  screen,
		display: opts.DisplayNumber,
		timings: opts.Timings,
		log:     log,
	}, nil
}

// Options describes the display in API space.
func (c *Computer) Options() Descriptor {
	size := scaling.SizeToAPI(c.scaler, c.screen)
	return Descriptor{
		DisplayWidthPx:  size.Width,
		DisplayHeightPx: size.Height,
		DisplayNumber:   c.display,
	}
}

// validated is a request that passed every contract check.
type validated struct {
	action Action
	text   string
	target *scaling.Point // device space
	chord  []string
}

func (c *Computer) validate(req Request) (*validated, error) {
	a, ok := ParseAction(req.Action)
	if !ok {
		return nil, invalidAction(req.Action)
	}
	rules := contracts[a]

	if rules.coordinate == required && !req.hasCoordinate() {
		return nil, missing("coordinate", a)
	}
	if rules.text == required && !req.hasText() {
		return nil, missing("text", a)
	}
	if rules.text == forbidden && req.hasText() {
		return nil, unexpected("text", a)
	}
	if rules.coordinate == forbidden && req.hasCoordinate() {
		return nil, unexpected("coordinate", a)
	}

	v := &validated{action: a}
	if req.hasText() {
		v.text = *req.Text
	}
	if req.hasCoordinate() {
		x, y, err := req.coordinate(a)
		if err != nil {
			return nil, err
		}
		p := c.scaler.ToDevice(scaling.Point{X: x, Y: y})
		v.target = &p
	}
	if a == ActionKey {
		v.chord = keys.Chord(v.text)
		for _, k := range v.chord {
			if k == "" {
				return nil, &ToolError{
					Kind:    KindMissingParameter,
					Action:  string(a),
					Message: fmt.Sprintf("empty key name in %q for %s", v.text, a),
				}
			}
		}
	}
	return v, nil
}

// Dispatch validates req and performs it. Validation failures never touch
// the device. ctx is only consulted before the action starts; once the
// first primitive runs the action completes.
//
// A mutating action whose trailing screenshot fails is not rolled back: the
// mutation stands and the error reports the lost screenshot.
func (c *Computer) Dispatch(ctx context.Context, req Request) (*Result, error) {
	v, err := c.validate(req)
	if err != nil {
		c.log.Debug("rejected action %q: %v", req.Action, err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.log.IsDebugEnabled() {
		if v.target != nil {
			c.log.Debug("action: %s, text: %q, coordinate: (%d, %d)", v.action, v.text, v.target.X, v.target.Y)
		} else {
			c.log.Debug("action: %s, text: %q", v.action, v.text)
		}
	}

	switch v.action {
	case ActionMouseMove:
		return c.mouseMove(v)
	case ActionLeftClickDrag:
		return c.drag(v)
	case ActionKey:
		return c.key(v)
	case ActionType:
		return c.typeText(v)
	case ActionLeftClick, ActionRightClick, ActionMiddleClick, ActionDoubleClick, ActionHover:
		return c.pointer(v)
	case ActionScreenshot:
		return c.screenshot(v.action, "")
	case ActionCursorPosition:
		return c.cursorPosition(v)
	case ActionScrollUp:
		return c.scroll(v, c.timings.ScrollAmount)
	case ActionScrollDown:
		return c.scroll(v, -c.timings.ScrollAmount)
	case ActionWait:
		time.Sleep(c.timings.Wait)
		return &Result{Output: fmt.Sprintf("Performed %s", v.action)}, nil
	}
	return nil, invalidAction(req.Action)
}

func (c *Computer) mouseMove(v *validated) (*Result, error) {
	if err := c.dev.MoveCursor(v.target.X, v.target.Y); err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	return &Result{Output: fmt.Sprintf("Moved mouse to (%d, %d)", v.target.X, v.target.Y)}, nil
}

func (c *Computer) drag(v *validated) (*Result, error) {
	cx, cy, err := c.dev.CursorPosition()
	if err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	if err := c.dev.DragTo(v.target.X, v.target.Y, c.timings.Drag); err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	return &Result{Output: fmt.Sprintf("Dragged mouse from (%d, %d) to (%d, %d)", cx, cy, v.target.X, v.target.Y)}, nil
}

// key holds every key of the chord down left to right, then releases them
// right to left, so modifiers stay held while the last key is struck.
func (c *Computer) key(v *validated) (*Result, error) {
	for i, k := range v.chord {
		if err := c.dev.KeyDown(k); err != nil {
			c.release(v.chord[:i])
			return nil, primitiveFailure(v.action, err)
		}
	}
	for i := len(v.chord) - 1; i >= 0; i-- {
		if err := c.dev.KeyUp(v.chord[i]); err != nil {
			c.release(v.chord[:i])
			return nil, primitiveFailure(v.action, err)
		}
	}
	return &Result{Output: fmt.Sprintf("Pressed keys: %s", v.text)}, nil
}

// release lets go of keys already held, in reverse order, after a failure.
func (c *Computer) release(held []string) {
	for i := len(held) - 1; i >= 0; i-- {
		if err := c.dev.KeyUp(held[i]); err != nil {
			c.log.Warn("failed to release key %s: %v", held[i], err)
		}
	}
}

func (c *Computer) typeText(v *validated) (*Result, error) {
	if err := c.dev.Click(device.ButtonLeft); err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	if err := c.dev.WriteText(v.text, c.timings.Typing); err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	if err := c.dev.KeyDown("enter"); err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	if err := c.dev.KeyUp("enter"); err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	return c.screenshot(v.action, v.text)
}

func (c *Computer) pointer(v *validated) (*Result, error) {
	if v.target != nil {
		if err := c.dev.MoveCursor(v.target.X, v.target.Y); err != nil {
			return nil, primitiveFailure(v.action, err)
		}
	}

	var err error
	switch v.action {
	case ActionLeftClick:
		err = c.dev.Click(device.ButtonLeft)
	case ActionRightClick:
		err = c.dev.Click(device.ButtonRight)
	case ActionMiddleClick:
		err = c.dev.Click(device.ButtonMiddle)
	case ActionDoubleClick:
		err = c.dev.DoubleClick()
	case ActionHover:
		time.Sleep(c.timings.Hover)
	}
	if err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	return c.screenshot(v.action, fmt.Sprintf("Performed %s", v.action))
}

func (c *Computer) cursorPosition(v *validated) (*Result, error) {
	x, y, err := c.dev.CursorPosition()
	if err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	p := c.scaler.ToAPI(scaling.Point{X: x, Y: y})
	return &Result{Output: fmt.Sprintf("X=%d,Y=%d", p.X, p.Y)}, nil
}

func (c *Computer) scroll(v *validated, delta int) (*Result, error) {
	if err := c.dev.ScrollBy(delta); err != nil {
		return nil, primitiveFailure(v.action, err)
	}
	return c.screenshot(v.action, fmt.Sprintf("Performed %s", v.action))
}

func (c *Computer) screenshot(a Action, output string) (*Result, error) {
	art, err := c.shots.Capture(nil)
	if err != nil {
		return nil, primitiveFailure(a, err)
	}
	return &Result{Output: output, Image: art.Data, ArtifactID: art.ID}, nil
}

// Describe is a one-line summary of req for logs.
func Describe(req Request) string {
	var b strings.Builder
	b.WriteString(req.Action)
	if req.Text != nil {
		fmt.Fprintf(&b, " text=%q", *req.Text)
	}
	if req.hasCoordinate() {
		fmt.Fprintf(&b, " coordinate=%s", strings.TrimSpace(string(req.Coordinate)))
	}
	return b.String()
}
