package computer_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentdesk/internal/capture"
	"agentdesk/internal/computer"
	"agentdesk/internal/device/devicetest"
	"agentdesk/internal/logger"
	"agentdesk/internal/scaling"
)

var fastTimings = computer.Timings{
	Typing:       time.Millisecond,
	Drag:         time.Millisecond,
	Hover:        time.Millisecond,
	Wait:         10 * time.Millisecond,
	ScrollAmount: 100,
}

func newComputer(t *testing.T, opts computer.Options) (*computer.Computer, *devicetest.Recorder) {
	t.Helper()
	dev := devicetest.New()
	shots := capture.New(dev, capture.Options{Dir: t.TempDir()})
	if opts.Timings == (computer.Timings{}) {
		opts.Timings = fastTimings
	}
	opts.Logger = logger.Discard()
	c, err := computer.New(dev, shots, opts)
	require.NoError(t, err)
	return c, dev
}

func TestRequiredCoordinate(t *testing.T) {
	for _, a := range []computer.Action{computer.ActionMouseMove, computer.ActionLeftClickDrag} {
		t.Run(string(a), func(t *testing.T) {
			c, dev := newComputer(t, computer.Options{})

			_, err := c.Dispatch(context.Background(), computer.NewRequest(a))
			assert.ErrorIs(t, err, computer.ErrMissingParameter)
			assert.Contains(t, err.Error(), "coordinate")

			_, err = c.Dispatch(context.Background(), computer.NewRequest(a,
				computer.WithCoordinate(1, 2), computer.WithText("x")))
			assert.ErrorIs(t, err, computer.ErrUnexpectedParameter)
			assert.Contains(t, err.Error(), "text")

			assert.Empty(t, dev.Calls())
		})
	}
}

func TestRequiredText(t *testing.T) {
	for _, a := range []computer.Action{computer.ActionKey, computer.ActionType} {
		t.Run(string(a), func(t *testing.T) {
			c, dev := newComputer(t, computer.Options{})

			_, err := c.Dispatch(context.Background(), computer.NewRequest(a))
			assert.ErrorIs(t, err, computer.ErrMissingParameter)
			assert.Contains(t, err.Error(), "text")

			_, err = c.Dispatch(context.Background(), computer.NewRequest(a,
				computer.WithText("a"), computer.WithCoordinate(1, 2)))
			assert.ErrorIs(t, err, computer.ErrUnexpectedParameter)
			assert.Contains(t, err.Error(), "coordinate")

			assert.Empty(t, dev.Calls())
		})
	}
}

func TestForbiddenParameters(t *testing.T) {
	for _, a := range computer.Actions() {
		t.Run(string(a), func(t *testing.T) {
			c, dev := newComputer(t, computer.Options{})
			if !a.AcceptsText() {
				req := computer.NewRequest(a, computer.WithText("x"))
				if a == computer.ActionMouseMove || a == computer.ActionLeftClickDrag {
					req = computer.NewRequest(a, computer.WithText("x"), computer.WithCoordinate(1, 1))
				}
				_, err := c.Dispatch(context.Background(), req)
				assert.Equal(t, computer.KindUnexpectedParameter, computer.KindOf(err))
			}
			if !a.AcceptsCoordinate() {
				req := computer.NewRequest(a, computer.WithCoordinate(1, 1))
				if a == computer.ActionKey || a == computer.ActionType {
					req = computer.NewRequest(a, computer.WithCoordinate(1, 1), computer.WithText("x"))
				}
				_, err := c.Dispatch(context.Background(), req)
				assert.Equal(t, computer.KindUnexpectedParameter, computer.KindOf(err))
			}
			assert.Empty(t, dev.Calls())
		})
	}
}

func TestMalformedCoordinate(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"one element", `[1]`},
		{"three elements", `[1,2,3]`},
		{"strings", `["1","2"]`},
		{"floats", `[1.5,2]`},
		{"object", `{"x":1,"y":2}`},
		{"scalar", `7`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, dev := newComputer(t, computer.Options{})
			req := computer.Request{Action: "mouse_move", Coordinate: json.RawMessage(tt.raw)}

			_, err := c.Dispatch(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, computer.ErrMalformedCoordinate)
			assert.True(t, computer.IsValidation(err))
			assert.Empty(t, dev.Calls())
		})
	}
}

func TestNullCoordinateIsAbsent(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})
	req := computer.Request{Action: "left_click", Coordinate: json.RawMessage("null")}

	res, err := c.Dispatch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "Performed left_click", res.Output)
	assert.Equal(t, []string{"click(left)", "capture()"}, dev.Calls())
}

func TestInvalidAction(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})
	for _, name := range []string{"bogus_action", "", "LEFT_CLICK", "left click"} {
		_, err := c.Dispatch(context.Background(), computer.Request{Action: name})
		assert.ErrorIs(t, err, computer.ErrInvalidAction, name)

		var te *computer.ToolError
		require.True(t, errors.As(err, &te))
		assert.Equal(t, name, te.Action)
	}
	assert.Empty(t, dev.Calls())
}

func TestKeyChordOrder(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionKey, computer.WithText("Super_L+r")))
	require.NoError(t, err)
	assert.Equal(t, "Pressed keys: Super_L+r", res.Output)
	assert.False(t, res.HasImage())
	assert.Equal(t, []string{"keydown(win)", "keydown(r)", "keyup(r)", "keyup(win)"}, dev.Calls())
}

func TestKeyChordEmptyToken(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})

	_, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionKey, computer.WithText("ctrl+")))
	assert.ErrorIs(t, err, computer.ErrMissingParameter)
	assert.Empty(t, dev.Calls())
}

func TestKeyChordReleasesOnFailure(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})
	boom := errors.New("boom")
	dev.Errors["keyup"] = boom

	_, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionKey, computer.WithText("ctrl+c")))
	assert.ErrorIs(t, err, computer.ErrCapturePrimitiveFailure)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"keydown(ctrl)", "keydown(c)"}, dev.Calls())
}

func TestKeyChordReleasesHeldKeysOnKeyDownFailure(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})
	req := computer.NewRequest(computer.ActionKey, computer.WithText("ctrl+shift+t"))

	_, err := c.Dispatch(context.Background(), req)
	require.NoError(t, err)
	dev.Reset()

	boom := errors.New("boom")
	dev.Errors["keydown(t)"] = boom

	_, err = c.Dispatch(context.Background(), req)
	assert.ErrorIs(t, err, computer.ErrCapturePrimitiveFailure)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"keydown(ctrl)", "keydown(shift)", "keyup(shift)", "keyup(ctrl)"}, dev.Calls())
}

func TestCursorPositionHasNoImage(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})
	dev.X, dev.Y = 12, 34

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionCursorPosition))
	require.NoError(t, err)
	assert.Equal(t, "X=12,Y=34", res.Output)
	assert.False(t, res.HasImage())
	assert.Empty(t, res.Base64Image())
}

func TestScreenshotUnique(t *testing.T) {
	c, _ := newComputer(t, computer.Options{})

	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionScreenshot))
		require.NoError(t, err)
		assert.True(t, res.HasImage())
		assert.Empty(t, res.Output)
		require.NotEmpty(t, res.ArtifactID)
		assert.False(t, seen[res.ArtifactID], "artifact id reused")
		seen[res.ArtifactID] = true
	}
}

func TestWait(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})

	start := time.Now()
	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionWait))
	require.NoError(t, err)
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "Performed wait", res.Output)
	assert.False(t, res.HasImage())
	assert.Empty(t, dev.Calls())
}

func TestLeftClickAtCoordinate(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionLeftClick, computer.WithCoordinate(50, 40)))
	require.NoError(t, err)
	assert.Equal(t, "Performed left_click", res.Output)
	assert.True(t, res.HasImage())
	assert.Equal(t, []string{"move(50,40)", "click(left)", "capture()"}, dev.Calls())
}

func TestPointerActions(t *testing.T) {
	tests := []struct {
		action computer.Action
		want   string
	}{
		{computer.ActionRightClick, "click(right)"},
		{computer.ActionMiddleClick, "click(middle)"},
		{computer.ActionDoubleClick, "doubleclick()"},
	}
	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			c, dev := newComputer(t, computer.Options{})

			res, err := c.Dispatch(context.Background(), computer.NewRequest(tt.action))
			require.NoError(t, err)
			assert.Equal(t, "Performed "+string(tt.action), res.Output)
			assert.True(t, res.HasImage())
			assert.Equal(t, []string{tt.want, "capture()"}, dev.Calls())
		})
	}
}

func TestHover(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionHover, computer.WithCoordinate(3, 4)))
	require.NoError(t, err)
	assert.Equal(t, "Performed hover", res.Output)
	assert.True(t, res.HasImage())
	assert.Equal(t, []string{"move(3,4)", "capture()"}, dev.Calls())
}

func TestType(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionType, computer.WithText("hello")))
	require.NoError(t, err)
	assert.Equal(t, "hello", res.Output)
	assert.True(t, res.HasImage())
	assert.Equal(t, []string{
		"click(left)",
		`write("hello",1ms)`,
		"keydown(enter)",
		"keyup(enter)",
		"capture()",
	}, dev.Calls())
}

func TestScroll(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionScrollUp))
	require.NoError(t, err)
	assert.Equal(t, "Performed scroll_up", res.Output)
	assert.True(t, res.HasImage())

	_, err = c.Dispatch(context.Background(), computer.NewRequest(computer.ActionScrollDown))
	require.NoError(t, err)

	assert.Equal(t, []string{"scroll(100)", "capture()", "scroll(-100)", "capture()"}, dev.Calls())
}

func TestMouseMoveAndDrag(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionMouseMove, computer.WithCoordinate(5, 6)))
	require.NoError(t, err)
	assert.Equal(t, "Moved mouse to (5, 6)", res.Output)
	assert.False(t, res.HasImage())

	res, err = c.Dispatch(context.Background(), computer.NewRequest(computer.ActionLeftClickDrag, computer.WithCoordinate(20, 30)))
	require.NoError(t, err)
	assert.Equal(t, "Dragged mouse from (5, 6) to (20, 30)", res.Output)

	assert.Equal(t, []string{"move(5,6)", "drag(20,30,1ms)"}, dev.Calls())
}

func TestScalingRoundTrip(t *testing.T) {
	c, dev := newComputer(t, computer.Options{
		Scaling: true,
		APISize: scaling.Size{Width: 32, Height: 24},
	})

	_, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionMouseMove, computer.WithCoordinate(10, 12)))
	require.NoError(t, err)
	assert.Equal(t, []string{"move(20,24)"}, dev.Calls())

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionCursorPosition))
	require.NoError(t, err)
	assert.Equal(t, "X=10,Y=12", res.Output)

	opts := c.Options()
	assert.Equal(t, 32, opts.DisplayWidthPx)
	assert.Equal(t, 24, opts.DisplayHeightPx)
}

func TestUpscaleTargetFallsBackToDevice(t *testing.T) {
	c, dev := newComputer(t, computer.Options{Scaling: true, APISize: scaling.Size{Width: 128, Height: 96}})

	opts := c.Options()
	assert.Equal(t, 64, opts.DisplayWidthPx)
	assert.Equal(t, 48, opts.DisplayHeightPx)

	_, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionMouseMove, computer.WithCoordinate(10, 20)))
	require.NoError(t, err)
	assert.Equal(t, []string{"move(10,20)"}, dev.Calls())
}

func TestOptions(t *testing.T) {
	display := 1
	c, _ := newComputer(t, computer.Options{DisplayNumber: &display})

	opts := c.Options()
	assert.Equal(t, 64, opts.DisplayWidthPx)
	assert.Equal(t, 48, opts.DisplayHeightPx)
	require.NotNil(t, opts.DisplayNumber)
	assert.Equal(t, 1, *opts.DisplayNumber)
}

func TestPrimitiveFailure(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})
	boom := errors.New("no display")
	dev.Errors["move"] = boom

	_, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionMouseMove, computer.WithCoordinate(1, 1)))
	assert.ErrorIs(t, err, computer.ErrCapturePrimitiveFailure)
	assert.ErrorIs(t, err, boom)
	assert.False(t, computer.IsValidation(err))
}

func TestClickStandsWhenScreenshotFails(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})
	dev.Errors["capture"] = errors.New("grab failed")

	res, err := c.Dispatch(context.Background(), computer.NewRequest(computer.ActionLeftClick))
	assert.Nil(t, res)
	assert.ErrorIs(t, err, computer.ErrCapturePrimitiveFailure)
	assert.Equal(t, []string{"click(left)"}, dev.Calls())
}

func TestCanceledBeforeStart(t *testing.T) {
	c, dev := newComputer(t, computer.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Dispatch(ctx, computer.NewRequest(computer.ActionLeftClick))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dev.Calls())

	// Validation still wins over cancellation.
	_, err = c.Dispatch(ctx, computer.Request{Action: "bogus"})
	assert.ErrorIs(t, err, computer.ErrInvalidAction)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "wait", computer.Describe(computer.NewRequest(computer.ActionWait)))
	assert.Equal(t, `key text="ctrl+c"`,
		computer.Describe(computer.NewRequest(computer.ActionKey, computer.WithText("ctrl+c"))))
	assert.Equal(t, "left_click coordinate=[1,2]",
		computer.Describe(computer.NewRequest(computer.ActionLeftClick, computer.WithCoordinate(1, 2))))
}
