//go:build windows && !cgo

package desktop

import (
	"fmt"
	"image"
	"syscall"
	"time"
	"unicode"
	"unsafe"

	"github.com/kbinani/screenshot"

	"agentdesk/internal/device"
)

// Without cgo there is no robotgo, so input goes straight to user32.

var (
	user32           = syscall.NewLazyDLL("user32.dll")
	procSetCursorPos = user32.NewProc("SetCursorPos")
	procGetCursorPos = user32.NewProc("GetCursorPos")
	procMouseEvent   = user32.NewProc("mouse_event")
	procKeybdEvent   = user32.NewProc("keybd_event")
)

const dragStep = 10 * time.Millisecond

const (
	mouseeventfLeftDown   = 0x0002
	mouseeventfLeftUp     = 0x0004
	mouseeventfRightDown  = 0x0008
	mouseeventfRightUp    = 0x0010
	mouseeventfMiddleDown = 0x0020
	mouseeventfMiddleUp   = 0x0040
	mouseeventfWheel      = 0x0800

	wheelDelta = 120

	keyeventfKeyUp = 0x0002
)

const (
	vkBack     = 0x08
	vkTab      = 0x09
	vkReturn   = 0x0D
	vkShift    = 0x10
	vkControl  = 0x11
	vkMenu     = 0x12 // alt
	vkEscape   = 0x1B
	vkSpace    = 0x20
	vkPrior    = 0x21 // page up
	vkNext     = 0x22 // page down
	vkEnd      = 0x23
	vkHome     = 0x24
	vkLeft     = 0x25
	vkUp       = 0x26
	vkRight    = 0x27
	vkDown     = 0x28
	vkInsert   = 0x2D
	vkDelete   = 0x2E
	vkLWin     = 0x5B
	vkF1       = 0x70
	vkOEM1     = 0xBA // ;:
	vkOEMPlus  = 0xBB // =+
	vkOEMComma = 0xBC // ,<
	vkOEMMinus = 0xBD // -_
	vkOEMDot   = 0xBE // .>
	vkOEM2     = 0xBF // /?
	vkOEM3     = 0xC0 // `~
	vkOEM4     = 0xDB // [{
	vkOEM5     = 0xDC // \|
	vkOEM6     = 0xDD // ]}
	vkOEM7     = 0xDE // '"
)

type point struct {
	X int32
	Y int32
}

// Desktop drives the local display through user32 and captures it with
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
	return setCursorPos(d.bounds.Min.X+x, d.bounds.Min.Y+y)
}

func (d *Desktop) DragTo(x, y int, dur time.Duration) error {
	sx, sy, err := getCursorPos()
	if err != nil {
		return err
	}
	tx, ty := d.bounds.Min.X+x, d.bounds.Min.Y+y

	steps := int(dur / dragStep)
	if steps < 1 {
		steps = 1
	}

	mouseEvent(mouseeventfLeftDown, 0)
	defer mouseEvent(mouseeventfLeftUp, 0)
	for i := 1; i <= steps; i++ {
		if err := setCursorPos(sx+(tx-sx)*i/steps, sy+(ty-sy)*i/steps); err != nil {
			return err
		}
		time.Sleep(dragStep)
	}
	return nil
}

func (d *Desktop) KeyDown(id string) error {
	vk, shift, ok := mapKey(id)
	if !ok {
		return fmt.Errorf("key down %q: unknown key", id)
	}
	if shift {
		keybdEvent(vkShift, 0)
	}
	keybdEvent(vk, 0)
	return nil
}

func (d *Desktop) KeyUp(id string) error {
	vk, shift, ok := mapKey(id)
	if !ok {
		return fmt.Errorf("key up %q: unknown key", id)
	}
	keybdEvent(vk, keyeventfKeyUp)
	if shift {
		keybdEvent(vkShift, keyeventfKeyUp)
	}
	return nil
}

func (d *Desktop) Click(b device.Button) error {
	down, up := buttonFlags(b)
	mouseEvent(down, 0)
	mouseEvent(up, 0)
	return nil
}

func (d *Desktop) DoubleClick() error {
	for i := 0; i < 2; i++ {
		mouseEvent(mouseeventfLeftDown, 0)
		mouseEvent(mouseeventfLeftUp, 0)
	}
	return nil
}

func (d *Desktop) WriteText(s string, perChar time.Duration) error {
	for _, r := range s {
		vk, shift, ok := mapRune(r)
		if !ok {
			return fmt.Errorf("type %q: no key for character", r)
		}
		if shift {
			keybdEvent(vkShift, 0)
		}
		keybdEvent(vk, 0)
		keybdEvent(vk, keyeventfKeyUp)
		if shift {
			keybdEvent(vkShift, keyeventfKeyUp)
		}
		if perChar > 0 {
			time.Sleep(perChar)
		}
	}
	return nil
}

func (d *Desktop) ScrollBy(delta int) error {
	mouseEvent(mouseeventfWheel, int32(delta*wheelDelta))
	return nil
}

func (d *Desktop) CursorPosition() (int, int, error) {
	x, y, err := getCursorPos()
	if err != nil {
		return 0, 0, err
	}
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

func setCursorPos(x, y int) error {
	ret, _, err := procSetCursorPos.Call(uintptr(int32(x)), uintptr(int32(y)))
	if ret == 0 {
		return fmt.Errorf("SetCursorPos: %w", err)
	}
	return nil
}

func getCursorPos() (int, int, error) {
	var p point
	ret, _, err := procGetCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if ret == 0 {
		return 0, 0, fmt.Errorf("GetCursorPos: %w", err)
	}
	return int(p.X), int(p.Y), nil
}

func mouseEvent(flags uint32, data int32) {
	procMouseEvent.Call(uintptr(flags), 0, 0, uintptr(uint32(data)), 0)
}

func keybdEvent(vk uint16, flags uint32) {
	procKeybdEvent.Call(uintptr(vk), 0, uintptr(flags), 0)
}

func buttonFlags(b device.Button) (down, up uint32) {
	switch b {
	case device.ButtonRight:
		return mouseeventfRightDown, mouseeventfRightUp
	case device.ButtonMiddle:
		return mouseeventfMiddleDown, mouseeventfMiddleUp
	default:
		return mouseeventfLeftDown, mouseeventfLeftUp
	}
}

var namedKeys = map[string]uint16{
	"enter":     vkReturn,
	"shift":     vkShift,
	"ctrl":      vkControl,
	"alt":       vkMenu,
	"cmd":       vkLWin,
	"win":       vkLWin,
	"meta":      vkLWin,
	"esc":       vkEscape,
	"space":     vkSpace,
	"tab":       vkTab,
	"backspace": vkBack,
	"delete":    vkDelete,
	"insert":    vkInsert,
	"home":      vkHome,
	"end":       vkEnd,
	"pageup":    vkPrior,
	"pagedown":  vkNext,
	"up":        vkUp,
	"down":      vkDown,
	"left":      vkLeft,
	"right":     vkRight,
}

// mapKey maps a device key id to a virtual-key code.
func mapKey(id string) (vk uint16, shift, ok bool) {
	if vk, ok := namedKeys[id]; ok {
		return vk, false, true
	}
	var n int
	if _, err := fmt.Sscanf(id, "f%d", &n); err == nil && n >= 1 && n <= 24 && id == fmt.Sprintf("f%d", n) {
		return uint16(vkF1 + n - 1), false, true
	}
	if r := []rune(id); len(r) == 1 {
		return mapRune(r[0])
	}
	return 0, false, false
}

var punctuation = map[rune]struct {
	vk    uint16
	shift bool
}{
	' ': {vkSpace, false}, '\n': {vkReturn, false}, '\t': {vkTab, false},
	'.': {vkOEMDot, false}, '>': {vkOEMDot, true},
	',': {vkOEMComma, false}, '<': {vkOEMComma, true},
	'-': {vkOEMMinus, false}, '_': {vkOEMMinus, true},
	'=': {vkOEMPlus, false}, '+': {vkOEMPlus, true},
	';': {vkOEM1, false}, ':': {vkOEM1, true},
	'/': {vkOEM2, false}, '?': {vkOEM2, true},
	'`': {vkOEM3, false}, '~': {vkOEM3, true},
	'[': {vkOEM4, false}, '{': {vkOEM4, true},
	'\\': {vkOEM5, false}, '|': {vkOEM5, true},
	']': {vkOEM6, false}, '}': {vkOEM6, true},
	'\'': {vkOEM7, false}, '"': {vkOEM7, true},
	'!': {'1', true}, '@': {'2', true}, '#': {'3', true}, '$': {'4', true},
	'%': {'5', true}, '^': {'6', true}, '&': {'7', true}, '*': {'8', true},
	'(': {'9', true}, ')': {'0', true},
}

// mapRune maps a character on a US layout to its key and shift state.
func mapRune(r rune) (vk uint16, shift, ok bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return uint16(unicode.ToUpper(r)), false, true
	case r >= 'A' && r <= 'Z':
		return uint16(r), true, true
	case r >= '0' && r <= '9':
		return uint16(r), false, true
	}
	if p, ok := punctuation[r]; ok {
		return p.vk, p.shift, true
	}
	return 0, false, false
}
