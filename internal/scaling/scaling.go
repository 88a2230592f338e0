// Package scaling converts pointer coordinates between the space the agent
// reasons in (API space) and the real display (device space).
package scaling

import "math"

type Point struct {
	X, Y int
}

type Size struct {
	Width, Height int
}

// Scaler translates points in both directions. Implementations must be
// monotonic, bounds-preserving and satisfy ToAPI(ToDevice(p)) == p for every
// in-range p.
type Scaler interface {
	ToDevice(p Point) Point
	ToAPI(p Point) Point
}

// Identity passes coordinates through unchanged.
type Identity struct{}

func (Identity) ToDevice(p Point) Point { return p }
func (Identity) ToAPI(p Point) Point    { return p }

// Proportional scales each axis independently between an API resolution and
// the device resolution. Round trips are exact when the device is at least
// as large as the API size on both axes.
type Proportional struct {
	API    Size
	Device Size
}

// ToDevice maps an API-space point onto the display.
func (s Proportional) ToDevice(p Point) Point {
	return Point{
		X: scale(p.X, s.Device.Width, s.API.Width),
		Y: scale(p.Y, s.Device.Height, s.API.Height),
	}
}

// ToAPI maps a display point into API space.
func (s Proportional) ToAPI(p Point) Point {
	return Point{
		X: scale(p.X, s.API.Width, s.Device.Width),
		Y: scale(p.Y, s.API.Height, s.Device.Height),
	}
}

func scale(v, to, from int) int {
	return int(math.Round(float64(v) * float64(to) / float64(from)))
}

// New picks the scaler for the given settings. Disabled scaling, an unset API
// size, an API size equal to the device size or one that Upscales reports
// all yield Identity.
func New(enabled bool, api, device Size) Scaler {
	if !enabled || api.Width <= 0 || api.Height <= 0 || device.Width <= 0 || device.Height <= 0 {
		return Identity{}
	}
	if api == device || Upscales(api, device) {
		return Identity{}
	}
	return Proportional{API: api, Device: device}
}

// Upscales reports whether api is larger than device on either axis. Such a
// target cannot be reached from the device without losing points.
func Upscales(api, device Size) bool {
	return api.Width > device.Width || api.Height > device.Height
}

// SizeToAPI converts a device resolution into the resolution advertised to
// the agent.
func SizeToAPI(s Scaler, device Size) Size {
	p := s.ToAPI(Point{X: device.Width, Y: device.Height})
	return Size{Width: p.X, Height: p.Y}
}
