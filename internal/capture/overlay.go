package capture

import (
	"image"
	"image/color"
	"image/draw"
)

const (
	cursorRadius = 10
	cursorStroke = 2
)

var cursorColor = color.RGBA{R: 255, A: 255}

// drawCursor paints a circle outline and a crosshair centred on (cx, cy).
// Pixels outside img are skipped.
func drawCursor(img draw.Image, cx, cy int) {
	b := img.Bounds()
	set := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(b) {
			img.Set(x, y, cursorColor)
		}
	}

	outer := cursorRadius * cursorRadius
	inner := (cursorRadius - cursorStroke) * (cursorRadius - cursorStroke)
	for dy := -cursorRadius; dy <= cursorRadius; dy++ {
		for dx := -cursorRadius; dx <= cursorRadius; dx++ {
			d := dx*dx + dy*dy
			if d <= outer && d > inner {
				set(cx+dx, cy+dy)
			}
		}
	}

	for d := -2 * cursorRadius; d <= 2*cursorRadius; d++ {
		set(cx+d, cy)
		set(cx, cy+d)
	}
}

// drawable returns img itself when it can be painted on, otherwise an RGBA
// copy.
func drawable(img image.Image) draw.Image {
	if d, ok := img.(draw.Image); ok {
		return d
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, img, b.Min, draw.Src)
	return dst
}
