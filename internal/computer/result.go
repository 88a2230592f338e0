package computer

import "encoding/base64"

// Result is what a successful action returns: text, a PNG screenshot, or
// both.
type Result struct {
	Output string
	Image  []byte
	// ArtifactID names the persisted screenshot behind Image.
	ArtifactID string
}

// HasImage reports whether the result carries a screenshot.
func (r *Result) HasImage() bool {
	return len(r.Image) > 0
}

// Base64Image returns the screenshot base64 encoded, or "".
func (r *Result) Base64Image() string {
	if !r.HasImage() {
		return ""
	}
	return base64.StdEncoding.EncodeToString(r.Image)
}

// Descriptor advertises the display to the agent.
type Descriptor struct {
	DisplayWidthPx  int  `json:"display_width_px"`
	DisplayHeightPx int  `json:"display_height_px"`
	DisplayNumber   *int `json:"display_number"`
}
