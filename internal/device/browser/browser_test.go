package browser

import (
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"

	"agentdesk/internal/device"
)

func TestPlaywrightKey(t *testing.T) {
	tests := map[string]string{
		"enter":    "Enter",
		"win":      "Meta",
		"pagedown": "PageDown",
		"esc":      "Escape",
		"a":        "a",
		"7":        "7",
		"f5":       "F5",
		"f12":      "F12",
		"capslock": "Capslock",
		"":         "",
	}
	for in, want := range tests {
		assert.Equal(t, want, playwrightKey(in), "key %q", in)
	}
}

func TestMouseButton(t *testing.T) {
	assert.Equal(t, playwright.MouseButtonRight, mouseButton(device.ButtonRight))
	assert.Equal(t, playwright.MouseButtonMiddle, mouseButton(device.ButtonMiddle))
	assert.Equal(t, playwright.MouseButtonLeft, mouseButton(device.ButtonLeft))
	assert.Equal(t, playwright.MouseButtonLeft, mouseButton("back"))
}
