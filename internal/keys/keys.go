package keys

import "strings"

// named maps X11-style key names, lowercased, to the identifiers the input
// backends understand.
var named = map[string]string{
	"page_down": "pagedown",
	"page_up":   "pageup",
	"super_l":   "win",
	"super_r":   "win",
	"meta_l":    "cmd",
	"meta_r":    "cmd",
	"escape":    "esc",
	"return":    "enter",
	"kp_enter":  "enter",
	"control_l": "ctrl",
	"control_r": "ctrl",
	"control":   "ctrl",
	"alt_l":     "alt",
	"alt_r":     "alt",
	"shift_l":   "shift",
	"shift_r":   "shift",
	"backspace": "backspace",
	"delete":    "delete",
	"tab":       "tab",
	"home":      "home",
	"end":       "end",
	"left":      "left",
	"right":     "right",
	"up":        "up",
	"down":      "down",
	"space":     "space",
}

// Translate maps a logical key name to a device key id. Lookup is
// case-insensitive; unknown names pass through lowercased.
func Translate(name string) string {
	k := strings.ToLower(strings.TrimSpace(name))
	if id, ok := named[k]; ok {
		return id
	}
	return k
}

// Chord splits a "+"-joined chord such as "ctrl+shift+t" and translates each
// key, keeping the written order.
func Chord(text string) []string {
	parts := strings.Split(text, "+")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		ids = append(ids, Translate(p))
	}
	return ids
}
