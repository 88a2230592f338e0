package computer

import (
	"bytes"
	"encoding/json"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Request is one action as sent by the agent. Text and Coordinate are kept
// loosely typed so that every contract violation can be reported, not just
// the ones a typed decoder would catch.
type Request struct {
	Action     string          `json:"action"`
	Text       *string         `json:"text,omitempty"`
	Coordinate json.RawMessage `json:"coordinate,omitempty"`
}

type Option func(*Request)

// NewRequest builds a Request for Go callers.
func NewRequest(action Action, opts ...Option) Request {
	r := Request{Action: string(action)}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func WithText(s string) Option {
	return func(r *Request) { r.Text = &s }
}

func WithCoordinate(x, y int) Option {
	return func(r *Request) {
		r.Coordinate = json.RawMessage("[" + strconv.Itoa(x) + "," + strconv.Itoa(y) + "]")
	}
}

func (r Request) hasText() bool {
	return r.Text != nil
}

func (r Request) hasCoordinate() bool {
	c := bytes.TrimSpace(r.Coordinate)
	return len(c) > 0 && !bytes.Equal(c, []byte("null"))
}

// coordinate decodes a two-element integer array.
func (r Request) coordinate(a Action) (int, int, error) {
	raw := string(bytes.TrimSpace(r.Coordinate))

	var parts []json.RawMessage
	if err := codec.Unmarshal(r.Coordinate, &parts); err != nil {
		return 0, 0, malformed(raw, a, "a tuple of length 2")
	}
	if len(parts) != 2 {
		return 0, 0, malformed(raw, a, "a tuple of length 2")
	}

	var xy [2]int
	for i, p := range parts {
		v, err := strconv.Atoi(string(bytes.TrimSpace(p)))
		if err != nil {
			return 0, 0, malformed(raw, a, "a tuple of integers")
		}
		xy[i] = v
	}
	return xy[0], xy[1], nil
}
