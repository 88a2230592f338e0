package types

import (
	"encoding/json"

	"agentdesk/internal/computer"
)

// ActionMessage is an incoming action from a websocket, data channel or
// REST client.
type ActionMessage struct {
	ID         string          `json:"id,omitempty"`
	Action     string          `json:"action"`
	Text       *string         `json:"text,omitempty"`
	Coordinate json.RawMessage `json:"coordinate,omitempty"`
}

// Request converts the message for the dispatcher.
func (m ActionMessage) Request() computer.Request {
	return computer.Request{Action: m.Action, Text: m.Text, Coordinate: m.Coordinate}
}

// ResultMessage is the outbound reply to one ActionMessage. Error and
// ErrorKind are set instead of the other fields when the action failed.
type ResultMessage struct {
	ID          string `json:"id,omitempty"`
	Output      string `json:"output,omitempty"`
	Base64Image string `json:"base64_image,omitempty"`
	ArtifactID  string `json:"artifact_id,omitempty"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"`
}

// NewResultMessage builds the reply for id from a dispatch outcome.
func NewResultMessage(id string, res *computer.Result, err error) ResultMessage {
	if err != nil {
		kind := string(computer.KindOf(err))
		if kind == "" {
			kind = "internal"
		}
		return ResultMessage{ID: id, Error: err.Error(), ErrorKind: kind}
	}
	if res == nil {
		return ResultMessage{ID: id}
	}
	return ResultMessage{
		ID:          id,
		Output:      res.Output,
		Base64Image: res.Base64Image(),
		ArtifactID:  res.ArtifactID,
	}
}
