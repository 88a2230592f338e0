package computer

// Action is one symbolic operation an agent can request.
type Action string

const (
	ActionKey            Action = "key"
	ActionType           Action = "type"
	ActionMouseMove      Action = "mouse_move"
	ActionLeftClick      Action = "left_click"
	ActionLeftClickDrag  Action = "left_click_drag"
	ActionRightClick     Action = "right_click"
	ActionMiddleClick    Action = "middle_click"
	ActionDoubleClick    Action = "double_click"
	ActionScreenshot     Action = "screenshot"
	ActionCursorPosition Action = "cursor_position"
	ActionHover          Action = "hover"
	ActionWait           Action = "wait"
	ActionScrollUp       Action = "scroll_up"
	ActionScrollDown     Action = "scroll_down"
)

// rule says whether a parameter must, may or must not be present.
type rule int

const (
	forbidden rule = iota
	optional
	required
)

type contract struct {
	coordinate rule
	text       rule
}

var contracts = map[Action]contract{
	ActionMouseMove:      {coordinate: required, text: forbidden},
	ActionLeftClickDrag:  {coordinate: required, text: forbidden},
	ActionKey:            {coordinate: forbidden, text: required},
	ActionType:           {coordinate: forbidden, text: required},
	ActionLeftClick:      {coordinate: optional, text: forbidden},
	ActionRightClick:     {coordinate: optional, text: forbidden},
	ActionMiddleClick:    {coordinate: optional, text: forbidden},
	ActionDoubleClick:    {coordinate: optional, text: forbidden},
	ActionHover:          {coordinate: optional, text: forbidden},
	ActionScreenshot:     {coordinate: forbidden, text: forbidden},
	ActionCursorPosition: {coordinate: forbidden, text: forbidden},
	ActionScrollUp:       {coordinate: forbidden, text: forbidden},
	ActionScrollDown:     {coordinate: forbidden, text: forbidden},
	ActionWait:           {coordinate: forbidden, text: forbidden},
}

var actions = []Action{
	ActionKey,
	ActionType,
	ActionMouseMove,
	ActionLeftClick,
	ActionLeftClickDrag,
	ActionRightClick,
	ActionMiddleClick,
	ActionDoubleClick,
	ActionScreenshot,
	ActionCursorPosition,
	ActionHover,
	ActionWait,
	ActionScrollUp,
	ActionScrollDown,
}

// Actions lists every known action.
func Actions() []Action {
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

// ParseAction returns the Action named s, or false.
func ParseAction(s string) (Action, bool) {
	a := Action(s)
	_, ok := contracts[a]
	return a, ok
}

// AcceptsCoordinate reports whether a may be given a coordinate.
func (a Action) AcceptsCoordinate() bool {
	return contracts[a].coordinate != forbidden
}

// AcceptsText reports whether a may be given text.
func (a Action) AcceptsText() bool {
	return contracts[a].text != forbidden
}
