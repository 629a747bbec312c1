package gdbserver

import "fmt"

// Action is the resume action the target performs when the server loop
// returns. Its value is the RSP action character.
type Action byte

const (
	ActionNone      Action = 0
	ActionContinue  Action = 'c'
	ActionStep      Action = 's'
	ActionStepRange Action = 'r'
	ActionDetach    Action = 'D'
	ActionStop      Action = 't'
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionContinue:
		return "continue"
	case ActionStep:
		return "step"
	case ActionStepRange:
		return "step-range"
	case ActionDetach:
		return "detach"
	case ActionStop:
		return "stop"
	default:
		return fmt.Sprintf("action(%q)", byte(a))
	}
}

// RunCommand is filled in by the server loop before it yields control back to
// the target runtime. RangeMin and RangeMax are inclusive and only meaningful
// for ActionStepRange.
type RunCommand struct {
	Action   Action
	RangeMin uint32
	RangeMax uint32
}

// InRange reports whether pc lies within the step range.
func (c RunCommand) InRange(pc uint32) bool {
	return pc >= c.RangeMin && pc <= c.RangeMax
}

func (c RunCommand) String() string {
	if c.Action == ActionStepRange {
		return fmt.Sprintf("%s [%#x,%#x]", c.Action, c.RangeMin, c.RangeMax)
	}
	return c.Action.String()
}
