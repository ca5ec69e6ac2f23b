package value

import "strings"

// Exception is the value variant carrying every VM-visible fault (§7's error
// taxonomy). It never escapes a process as a Go error; it rides the stack's
// thrown/caught slots and unwinds through try frames.
type Exception struct {
	tag         string
	description string
	payload     Value
	throwPoints []string
}

// NewException builds an Exception with the given tag, human-facing
// description, and optional payload (nil when the tag carries no payload).
func NewException(tag, description string, payload Value) *Exception {
	return &Exception{tag: tag, description: description, payload: payload}
}

func (e *Exception) Type() string  { return "exception" }
func (e *Exception) Boolean() bool { return true }

func (e *Exception) Str() string {
	if e.description == "" {
		return e.tag
	}
	return e.tag + ": " + e.description
}

func (e *Exception) Repr() string {
	return "Exception<" + e.tag + ">"
}

func (e *Exception) Copy() Value {
	cp := *e
	cp.throwPoints = append([]string(nil), e.throwPoints...)
	if e.payload != nil {
		cp.payload = e.payload.Copy()
	}
	return &cp
}

// Error satisfies the built-in error interface so an Exception can be
// wrapped by fmt.Errorf at host/diagnostic boundaries without losing its tag.
func (e *Exception) Error() string { return e.Str() }

// Tag returns the exception's classifying tag, e.g. "Division_by_zero".
func (e *Exception) Tag() string { return e.tag }

// Description returns the human-facing description, which may be empty.
func (e *Exception) Description() string { return e.description }

// Payload returns the value attached to the exception, or nil.
func (e *Exception) Payload() Value { return e.payload }

// ThrowPoints returns the accumulated sequence of throw points in the order
// they were recorded, innermost first: each entry is a return address or
// function name recorded as the exception was caught.
func (e *Exception) ThrowPoints() []string {
	return append([]string(nil), e.throwPoints...)
}

// AddThrowPoint appends a throw point. The process layer calls it once each
// time a handler catches the exception, with the catching frame's function
// name; an exception that reaches the process boundary uncaught gains none.
func (e *Exception) AddThrowPoint(point string) {
	e.throwPoints = append(e.throwPoints, point)
}

func (e *Exception) String() string {
	if len(e.throwPoints) == 0 {
		return e.Str()
	}
	return e.Str() + " (at " + strings.Join(e.throwPoints, " -> ") + ")"
}
