package engine

import (
	"strings"

	gw "tripbot/gateway/gateway"
)

// State is an opaque token naming one point in a flow.
type State string

// Outcome is what a handler decides about the session after one message.
type Outcome struct {
	kind    outcomeKind
	next    State
	replies []gw.Reply
}

type outcomeKind int

const (
	outcomeStay outcomeKind = iota
	outcomeAdvance
	outcomeTerminate
)

// Stay keeps the session in the current state, typically after a
// validation failure.
func Stay(replies ...gw.Reply) Outcome {
	return Outcome{kind: outcomeStay, replies: replies}
}

// Advance moves the session to next. Scratch changes made by the handler
// are persisted.
func Advance(next State, replies ...gw.Reply) Outcome {
	return Outcome{kind: outcomeAdvance, next: next, replies: replies}
}

// Terminate ends the session; scratch memory is discarded.
func Terminate(replies ...gw.Reply) Outcome {
	return Outcome{kind: outcomeTerminate, replies: replies}
}

// Replies returns the outgoing messages attached to the outcome.
func (o Outcome) Replies() []gw.Reply {
	return o.replies
}

// Terminated reports whether the outcome ends the session.
func (o Outcome) Terminated() bool {
	return o.kind == outcomeTerminate
}

// Switch dispatches on a fixed label set, the branch states ("name",
// "delete", "add", "end", ...). Input is matched after trimming and
// lower-casing.
type Switch map[string]Handler

// Dispatch builds a Handler from the switch table. Unrecognized input
// stays in place with the invalid reply.
func (s Switch) Dispatch(invalid gw.Reply) Handler {
	return func(r *Request) Outcome {
		label := strings.ToLower(strings.TrimSpace(r.Text))
		if h, ok := s[label]; ok {
			return h(r)
		}
		return Stay(invalid)
	}
}
