// Package session holds the per-user conversation state: which flow is
// active, which state it is in, and the scratch answers collected so far.
// Scratch data lives only for the duration of a flow; it is discarded when
// the flow terminates or is cancelled.
package session

import (
	"context"
	"errors"

	"github.com/mitchellh/mapstructure"
)

// ErrNotFound is returned when a user has no active session.
var ErrNotFound = errors.New("session not found")

// Scratch is the per-flow key/value memory. Values must survive a JSON
// round trip (the Redis store serializes sessions), so typed reads go
// through Decode rather than direct type assertions.
type Scratch map[string]any

func (s Scratch) Set(key string, v any) {
	s[key] = v
}

func (s Scratch) Delete(key string) {
	delete(s, key)
}

func (s Scratch) GetString(key string) (string, bool) {
	v, ok := s[key].(string)
	return v, ok
}

// GetInt tolerates float64 values, which is what numbers decode to after a
// JSON round trip.
func (s Scratch) GetInt(key string) (int, bool) {
	switch v := s[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func (s Scratch) GetBool(key string) (bool, bool) {
	v, ok := s[key].(bool)
	return v, ok
}

// Decode unmarshals the value under key into out, converting weakly typed
// representations (maps and slices produced by JSON decoding) back into
// structs.
func (s Scratch) Decode(key string, out any) error {
	v, ok := s[key]
	if !ok {
		return errors.New("scratch key " + key + " not set")
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(v)
}

// Session is one user's active conversation. One session exists per user at
// most; starting a new flow replaces it wholesale.
type Session struct {
	UserID  int64   `json:"user_id"`
	Flow    string  `json:"flow"`
	State   string  `json:"state"`
	Scratch Scratch `json:"scratch"`
}

// New creates a session positioned at the given flow state with empty
// scratch memory.
func New(userID int64, flow, state string) *Session {
	return &Session{
		UserID:  userID,
		Flow:    flow,
		State:   state,
		Scratch: make(Scratch),
	}
}

// Store persists sessions keyed by user identity.
type Store interface {
	Get(ctx context.Context, userID int64) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Delete(ctx context.Context, userID int64) error
}
