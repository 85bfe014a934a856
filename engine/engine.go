// Package engine drives the conversation state machine. Each user has at
// most one active session (flow + state + scratch); the engine routes every
// inbound message either to a flow trigger or to the handler of the
// session's current state, then applies the handler's outcome to the
// session store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	dbt "tripbot/db/db"
	gw "tripbot/gateway/gateway"
	"tripbot/session"
)

// CancelTrigger aborts any active flow from any state.
const CancelTrigger = "/stop"

// Request is what a handler sees for one inbound message.
type Request struct {
	Ctx      context.Context
	UserID   int64
	Username string
	Text     string
	Scratch  session.Scratch
	Store    dbt.Store
}

// Handler processes one message in one state.
type Handler func(*Request) Outcome

// Flow is one declarative conversation graph. Entry runs when the trigger
// arrives; single-shot flows Terminate straight from Entry.
type Flow struct {
	Name    string
	Trigger string
	Entry   Handler
	States  map[State]Handler
}

// Engine dispatches inbound messages across all registered flows.
type Engine struct {
	store    dbt.Store
	sessions session.Store
	flows    map[string]*Flow
	logger   *slog.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex

	cancelReply  gw.Reply
	unknownReply gw.Reply
}

func New(store dbt.Store, sessions session.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:    store,
		sessions: sessions,
		flows:    make(map[string]*Flow),
		logger:   logger,
		locks:    make(map[int64]*sync.Mutex),
	}
}

// Register adds a flow; its trigger must be unique across the engine.
func (e *Engine) Register(f *Flow) error {
	if f.Trigger == "" || f.Entry == nil {
		return fmt.Errorf("flow %q: trigger and entry are required", f.Name)
	}
	if _, ok := e.flows[f.Trigger]; ok {
		return fmt.Errorf("flow %q: trigger %q already registered", f.Name, f.Trigger)
	}
	e.flows[f.Trigger] = f
	return nil
}

// SetCancelReply sets the farewell sent when a user cancels with /stop.
func (e *Engine) SetCancelReply(r gw.Reply) {
	e.cancelReply = r
}

// SetUnknownReply sets the hint sent for text that matches no trigger while
// no flow is active.
func (e *Engine) SetUnknownReply(r gw.Reply) {
	e.unknownReply = r
}

// userLock serializes message handling per user. Different users proceed
// concurrently.
func (e *Engine) userLock(userID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	l, ok := e.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[userID] = l
	}
	return l
}

// Handle processes one inbound message to completion and returns the
// replies to deliver.
func (e *Engine) Handle(ctx context.Context, in gw.Inbound) []gw.Reply {
	l := e.userLock(in.UserID)
	l.Lock()
	defer l.Unlock()

	if in.Text == CancelTrigger {
		return e.cancel(ctx, in)
	}

	// A trigger always wins: starting a new flow while another is active
	// replaces the old session wholesale.
	if flow, ok := e.flows[in.Text]; ok {
		return e.startFlow(ctx, in, flow)
	}

	sess, err := e.sessions.Get(ctx, in.UserID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return []gw.Reply{e.unknownReply}
		}
		e.logger.Error("session load failed", "user_id", in.UserID, "err", err)
		return []gw.Reply{{Text: "Sorry, something went wrong. Please try again"}}
	}

	flow, ok := e.flows[sess.Flow]
	if !ok {
		e.logger.Error("session references unknown flow", "user_id", in.UserID, "flow", sess.Flow)
		e.clearSession(ctx, in.UserID)
		return []gw.Reply{e.unknownReply}
	}
	handler, ok := flow.States[State(sess.State)]
	if !ok {
		e.logger.Error("session references unknown state", "user_id", in.UserID, "flow", sess.Flow, "state", sess.State)
		e.clearSession(ctx, in.UserID)
		return []gw.Reply{e.unknownReply}
	}

	req := &Request{
		Ctx:      ctx,
		UserID:   in.UserID,
		Username: in.Username,
		Text:     in.Text,
		Scratch:  sess.Scratch,
		Store:    e.store,
	}
	return e.apply(ctx, sess, handler(req))
}

func (e *Engine) startFlow(ctx context.Context, in gw.Inbound, flow *Flow) []gw.Reply {
	sess := session.New(in.UserID, flow.Trigger, "")
	req := &Request{
		Ctx:      ctx,
		UserID:   in.UserID,
		Username: in.Username,
		Text:     in.Text,
		Scratch:  sess.Scratch,
		Store:    e.store,
	}
	return e.apply(ctx, sess, flow.Entry(req))
}

func (e *Engine) apply(ctx context.Context, sess *session.Session, out Outcome) []gw.Reply {
	switch out.kind {
	case outcomeAdvance:
		sess.State = string(out.next)
		fallthrough
	case outcomeStay:
		if err := e.sessions.Put(ctx, sess); err != nil {
			e.logger.Error("session store failed", "user_id", sess.UserID, "err", err)
			return []gw.Reply{{Text: "Sorry, something went wrong. Please try again"}}
		}
	case outcomeTerminate:
		e.clearSession(ctx, sess.UserID)
	}
	return out.replies
}

func (e *Engine) cancel(ctx context.Context, in gw.Inbound) []gw.Reply {
	if _, err := e.sessions.Get(ctx, in.UserID); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return []gw.Reply{e.unknownReply}
		}
		e.logger.Error("session load failed", "user_id", in.UserID, "err", err)
	}
	e.clearSession(ctx, in.UserID)
	return []gw.Reply{e.cancelReply}
}

func (e *Engine) clearSession(ctx context.Context, userID int64) {
	if err := e.sessions.Delete(ctx, userID); err != nil {
		e.logger.Error("session delete failed", "user_id", userID, "err", err)
	}
}

// Run consumes the gateway's inbound queue until ctx is cancelled,
// publishing the replies for each message on the outbound queue. Messages
// are handled concurrently; the per-user lock still serializes each user.
func (e *Engine) Run(ctx context.Context, g gw.Gateway) error {
	id, inbound, err := g.Inbound().Subscribe()
	if err != nil {
		return fmt.Errorf("failed to subscribe to inbound queue: %w", err)
	}
	defer func() {
		if err := g.Inbound().DeSubscribe(id); err != nil {
			e.logger.Error("inbound desubscribe failed", "err", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in, ok := <-inbound:
			if !ok {
				return nil
			}
			go func(in gw.Inbound) {
				replies := e.Handle(ctx, in)
				out := gw.Outbound{UserID: in.UserID, Replies: replies}
				if err := g.Outbound().Publish(out); err != nil {
					e.logger.Error("outbound publish failed", "user_id", in.UserID, "err", err)
				}
			}(in)
		}
	}
}
