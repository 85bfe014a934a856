// Package goch implements the gateway on plain Go channels. It is the
// default for the local chat mode and for tests.
package goch

import (
	"sync"

	"github.com/google/uuid"

	gw "tripbot/gateway/gateway"
)

type QueueError string

func (e QueueError) Error() string {
	return string(e)
}

const ErrQueueFull QueueError = "message queue is full"

// channelQueue fans each published message out to every subscriber.
type channelQueue[M any] struct {
	mu        sync.RWMutex
	consumers map[uuid.UUID]chan M
	buffer    int
}

func newChannelQueue[M any](buffer int) *channelQueue[M] {
	return &channelQueue[M]{
		consumers: make(map[uuid.UUID]chan M),
		buffer:    buffer,
	}
}

func (q *channelQueue[M]) Publish(msg M) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	for _, ch := range q.consumers {
		// Non-blocking send: a stuck consumer must not stall the rest.
		select {
		case ch <- msg:
		default:
			return ErrQueueFull
		}
	}
	return nil
}

func (q *channelQueue[M]) Subscribe() (uuid.UUID, <-chan M, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := uuid.New()
	ch := make(chan M, q.buffer)
	q.consumers[id] = ch
	return id, ch, nil
}

func (q *channelQueue[M]) DeSubscribe(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, ok := q.consumers[id]; ok {
		close(ch)
		delete(q.consumers, id)
	}
	return nil
}

// Gateway is the channel-backed gateway implementation.
type Gateway struct {
	inbound  *channelQueue[gw.Inbound]
	outbound *channelQueue[gw.Outbound]
}

// NewGateway creates a channel gateway; bufferSize sets the capacity of
// each subscriber channel.
func NewGateway(bufferSize int) *Gateway {
	return &Gateway{
		inbound:  newChannelQueue[gw.Inbound](bufferSize),
		outbound: newChannelQueue[gw.Outbound](bufferSize),
	}
}

func (g *Gateway) Inbound() gw.InboundQueue {
	return g.inbound
}

func (g *Gateway) Outbound() gw.OutboundQueue {
	return g.outbound
}
