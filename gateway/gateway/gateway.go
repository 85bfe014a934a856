// Package gateway defines the messaging transport contract. The engine
// consumes Inbound messages and produces Outbound replies; concrete
// backends (Go channels, RabbitMQ, GCP Pub/Sub) carry them.
package gateway

import "github.com/google/uuid"

// Inbound is one raw text message from a user.
type Inbound struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
}

// Reply is a single rendered response. QuickReplies suggest the labels the
// current conversation state accepts; Image carries the rendered route map
// in the trip-info flow.
type Reply struct {
	Text         string   `json:"text"`
	QuickReplies []string `json:"quick_replies,omitempty"`
	Image        []byte   `json:"image,omitempty"`
}

// Outbound bundles the replies produced by handling one inbound message.
type Outbound struct {
	UserID  int64   `json:"user_id"`
	Replies []Reply `json:"replies"`
}

type InboundQueue interface {
	Publish(msg Inbound) error
	Subscribe() (uuid.UUID, <-chan Inbound, error)
	DeSubscribe(id uuid.UUID) error
}

type OutboundQueue interface {
	Publish(msg Outbound) error
	Subscribe() (uuid.UUID, <-chan Outbound, error)
	DeSubscribe(id uuid.UUID) error
}

// Gateway exposes both directions of a message transport.
type Gateway interface {
	Inbound() InboundQueue
	Outbound() OutboundQueue
}
