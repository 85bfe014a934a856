// Package gcppubsub implements the gateway on Google Cloud Pub/Sub, one
// topic per direction. Each Subscribe call creates its own GCP
// subscription so every subscriber sees the full stream.
package gcppubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"reflect"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"

	gw "tripbot/gateway/gateway"
)

const (
	inboundTopicID  = "chat-inbound"
	outboundTopicID = "chat-outbound"
)

// subscriptionInfo holds details about an active Pub/Sub subscription.
type subscriptionInfo struct {
	gcpSubscription *pubsub.Subscription
	cancel          context.CancelFunc
}

// pubsubQueue provides one direction of the gateway for message type M.
type pubsubQueue[M any] struct {
	client              *pubsub.Client
	topic               *pubsub.Topic
	activeSubscriptions map[uuid.UUID]*subscriptionInfo
	subscriptionsMutex  sync.Mutex
	ctx                 context.Context
}

// newPubsubQueue ensures the underlying topic exists, creating it if
// necessary.
func newPubsubQueue[M any](ctx context.Context, client *pubsub.Client, topicID string) (*pubsubQueue[M], error) {
	if client == nil {
		return nil, fmt.Errorf("GCP Pub/Sub client is nil")
	}

	topic := client.Topic(topicID)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for existence of topic %s: %w", topicID, err)
	}
	if !exists {
		topic, err = client.CreateTopic(ctx, topicID)
		if err != nil {
			return nil, fmt.Errorf("failed to create topic %s: %w", topicID, err)
		}
		log.Printf("Created Pub/Sub topic: %s", topicID)
	}

	return &pubsubQueue[M]{
		client:              client,
		topic:               topic,
		activeSubscriptions: make(map[uuid.UUID]*subscriptionInfo),
		ctx:                 ctx,
	}, nil
}

func (q *pubsubQueue[M]) Publish(msg M) error {
	typeName := reflect.TypeOf(msg).Name()
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", typeName, err)
	}

	result := q.topic.Publish(q.ctx, &pubsub.Message{Data: body})
	if _, err = result.Get(q.ctx); err != nil {
		return fmt.Errorf("failed to publish %s to topic %s: %w", typeName, q.topic.ID(), err)
	}
	return nil
}

func (q *pubsubQueue[M]) Subscribe() (uuid.UUID, <-chan M, error) {
	subscriptionID := uuid.New()
	typeName := reflect.TypeOf(*new(M)).Name()

	gcpSubName := fmt.Sprintf("sub-%s-%s", q.topic.ID(), subscriptionID.String())

	config := pubsub.SubscriptionConfig{
		Topic:            q.topic,
		ExpirationPolicy: 24 * time.Hour,
		AckDeadline:      10 * time.Second,
	}

	gcpSub, err := q.client.CreateSubscription(q.ctx, gcpSubName, config)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to create GCP subscription %s for %s: %w", gcpSubName, typeName, err)
	}

	msgChan := make(chan M, 5)
	receiveCtx, cancel := context.WithCancel(q.ctx)

	q.subscriptionsMutex.Lock()
	q.activeSubscriptions[subscriptionID] = &subscriptionInfo{
		gcpSubscription: gcpSub,
		cancel:          cancel,
	}
	q.subscriptionsMutex.Unlock()

	go func() {
		defer func() {
			q.subscriptionsMutex.Lock()
			delete(q.activeSubscriptions, subscriptionID)
			q.subscriptionsMutex.Unlock()

			// Delete the subscription from GCP to prevent resource leaks.
			if deleteErr := gcpSub.Delete(context.Background()); deleteErr != nil {
				log.Printf("Error deleting GCP subscription %s: %v", gcpSub.ID(), deleteErr)
			}
			close(msgChan)
		}()

		// Receive blocks until the context is cancelled.
		err := gcpSub.Receive(receiveCtx, func(ctx context.Context, pubsubMsg *pubsub.Message) {
			pubsubMsg.Ack()

			var msg M
			if err := json.Unmarshal(pubsubMsg.Data, &msg); err != nil {
				log.Printf("Error unmarshaling %s for %s: %v. Body: %s", typeName, subscriptionID, err, string(pubsubMsg.Data))
				return
			}

			select {
			case msgChan <- msg:
			case <-time.After(2 * time.Second):
				log.Printf("Timeout sending %s to msgChan for %s.", typeName, subscriptionID)
			case <-receiveCtx.Done():
				return
			}
		})

		if err != nil && err != context.Canceled {
			log.Printf("Error in Receive loop for %s subscription %s: %v", typeName, subscriptionID, err)
		}
	}()

	return subscriptionID, msgChan, nil
}

func (q *pubsubQueue[M]) DeSubscribe(id uuid.UUID) error {
	q.subscriptionsMutex.Lock()
	info, ok := q.activeSubscriptions[id]
	if ok {
		// Removed from the map inside the goroutine's defer block; here we
		// just trigger the cancellation.
		info.cancel()
	}
	q.subscriptionsMutex.Unlock()

	if !ok {
		return fmt.Errorf("subscription ID %s not found for %s queue", id, reflect.TypeOf(*new(M)).Name())
	}
	return nil
}

// Close cancels all active subscriptions on this queue.
func (q *pubsubQueue[M]) Close() {
	q.subscriptionsMutex.Lock()
	defer q.subscriptionsMutex.Unlock()

	for _, info := range q.activeSubscriptions {
		info.cancel()
	}
}

// Gateway is the Pub/Sub-backed gateway implementation.
type Gateway struct {
	inbound  *pubsubQueue[gw.Inbound]
	outbound *pubsubQueue[gw.Outbound]
}

// NewGateway creates a Pub/Sub client for the project and binds both
// direction topics.
func NewGateway(ctx context.Context, projectID string) (*Gateway, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCP Pub/Sub client for project %s: %w", projectID, err)
	}

	inbound, err := newPubsubQueue[gw.Inbound](ctx, client, inboundTopicID)
	if err != nil {
		return nil, err
	}
	outbound, err := newPubsubQueue[gw.Outbound](ctx, client, outboundTopicID)
	if err != nil {
		return nil, err
	}

	return &Gateway{
		inbound:  inbound,
		outbound: outbound,
	}, nil
}

func (g *Gateway) Inbound() gw.InboundQueue {
	return g.inbound
}

func (g *Gateway) Outbound() gw.OutboundQueue {
	return g.outbound
}

// Close shuts down all active subscriptions on both directions.
func (g *Gateway) Close() {
	g.inbound.Close()
	g.outbound.Close()
}
