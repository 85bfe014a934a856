// Package rabbit implements the gateway over RabbitMQ. Inbound user
// messages and outbound replies travel through one topic exchange under
// distinct routing keys, so an external connector process can bridge the
// actual chat platform.
package rabbit

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	gw "tripbot/gateway/gateway"
)

const exchangeName = "chat_messages_exchange"

const (
	inboundRoutingKey  = "message.inbound"
	outboundRoutingKey = "message.outbound"
)

const publishTimeout = 5 * time.Second

// rabbitQueue implements one direction of the gateway for message type M.
type rabbitQueue[M any] struct {
	conn       *amqp091.Connection
	channel    *amqp091.Channel
	queueName  string
	routingKey string
	mu         sync.RWMutex // protects the consumers map
	consumers  map[uuid.UUID]chan M
}

func newRabbitQueue[M any](conn *amqp091.Connection, queueName, routingKey string) (*rabbitQueue[M], error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := DeclareQueueAndExchange(ch, queueName, exchangeName, routingKey); err != nil {
		ch.Close()
		return nil, err
	}

	return &rabbitQueue[M]{
		conn:       conn,
		channel:    ch,
		queueName:  queueName,
		routingKey: routingKey,
		consumers:  make(map[uuid.UUID]chan M),
	}, nil
}

func (q *rabbitQueue[M]) Publish(msg M) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	err = q.channel.PublishWithContext(ctx,
		exchangeName, // exchange
		q.routingKey, // routing key
		false,        // mandatory
		false,        // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

func (q *rabbitQueue[M]) Subscribe() (uuid.UUID, <-chan M, error) {
	msgs, err := q.channel.Consume(
		q.queueName, // queue
		"",          // consumer
		true,        // auto-ack
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("failed to register a consumer: %w", err)
	}

	subscriberID := uuid.New()
	outputChan := make(chan M)

	q.mu.Lock()
	q.consumers[subscriberID] = outputChan
	q.mu.Unlock()

	go func() {
		defer func() {
			q.mu.Lock()
			if ch, ok := q.consumers[subscriberID]; ok {
				close(ch)
				delete(q.consumers, subscriberID)
			}
			q.mu.Unlock()
		}()

		for d := range msgs {
			var msg M
			if err := json.Unmarshal(d.Body, &msg); err != nil {
				log.Printf("failed to unmarshal message from %s: %v", q.queueName, err)
				continue
			}

			q.mu.RLock()
			ch, ok := q.consumers[subscriberID]
			q.mu.RUnlock()
			if !ok {
				return
			}
			ch <- msg
		}
	}()

	return subscriberID, outputChan, nil
}

func (q *rabbitQueue[M]) DeSubscribe(id uuid.UUID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if ch, ok := q.consumers[id]; ok {
		close(ch)
		delete(q.consumers, id)
	}
	return nil
}

// Gateway is the RabbitMQ-backed gateway implementation.
type Gateway struct {
	inbound  *rabbitQueue[gw.Inbound]
	outbound *rabbitQueue[gw.Outbound]
}

// NewGateway declares the exchange and both queues on the given connection.
func NewGateway(conn *amqp091.Connection) (*Gateway, error) {
	inbound, err := newRabbitQueue[gw.Inbound](conn, "chat_inbound_queue", inboundRoutingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create inbound queue: %w", err)
	}
	outbound, err := newRabbitQueue[gw.Outbound](conn, "chat_outbound_queue", outboundRoutingKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create outbound queue: %w", err)
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
