// ABOUTME: RabbitMQ client for fanning notification messages out to other processes
// ABOUTME: Declares a durable queue and exposes publish and consume over it
package queue

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultQueueName = "shadecal.notifications"

// Client publishes and consumes raw message bodies on one queue.
type Client interface {
	Publish(ctx context.Context, body []byte) error
	Consume(ctx context.Context) (<-chan []byte, error)
	Close() error
}

type rabbitClient struct {
	conn *amqp.Connection
	q    amqp.Queue
}

// NewRabbitClient connects to RabbitMQ and declares a durable queue with the given name.
func NewRabbitClient(url string, queueName string) (Client, error) {
	if queueName == "" {
		queueName = DefaultQueueName
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	q, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", queueName, err)
	}
	// publish and consume open their own channels
	_ = ch.Close()
	return &rabbitClient{conn: conn, q: q}, nil
}

func (r *rabbitClient) Publish(ctx context.Context, body []byte) error {
	ch, err := r.conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	return ch.PublishWithContext(ctx,
		"", r.q.Name, false, false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Body:         body,
		},
	)
}

// Consume streams message bodies until ctx is cancelled. A message is acked
// once the receiver takes it; one still in hand at cancellation is requeued.
func (r *rabbitClient) Consume(ctx context.Context) (<-chan []byte, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, err
	}
	msgs, err := ch.Consume(r.q.Name, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}

	out := make(chan []byte)
	go func() {
		defer func() { _ = ch.Close() }()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- d.Body:
					_ = d.Ack(false)
				case <-ctx.Done():
					_ = d.Nack(false, true)
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *rabbitClient) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
