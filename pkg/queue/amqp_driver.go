package queue

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPDriver publishes to a durable RabbitMQ queue through the default
// exchange. Deliveries are acked as soon as Pop hands them out.
type AMQPDriver struct {
	conn  *amqp.Connection
	queue string

	pubMu sync.Mutex
	pub   *amqp.Channel

	consMu     sync.Mutex
	cons       *amqp.Channel
	deliveries <-chan amqp.Delivery
}

func NewAMQPDriver(url, queue string) (*AMQPDriver, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("queue/amqp: dial: %w", err)
	}

	pub, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue/amqp: open channel: %w", err)
	}
	if _, err := pub.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("queue/amqp: declare %s: %w", queue, err)
	}

	return &AMQPDriver{conn: conn, queue: queue, pub: pub}, nil
}

func (d *AMQPDriver) Push(ctx context.Context, payload []byte) error {
	d.pubMu.Lock()
	defer d.pubMu.Unlock()

	err := d.pub.PublishWithContext(ctx, "", d.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("queue/amqp: publish: %w", err)
	}
	return nil
}

func (d *AMQPDriver) Pop(ctx context.Context) ([]byte, error) {
	deliveries, err := d.consume()
	if err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-deliveries:
		if !ok {
			d.resetConsumer()
			return nil, fmt.Errorf("queue/amqp: delivery channel closed")
		}
		if err := msg.Ack(false); err != nil {
			return nil, fmt.Errorf("queue/amqp: ack: %w", err)
		}
		return msg.Body, nil
	}
}

func (d *AMQPDriver) consume() (<-chan amqp.Delivery, error) {
	d.consMu.Lock()
	defer d.consMu.Unlock()

	if d.deliveries != nil {
		return d.deliveries, nil
	}

	ch, err := d.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("queue/amqp: open consumer channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue/amqp: qos: %w", err)
	}
	deliveries, err := ch.Consume(d.queue, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("queue/amqp: consume: %w", err)
	}

	d.cons, d.deliveries = ch, deliveries
	return deliveries, nil
}

func (d *AMQPDriver) resetConsumer() {
	d.consMu.Lock()
	defer d.consMu.Unlock()
	if d.cons != nil {
		_ = d.cons.Close()
	}
	d.cons, d.deliveries = nil, nil
}

func (d *AMQPDriver) Close() error {
	d.resetConsumer()
	d.pubMu.Lock()
	_ = d.pub.Close()
	d.pubMu.Unlock()
	return d.conn.Close()
}
