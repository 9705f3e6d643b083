package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Message is the payload consumed by the external mail worker.
type Message struct {
	To      string `json:"to"`
	Link    string `json:"link"`
	Purpose string `json:"purpose"`
}

type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

var dialBroker = func(url string) (*amqp.Connection, error) {
	return amqp.Dial(url)
}

// QueueSender hands verification mail to a worker over RabbitMQ.
type QueueSender struct {
	conn    *amqp.Connection
	channel publishChannel
	queue   string
}

// NewQueueSender connects to the broker and declares a durable queue.
func NewQueueSender(url, queueName string) (*QueueSender, error) {
	const op = "mailer.NewQueueSender"

	conn, err := dialBroker(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	q, err := ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &QueueSender{conn: conn, channel: ch, queue: q.Name}, nil
}

func (q *QueueSender) SendVerificationEmail(ctx context.Context, to, link string) error {
	const op = "mailer.QueueSender.SendVerificationEmail"

	body, err := json.Marshal(Message{To: to, Link: link, Purpose: PurposeEmailVerification})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = q.channel.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (q *QueueSender) Close() {
	if q.channel != nil {
		_ = q.channel.Close()
	}
	if q.conn != nil {
		_ = q.conn.Close()
	}
}
