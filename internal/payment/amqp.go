package payment

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher publishes one-way messages over a RabbitMQ connection. The
// exchange name identifies the receiving contract.
type AMQPPublisher struct {
	conn    *amqp091.Connection
	channel *amqp091.Channel
}

// NewAMQPPublisher dials the broker and opens a channel. The dial is bounded
// so startup does not hang on an unreachable broker.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp091.DialConfig(url, amqp091.Config{Dial: amqp091.DefaultDial(10 * time.Second)})
	if err != nil {
		return nil, errors.Wrap(err, "amqp dial")
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "amqp channel")
	}

	return &AMQPPublisher{conn: conn, channel: ch}, nil
}

// Publish sends a message to an exchange with a routing key. No confirms are
// requested; delivery is at most once.
func (p *AMQPPublisher) Publish(ctx context.Context, exchange, routingKey string, body interface{}) error {
	if err := p.channel.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // autoDelete
		false,    // internal
		false,    // noWait
		nil,      // args
	); err != nil {
		return errors.Wrapf(err, "declare exchange %s", exchange)
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal message")
	}

	if err := p.channel.PublishWithContext(ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType: "application/json",
			Timestamp:   time.Now(),
			Body:        jsonBody,
		},
	); err != nil {
		return errors.Wrapf(err, "publish to %s", exchange)
	}

	return nil
}

// Close closes the channel and connection.
func (p *AMQPPublisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
