package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// messageSchema is the contract the broker consumers rely on. Every outbound
// message is validated against it before publish so a malformed producer
// fails loudly here instead of poisoning the queue.
const messageSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["event", "user_id", "body", "occurred_at"],
	"properties": {
		"event": {"type": "string", "minLength": 1},
		"user_id": {"type": "integer", "minimum": 1},
		"mobile": {"type": "string"},
		"body": {"type": "string", "minLength": 1},
		"occurred_at": {"type": "string", "format": "date-time"}
	},
	"additionalProperties": false
}`

// AMQPDispatcher publishes notifications to a topic exchange with the event
// name as routing key.
type AMQPDispatcher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	schema   *jsonschema.Schema
}

func NewAMQPDispatcher(url, exchange string) (*AMQPDispatcher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource("notification.json", strings.NewReader(messageSchema)); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("add notification schema: %w", err)
	}
	schema, err := compiler.Compile("notification.json")
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("compile notification schema: %w", err)
	}

	return &AMQPDispatcher{
		conn:     conn,
		ch:       ch,
		exchange: exchange,
		schema:   schema,
	}, nil
}

func (d *AMQPDispatcher) Dispatch(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return fmt.Errorf("decode notification for validation: %w", err)
	}
	if err := d.schema.Validate(doc); err != nil {
		return fmt.Errorf("notification schema validation: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = d.ch.PublishWithContext(publishCtx, d.exchange, msg.Event, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", msg.Event, err)
	}

	return nil
}

func (d *AMQPDispatcher) Close() error {
	if err := d.ch.Close(); err != nil {
		d.conn.Close()
		return err
	}
	return d.conn.Close()
}

// LogDispatcher writes notifications to the log instead of a broker. Used
// when AMQP_URL is not configured, typically local development.
type LogDispatcher struct {
	Logger *slog.Logger
}

func (d LogDispatcher) Dispatch(_ context.Context, msg Message) error {
	d.Logger.Info("notification",
		slog.String("event", msg.Event),
		slog.Int64("user_id", msg.UserID),
		slog.String("body", msg.Body))
	return nil
}
