// Package mq publishes settlement events to RabbitMQ for downstream
// consumers: the fiscal export relay and branch notification screens.
// Publishing is best-effort from the API's point of view; the DB export
// queue is the durable source of truth.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// SettlementExchange is a topic exchange keyed settlement.<branch_id>.<event>.
	SettlementExchange = "settlement_topic"

	// FiscalExportQueue feeds the tax-authority export relay.
	FiscalExportQueue = "fiscal_export.q"

	dlxExchange = "settlement_dlx"
	dlqQueue    = "settlement_dlq"
)

// Event keys used as the routing key suffix.
const (
	KeySettled  = "settled"
	KeyVoided   = "voided"
	KeyRefunded = "refunded"
)

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func Dial(url string) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Close() {
	if c == nil {
		return
	}
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// DeclareTopology declares the exchange, the export queue and its dead-letter
// pair. Idempotent; safe to run on every startup.
func (c *Client) DeclareTopology() error {
	if c == nil || c.ch == nil {
		return fmt.Errorf("nil channel")
	}
	if err := c.ch.ExchangeDeclare(SettlementExchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}
	if err := c.ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(FiscalExportQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": dlqQueue,
	}); err != nil {
		return err
	}
	if _, err := c.ch.QueueDeclare(dlqQueue, true, false, false, false, nil); err != nil {
		return err
	}
	// Export relay only cares about settled orders.
	return c.ch.QueueBind(FiscalExportQueue, "settlement.*.settled", SettlementExchange, false, nil)
}

// PublishEvent sends a persistent JSON message keyed
// settlement.<branch_id>.<key>.
func (c *Client) PublishEvent(ctx context.Context, branchID, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	routingKey := "settlement." + branchID + "." + key
	return c.ch.PublishWithContext(ctx, SettlementExchange, routingKey, false, false, amqp.Publishing{
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		ContentType:  "application/json",
		Body:         body,
	})
}

// Consume delivers messages from a queue with manual acks, for the export
// relay worker.
func (c *Client) Consume(queue, consumer string, prefetch int) (<-chan amqp.Delivery, error) {
	if err := c.ch.Qos(prefetch, 0, false); err != nil {
		return nil, err
	}
	return c.ch.Consume(queue, consumer, false, false, false, false, nil)
}
