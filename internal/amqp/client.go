// Package amqp publishes offline-queue events (expense queued, sync pass
// completed) to a RabbitMQ direct exchange and lets an observer process
// consume them. Publishing is always best-effort for callers: a broker
// outage must never block the queue or the sync engine.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn         *amqp091.Connection
	channel      *amqp091.Channel
	exchangeName string
	queueName    string
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:         conn,
		channel:      channel,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = c.channel.QueueDeclare(
		c.queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// One queue receives both event kinds; the routing key tells them apart.
	for _, key := range []string{RouteExpenseQueued, RouteSyncResult} {
		if err := c.channel.QueueBind(c.queueName, key, c.exchangeName, false, nil); err != nil {
			return fmt.Errorf("bind queue for %s: %w", key, err)
		}
	}

	return nil
}

// PublishExpenseQueued announces a newly queued offline expense.
func (c *Client) PublishExpenseQueued(ctx context.Context, msg *ExpenseQueuedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, RouteExpenseQueued, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published expense queued event",
		"local_id", msg.LocalID,
		"item_id", msg.ItemID,
		"exchange", c.exchangeName)
	return nil
}

// PublishSyncResult announces the aggregate outcome of a sync pass.
func (c *Client) PublishSyncResult(ctx context.Context, msg *SyncResultMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, RouteSyncResult, body); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Published sync result event",
		"attempted", msg.Attempted,
		"succeeded", msg.Succeeded,
		"failed", msg.Failed)
	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	return nil
}

// ConsumeEvents delivers queue events to the handlers until the context is
// cancelled. Malformed messages are rejected without requeue; handler errors
// requeue the delivery.
func (c *Client) ConsumeEvents(
	ctx context.Context,
	onQueued func(context.Context, *ExpenseQueuedMessage) error,
	onSyncResult func(context.Context, *SyncResultMessage) error,
) error {
	msgs, err := c.channel.Consume(
		c.queueName,
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming queue events", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping event consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			var handleErr error
			switch delivery.RoutingKey {
			case RouteExpenseQueued:
				msg, err := ExpenseQueuedMessageFromJSON(delivery.Body)
				if err != nil {
					slog.ErrorContext(ctx, "Failed to unmarshal queued event", "error", err)
					delivery.Nack(false, false)
					continue
				}
				handleErr = onQueued(ctx, msg)
			case RouteSyncResult:
				msg, err := SyncResultMessageFromJSON(delivery.Body)
				if err != nil {
					slog.ErrorContext(ctx, "Failed to unmarshal sync result event", "error", err)
					delivery.Nack(false, false)
					continue
				}
				handleErr = onSyncResult(ctx, msg)
			default:
				slog.WarnContext(ctx, "Unknown routing key", "routing_key", delivery.RoutingKey)
				delivery.Nack(false, false)
				continue
			}

			if handleErr != nil {
				slog.ErrorContext(ctx, "Failed to handle queue event",
					"error", handleErr,
					"routing_key", delivery.RoutingKey)
				delivery.Nack(false, true)
				continue
			}
			delivery.Ack(false)
		}
	}
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
