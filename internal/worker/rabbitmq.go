package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

const (
	ordersExchange   = "orders"
	orderPaidKey     = "order.paid"
	orderPaidQueue   = "orders.paid"
	dlxExchange      = "orders.dlx"
	dlqQueueName     = "orders.paid.dlq"
	messageTypeOrder = "order.paid.v1"
)

// SetupRabbitMQ declares the orders exchange, the paid-orders queue and its
// dead-letter queue. It is idempotent and run by both the API and the worker.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(ordersExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderPaidKey, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderPaidQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderPaidKey,
	}); err != nil {
		return fmt.Errorf("declare paid queue: %w", err)
	}
	if err := ch.QueueBind(orderPaidQueue, orderPaidKey, ordersExchange, false, nil); err != nil {
		return fmt.Errorf("bind paid queue: %w", err)
	}
	return nil
}

// ChannelOpener opens a fresh AMQP channel; (*amqp.Connection).Channel fits.
type ChannelOpener func() (*amqp.Channel, error)

// Publisher sends order events. It is safe for concurrent use. A channel
// closed by the broker is replaced on the next publish.
type Publisher struct {
	mu      sync.Mutex
	open    ChannelOpener
	channel *amqp.Channel
}

func NewPublisher(open ChannelOpener) *Publisher {
	return &Publisher{open: open}
}

func (p *Publisher) PublishOrderPaid(ctx context.Context, msg model.OrderPaidMessage) error {
	body, err := encodeOrderPaid(msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	ch, err := p.channelLocked()
	if err != nil {
		return fmt.Errorf("publish order paid: %w", err)
	}
	err = ch.PublishWithContext(ctx, ordersExchange, orderPaidKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		Type:         messageTypeOrder,
		MessageId:    msg.OrderID.String(),
		Timestamp:    msg.PaidAt,
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		_ = ch.Close()
		p.channel = nil
		return fmt.Errorf("publish order paid: %w", err)
	}
	return nil
}

func (p *Publisher) channelLocked() (*amqp.Channel, error) {
	if p.channel != nil && !p.channel.IsClosed() {
		return p.channel, nil
	}
	ch, err := p.open()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p.channel = ch
	return ch, nil
}

// Close releases the current channel, if any.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.channel == nil {
		return nil
	}
	err := p.channel.Close()
	p.channel = nil
	return err
}

func encodeOrderPaid(msg model.OrderPaidMessage) ([]byte, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal order paid: %w", err)
	}
	return body, nil
}
