package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

func TestPublisher_OpensChannelOnEveryAttemptUntilItSucceeds(t *testing.T) {
	opens := 0
	p := NewPublisher(func() (*amqp.Channel, error) {
		opens++
		return nil, amqp.ErrClosed
	})
	msg := model.OrderPaidMessage{OrderID: uuid.New(), Reference: "DJ-1", PaidAt: time.Now()}

	err := p.PublishOrderPaid(context.Background(), msg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, amqp.ErrClosed))

	require.Error(t, p.PublishOrderPaid(context.Background(), msg))
	assert.Equal(t, 2, opens, "a failed open is retried on the next publish")
	assert.NoError(t, p.Close())
}

func TestEncodeOrderPaid(t *testing.T) {
	msg := model.OrderPaidMessage{OrderID: uuid.New(), Reference: "DJ-1", PaidAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	body, err := encodeOrderPaid(msg)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.Equal(t, msg.OrderID.String(), fields["order_id"])
	assert.Equal(t, "DJ-1", fields["reference"])
	assert.Equal(t, "2026-03-01T10:00:00Z", fields["paid_at"])
}
