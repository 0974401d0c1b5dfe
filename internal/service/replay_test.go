package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/paystack"
)

func TestFulfilmentReplayer_RepublishesAfterLostEvent(t *testing.T) {
	f := newPaymentFixture(t)
	ctx := context.Background()
	replayer := NewFulfilmentReplayer(&mockOrderRepo{s: f.store}, f.publisher, discardLogger())
	f.publisher.fail(errors.New("amqp: channel closed"))

	body := chargeSuccess(t, *f.order.PaystackReference)
	require.NoError(t, f.svc.HandleWebhook(ctx, body, paystack.Sign(body, testSecret)))
	assert.Equal(t, model.OrderStatusPaid, f.current().Status, "payment is recorded even when publishing fails")
	assert.Zero(t, f.publisher.count())

	f.publisher.fail(nil)
	n, err := replayer.Replay(ctx, 5*time.Minute, 10)
	require.NoError(t, err)
	assert.Zero(t, n, "recent payments are left to the live event")

	f.store.mu.Lock()
	paidAt := time.Now().Add(-10 * time.Minute)
	f.store.orders[f.order.ID].PaidAt = &paidAt
	f.store.mu.Unlock()

	n, err = replayer.Replay(ctx, 5*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Equal(t, 1, f.publisher.count())
	assert.Equal(t, f.order.ID, f.publisher.messages[0].OrderID)
	assert.Equal(t, *f.order.PaystackReference, f.publisher.messages[0].Reference)
	assert.True(t, paidAt.Equal(f.publisher.messages[0].PaidAt))

	_, err = (&mockOrderRepo{s: f.store}).MarkFulfilled(ctx, nil, f.order.ID)
	require.NoError(t, err)
	n, err = replayer.Replay(ctx, 5*time.Minute, 10)
	require.NoError(t, err)
	assert.Zero(t, n, "fulfilled orders are not replayed")
}

func TestFulfilmentReplayer_PublishError(t *testing.T) {
	f := newPaymentFixture(t)
	f.store.mu.Lock()
	paidAt := time.Now().Add(-time.Hour)
	f.order.PaidAt = &paidAt
	f.order.Status = model.OrderStatusPaid
	f.store.mu.Unlock()

	f.publisher.fail(errors.New("amqp: channel closed"))
	n, err := NewFulfilmentReplayer(&mockOrderRepo{s: f.store}, f.publisher, discardLogger()).
		Replay(context.Background(), time.Minute, 10)
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestFulfilmentReplayer_RespectsLimit(t *testing.T) {
	f := newPaymentFixture(t)
	f.store.mu.Lock()
	for i := 0; i < 3; i++ {
		o := *f.order
		o.ID = uuid.New()
		paidAt := time.Now().Add(-time.Duration(i+1) * time.Hour)
		o.PaidAt = &paidAt
		o.PaystackReference = nil
		f.store.orders[o.ID] = &o
	}
	f.store.mu.Unlock()

	n, err := NewFulfilmentReplayer(&mockOrderRepo{s: f.store}, f.publisher, discardLogger()).
		Replay(context.Background(), time.Minute, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	// Oldest payment first.
	assert.True(t, f.publisher.messages[0].PaidAt.Before(f.publisher.messages[1].PaidAt))
}
