package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	onCommit   []func()
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	for _, fn := range t.onCommit {
		fn()
	}
	return nil
}

func (t *fakeTx) Rollback(context.Context) error { t.rolledBack = true; return nil }

type fakeOrderRepo struct {
	repository.OrderRepository
	orders map[uuid.UUID]*model.Order
	tx     *fakeTx
	// fulfilled is the committed fulfilment state; GetByID may lag behind it.
	fulfilled map[uuid.UUID]bool
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	return f.orders[id], nil
}

func (f *fakeOrderRepo) MarkFulfilled(_ context.Context, tx pgx.Tx, id uuid.UUID) (bool, error) {
	if f.fulfilled[id] {
		return false, nil
	}
	ftx := tx.(*fakeTx)
	ftx.onCommit = append(ftx.onCommit, func() {
		f.fulfilled[id] = true
		now := time.Now()
		f.orders[id].FulfilledAt = &now
	})
	return true, nil
}

func (f *fakeOrderRepo) BeginTx(context.Context) (pgx.Tx, error) {
	f.tx = &fakeTx{}
	return f.tx, nil
}

type fakeProductRepo struct {
	repository.ProductRepository
	stock   map[uuid.UUID]int
	failFor uuid.UUID
}

func (f *fakeProductRepo) DecrementStock(_ context.Context, _ pgx.Tx, productID uuid.UUID, quantity int) error {
	if productID == f.failFor {
		return errors.New("product gone")
	}
	f.stock[productID] -= quantity
	return nil
}

type memIdempotency struct {
	keys    map[string]bool
	seenErr error
}

func (m *memIdempotency) Seen(_ context.Context, key string) (bool, error) {
	return m.keys[key], m.seenErr
}

func (m *memIdempotency) Mark(_ context.Context, key string) error {
	m.keys[key] = true
	return nil
}

type workerFixture struct {
	worker   *OrderWorker
	orders   *fakeOrderRepo
	products *fakeProductRepo
	seen     *memIdempotency
	order    *model.Order
	beads    uuid.UUID
	gele     uuid.UUID
}

func newWorkerFixture() *workerFixture {
	beads, gele := uuid.New(), uuid.New()
	paidAt := time.Now()
	order := &model.Order{
		ID: uuid.New(), Status: model.OrderStatusPaid, PaidAt: &paidAt,
		Items: []model.OrderItem{
			{ProductID: beads, Quantity: 3},
			{ProductID: gele, Quantity: 1},
		},
	}
	f := &workerFixture{
		orders: &fakeOrderRepo{
			orders:    map[uuid.UUID]*model.Order{order.ID: order},
			fulfilled: map[uuid.UUID]bool{},
		},
		products: &fakeProductRepo{stock: map[uuid.UUID]int{beads: 2, gele: 5}},
		seen:     &memIdempotency{keys: map[string]bool{}},
		order:    order,
		beads:    beads,
		gele:     gele,
	}
	f.worker = NewOrderWorker(nil, f.orders, f.products, f.seen, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

func (f *workerFixture) message(t *testing.T) []byte {
	t.Helper()
	body, err := encodeOrderPaid(model.OrderPaidMessage{OrderID: f.order.ID, Reference: "DJ-1", PaidAt: *f.order.PaidAt})
	require.NoError(t, err)
	return body
}

func TestOrderWorker_DecrementsStockOnce(t *testing.T) {
	f := newWorkerFixture()
	body := f.message(t)

	assert.Equal(t, ack, f.worker.handle(context.Background(), body))
	assert.Equal(t, -1, f.products.stock[f.beads], "oversell is recorded, not refused")
	assert.Equal(t, 4, f.products.stock[f.gele])
	assert.True(t, f.orders.tx.committed)

	assert.Equal(t, ack, f.worker.handle(context.Background(), body))
	assert.Equal(t, -1, f.products.stock[f.beads], "redelivery is a no-op")
}

func TestOrderWorker_Malformed(t *testing.T) {
	f := newWorkerFixture()
	assert.Equal(t, deadLetter, f.worker.handle(context.Background(), []byte("{")))
	assert.Equal(t, deadLetter, f.worker.handle(context.Background(), []byte(`{"reference":"x"}`)))
}

func TestOrderWorker_UnpaidOrderDeadLetters(t *testing.T) {
	f := newWorkerFixture()
	f.order.PaidAt = nil
	assert.Equal(t, deadLetter, f.worker.handle(context.Background(), f.message(t)))
	assert.Equal(t, 2, f.products.stock[f.beads])
}

func TestOrderWorker_RollsBackOnFailure(t *testing.T) {
	f := newWorkerFixture()
	f.products.failFor = f.gele

	assert.Equal(t, deadLetter, f.worker.handle(context.Background(), f.message(t)))
	assert.True(t, f.orders.tx.rolledBack)
	assert.False(t, f.orders.tx.committed)
	assert.Empty(t, f.seen.keys)
	assert.False(t, f.orders.fulfilled[f.order.ID], "the claim rolls back with the stock")
}

func TestOrderWorker_RequeuesWhenIdempotencyStoreDown(t *testing.T) {
	f := newWorkerFixture()
	f.seen.seenErr = errors.New("redis: connection refused")
	assert.Equal(t, requeue, f.worker.handle(context.Background(), f.message(t)))
	assert.Nil(t, f.orders.tx)
}

func TestOrderWorker_RedeliveryAfterLostKeyIsNoOp(t *testing.T) {
	f := newWorkerFixture()
	body := f.message(t)
	require.Equal(t, ack, f.worker.handle(context.Background(), body))

	// The process died after commit, before the Redis key was written.
	delete(f.seen.keys, "order_fulfilled:"+f.order.ID.String())

	assert.Equal(t, ack, f.worker.handle(context.Background(), body))
	assert.Equal(t, -1, f.products.stock[f.beads])
	assert.Equal(t, 4, f.products.stock[f.gele])
	assert.True(t, f.seen.keys["order_fulfilled:"+f.order.ID.String()])
}

func TestOrderWorker_ConcurrentClaimLosesWithoutDecrement(t *testing.T) {
	f := newWorkerFixture()
	// Another worker committed its claim after this one read the order.
	f.orders.fulfilled[f.order.ID] = true

	assert.Equal(t, ack, f.worker.handle(context.Background(), f.message(t)))
	assert.Equal(t, 2, f.products.stock[f.beads])
	assert.Equal(t, 5, f.products.stock[f.gele])
	assert.True(t, f.orders.tx.rolledBack)
	assert.False(t, f.orders.tx.committed)
}
