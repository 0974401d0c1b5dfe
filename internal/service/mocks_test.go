package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/mock"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/paystack"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memStore backs every fake repository so that checkout sees the same carts
// and products the cart fakes wrote.
type memStore struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*model.User
	categories map[uuid.UUID]*model.Category
	products   map[uuid.UUID]*model.Product
	carts      map[uuid.UUID]*model.Cart
	items      map[uuid.UUID]*model.CartItem
	orders     map[uuid.UUID]*model.Order
	references map[string]uuid.UUID
}

func newMemStore() *memStore {
	return &memStore{
		users:      make(map[uuid.UUID]*model.User),
		categories: make(map[uuid.UUID]*model.Category),
		products:   make(map[uuid.UUID]*model.Product),
		carts:      make(map[uuid.UUID]*model.Cart),
		items:      make(map[uuid.UUID]*model.CartItem),
		orders:     make(map[uuid.UUID]*model.Order),
		references: make(map[string]uuid.UUID),
	}
}

// --- users ---

type mockUserRepo struct{ s *memStore }

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, user.Email) {
			return repository.ErrDuplicate
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.s.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.users[id], nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) SetStaff(_ context.Context, email string, isStaff bool) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, u := range m.s.users {
		if strings.EqualFold(u.Email, email) {
			u.IsStaff = isStaff
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- categories ---

type mockCategoryRepo struct{ s *memStore }

func (m *mockCategoryRepo) Create(_ context.Context, c *model.Category) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.categories {
		if existing.Slug == c.Slug || existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	c.ID = uuid.New()
	c.CreatedAt = time.Now()
	m.s.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.categories[id], nil
}

func (m *mockCategoryRepo) List(_ context.Context) ([]model.Category, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Category
	for _, c := range m.s.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *mockCategoryRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.categories[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.categories, id)
	return nil
}

// --- products ---

type mockProductRepo struct{ s *memStore }

func (m *mockProductRepo) Create(_ context.Context, p *model.Product) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	m.s.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.products[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) List(_ context.Context, f repository.ProductFilter) ([]model.Product, int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var all []model.Product
	for _, p := range m.s.products {
		if f.CategoryID != nil && p.CategoryID != *f.CategoryID {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(f.Search)) {
			continue
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	total := len(all)
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, total, nil
}

func (m *mockProductRepo) Update(_ context.Context, p *model.Product) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = time.Now()
	cp := *p
	m.s.products[p.ID] = &cp
	return nil
}

func (m *mockProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.s.products, id)
	return nil
}

func (m *mockProductRepo) DecrementStock(_ context.Context, _ pgx.Tx, productID uuid.UUID, quantity int) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	p, ok := m.s.products[productID]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock -= quantity
	return nil
}

// --- carts ---

type mockCartRepo struct{ s *memStore }

func (m *mockCartRepo) GetOrCreateCart(_ context.Context, owner model.CartOwner) (*model.Cart, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.carts {
		if owner.Anonymous() && c.SessionID != nil && *c.SessionID == owner.SessionID {
			return c, nil
		}
		if !owner.Anonymous() && c.UserID != nil && *c.UserID == owner.UserID {
			return c, nil
		}
	}
	cart := &model.Cart{ID: uuid.New(), CreatedAt: time.Now()}
	if owner.Anonymous() {
		sid := owner.SessionID
		cart.SessionID = &sid
	} else {
		uid := owner.UserID
		cart.UserID = &uid
	}
	m.s.carts[cart.ID] = cart
	return cart, nil
}

func (m *mockCartRepo) FindBySession(_ context.Context, sessionID string) (*model.Cart, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, c := range m.s.carts {
		if c.SessionID != nil && *c.SessionID == sessionID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockCartRepo) GetCartWithItems(_ context.Context, cartID uuid.UUID) (*model.Cart, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	cart, ok := m.s.carts[cartID]
	if !ok {
		return nil, nil
	}
	cp := *cart
	cp.Items = m.s.linesLocked(cartID)
	return &cp, nil
}

// linesLocked joins lines with live product data. Caller holds mu.
func (s *memStore) linesLocked(cartID uuid.UUID) []model.CartItem {
	var lines []model.CartItem
	for _, item := range s.items {
		if item.CartID != cartID {
			continue
		}
		line := *item
		if p, ok := s.products[item.ProductID]; ok {
			line.ProductName = p.Name
			line.Price = p.Price
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].CreatedAt.Before(lines[j].CreatedAt) })
	return lines
}

func (m *mockCartRepo) AddItem(_ context.Context, item *model.CartItem) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, existing := range m.s.items {
		if existing.CartID == item.CartID && existing.ProductID == item.ProductID {
			existing.Quantity = min(model.MaxLineQuantity, max(1, existing.Quantity+item.Quantity))
			item.ID = existing.ID
			item.Quantity = existing.Quantity
			return nil
		}
	}
	item.ID = uuid.New()
	item.Quantity = min(model.MaxLineQuantity, max(1, item.Quantity))
	item.CreatedAt = time.Now()
	cp := *item
	m.s.items[item.ID] = &cp
	return nil
}

func (m *mockCartRepo) AdjustItem(_ context.Context, cartID, itemID uuid.UUID, delta int) (int, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	item, ok := m.s.items[itemID]
	if !ok || item.CartID != cartID {
		return 0, repository.ErrNotFound
	}
	item.Quantity = min(item.Quantity+delta, model.MaxLineQuantity)
	if item.Quantity <= 0 {
		delete(m.s.items, itemID)
		return 0, nil
	}
	return item.Quantity, nil
}

func (m *mockCartRepo) DeleteItem(_ context.Context, cartID, itemID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if item, ok := m.s.items[itemID]; ok && item.CartID == cartID {
		delete(m.s.items, itemID)
	}
	return nil
}

func (m *mockCartRepo) ClearCart(_ context.Context, cartID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, item := range m.s.items {
		if item.CartID == cartID {
			delete(m.s.items, id)
		}
	}
	return nil
}

func (m *mockCartRepo) MergeCarts(_ context.Context, fromCartID, toCartID uuid.UUID) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for id, item := range m.s.items {
		if item.CartID != fromCartID {
			continue
		}
		merged := false
		for _, target := range m.s.items {
			if target.CartID == toCartID && target.ProductID == item.ProductID {
				target.Quantity = min(model.MaxLineQuantity, target.Quantity+item.Quantity)
				merged = true
				break
			}
		}
		if merged {
			delete(m.s.items, id)
		} else {
			item.CartID = toCartID
		}
	}
	delete(m.s.carts, fromCartID)
	return nil
}

// --- orders ---

type mockOrderRepo struct{ s *memStore }

func (m *mockOrderRepo) BeginTx(context.Context) (pgx.Tx, error) { return nil, nil }

func (m *mockOrderRepo) CreateFromCart(_ context.Context, cartID uuid.UUID, build repository.OrderBuilder) (*model.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.carts[cartID]; !ok {
		return nil, repository.ErrNotFound
	}
	order, err := build(m.s.linesLocked(cartID))
	if err != nil {
		return nil, err
	}
	order.ID = uuid.New()
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	for i := range order.Items {
		order.Items[i].ID = uuid.New()
		order.Items[i].OrderID = order.ID
	}
	for id, item := range m.s.items {
		if item.CartID == cartID {
			delete(m.s.items, id)
		}
	}
	m.s.orders[order.ID] = m.s.withEmailLocked(order)
	return order, nil
}

func (s *memStore) withEmailLocked(o *model.Order) *model.Order {
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	if cp.UserID != nil {
		if u, ok := s.users[*cp.UserID]; ok {
			cp.Email = u.Email
		}
	}
	return &cp
}

func (m *mockOrderRepo) SetReference(_ context.Context, orderID uuid.UUID, reference string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, taken := m.s.references[reference]; taken {
		return repository.ErrDuplicate
	}
	o, ok := m.s.orders[orderID]
	if !ok || o.PaidAt != nil {
		return repository.ErrNotFound
	}
	ref := reference
	o.PaystackReference = &ref
	m.s.references[reference] = orderID
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok {
		return nil, nil
	}
	return m.s.withEmailLocked(o), nil
}

func (m *mockOrderRepo) GetByReference(_ context.Context, reference string) (*model.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return m.s.byReferenceLocked(reference), nil
}

func (s *memStore) byReferenceLocked(reference string) *model.Order {
	id, ok := s.references[reference]
	if !ok {
		return nil
	}
	return s.withEmailLocked(s.orders[id])
}

func (m *mockOrderRepo) List(_ context.Context, userID *uuid.UUID) ([]model.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Order
	for _, o := range m.s.orders {
		if userID != nil && (o.UserID == nil || *o.UserID != *userID) {
			continue
		}
		out = append(out, *m.s.withEmailLocked(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *mockOrderRepo) MarkPaid(_ context.Context, reference string) (*model.Order, bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	id, ok := m.s.references[reference]
	if !ok {
		return nil, false, nil
	}
	o := m.s.orders[id]
	if o.PaidAt != nil {
		return m.s.withEmailLocked(o), false, nil
	}
	now := time.Now()
	ref := reference
	o.PaidAt = &now
	o.Status = model.OrderStatusPaid
	o.PaystackReference = &ref
	return m.s.withEmailLocked(o), true, nil
}

func (m *mockOrderRepo) MarkFulfilled(_ context.Context, _ pgx.Tx, id uuid.UUID) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok || o.PaidAt == nil || o.FulfilledAt != nil {
		return false, nil
	}
	now := time.Now()
	o.FulfilledAt = &now
	return true, nil
}

func (m *mockOrderRepo) ListUnfulfilled(_ context.Context, paidBefore time.Time, limit int) ([]model.Order, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	var out []model.Order
	for _, o := range m.s.orders {
		if o.PaidAt != nil && o.FulfilledAt == nil && o.PaidAt.Before(paidBefore) {
			out = append(out, *m.s.withEmailLocked(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PaidAt.Before(*out[j].PaidAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status model.OrderStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	o, ok := m.s.orders[id]
	if !ok {
		return repository.ErrNotFound
	}
	o.Status = status
	return nil
}

// --- gateway and publisher ---

type mockGateway struct{ mock.Mock }

func (m *mockGateway) Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.Initialization, error) {
	args := m.Called(ctx, req)
	init, _ := args.Get(0).(*paystack.Initialization)
	return init, args.Error(1)
}

func (m *mockGateway) Verify(ctx context.Context, reference string) (*paystack.Transaction, error) {
	args := m.Called(ctx, reference)
	tx, _ := args.Get(0).(*paystack.Transaction)
	return tx, args.Error(1)
}

type recordingPublisher struct {
	mu       sync.Mutex
	messages []model.OrderPaidMessage
	err      error
}

func (p *recordingPublisher) PublishOrderPaid(_ context.Context, msg model.OrderPaidMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.messages)
}
