package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type ProductTag string

const (
	TagNewArrival  ProductTag = "new_arrival"
	TagBestSeller  ProductTag = "best_seller"
	TagTopRated    ProductTag = "top_rated"
	TagSpecialSale ProductTag = "special_sale"
)

type User struct {
	ID        uuid.UUID
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
	IsStaff   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	CreatedAt time.Time
}

type Product struct {
	ID            uuid.UUID
	CategoryID    uuid.UUID
	Name          string
	Description   string
	Price         decimal.Decimal
	DiscountPrice decimal.NullDecimal
	IsOnSale      bool
	Tag           ProductTag
	Stock         int
	ImageURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 10000

// Cart belongs either to a user or to an anonymous session, never both.
type Cart struct {
	ID        uuid.UUID
	UserID    *uuid.UUID
	SessionID *string
	Items     []CartItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartItem carries the live product name and price when read with its cart.
type CartItem struct {
	ID          uuid.UUID
	CartID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Price       decimal.Decimal
	Quantity    int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return total
}

type Order struct {
	ID                uuid.UUID
	UserID            *uuid.UUID
	Email             string
	Status            OrderStatus
	TotalAmount       decimal.Decimal
	DeliveryFee       decimal.Decimal
	Address           string
	City              string
	State             string
	PaystackReference *string
	PaidAt            *time.Time
	FulfilledAt       *time.Time
	Items             []OrderItem
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// OrderItem price is a snapshot taken at checkout.
type OrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

func (o *Order) IsPaid() bool { return o.PaidAt != nil }

// OrderPaidMessage is published once per order, by whichever reconciliation
// path first flips it to paid.
type OrderPaidMessage struct {
	OrderID   uuid.UUID `json:"order_id"`
	Reference string    `json:"reference"`
	PaidAt    time.Time `json:"paid_at"`
}
