package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

// --- Auth ---

type RegisterRequest struct {
	Username  string `json:"username" binding:"required,notblank,max=150"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AdminKey  string `json:"admin_key"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	IsStaff   bool      `json:"is_staff"`
}

// --- Category ---

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required,notblank,max=255"`
	Slug string `json:"slug" binding:"omitempty,max=255"`
}

type CategoryResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

// --- Product ---

type CreateProductRequest struct {
	CategoryID    uuid.UUID        `json:"category_id" binding:"required"`
	Name          string           `json:"name" binding:"required,notblank,max=255"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price" binding:"required"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	IsOnSale      bool             `json:"is_on_sale"`
	Tag           model.ProductTag `json:"tag" binding:"omitempty,oneof=new_arrival best_seller top_rated special_sale"`
	Stock         int              `json:"stock" binding:"min=0"`
	ImageURL      string           `json:"image_url" binding:"omitempty,url"`
}

// UpdateProductRequest lists every field staff may change. Nil means
// "leave as is"; ClearDiscount removes the discount price.
type UpdateProductRequest struct {
	CategoryID    *uuid.UUID        `json:"category_id"`
	Name          *string           `json:"name" binding:"omitempty,notblank,max=255"`
	Description   *string           `json:"description"`
	Price         *decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal  `json:"discount_price"`
	ClearDiscount bool              `json:"clear_discount"`
	IsOnSale      *bool             `json:"is_on_sale"`
	Tag           *model.ProductTag `json:"tag" binding:"omitempty,oneof=new_arrival best_seller top_rated special_sale"`
	Stock         *int              `json:"stock"`
	ImageURL      *string           `json:"image_url" binding:"omitempty,url"`
}

type ListProductsRequest struct {
	Page     int    `form:"page,default=1" binding:"min=1"`
	Limit    int    `form:"limit,default=20" binding:"min=1,max=100"`
	Search   string `form:"search"`
	Sort     string `form:"sort,default=created_at" binding:"oneof=name price created_at"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
	Category string `form:"category" binding:"omitempty,uuid"`
}

type ProductResponse struct {
	ID            uuid.UUID        `json:"id"`
	CategoryID    uuid.UUID        `json:"category_id"`
	Name          string           `json:"name"`
	Description   string           `json:"description"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price"`
	IsOnSale      bool             `json:"is_on_sale"`
	Tag           model.ProductTag `json:"tag"`
	Stock         int              `json:"stock"`
	ImageURL      string           `json:"image_url"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

type ProductListResponse struct {
	Products []ProductResponse `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

// --- Cart ---

type AddCartItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Quantity  *int      `json:"quantity" binding:"omitempty,max=10000"`
}

type UpdateQuantityRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
	Action string    `json:"action" binding:"required,oneof=increment decrement"`
}

type RemoveCartItemRequest struct {
	ItemID uuid.UUID `json:"item_id" binding:"required"`
}

type CartResponse struct {
	ID    uuid.UUID          `json:"id"`
	Items []CartItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

type CartItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// --- Checkout / payment ---

type CheckoutRequest struct {
	Address string `json:"address" binding:"required,notblank"`
	City    string `json:"city" binding:"required,notblank"`
	State   string `json:"state" binding:"required,notblank"`
}

type CheckoutResponse struct {
	PaymentURL string    `json:"payment_url"`
	Reference  string    `json:"reference"`
	OrderID    uuid.UUID `json:"order_id"`
}

type VerifyPaymentResponse struct {
	Message string    `json:"message"`
	OrderID uuid.UUID `json:"order_id"`
}

// --- Order ---

type UpdateOrderStatusRequest struct {
	Status model.OrderStatus `json:"status" binding:"required,oneof=pending shipped delivered completed cancelled"`
}

type OrderResponse struct {
	ID                uuid.UUID           `json:"id"`
	UserID            *uuid.UUID          `json:"user_id"`
	Email             string              `json:"email"`
	Address           string              `json:"address"`
	City              string              `json:"city"`
	State             string              `json:"state"`
	Status            model.OrderStatus   `json:"status"`
	TotalAmount       decimal.Decimal     `json:"total_amount"`
	DeliveryFee       decimal.Decimal     `json:"delivery_fee"`
	PaystackReference *string             `json:"paystack_reference"`
	PaidAt            *time.Time          `json:"paid_at"`
	Items             []OrderItemResponse `json:"items"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`
}

type OrderItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

type OrderListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Total  int             `json:"total"`
}

// --- Analytics ---

type DashboardResponse struct {
	Summary     SummaryResponse        `json:"summary"`
	DailySales  []DailySalesResponse   `json:"daily_sales"`
	TopProducts []ProductSalesResponse `json:"top_products"`
}

type SummaryResponse struct {
	TotalOrders     int             `json:"total_orders"`
	PendingOrders   int             `json:"pending_orders"`
	CompletedOrders int             `json:"completed_orders"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"`
}

type DailySalesResponse struct {
	Day    string          `json:"day"`
	Total  decimal.Decimal `json:"total"`
	Orders int             `json:"orders"`
}

type ProductSalesResponse struct {
	ProductName  string          `json:"product_name"`
	QuantitySold int             `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}
