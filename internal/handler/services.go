package handler

import (
	"context"

	"github.com/google/uuid"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
)

// The interfaces below are satisfied by the types in package service.

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error)
	Me(ctx context.Context, userID uuid.UUID) (*dto.UserResponse, error)
}

type CategoryService interface {
	Create(ctx context.Context, req dto.CreateCategoryRequest) (*dto.CategoryResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error)
	List(ctx context.Context) ([]dto.CategoryResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*dto.ProductResponse, error)
	List(ctx context.Context, req dto.ListProductsRequest) (*dto.ProductListResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateProductRequest) (*dto.ProductResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type CartService interface {
	GetCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	AddItem(ctx context.Context, owner model.CartOwner, productID uuid.UUID, quantity int) (*model.Cart, error)
	AdjustItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID, action string) (*model.Cart, error)
	RemoveItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID) (*model.Cart, error)
	Clear(ctx context.Context, owner model.CartOwner) (*model.Cart, error)
	Merge(ctx context.Context, sessionID string, userID uuid.UUID) (*model.Cart, error)
}

type CheckoutService interface {
	Checkout(ctx context.Context, auth model.AuthContext, req dto.CheckoutRequest) (*dto.CheckoutResponse, error)
	InitializePayment(ctx context.Context, auth model.AuthContext, orderID uuid.UUID) (*dto.CheckoutResponse, error)
}

type PaymentService interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) error
	Verify(ctx context.Context, auth model.AuthContext, reference string) (*dto.VerifyPaymentResponse, error)
}

type OrderService interface {
	List(ctx context.Context, auth model.AuthContext) ([]model.Order, error)
	Get(ctx context.Context, auth model.AuthContext, orderID uuid.UUID) (*model.Order, error)
	UpdateStatus(ctx context.Context, auth model.AuthContext, orderID uuid.UUID, status model.OrderStatus) (*model.Order, error)
}

type AnalyticsService interface {
	Dashboard(ctx context.Context) (*dto.DashboardResponse, error)
}
