package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

var (
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidQuantity  = fmt.Errorf("quantity must be between 1 and %d", model.MaxLineQuantity)
	ErrInvalidAction    = errors.New("action must be increment or decrement")
)

const (
	ActionIncrement = "increment"
	ActionDecrement = "decrement"
)

type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *CartService) GetCart(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return s.load(ctx, cart.ID)
}

// AddItem adds quantity units of a product. An existing line is incremented
// rather than duplicated, up to model.MaxLineQuantity.
func (s *CartService) AddItem(ctx context.Context, owner model.CartOwner, productID uuid.UUID, quantity int) (*model.Cart, error) {
	if quantity < 1 || quantity > model.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	if err := s.cartRepo.AddItem(ctx, &model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		Quantity:  quantity,
	}); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return s.load(ctx, cart.ID)
}

// AdjustItem moves a line's quantity by one. Decrementing the last unit
// removes the line.
func (s *CartService) AdjustItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID, action string) (*model.Cart, error) {
	var delta int
	switch action {
	case ActionIncrement:
		delta = 1
	case ActionDecrement:
		delta = -1
	default:
		return nil, ErrInvalidAction
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	if _, err := s.cartRepo.AdjustItem(ctx, cart.ID, itemID, delta); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartItemNotFound
		}
		return nil, fmt.Errorf("adjust cart item: %w", err)
	}
	return s.load(ctx, cart.ID)
}

// RemoveItem is idempotent: removing a line that is not there succeeds.
func (s *CartService) RemoveItem(ctx context.Context, owner model.CartOwner, itemID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	if err := s.cartRepo.DeleteItem(ctx, cart.ID, itemID); err != nil {
		return nil, fmt.Errorf("remove cart item: %w", err)
	}
	return s.load(ctx, cart.ID)
}

func (s *CartService) Clear(ctx context.Context, owner model.CartOwner) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	if err := s.cartRepo.ClearCart(ctx, cart.ID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}
	return s.load(ctx, cart.ID)
}

// Merge folds the anonymous cart for sessionID into the user's cart. A
// missing session cart is not an error.
func (s *CartService) Merge(ctx context.Context, sessionID string, userID uuid.UUID) (*model.Cart, error) {
	userCart, err := s.cartRepo.GetOrCreateCart(ctx, model.CartOwner{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}

	if sessionID != "" {
		sessionCart, err := s.cartRepo.FindBySession(ctx, sessionID)
		if err != nil {
			return nil, fmt.Errorf("find session cart: %w", err)
		}
		if sessionCart != nil && sessionCart.ID != userCart.ID {
			if err := s.cartRepo.MergeCarts(ctx, sessionCart.ID, userCart.ID); err != nil {
				return nil, fmt.Errorf("merge carts: %w", err)
			}
		}
	}
	return s.load(ctx, userCart.ID)
}

func (s *CartService) load(ctx context.Context, cartID uuid.UUID) (*model.Cart, error) {
	cart, err := s.cartRepo.GetCartWithItems(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if cart == nil {
		return nil, fmt.Errorf("cart %s vanished", cartID)
	}
	return cart, nil
}
