package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/AdejareAyomikun/doublejoy-backend/internal/delivery"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/dto"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/model"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/paystack"
	"github.com/AdejareAyomikun/doublejoy-backend/internal/repository"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrCartCheckedOut   = errors.New("cart was checked out concurrently")
	ErrOrderNotPending  = errors.New("order is not pending")
	ErrOrderAlreadyPaid = errors.New("order is already paid")
)

// PaymentGateway is the subset of the Paystack API the shop uses.
type PaymentGateway interface {
	Initialize(ctx context.Context, req paystack.InitializeRequest) (*paystack.Initialization, error)
	Verify(ctx context.Context, reference string) (*paystack.Transaction, error)
}

type CheckoutService struct {
	cartRepo    repository.CartRepository
	orderRepo   repository.OrderRepository
	userRepo    repository.UserRepository
	gateway     PaymentGateway
	fees        *delivery.FeeTable
	callbackURL string
	logger      *slog.Logger

	newReference func(orderID uuid.UUID) string
}

func NewCheckoutService(
	cartRepo repository.CartRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	gateway PaymentGateway,
	fees *delivery.FeeTable,
	callbackURL string,
	logger *slog.Logger,
) *CheckoutService {
	return &CheckoutService{
		cartRepo:     cartRepo,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		gateway:      gateway,
		fees:         fees,
		callbackURL:  callbackURL,
		logger:       logger,
		newReference: paymentReference,
	}
}

// paymentReference is unique per initialization attempt, so a retried
// checkout never reuses a reference the gateway has already seen.
func paymentReference(orderID uuid.UUID) string {
	prefix := strings.ToUpper(strings.ReplaceAll(orderID.String(), "-", "")[:8])
	return "DJ-" + prefix + "-" + ulid.Make().String()
}

// Checkout turns the caller's cart into a pending order and starts a payment
// for it. When the gateway fails the order is kept, still pending, and the
// returned GatewayError carries its id.
func (s *CheckoutService) Checkout(ctx context.Context, auth model.AuthContext, req dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if !auth.Authenticated() {
		return nil, ErrAuthRequired
	}

	address := strings.TrimSpace(req.Address)
	city := strings.TrimSpace(req.City)
	state := strings.TrimSpace(req.State)
	switch {
	case address == "":
		return nil, invalid("address", "is required")
	case city == "":
		return nil, invalid("city", "is required")
	case state == "":
		return nil, invalid("state", "is required")
	}

	fee, ok := s.fees.Lookup(state)
	if !ok {
		return nil, invalid("state", "delivery is not available to %q; choose one of %s",
			state, strings.Join(s.fees.States(), ", "))
	}

	user, err := s.userRepo.GetByID(ctx, auth.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	cart, err := s.cartRepo.GetOrCreateCart(ctx, model.CartOwner{UserID: auth.UserID})
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	current, err := s.cartRepo.GetCartWithItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	if current == nil || len(current.Items) == 0 {
		return nil, ErrEmptyCart
	}

	userID := auth.UserID
	order, err := s.orderRepo.CreateFromCart(ctx, cart.ID, func(lines []model.CartItem) (*model.Order, error) {
		if len(lines) == 0 {
			return nil, ErrCartCheckedOut
		}
		return buildOrder(lines, userID, fee, address, city, state), nil
	})
	if err != nil {
		if errors.Is(err, ErrCartCheckedOut) {
			return nil, err
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCartCheckedOut
		}
		return nil, fmt.Errorf("create order: %w", err)
	}
	order.Email = user.Email

	s.logger.Info("order created",
		"order_id", order.ID, "user_id", userID, "total", order.TotalAmount.String(), "state", state)

	return s.startPayment(ctx, order)
}

// buildOrder prices every line from the snapshot it is given so the order
// total and the item prices can never disagree.
func buildOrder(lines []model.CartItem, userID uuid.UUID, fee decimal.Decimal, address, city, state string) *model.Order {
	subtotal := decimal.Zero
	items := make([]model.OrderItem, 0, len(lines))
	for _, line := range lines {
		subtotal = subtotal.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		items = append(items, model.OrderItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			Price:       line.Price,
		})
	}
	uid := userID
	return &model.Order{
		UserID:      &uid,
		Status:      model.OrderStatusPending,
		TotalAmount: subtotal.Add(fee),
		DeliveryFee: fee,
		Address:     address,
		City:        city,
		State:       state,
		Items:       items,
	}
}

// InitializePayment starts a fresh payment attempt for an unpaid order, for
// example after the gateway failed during checkout.
func (s *CheckoutService) InitializePayment(ctx context.Context, auth model.AuthContext, orderID uuid.UUID) (*dto.CheckoutResponse, error) {
	if !auth.Authenticated() {
		return nil, ErrAuthRequired
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if !auth.CanViewOrder(order) {
		return nil, ErrOrderAccessDenied
	}
	if order.IsPaid() {
		return nil, ErrOrderAlreadyPaid
	}
	if order.Status != model.OrderStatusPending {
		return nil, ErrOrderNotPending
	}
	if order.Email == "" {
		return nil, invalid("email", "order has no customer email to bill")
	}

	return s.startPayment(ctx, order)
}

func (s *CheckoutService) startPayment(ctx context.Context, order *model.Order) (*dto.CheckoutResponse, error) {
	reference := s.newReference(order.ID)

	init, err := s.gateway.Initialize(ctx, paystack.InitializeRequest{
		Email:       order.Email,
		Amount:      toMinorUnits(order.TotalAmount),
		Reference:   reference,
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		s.logger.Error("payment initialization failed", "order_id", order.ID, "reference", reference, "error", err)
		return nil, &GatewayError{OrderID: order.ID, Message: gatewayMessage(err), Err: err}
	}

	if err := s.orderRepo.SetReference(ctx, order.ID, reference); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrOrderAlreadyPaid
		}
		return nil, fmt.Errorf("store payment reference: %w", err)
	}

	s.logger.Info("payment initialized", "order_id", order.ID, "reference", reference)
	return &dto.CheckoutResponse{
		PaymentURL: init.AuthorizationURL,
		Reference:  reference,
		OrderID:    order.ID,
	}, nil
}

// toMinorUnits converts naira to kobo, rounding half away from zero.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

func gatewayMessage(err error) string {
	var apiErr *paystack.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "payment gateway timed out"
	}
	return "payment gateway unavailable"
}
