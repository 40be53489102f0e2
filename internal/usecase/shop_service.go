package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/riskibarqy/plus-predictor/internal/domain/shop"
	idgen "github.com/riskibarqy/plus-predictor/internal/platform/id"
	"github.com/riskibarqy/plus-predictor/internal/platform/logging"
)

type ProductInput struct {
	Slug        string
	Name        string
	Description string
	PriceCents  int64
	Stock       int
	ImageURL    string
	Active      bool
}

type CreateOrderInput struct {
	UserID   string
	Items    []shop.ItemRequest
	Customer shop.Customer
}

type ShopService struct {
	productRepo shop.ProductRepository
	orderRepo   shop.OrderRepository
	idGen       idgen.Generator
	logger      *logging.Logger
	now         func() time.Time
}

func NewShopService(
	productRepo shop.ProductRepository,
	orderRepo shop.OrderRepository,
	idGen idgen.Generator,
	logger *logging.Logger,
) *ShopService {
	if logger == nil {
		logger = logging.Default()
	}
	return &ShopService{
		productRepo: productRepo,
		orderRepo:   orderRepo,
		idGen:       idGen,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *ShopService) ListProducts(ctx context.Context) ([]shop.Product, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.ListProducts")
	defer span.End()

	items, err := s.productRepo.List(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

// GetProduct resolves an active product by slug first, then by id.
func (s *ShopService) GetProduct(ctx context.Context, slugOrID string) (shop.Product, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.GetProduct")
	defer span.End()

	key := strings.TrimSpace(slugOrID)
	if key == "" {
		return shop.Product{}, fmt.Errorf("%w: product is required", ErrInvalidInput)
	}

	item, exists, err := s.productRepo.GetBySlug(ctx, strings.ToLower(key))
	if err != nil {
		return shop.Product{}, fmt.Errorf("get product by slug: %w", err)
	}
	if !exists {
		item, exists, err = s.productRepo.GetByID(ctx, key)
		if err != nil {
			return shop.Product{}, fmt.Errorf("get product: %w", err)
		}
	}
	if !exists || !item.Active {
		return shop.Product{}, fmt.Errorf("%w: product=%s", ErrNotFound, key)
	}
	return item, nil
}

func (s *ShopService) AdminListProducts(ctx context.Context) ([]shop.Product, error) {
	items, err := s.productRepo.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return items, nil
}

func (s *ShopService) AdminCreateProduct(ctx context.Context, input ProductInput) (shop.Product, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.AdminCreateProduct")
	defer span.End()

	productID, err := s.idGen.NewID()
	if err != nil {
		return shop.Product{}, fmt.Errorf("generate product id: %w", err)
	}

	now := s.now().UTC()
	item := productFromInput(input)
	item.ID = productID
	item.CreatedAt = now
	item.UpdatedAt = now
	if err := item.Validate(); err != nil {
		return shop.Product{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.productRepo.Create(ctx, item); err != nil {
		if errors.Is(err, shop.ErrDuplicateSlug) {
			return shop.Product{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return shop.Product{}, fmt.Errorf("create product: %w", err)
	}
	return item, nil
}

func (s *ShopService) AdminUpdateProduct(ctx context.Context, productID string, input ProductInput) (shop.Product, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.AdminUpdateProduct")
	defer span.End()

	current, err := s.getProduct(ctx, productID)
	if err != nil {
		return shop.Product{}, err
	}

	item := productFromInput(input)
	item.ID = current.ID
	item.CreatedAt = current.CreatedAt
	item.UpdatedAt = s.now().UTC()
	if err := item.Validate(); err != nil {
		return shop.Product{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	updated, err := s.productRepo.Update(ctx, item)
	if err != nil {
		if errors.Is(err, shop.ErrDuplicateSlug) {
			return shop.Product{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return shop.Product{}, fmt.Errorf("update product: %w", err)
	}
	if !updated {
		return shop.Product{}, fmt.Errorf("%w: product=%s", ErrNotFound, item.ID)
	}
	return item, nil
}

func (s *ShopService) AdminDeleteProduct(ctx context.Context, productID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.AdminDeleteProduct")
	defer span.End()

	deleted, err := s.productRepo.Delete(ctx, strings.TrimSpace(productID))
	if err != nil {
		if errors.Is(err, shop.ErrProductInUse) {
			return fmt.Errorf("%w: %v", ErrConflict, err)
		}
		return fmt.Errorf("delete product: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: product=%s", ErrNotFound, productID)
	}
	return nil
}

// CreateOrder prices the requested items and reserves their stock.
func (s *ShopService) CreateOrder(ctx context.Context, input CreateOrderInput) (shop.Order, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.CreateOrder")
	defer span.End()

	input.UserID = strings.TrimSpace(input.UserID)
	if input.UserID == "" {
		return shop.Order{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	customer, err := normalizeCustomer(input.Customer)
	if err != nil {
		return shop.Order{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	requests, err := shop.MergeItemRequests(input.Items)
	if err != nil {
		return shop.Order{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	ids := make([]string, 0, len(requests))
	for _, req := range requests {
		ids = append(ids, req.ProductID)
	}
	products, err := s.productRepo.ListByIDs(ctx, ids)
	if err != nil {
		return shop.Order{}, fmt.Errorf("list products by ids: %w", err)
	}
	byID := make(map[string]shop.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items, total, err := shop.PriceItems(requests, byID)
	if err != nil {
		return shop.Order{}, mapShopRuleError(err)
	}

	orderID, err := s.idGen.NewID()
	if err != nil {
		return shop.Order{}, fmt.Errorf("generate order id: %w", err)
	}

	now := s.now().UTC()
	order := shop.Order{
		ID:         orderID,
		UserID:     input.UserID,
		Status:     shop.OrderPending,
		TotalCents: total,
		Currency:   shop.CurrencyEUR,
		Customer:   customer,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		if mapped := mapShopRuleError(err); mapped != err {
			return shop.Order{}, mapped
		}
		return shop.Order{}, fmt.Errorf("create order: %w", err)
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total_cents", order.TotalCents,
		"items", len(order.Items),
	)
	return order, nil
}

func (s *ShopService) ListMyOrders(ctx context.Context, userID string) ([]shop.Order, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.ListMyOrders")
	defer span.End()

	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	items, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders by user: %w", err)
	}
	return items, nil
}

// GetOrder returns an order owned by userID.
func (s *ShopService) GetOrder(ctx context.Context, userID, orderID string) (shop.Order, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.GetOrder")
	defer span.End()

	return s.getOwnedOrder(ctx, userID, orderID)
}

func (s *ShopService) CancelOrder(ctx context.Context, userID, orderID string) (shop.Order, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.CancelOrder")
	defer span.End()

	order, err := s.getOwnedOrder(ctx, userID, orderID)
	if err != nil {
		return shop.Order{}, err
	}
	return s.cancel(ctx, order)
}

func (s *ShopService) AdminListOrders(ctx context.Context, status string) ([]shop.Order, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", shop.OrderPending, shop.OrderPaid, shop.OrderCancelled:
	default:
		return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, status)
	}

	items, err := s.orderRepo.List(ctx, status)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return items, nil
}

// AdminSetOrderStatus moves a pending order to paid or cancelled.
func (s *ShopService) AdminSetOrderStatus(ctx context.Context, orderID, status string) (shop.Order, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ShopService.AdminSetOrderStatus")
	defer span.End()

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return shop.Order{}, err
	}

	status = strings.ToLower(strings.TrimSpace(status))
	if err := shop.CanTransitionOrder(order.Status, status); err != nil {
		return shop.Order{}, fmt.Errorf("%w: %v", ErrConflict, err)
	}

	if status == shop.OrderCancelled {
		return s.cancel(ctx, order)
	}

	now := s.now().UTC()
	updated, err := s.orderRepo.MarkPaid(ctx, order.ID, now)
	if err != nil {
		return shop.Order{}, fmt.Errorf("mark order paid: %w", err)
	}
	if !updated {
		return shop.Order{}, fmt.Errorf("%w: %v", ErrConflict, shop.ErrOrderNotPending)
	}
	order.Status = shop.OrderPaid
	order.UpdatedAt = now
	return order, nil
}

// cancel restores stock; the repository expires pending payments in the same
// transaction so they cannot settle later.
func (s *ShopService) cancel(ctx context.Context, order shop.Order) (shop.Order, error) {
	if order.Status != shop.OrderPending {
		return shop.Order{}, fmt.Errorf("%w: %v", ErrConflict, shop.ErrOrderNotPending)
	}

	now := s.now().UTC()
	cancelled, err := s.orderRepo.Cancel(ctx, order.ID, now)
	if err != nil {
		return shop.Order{}, fmt.Errorf("cancel order: %w", err)
	}
	if !cancelled {
		return shop.Order{}, fmt.Errorf("%w: %v", ErrConflict, shop.ErrOrderNotPending)
	}

	s.logger.InfoContext(ctx, "order cancelled", "order_id", order.ID, "user_id", order.UserID)
	order.Status = shop.OrderCancelled
	order.UpdatedAt = now
	return order, nil
}

func (s *ShopService) getProduct(ctx context.Context, productID string) (shop.Product, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return shop.Product{}, fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	item, exists, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return shop.Product{}, fmt.Errorf("get product: %w", err)
	}
	if !exists {
		return shop.Product{}, fmt.Errorf("%w: product=%s", ErrNotFound, productID)
	}
	return item, nil
}

func (s *ShopService) getOrder(ctx context.Context, orderID string) (shop.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return shop.Order{}, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	order, exists, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return shop.Order{}, fmt.Errorf("get order: %w", err)
	}
	if !exists {
		return shop.Order{}, fmt.Errorf("%w: order=%s", ErrNotFound, orderID)
	}
	return order, nil
}

// getOwnedOrder hides orders of other users behind a not-found.
func (s *ShopService) getOwnedOrder(ctx context.Context, userID, orderID string) (shop.Order, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return shop.Order{}, fmt.Errorf("%w: user id is required", ErrUnauthorized)
	}
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return shop.Order{}, err
	}
	if order.UserID != userID {
		return shop.Order{}, fmt.Errorf("%w: order=%s", ErrNotFound, order.ID)
	}
	return order, nil
}

func productFromInput(input ProductInput) shop.Product {
	return shop.Product{
		Slug:        strings.ToLower(strings.TrimSpace(input.Slug)),
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		PriceCents:  input.PriceCents,
		Currency:    shop.CurrencyEUR,
		Stock:       input.Stock,
		ImageURL:    strings.TrimSpace(input.ImageURL),
		Active:      input.Active,
	}
}

func normalizeCustomer(c shop.Customer) (shop.Customer, error) {
	out := shop.Customer{
		Name:  strings.Join(strings.Fields(c.Name), " "),
		Email: strings.ToLower(strings.TrimSpace(c.Email)),
		Phone: strings.TrimSpace(c.Phone),
	}
	if out.Name == "" {
		return shop.Customer{}, fmt.Errorf("customer name is required")
	}
	if _, err := mail.ParseAddress(out.Email); err != nil {
		return shop.Customer{}, fmt.Errorf("customer email is invalid")
	}
	return out, nil
}

// mapShopRuleError lifts domain rule violations into the usecase taxonomy.
func mapShopRuleError(err error) error {
	switch {
	case errors.Is(err, shop.ErrInsufficientStock):
		return fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, shop.ErrProductInactive):
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	default:
		return err
	}
}
