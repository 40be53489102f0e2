package shop

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const CurrencyEUR = "EUR"

const (
	OrderPending   = "pending"
	OrderPaid      = "paid"
	OrderCancelled = "cancelled"
)

const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
	PaymentExpired = "expired"
)

const (
	MethodMultibanco = "multibanco"
	MethodMBWay      = "mbway"
)

const maxItemQuantity = 20

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductInactive   = errors.New("product is not available")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrOrderNotPending   = errors.New("order is not pending")
	ErrAmountMismatch    = errors.New("payment amount does not match")
	ErrProductInUse      = errors.New("product is referenced by orders")
	ErrDuplicateSlug     = errors.New("product slug already taken")
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type Product struct {
	ID          string
	Slug        string
	Name        string
	Description string
	PriceCents  int64
	Currency    string
	Stock       int
	ImageURL    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (p Product) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product id is required")
	}
	if !slugPattern.MatchString(p.Slug) {
		return fmt.Errorf("product slug must be lower-case words joined by dashes")
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product name is required")
	}
	if p.PriceCents <= 0 {
		return fmt.Errorf("product price must be > 0")
	}
	if p.Currency != CurrencyEUR {
		return fmt.Errorf("unsupported currency %q", p.Currency)
	}
	if p.Stock < 0 {
		return fmt.Errorf("product stock must be >= 0")
	}
	return nil
}

type OrderItem struct {
	ProductID      string
	Name           string
	UnitPriceCents int64
	Quantity       int
}

func (i OrderItem) SubtotalCents() int64 {
	return i.UnitPriceCents * int64(i.Quantity)
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type Order struct {
	ID         string
	UserID     string
	Status     string
	TotalCents int64
	Currency   string
	Customer   Customer
	Items      []OrderItem
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ItemRequest is a requested product and quantity before pricing.
type ItemRequest struct {
	ProductID string
	Quantity  int
}

// MergeItemRequests sums quantities of repeated products, keeping first-seen order.
func MergeItemRequests(items []ItemRequest) ([]ItemRequest, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}
	index := make(map[string]int, len(items))
	out := make([]ItemRequest, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ProductID)
		if id == "" {
			return nil, fmt.Errorf("product id is required")
		}
		if item.Quantity < 1 {
			return nil, fmt.Errorf("quantity must be >= 1")
		}
		if i, ok := index[id]; ok {
			out[i].Quantity += item.Quantity
		} else {
			index[id] = len(out)
			out = append(out, ItemRequest{ProductID: id, Quantity: item.Quantity})
		}
	}
	for _, item := range out {
		if item.Quantity > maxItemQuantity {
			return nil, fmt.Errorf("quantity must be <= %d per product", maxItemQuantity)
		}
	}
	return out, nil
}

// PriceItems snapshots product names and prices into order lines. Products
// must contain every requested id; stock is checked again when reserving.
func PriceItems(requests []ItemRequest, products map[string]Product) ([]OrderItem, int64, error) {
	items := make([]OrderItem, 0, len(requests))
	var total int64
	for _, req := range requests {
		p, ok := products[req.ProductID]
		if !ok || !p.Active {
			return nil, 0, fmt.Errorf("%w: %s", ErrProductInactive, req.ProductID)
		}
		if p.Stock < req.Quantity {
			return nil, 0, fmt.Errorf("%w: %s", ErrInsufficientStock, p.Slug)
		}
		item := OrderItem{
			ProductID:      p.ID,
			Name:           p.Name,
			UnitPriceCents: p.PriceCents,
			Quantity:       req.Quantity,
		}
		total += item.SubtotalCents()
		items = append(items, item)
	}
	return items, total, nil
}

// TotalCents sums the order lines.
func TotalCents(items []OrderItem) int64 {
	var total int64
	for _, item := range items {
		total += item.SubtotalCents()
	}
	return total
}

// CanTransitionOrder allows only pending -> paid | cancelled.
func CanTransitionOrder(from, to string) error {
	if from == OrderPending && (to == OrderPaid || to == OrderCancelled) {
		return nil
	}
	return fmt.Errorf("%w: order %s -> %s", ErrInvalidTransition, from, to)
}

type Payment struct {
	ID          string
	OrderID     string
	Method      string
	Status      string
	AmountCents int64
	ProviderRef string
	Entity      string
	Reference   string
	Phone       string
	ExpiresAt   *time.Time
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func IsValidMethod(method string) bool {
	return method == MethodMultibanco || method == MethodMBWay
}

func IsTerminalPayment(status string) bool {
	switch status {
	case PaymentPaid, PaymentFailed, PaymentExpired:
		return true
	default:
		return false
	}
}

// CanTransitionPayment allows pending -> paid | failed | expired only.
func CanTransitionPayment(from, to string) error {
	if from == PaymentPending && IsTerminalPayment(to) {
		return nil
	}
	return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, from, to)
}

// IsOverdue reports whether a pending payment has passed its expiry.
func (p Payment) IsOverdue(now time.Time) bool {
	return p.Status == PaymentPending && p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

// IsReusable reports whether a pending payment can be handed out again.
func (p Payment) IsReusable(method string, now time.Time) bool {
	return p.Status == PaymentPending && p.Method == method && !p.IsOverdue(now)
}

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeMBWayPhone turns "+351 912 345 678", "00351912345678" or
// "912345678" into the provider's "351#912345678" form.
func NormalizeMBWayPhone(raw string) (string, error) {
	digits := nonDigits.ReplaceAllString(raw, "")
	digits = strings.TrimPrefix(digits, "00")
	if len(digits) == 12 && strings.HasPrefix(digits, "351") {
		digits = digits[3:]
	}
	if len(digits) != 9 || digits[0] != '9' {
		return "", fmt.Errorf("mbway phone must be a Portuguese mobile number")
	}
	return "351#" + digits, nil
}

// Transition is a payment status change observed by polling, webhook or reconcile.
type Transition struct {
	PaymentID string
	To        string
	At        time.Time
}

// NormalizePaymentStatus maps provider vocabulary onto payment statuses.
func NormalizePaymentStatus(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "pending", "waiting", "created":
		return PaymentPending, true
	case "paid", "success", "completed", "settled":
		return PaymentPaid, true
	case "failed", "declined", "rejected", "cancelled", "canceled", "error":
		return PaymentFailed, true
	case "expired":
		return PaymentExpired, true
	default:
		return "", false
	}
}

var amountPattern = regexp.MustCompile(`^\d+(?:[.,]\d{1,2})?$`)

// ParseAmount converts a decimal euro amount ("12.5", "12,50", "12") to cents.
func ParseAmount(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if !amountPattern.MatchString(raw) {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	whole, frac, _ := strings.Cut(strings.ReplaceAll(raw, ",", "."), ".")
	for len(frac) < 2 {
		frac += "0"
	}
	euros, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	return euros*100 + cents, nil
}

// FormatAmount renders cents as a decimal euro amount with two places.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
