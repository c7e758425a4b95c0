package commerce

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
)

// OrderService owns the draft-order lifecycle for one store. Per-item
// additions run as a single storage transaction with a bounded retry on
// transient contention, so concurrent additions against the same inventory
// line serialize and stock can never go negative.
type OrderService struct {
	db       *bun.DB
	attempts int
	backoff  time.Duration
}

type OrderOption func(*OrderService)

func WithTxAttempts(attempts int) OrderOption {
	return func(s *OrderService) {
		if attempts > 0 {
			s.attempts = attempts
		}
	}
}

func WithTxBackoff(backoff time.Duration) OrderOption {
	return func(s *OrderService) {
		if backoff > 0 {
			s.backoff = backoff
		}
	}
}

func NewOrderService(db *bun.DB, opts ...OrderOption) *OrderService {
	s := &OrderService{
		db:       db,
		attempts: defaultTxAttempts,
		backoff:  defaultTxBackoff,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// AddItemResult reports one successful item addition.
type AddItemResult struct {
	ProductName string
	Size        string
	Quantity    int
	UnitPrice   float64
	OrderTotal  float64
}

// AddItem adds quantity units of a (product, size) to the session's draft
// order, creating the guest customer and the draft order on first use.
// Product resolution is fuzzy; size comparison is case-insensitive. The
// stock check and decrement happen atomically inside the transaction: a
// failure at any step rolls the whole addition back.
func (s *OrderService) AddItem(ctx context.Context, sessionID, productName, size string, quantity int) (*AddItemResult, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", quantity)
	}

	var result *AddItemResult
	err := withRetry(ctx, s.attempts, s.backoff, func(ctx context.Context) error {
		return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			r, err := addItemTx(ctx, tx, sessionID, productName, size, quantity)
			if err != nil {
				return err
			}
			result = r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sessionID).
		Str("product", result.ProductName).
		Str("size", result.Size).
		Int("quantity", result.Quantity).
		Float64("order_total", result.OrderTotal).
		Msg("order item added")
	return result, nil
}

func addItemTx(ctx context.Context, tx bun.Tx, sessionID, productName, size string, quantity int) (*AddItemResult, error) {
	product, err := ResolveProduct(ctx, tx, productName)
	if err != nil {
		return nil, err
	}

	var line Inventory
	err = tx.NewSelect().
		Model(&line).
		Where("product_id = ?", product.ProductID).
		Where("LOWER(size) = LOWER(?)", size).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &SizeUnavailableError{Product: product.ProductName, Size: size}
		}
		return nil, fmt.Errorf("load inventory line: %w", err)
	}

	if line.StockQuantity < quantity {
		return nil, &InsufficientStockError{
			Product:   product.ProductName,
			Size:      line.Size,
			Requested: quantity,
			Remaining: line.StockQuantity,
		}
	}

	// Conditional decrement: zero rows affected means a concurrent order
	// consumed the stock after our read, inside this transaction's window.
	res, err := tx.NewUpdate().
		Model((*Inventory)(nil)).
		Set("stock_quantity = stock_quantity - ?", quantity).
		Where("inventory_id = ?", line.InventoryID).
		Where("stock_quantity >= ?", quantity).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("decrement stock: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("decrement stock result: %w", err)
	}
	if affected == 0 {
		var remaining int
		if err := tx.NewSelect().
			Model((*Inventory)(nil)).
			Column("stock_quantity").
			Where("inventory_id = ?", line.InventoryID).
			Scan(ctx, &remaining); err != nil {
			return nil, fmt.Errorf("re-read stock: %w", err)
		}
		return nil, &InsufficientStockError{
			Product:   product.ProductName,
			Size:      line.Size,
			Requested: quantity,
			Remaining: remaining,
		}
	}

	if err := ensureCustomer(ctx, tx, sessionID); err != nil {
		return nil, err
	}

	order, err := draftOrderFor(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	item := &OrderItem{
		OrderID:         order.OrderID,
		ProductName:     product.ProductName,
		Size:            line.Size,
		Quantity:        quantity,
		PriceAtPurchase: product.Price,
	}
	if _, err := tx.NewInsert().Model(item).Exec(ctx); err != nil {
		return nil, fmt.Errorf("insert order item: %w", err)
	}

	lineTotal := product.Price * float64(quantity)
	if _, err := tx.NewUpdate().
		Model((*Order)(nil)).
		Set("total_amount = total_amount + ?", lineTotal).
		Where("order_id = ?", order.OrderID).
		Exec(ctx); err != nil {
		return nil, fmt.Errorf("update order total: %w", err)
	}

	return &AddItemResult{
		ProductName: product.ProductName,
		Size:        line.Size,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		OrderTotal:  order.TotalAmount + lineTotal,
	}, nil
}

func ensureCustomer(ctx context.Context, tx bun.Tx, sessionID string) error {
	exists, err := tx.NewSelect().
		Model((*Customer)(nil)).
		Where("customer_id = ?", sessionID).
		Exists(ctx)
	if err != nil {
		return fmt.Errorf("look up customer: %w", err)
	}
	if exists {
		return nil
	}
	customer := &Customer{
		CustomerID: sessionID,
		FullName:   "Guest",
	}
	if _, err := tx.NewInsert().Model(customer).Exec(ctx); err != nil {
		return fmt.Errorf("create guest customer: %w", err)
	}
	return nil
}

func draftOrderFor(ctx context.Context, tx bun.Tx, sessionID string) (*Order, error) {
	var order Order
	err := tx.NewSelect().
		Model(&order).
		Where("customer_id = ?", sessionID).
		Where("status = ?", OrderStatusDraft).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return &order, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("load draft order: %w", err)
	}

	order = Order{
		OrderID:    uuid.NewString(),
		CustomerID: sessionID,
		ThreadID:   sessionID,
		Status:     OrderStatusDraft,
	}
	if _, err := tx.NewInsert().Model(&order).Exec(ctx); err != nil {
		return nil, fmt.Errorf("create draft order: %w", err)
	}
	return &order, nil
}

// Confirm supplies the customer's identity and flips the session's draft
// order to confirmed. There is no transition out of confirmed. A session
// with no draft order fails with ErrNoPendingOrder and creates nothing.
func (s *OrderService) Confirm(ctx context.Context, sessionID, customerName, address, phone string) (*Order, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}

	var confirmed *Order
	err := withRetry(ctx, s.attempts, s.backoff, func(ctx context.Context) error {
		return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
			var order Order
			err := tx.NewSelect().
				Model(&order).
				Where("customer_id = ?", sessionID).
				Where("status = ?", OrderStatusDraft).
				Limit(1).
				Scan(ctx)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return ErrNoPendingOrder
				}
				return fmt.Errorf("load draft order: %w", err)
			}

			if _, err := tx.NewUpdate().
				Model((*Customer)(nil)).
				Set("full_name = ?", customerName).
				Set("shipping_address = ?", address).
				Set("phone_number = ?", phone).
				Where("customer_id = ?", sessionID).
				Exec(ctx); err != nil {
				return fmt.Errorf("update customer details: %w", err)
			}

			order.Status = OrderStatusConfirmed
			if _, err := tx.NewUpdate().
				Model((*Order)(nil)).
				Set("status = ?", OrderStatusConfirmed).
				Where("order_id = ?", order.OrderID).
				Exec(ctx); err != nil {
				return fmt.Errorf("confirm order: %w", err)
			}

			confirmed = &order
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("session_id", sessionID).
		Str("order_id", confirmed.OrderID).
		Msg("order confirmed")
	return confirmed, nil
}

// SubscribeRestock records a restock notification request for a product
// and size. The email must be a real address: sentinel strings from model
// output are rejected upstream, an empty value is rejected here.
func (s *OrderService) SubscribeRestock(ctx context.Context, productName, email, size string) (*RestockNotification, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email address is required")
	}

	product, err := ResolveProduct(ctx, s.db, productName)
	if err != nil {
		return nil, err
	}

	sub := &RestockNotification{
		CustomerEmail: email,
		ProductID:     product.ProductID,
		Size:          size,
		Status:        RestockStatusPending,
	}
	if _, err := s.db.NewInsert().Model(sub).Exec(ctx); err != nil {
		return nil, fmt.Errorf("save restock notification: %w", err)
	}
	return sub, nil
}
