package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/obs"
	"github.com/faiznutes/Tumbas-sub001/internal/pricing"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
	"github.com/faiznutes/Tumbas-sub001/internal/tasks"
)

// ErrCartEmpty is returned when checking out a cart with no items.
var ErrCartEmpty = errors.New("cart is empty")

// ErrCartNotOwned is returned when the cart belongs to a different user.
var ErrCartNotOwned = errors.New("cart does not belong to user")

// ErrNotFound indicates the cart or order could not be located.
var ErrNotFound = errors.New("not found")

// Querier captures the store methods checkout uses inside its transaction.
type Querier interface {
	GetCartByID(ctx context.Context, id string) (db.Cart, error)
	ListCartItems(ctx context.Context, cartID string) ([]db.CartItem, error)
	CreateOrder(ctx context.Context, arg db.CreateOrderParams) (db.Order, error)
	CreateOrderItem(ctx context.Context, arg db.CreateOrderItemParams) error
	GetOrderByID(ctx context.Context, id string) (db.Order, error)
	ListOrdersByUser(ctx context.Context, userID string) ([]db.Order, error)
	ListOrderItems(ctx context.Context, orderID string) ([]db.OrderItem, error)
}

// TxRunner executes fn transactionally against the store.
type TxRunner func(ctx context.Context, fn func(Querier) error) error

// PoolTxRunner builds a TxRunner over a pgx pool.
func PoolTxRunner(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(Querier) error) error {
		return db.InTx(ctx, pool, func(store *db.Store) error {
			return fn(store)
		})
	}
}

// Enqueuer is the slice of asynq.Client checkout needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Input is the checkout request.
type Input struct {
	CartID   string `json:"cartId"`
	Shipping int64  `json:"shipping"`
}

// Output is the persisted checkout result.
type Output struct {
	OrderID string         `json:"orderId"`
	Status  string         `json:"status"`
	Pricing pricing.Result `json:"pricing"`
}

// Service turns a cart into an order. All totals come from the shared
// pricing resolver evaluated against one promotion snapshot; nothing is
// recomputed or adjusted outside the engine.
type Service struct {
	RunTx     TxRunner
	Snapshots *promo.Store
	TaxBps    int
	Currency  string
	Queue     Enqueuer
	Log       zerolog.Logger
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create prices the cart and freezes the result into an order. The promotion
// snapshot is taken once before the transaction so every line is resolved
// against the same rule set.
func (s *Service) Create(ctx context.Context, userID string, in Input) (Output, error) {
	if s == nil || s.RunTx == nil {
		return Output{}, errors.New("checkout service not configured")
	}
	if s.Snapshots == nil {
		return Output{}, errors.New("checkout service missing snapshot store")
	}
	if userID == "" {
		return Output{}, errors.New("user is required for checkout")
	}
	if in.CartID == "" {
		return Output{}, errors.New("cartId is required")
	}

	snap, err := s.Snapshots.Snapshot(ctx)
	if err != nil {
		countCheckout("snapshot_error")
		return Output{}, fmt.Errorf("load promotions: %w", err)
	}

	var out Output
	err = s.RunTx(ctx, func(q Querier) error {
		cartRow, err := q.GetCartByID(ctx, in.CartID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if cartRow.UserID != nil && *cartRow.UserID != userID {
			return ErrCartNotOwned
		}
		items, err := q.ListCartItems(ctx, cartRow.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrCartEmpty
		}

		lines := make([]promo.Line, 0, len(items))
		for _, it := range items {
			lines = append(lines, promo.Line{
				ProductID: it.ProductID,
				Qty:       int(it.Qty),
				UnitPrice: it.UnitPrice,
			})
		}
		shipping := in.Shipping
		if shipping < 0 {
			shipping = 0
		}
		quote := pricing.Quote(lines, shipping, s.TaxBps, snap.Rules, snap.Deal, s.now())

		order, err := q.CreateOrder(ctx, db.CreateOrderParams{
			UserID:             userID,
			CartID:             cartRow.ID,
			Status:             "PENDING_PAYMENT",
			Currency:           s.Currency,
			Subtotal:           int64(quote.Subtotal),
			Discount:           int64(quote.Discount),
			DiscountedSubtotal: int64(quote.DiscountedSubtotal),
			Shipping:           int64(quote.Shipping),
			TaxBps:             int32(quote.TaxBps),
			Tax:                int64(quote.Tax),
			Total:              int64(quote.Total),
		})
		if err != nil {
			return err
		}

		titles := make(map[string]string, len(items))
		for _, it := range items {
			titles[it.ProductID] = it.Title
		}
		for _, line := range quote.Lines {
			var ruleID *string
			if line.Source != "" {
				src := line.Source
				ruleID = &src
			}
			if err := q.CreateOrderItem(ctx, db.CreateOrderItemParams{
				OrderID:         order.ID,
				ProductID:       line.ProductID,
				Title:           titles[line.ProductID],
				Qty:             int32(line.Qty),
				UnitPrice:       int64(line.UnitPrice),
				DiscountPerUnit: int64(line.DiscountPerUnit),
				WinningRuleID:   ruleID,
			}); err != nil {
				return err
			}
		}

		out = Output{OrderID: order.ID, Status: order.Status, Pricing: quote}
		return nil
	})
	if err != nil {
		countCheckout("error")
		return Output{}, err
	}

	countCheckout("ok")
	s.Log.Info().
		Str("order_id", out.OrderID).
		Str("user_id", userID).
		Int64("total", int64(out.Pricing.Total)).
		Msg("order created")

	if s.Queue != nil {
		task, err := tasks.NewOrderCreatedTask(tasks.OrderCreatedPayload{
			OrderID:  out.OrderID,
			UserID:   userID,
			Total:    int64(out.Pricing.Total),
			Currency: s.Currency,
		})
		if err == nil {
			if _, err := s.Queue.EnqueueContext(ctx, task); err != nil {
				s.Log.Warn().Err(err).Str("order_id", out.OrderID).Msg("enqueue order created task")
			}
		}
	}
	return out, nil
}

// GetOrder loads an order and its frozen lines for the owning user.
func (s *Service) GetOrder(ctx context.Context, userID, orderID string) (db.Order, []db.OrderItem, error) {
	if s == nil || s.RunTx == nil {
		return db.Order{}, nil, errors.New("checkout service not configured")
	}
	var (
		order db.Order
		items []db.OrderItem
	)
	err := s.RunTx(ctx, func(q Querier) error {
		var err error
		order, err = q.GetOrderByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		if order.UserID != userID {
			return ErrNotFound
		}
		items, err = q.ListOrderItems(ctx, orderID)
		return err
	})
	if err != nil {
		return db.Order{}, nil, err
	}
	return order, items, nil
}

// ListOrders returns the user's order history, newest first.
func (s *Service) ListOrders(ctx context.Context, userID string) ([]db.Order, error) {
	if s == nil || s.RunTx == nil {
		return nil, errors.New("checkout service not configured")
	}
	var orders []db.Order
	err := s.RunTx(ctx, func(q Querier) error {
		var err error
		orders, err = q.ListOrdersByUser(ctx, userID)
		return err
	})
	return orders, err
}

func countCheckout(result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(result).Inc()
	}
}
