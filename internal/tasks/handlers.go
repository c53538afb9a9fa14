package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/faiznutes/Tumbas-sub001/internal/db"
	"github.com/faiznutes/Tumbas-sub001/internal/lock"
	"github.com/faiznutes/Tumbas-sub001/internal/promo"
)

// OrderReader loads order data for post-checkout processing.
type OrderReader interface {
	GetOrderByID(ctx context.Context, id string) (db.Order, error)
	GetUserByID(ctx context.Context, id string) (db.User, error)
}

// Consumer handles background tasks on the worker process.
type Consumer struct {
	Orders    OrderReader
	Snapshots *promo.Store
	Locker    lock.Locker
	Log       zerolog.Logger
}

// Register attaches the task handlers to the mux.
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		return
	}
	mux.HandleFunc(TypeOrderCreated, c.handleOrderCreated)
	mux.HandleFunc(TypePromoSnapshotWarm, c.handleSnapshotWarm)
}

func (c *Consumer) handleOrderCreated(ctx context.Context, task *asynq.Task) error {
	var payload OrderCreatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		c.Log.Warn().Err(err).Msg("order created payload unmarshal failed")
		return err
	}
	if payload.OrderID == "" {
		return nil
	}
	if c.Orders == nil {
		return nil
	}
	order, err := c.Orders.GetOrderByID(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.Log.Warn().Str("order_id", payload.OrderID).Msg("order not found, dropping task")
			return nil
		}
		return err
	}
	event := c.Log.Info().
		Str("order_id", order.ID).
		Str("status", order.Status).
		Int64("total", order.Total)
	if user, err := c.Orders.GetUserByID(ctx, order.UserID); err == nil {
		event = event.Str("email", user.Email)
	}
	event.Msg("order created event processed")
	return nil
}

func (c *Consumer) handleSnapshotWarm(ctx context.Context, _ *asynq.Task) error {
	if c.Snapshots == nil {
		return nil
	}
	warm := func(ctx context.Context) error {
		if err := c.Snapshots.Warm(ctx); err != nil {
			c.Log.Warn().Err(err).Msg("snapshot warm failed")
			return err
		}
		c.Log.Debug().Msg("promotion snapshot warmed")
		return nil
	}
	// Only one worker warms the cache at a time.
	if c.Locker.R != nil {
		return c.Locker.WithLock(ctx, "lock:promo:snapshot:warm", 30*time.Second, warm)
	}
	return warm(ctx)
}
