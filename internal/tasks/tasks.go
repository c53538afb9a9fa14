package tasks

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// TypeOrderCreated is emitted after checkout commits an order.
	TypeOrderCreated = "order:created"
	// TypePromoSnapshotWarm refreshes the cached promotion snapshot.
	TypePromoSnapshotWarm = "promo:snapshot:warm"
)

// OrderCreatedPayload carries the order summary to the worker.
type OrderCreatedPayload struct {
	OrderID  string `json:"orderId"`
	UserID   string `json:"userId"`
	Total    int64  `json:"total"`
	Currency string `json:"currency"`
}

// NewOrderCreatedTask builds the order-created task.
func NewOrderCreatedTask(payload OrderCreatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOrderCreated, body), nil
}

// NewPromoSnapshotWarmTask builds the snapshot warm task.
func NewPromoSnapshotWarmTask() *asynq.Task {
	return asynq.NewTask(TypePromoSnapshotWarm, nil)
}
