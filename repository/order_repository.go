package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const ordersCollection = "orders"

// OrderRepository reads orders and applies payment status transitions.
type OrderRepository interface {
	FindByPaymobOrderID(ctx context.Context, paymobOrderID int64) (*models.Order, error)
	// MarkPaid moves a pending order to paid. It reports false when the
	// order was not pending, which makes repeated callbacks no-ops.
	MarkPaid(ctx context.Context, paymobOrderID, transactionID int64, paidAt time.Time) (bool, error)
	MarkFailed(ctx context.Context, paymobOrderID, transactionID int64) (bool, error)
}

type mongoOrderRepository struct {
	collection *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) OrderRepository {
	return &mongoOrderRepository{collection: db.Collection(ordersCollection)}
}

func (r *mongoOrderRepository) FindByPaymobOrderID(ctx context.Context, paymobOrderID int64) (*models.Order, error) {
	var order models.Order
	if err := r.collection.FindOne(ctx, bson.M{"paymob_order_id": paymobOrderID}).Decode(&order); err != nil {
		return nil, notFound(err)
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *mongoOrderRepository) MarkPaid(ctx context.Context, paymobOrderID, transactionID int64, paidAt time.Time) (bool, error) {
	return r.transition(ctx, paymobOrderID, bson.M{
		"status":         models.OrderStatusPaid,
		"transaction_id": transactionID,
		"paid_at":        paidAt.UTC(),
	})
}

func (r *mongoOrderRepository) MarkFailed(ctx context.Context, paymobOrderID, transactionID int64) (bool, error) {
	return r.transition(ctx, paymobOrderID, bson.M{
		"status":         models.OrderStatusFailed,
		"transaction_id": transactionID,
	})
}

func (r *mongoOrderRepository) transition(ctx context.Context, paymobOrderID int64, set bson.M) (bool, error) {
	set["updated_at"] = time.Now().UTC()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"paymob_order_id": paymobOrderID, "status": models.OrderStatusPending},
		bson.M{"$set": set},
	)
	if err != nil {
		return false, fmt.Errorf("update order %d: %w", paymobOrderID, err)
	}
	return res.ModifiedCount == 1, nil
}
