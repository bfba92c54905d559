package models

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending"
	OrderStatusPaid    OrderStatus = "paid"
	OrderStatusFailed  OrderStatus = "failed"
)

var ErrMalformedOrder = errors.New("malformed order record")

// Order is the storefront order, keyed by the Paymob order id for payment callbacks.
type Order struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PaymobOrderID  int64              `bson:"paymob_order_id" json:"paymob_order_id"`
	ReferralID     string             `bson:"referral_id,omitempty" json:"referral_id,omitempty"`
	CouponCode     string             `bson:"coupon_code,omitempty" json:"coupon_code,omitempty"`
	DiscountAmount float64            `bson:"discount_amount,omitempty" json:"discount_amount,omitempty"`
	UserID         string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	ProductID      string             `bson:"product_id,omitempty" json:"product_id,omitempty"`
	Amount         float64            `bson:"amount" json:"amount"`
	Currency       string             `bson:"currency" json:"currency"`
	Status         OrderStatus        `bson:"status" json:"status"`
	TransactionID  int64              `bson:"transaction_id,omitempty" json:"transaction_id,omitempty"`
	PaidAt         *time.Time         `bson:"paid_at,omitempty" json:"paid_at,omitempty"`
	CreatedAt      time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time          `bson:"updated_at" json:"updated_at"`
}

// Validate checks the fields the back-office relies on.
func (o *Order) Validate() error {
	if o.PaymobOrderID <= 0 {
		return fmt.Errorf("%w: missing paymob_order_id", ErrMalformedOrder)
	}
	switch o.Status {
	case OrderStatusPending, OrderStatusPaid, OrderStatusFailed:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrMalformedOrder, o.Status)
	}
	if o.Amount < 0 {
		return fmt.Errorf("%w: negative amount", ErrMalformedOrder)
	}
	return nil
}

// OrderPaidEvent is published to SNS when a Paymob transaction succeeds.
type OrderPaidEvent struct {
	EventType     string    `json:"event_type"`
	OrderID       string    `json:"order_id"`
	PaymobOrderID int64     `json:"paymob_order_id"`
	TransactionID int64     `json:"transaction_id"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	CouponCode    string    `json:"coupon_code,omitempty"`
	ReferralID    string    `json:"referral_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
