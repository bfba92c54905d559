package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity actions recorded in the audit log.
const (
	ActionCouponCreated       = "coupon.created"
	ActionCouponStatusChanged = "coupon.status_changed"
	ActionCouponRedeemed      = "coupon.redeemed"
	ActionReferralCreated     = "referral.created"
	ActionOrderPaid           = "order.paid"
	ActionOrderFailed         = "order.failed"
	ActionRatesRefreshed      = "currency.rates_refreshed"
)

// Activity is one entry in the back-office audit trail.
type Activity struct {
	ID        primitive.ObjectID     `bson:"_id,omitempty" json:"id"`
	Actor     string                 `bson:"actor" json:"actor"`
	Action    string                 `bson:"action" json:"action"`
	Entity    string                 `bson:"entity" json:"entity"`
	EntityID  string                 `bson:"entity_id" json:"entity_id"`
	Details   map[string]interface{} `bson:"details,omitempty" json:"details,omitempty"`
	CreatedAt time.Time              `bson:"created_at" json:"created_at"`
}
