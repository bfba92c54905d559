package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CouponType represents how a coupon's value is interpreted.
type CouponType string

const (
	CouponTypePercentage CouponType = "percentage"
	CouponTypeFixed      CouponType = "fixed"
)

// CouponStatus is the admin kill switch, independent of the validity window.
type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusExpired  CouponStatus = "expired"
	CouponStatusDisabled CouponStatus = "disabled"
)

// ErrMalformedCoupon is returned when a stored coupon document fails boundary checks.
var ErrMalformedCoupon = errors.New("malformed coupon record")

// Coupon represents a discount offer stored in the coupons collection.
type Coupon struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Code               string             `bson:"code" json:"code"`
	Type               CouponType         `bson:"type" json:"type"`
	Value              float64            `bson:"value" json:"value"`
	Description        string             `bson:"description,omitempty" json:"description,omitempty"`
	DescriptionAr      string             `bson:"description_ar,omitempty" json:"description_ar,omitempty"`
	Currency           string             `bson:"currency,omitempty" json:"currency,omitempty"`
	MaxUses            *int               `bson:"max_uses,omitempty" json:"max_uses,omitempty"`
	UsedCount          int                `bson:"used_count" json:"used_count"`
	MaxUsesPerUser     *int               `bson:"max_uses_per_user,omitempty" json:"max_uses_per_user,omitempty"`
	ValidFrom          *time.Time         `bson:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidUntil         *time.Time         `bson:"valid_until,omitempty" json:"valid_until,omitempty"`
	Status             CouponStatus       `bson:"status" json:"status"`
	MinOrderAmount     *float64           `bson:"min_order_amount,omitempty" json:"min_order_amount,omitempty"`
	MaxDiscountAmount  *float64           `bson:"max_discount_amount,omitempty" json:"max_discount_amount,omitempty"`
	ApplicableProducts []string           `bson:"applicable_products,omitempty" json:"applicable_products,omitempty"`
	CreatedAt          time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at" json:"updated_at"`
}

// Validate checks the structural rules every stored coupon must satisfy.
func (c *Coupon) Validate() error {
	if strings.TrimSpace(c.Code) == "" {
		return fmt.Errorf("%w: empty code", ErrMalformedCoupon)
	}
	switch c.Type {
	case CouponTypePercentage:
		if c.Value > 100 {
			return fmt.Errorf("%w: percentage value %.2f exceeds 100", ErrMalformedCoupon, c.Value)
		}
	case CouponTypeFixed:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrMalformedCoupon, c.Type)
	}
	if c.Value < 0 {
		return fmt.Errorf("%w: negative value", ErrMalformedCoupon)
	}
	switch c.Status {
	case CouponStatusActive, CouponStatusExpired, CouponStatusDisabled:
	default:
		return fmt.Errorf("%w: unknown status %q", ErrMalformedCoupon, c.Status)
	}
	if c.MaxUses != nil && *c.MaxUses < 0 {
		return fmt.Errorf("%w: negative max_uses", ErrMalformedCoupon)
	}
	if c.MaxUsesPerUser != nil && *c.MaxUsesPerUser < 0 {
		return fmt.Errorf("%w: negative max_uses_per_user", ErrMalformedCoupon)
	}
	if c.UsedCount < 0 {
		return fmt.Errorf("%w: negative used_count", ErrMalformedCoupon)
	}
	if c.MinOrderAmount != nil && *c.MinOrderAmount < 0 {
		return fmt.Errorf("%w: negative min_order_amount", ErrMalformedCoupon)
	}
	if c.MaxDiscountAmount != nil && *c.MaxDiscountAmount < 0 {
		return fmt.Errorf("%w: negative max_discount_amount", ErrMalformedCoupon)
	}
	if c.ValidFrom != nil && c.ValidUntil != nil && c.ValidFrom.After(*c.ValidUntil) {
		return fmt.Errorf("%w: valid_from after valid_until", ErrMalformedCoupon)
	}
	return nil
}

// AppliesTo reports whether the coupon may be used for the given product.
// An empty applicability set means every product qualifies.
func (c *Coupon) AppliesTo(productID string) bool {
	if len(c.ApplicableProducts) == 0 {
		return true
	}
	if productID == "" {
		return false
	}
	for _, p := range c.ApplicableProducts {
		if p == productID {
			return true
		}
	}
	return false
}

// CreateCouponRequest is the payload for creating a new coupon.
type CreateCouponRequest struct {
	Code               string     `json:"code" binding:"required,min=3,max=64"`
	Type               CouponType `json:"type" binding:"required,oneof=percentage fixed"`
	Value              float64    `json:"value" binding:"required,gt=0"`
	Description        string     `json:"description"`
	DescriptionAr      string     `json:"description_ar"`
	Currency           string     `json:"currency" binding:"omitempty,len=3"`
	MaxUses            *int       `json:"max_uses" binding:"omitempty,gte=0"`
	MaxUsesPerUser     *int       `json:"max_uses_per_user" binding:"omitempty,gte=0"`
	ValidFrom          *time.Time `json:"valid_from"`
	ValidUntil         *time.Time `json:"valid_until"`
	MinOrderAmount     *float64   `json:"min_order_amount" binding:"omitempty,gte=0"`
	MaxDiscountAmount  *float64   `json:"max_discount_amount" binding:"omitempty,gte=0"`
	ApplicableProducts []string   `json:"applicable_products"`
}

// UpdateCouponStatusRequest flips a coupon's status.
type UpdateCouponStatusRequest struct {
	Status CouponStatus `json:"status" binding:"required,oneof=active expired disabled"`
}

// ValidateCouponRequest is the payload for checking a coupon against an order.
type ValidateCouponRequest struct {
	Code        string  `json:"code" binding:"required"`
	OrderAmount float64 `json:"order_amount" binding:"required,gt=0"`
	Currency    string  `json:"currency" binding:"required"`
	ProductID   string  `json:"product_id,omitempty"`
	// UserID enables the per-user cap. Filled from the session when present.
	UserID string `json:"user_id,omitempty"`
}

// CouponSnapshot is the public view of a coupon returned on successful validation.
type CouponSnapshot struct {
	Code          string     `json:"code"`
	Type          CouponType `json:"type"`
	Value         float64    `json:"value"`
	Description   string     `json:"description,omitempty"`
	DescriptionAr string     `json:"description_ar,omitempty"`
}

// ValidateCouponResponse is the result of a coupon validation.
type ValidateCouponResponse struct {
	Valid               bool            `json:"valid"`
	Coupon              *CouponSnapshot `json:"coupon,omitempty"`
	DiscountAmount      *float64        `json:"discount_amount,omitempty"`
	Error               string          `json:"error,omitempty"`
	Reason              RejectReason    `json:"reason,omitempty"`
	PerUserCheckSkipped bool            `json:"per_user_check_skipped,omitempty"`
}

// RejectReason is a stable machine-readable code for a failed validation.
type RejectReason string

const (
	ReasonInvalidCode            RejectReason = "invalid_code"
	ReasonCouponDisabled         RejectReason = "coupon_disabled"
	ReasonCouponExpired          RejectReason = "coupon_expired"
	ReasonNotYetValid            RejectReason = "not_yet_valid"
	ReasonOutsideValidity        RejectReason = "outside_validity_window"
	ReasonUsageLimitReached      RejectReason = "usage_limit_reached"
	ReasonCurrencyMismatch       RejectReason = "currency_mismatch"
	ReasonOrderAmountTooLow      RejectReason = "order_amount_too_low"
	ReasonNotApplicableToProduct RejectReason = "not_applicable_to_product"
	ReasonUserUsageLimitReached  RejectReason = "user_usage_limit_reached"
)

// CouponRedemption records a committed use of a coupon for one order.
type CouponRedemption struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CouponID       primitive.ObjectID `bson:"coupon_id" json:"coupon_id"`
	Code           string             `bson:"code" json:"code"`
	OrderID        string             `bson:"order_id" json:"order_id"`
	UserID         string             `bson:"user_id,omitempty" json:"user_id,omitempty"`
	DiscountAmount float64            `bson:"discount_amount" json:"discount_amount"`
	Currency       string             `bson:"currency" json:"currency"`
	RedeemedAt     time.Time          `bson:"redeemed_at" json:"redeemed_at"`
}

// CouponRedeemedEvent is published to SNS after a redemption commits.
type CouponRedeemedEvent struct {
	EventType      string    `json:"event_type"`
	CouponID       string    `json:"coupon_id"`
	CouponCode     string    `json:"coupon_code"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id,omitempty"`
	DiscountAmount float64   `json:"discount_amount"`
	Currency       string    `json:"currency"`
	Timestamp      time.Time `json:"timestamp"`
}
