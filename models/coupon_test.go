package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCoupon_Validate(t *testing.T) {
	neg := -1
	negAmount := -0.5
	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	valid := func() Coupon {
		return Coupon{Code: "SAVE10", Type: CouponTypePercentage, Value: 10, Status: CouponStatusActive}
	}

	tests := []struct {
		name   string
		mutate func(c *Coupon)
		ok     bool
	}{
		{"valid", func(c *Coupon) {}, true},
		{"percentage at 100", func(c *Coupon) { c.Value = 100 }, true},
		{"fixed above 100", func(c *Coupon) { c.Type = CouponTypeFixed; c.Value = 500 }, true},
		{"empty code", func(c *Coupon) { c.Code = " " }, false},
		{"percentage above 100", func(c *Coupon) { c.Value = 100.01 }, false},
		{"unknown type", func(c *Coupon) { c.Type = "bogo" }, false},
		{"negative value", func(c *Coupon) { c.Type = CouponTypeFixed; c.Value = -1 }, false},
		{"unknown status", func(c *Coupon) { c.Status = "paused" }, false},
		{"negative max uses", func(c *Coupon) { c.MaxUses = &neg }, false},
		{"negative per-user cap", func(c *Coupon) { c.MaxUsesPerUser = &neg }, false},
		{"negative used count", func(c *Coupon) { c.UsedCount = -1 }, false},
		{"negative min order", func(c *Coupon) { c.MinOrderAmount = &negAmount }, false},
		{"negative max discount", func(c *Coupon) { c.MaxDiscountAmount = &negAmount }, false},
		{"inverted window", func(c *Coupon) { c.ValidFrom = &from; c.ValidUntil = &until }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, ErrMalformedCoupon), "got %v", err)
		})
	}
}

func TestCoupon_AppliesTo(t *testing.T) {
	open := Coupon{}
	assert.True(t, open.AppliesTo(""))
	assert.True(t, open.AppliesTo("udhiyah"))

	scoped := Coupon{ApplicableProducts: []string{"udhiyah", "aqiqah"}}
	assert.True(t, scoped.AppliesTo("aqiqah"))
	assert.False(t, scoped.AppliesTo("umrah"))
	assert.False(t, scoped.AppliesTo(""))
}

func TestCurrencySet(t *testing.T) {
	set := NewCurrencySet([]string{"sar", " usd ", ""})
	assert.Len(t, set, 2)
	assert.True(t, set.Contains("SAR"))
	assert.True(t, set.Contains("Usd"))
	assert.False(t, set.Contains("EGP"))
}

func TestOrder_Validate(t *testing.T) {
	assert.NoError(t, (&Order{PaymobOrderID: 1, Status: OrderStatusPending}).Validate())
	assert.ErrorIs(t, (&Order{Status: OrderStatusPaid}).Validate(), ErrMalformedOrder)
	assert.ErrorIs(t, (&Order{PaymobOrderID: 1, Status: "refunded"}).Validate(), ErrMalformedOrder)
	assert.ErrorIs(t, (&Order{PaymobOrderID: 1, Status: OrderStatusPaid, Amount: -1}).Validate(), ErrMalformedOrder)
}

func TestReferral_Validate(t *testing.T) {
	assert.NoError(t, (&Referral{ReferralID: "ahmed01", Name: "Ahmed"}).Validate())
	assert.ErrorIs(t, (&Referral{Name: "Ahmed"}).Validate(), ErrMalformedReferral)
	assert.ErrorIs(t, (&Referral{ReferralID: "ahmed01"}).Validate(), ErrMalformedReferral)
}
