package services_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	"github.com/drme990/manasik-v2-sub001/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

var testCurrencies = models.NewCurrencySet(models.DefaultSupportedCurrencies)

type couponFixture struct {
	repo       *mockCouponRepo
	sns        *mockSNSPublisher
	activities *fakeActivities
	svc        services.CouponService
}

func newCouponFixture() *couponFixture {
	f := &couponFixture{
		repo:       newMockCouponRepo(),
		sns:        &mockSNSPublisher{},
		activities: &fakeActivities{},
	}
	f.svc = services.NewCouponService(f.repo, f.activities, f.sns,
		"arn:aws:sns:me-south-1:000000000000:manasik-events",
		testCurrencies, nil, testLogger,
		services.WithClock(func() time.Time { return fixedNow }),
	)
	return f
}

func validate(t *testing.T, svc services.CouponService, req models.ValidateCouponRequest) *models.ValidateCouponResponse {
	t.Helper()
	resp, svcErr := svc.ValidateCoupon(context.Background(), &req)
	require.Nil(t, svcErr)
	require.NotNil(t, resp)
	return resp
}

func TestService_ValidateCoupon_PercentageScenario(t *testing.T) {
	f := newCouponFixture()
	f.repo.add(&models.Coupon{Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10, MinOrderAmount: floatPtr(50)})

	resp := validate(t, f.svc, models.ValidateCouponRequest{Code: "SAVE10", OrderAmount: 100, Currency: "SAR"})

	assert.True(t, resp.Valid)
	assert.Equal(t, 10.0, *resp.DiscountAmount)
	assert.Equal(t, "SAVE10", resp.Coupon.Code)
	assert.Equal(t, models.CouponTypePercentage, resp.Coupon.Type)
}

func TestService_ValidateCoupon_FixedClampedToMaxDiscount(t *testing.T) {
	f := newCouponFixture()
	f.repo.add(&models.Coupon{Code: "FLAT20", Type: models.CouponTypeFixed, Value: 20, MaxDiscountAmount: floatPtr(15)})

	resp := validate(t, f.svc, models.ValidateCouponRequest{Code: "FLAT20", OrderAmount: 100, Currency: "SAR"})

	assert.True(t, resp.Valid)
	assert.Equal(t, 15.0, *resp.DiscountAmount)
}

func TestService_ValidateCoupon_ExpiredWindowWhileActive(t *testing.T) {
	f := newCouponFixture()
	f.repo.add(&models.Coupon{
		Code:       "OLD",
		Type:       models.CouponTypeFixed,
		Value:      5,
		ValidUntil: timePtr(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)),
	})

	resp := validate(t, f.svc, models.ValidateCouponRequest{Code: "OLD", OrderAmount: 100, Currency: "SAR"})

	assert.False(t, resp.Valid)
	assert.Equal(t, models.ReasonOutsideValidity, resp.Reason)
	assert.Nil(t, resp.DiscountAmount)
}

func TestService_ValidateCoupon_StatusOverridesWindow(t *testing.T) {
	for status, reason := range map[models.CouponStatus]models.RejectReason{
		models.CouponStatusDisabled: models.ReasonCouponDisabled,
		models.CouponStatusExpired:  models.ReasonCouponExpired,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newCouponFixture()
			f.repo.add(&models.Coupon{
				Code:       "KILLED",
				Type:       models.CouponTypeFixed,
				Value:      5,
				Status:     status,
				ValidFrom:  timePtr(fixedNow.Add(-time.Hour)),
				ValidUntil: timePtr(fixedNow.Add(time.Hour)),
			})

			resp := validate(t, f.svc, models.ValidateCouponRequest{Code: "KILLED", OrderAmount: 100, Currency: "SAR"})
			assert.False(t, resp.Valid)
			assert.Equal(t, reason, resp.Reason)
		})
	}
}

func TestService_ValidateCoupon_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		coupon *models.Coupon
		req    models.ValidateCouponRequest
		reason models.RejectReason
	}{
		{
			name:   "unknown code",
			req:    models.ValidateCouponRequest{Code: "MISSING", OrderAmount: 100, Currency: "SAR"},
			reason: models.ReasonInvalidCode,
		},
		{
			name:   "not yet valid",
			coupon: &models.Coupon{Code: "SOON", Type: models.CouponTypeFixed, Value: 5, ValidFrom: timePtr(fixedNow.Add(24 * time.Hour))},
			req:    models.ValidateCouponRequest{Code: "SOON", OrderAmount: 100, Currency: "SAR"},
			reason: models.ReasonNotYetValid,
		},
		{
			name:   "usage limit reached",
			coupon: &models.Coupon{Code: "LIMITED", Type: models.CouponTypePercentage, Value: 5, MaxUses: intPtr(10), UsedCount: 10},
			req:    models.ValidateCouponRequest{Code: "LIMITED", OrderAmount: 100, Currency: "SAR"},
			reason: models.ReasonUsageLimitReached,
		},
		{
			name:   "currency mismatch",
			coupon: &models.Coupon{Code: "EGPONLY", Type: models.CouponTypeFixed, Value: 50, Currency: "EGP"},
			req:    models.ValidateCouponRequest{Code: "EGPONLY", OrderAmount: 100, Currency: "SAR"},
			reason: models.ReasonCurrencyMismatch,
		},
		{
			name:   "order amount too low",
			coupon: &models.Coupon{Code: "BIGSPEND", Type: models.CouponTypeFixed, Value: 50, MinOrderAmount: floatPtr(500)},
			req:    models.ValidateCouponRequest{Code: "BIGSPEND", OrderAmount: 499.99, Currency: "SAR"},
			reason: models.ReasonOrderAmountTooLow,
		},
		{
			name:   "product missing from request",
			coupon: &models.Coupon{Code: "UDHIYAH", Type: models.CouponTypeFixed, Value: 50, ApplicableProducts: []string{"udhiyah-sheep"}},
			req:    models.ValidateCouponRequest{Code: "UDHIYAH", OrderAmount: 1000, Currency: "SAR"},
			reason: models.ReasonNotApplicableToProduct,
		},
		{
			name:   "product not in set",
			coupon: &models.Coupon{Code: "UDHIYAH", Type: models.CouponTypeFixed, Value: 50, ApplicableProducts: []string{"udhiyah-sheep"}},
			req:    models.ValidateCouponRequest{Code: "UDHIYAH", OrderAmount: 1000, Currency: "SAR", ProductID: "aqiqah"},
			reason: models.ReasonNotApplicableToProduct,
		},
		{
			name:   "malformed record",
			coupon: &models.Coupon{Code: "BROKEN", Type: models.CouponTypePercentage, Value: 250},
			req:    models.ValidateCouponRequest{Code: "BROKEN", OrderAmount: 100, Currency: "SAR"},
			reason: models.ReasonInvalidCode,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newCouponFixture()
			if tc.coupon != nil {
				f.repo.add(tc.coupon)
			}
			resp := validate(t, f.svc, tc.req)
			assert.False(t, resp.Valid)
			assert.Equal(t, tc.reason, resp.Reason)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestService_ValidateCoupon_CaseInsensitiveMatches(t *testing.T) {
	f := newCouponFixture()
	f.repo.add(&models.Coupon{Code: "RAMADAN", Type: models.CouponTypeFixed, Value: 30, Currency: "SAR", ApplicableProducts: []string{"umrah"}})

	resp := validate(t, f.svc, models.ValidateCouponRequest{Code: " ramadan ", OrderAmount: 200, Currency: "sar", ProductID: "umrah"})

	assert.True(t, resp.Valid)
	assert.Equal(t, 30.0, *resp.DiscountAmount)
}

func TestService_ValidateCoupon_PerUserCap(t *testing.T) {
	f := newCouponFixture()
	c := f.repo.add(&models.Coupon{Code: "ONCE", Type: models.CouponTypeFixed, Value: 10, MaxUsesPerUser: intPtr(1)})
	f.repo.redemptions["order-1"] = &models.CouponRedemption{CouponID: c.ID, OrderID: "order-1", UserID: "user-1"}

	anon := validate(t, f.svc, models.ValidateCouponRequest{Code: "ONCE", OrderAmount: 100, Currency: "SAR"})
	assert.True(t, anon.Valid)
	assert.True(t, anon.PerUserCheckSkipped)

	repeat := validate(t, f.svc, models.ValidateCouponRequest{Code: "ONCE", OrderAmount: 100, Currency: "SAR", UserID: "user-1"})
	assert.False(t, repeat.Valid)
	assert.Equal(t, models.ReasonUserUsageLimitReached, repeat.Reason)

	other := validate(t, f.svc, models.ValidateCouponRequest{Code: "ONCE", OrderAmount: 100, Currency: "SAR", UserID: "user-2"})
	assert.True(t, other.Valid)
	assert.False(t, other.PerUserCheckSkipped)
}

func TestService_ValidateCoupon_InvalidInput(t *testing.T) {
	f := newCouponFixture()
	for name, req := range map[string]models.ValidateCouponRequest{
		"empty code":           {Code: "  ", OrderAmount: 100, Currency: "SAR"},
		"zero amount":          {Code: "SAVE10", OrderAmount: 0, Currency: "SAR"},
		"negative amount":      {Code: "SAVE10", OrderAmount: -5, Currency: "SAR"},
		"unsupported currency": {Code: "SAVE10", OrderAmount: 100, Currency: "XYZ"},
	} {
		t.Run(name, func(t *testing.T) {
			_, svcErr := f.svc.ValidateCoupon(context.Background(), &req)
			require.NotNil(t, svcErr)
			assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
			assert.Equal(t, services.KindInvalidInput, svcErr.Kind)
		})
	}
}

func TestService_ValidateCoupon_StoreUnavailable(t *testing.T) {
	f := newCouponFixture()
	f.repo.findErr = errStoreDown

	_, svcErr := f.svc.ValidateCoupon(context.Background(), &models.ValidateCouponRequest{Code: "SAVE10", OrderAmount: 100, Currency: "SAR"})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.StatusCode)
	assert.Equal(t, services.KindUpstreamUnavailable, svcErr.Kind)
}

func TestService_ValidateCoupon_HasNoSideEffects(t *testing.T) {
	f := newCouponFixture()
	c := f.repo.add(&models.Coupon{Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10, MaxUses: intPtr(5), UsedCount: 2})

	for i := 0; i < 3; i++ {
		validate(t, f.svc, models.ValidateCouponRequest{Code: "SAVE10", OrderAmount: 100, Currency: "SAR"})
	}

	assert.Equal(t, 2, c.UsedCount)
	assert.Empty(t, f.sns.published)
	assert.Empty(t, f.activities.recorded)
}

func TestComputeDiscount_ClampProperties(t *testing.T) {
	amounts := []float64{0.01, 1, 19.99, 50, 100, 1234.56}
	values := []float64{0, 5, 10, 33.3, 100}
	caps := []*float64{nil, floatPtr(0), floatPtr(7.5), floatPtr(1000)}

	for _, amount := range amounts {
		for _, value := range values {
			for _, maxDiscount := range caps {
				pct := &models.Coupon{Type: models.CouponTypePercentage, Value: value, MaxDiscountAmount: maxDiscount}
				want := amount * value / 100
				if want > amount {
					want = amount
				}
				if maxDiscount != nil && want > *maxDiscount {
					want = *maxDiscount
				}
				got := services.ComputeDiscount(pct, amount).InexactFloat64()
				assert.InDelta(t, want, got, 1e-9, "percentage amount=%v value=%v", amount, value)

				fixed := &models.Coupon{Type: models.CouponTypeFixed, Value: value * 10, MaxDiscountAmount: maxDiscount}
				got = services.ComputeDiscount(fixed, amount).InexactFloat64()
				assert.LessOrEqual(t, got, amount)
				assert.GreaterOrEqual(t, got, 0.0)
				if maxDiscount != nil {
					assert.LessOrEqual(t, got, *maxDiscount)
				}
			}
		}
	}
}

func TestService_CreateCoupon(t *testing.T) {
	f := newCouponFixture()

	coupon, svcErr := f.svc.CreateCoupon(context.Background(), "admin-1", &models.CreateCouponRequest{
		Code:  "eid25",
		Type:  models.CouponTypePercentage,
		Value: 25,
	})
	require.Nil(t, svcErr)
	assert.Equal(t, "EID25", coupon.Code)
	assert.Equal(t, models.CouponStatusActive, coupon.Status)
	assert.Equal(t, []string{models.ActionCouponCreated}, f.activities.actions())

	_, svcErr = f.svc.CreateCoupon(context.Background(), "admin-1", &models.CreateCouponRequest{Code: "EID25", Type: models.CouponTypeFixed, Value: 5})
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusConflict, svcErr.StatusCode)
}

func TestService_CreateCoupon_Invalid(t *testing.T) {
	f := newCouponFixture()
	for name, req := range map[string]*models.CreateCouponRequest{
		"percentage over 100": {Code: "HUGE", Type: models.CouponTypePercentage, Value: 150},
		"past valid_until":    {Code: "PAST", Type: models.CouponTypeFixed, Value: 5, ValidUntil: timePtr(fixedNow.Add(-time.Hour))},
		"inverted window": {Code: "FLIP", Type: models.CouponTypeFixed, Value: 5,
			ValidFrom: timePtr(fixedNow.Add(48 * time.Hour)), ValidUntil: timePtr(fixedNow.Add(24 * time.Hour))},
		"unknown currency": {Code: "XYZ1", Type: models.CouponTypeFixed, Value: 5, Currency: "XYZ"},
	} {
		t.Run(name, func(t *testing.T) {
			_, svcErr := f.svc.CreateCoupon(context.Background(), "admin-1", req)
			require.NotNil(t, svcErr)
			assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
		})
	}
}

func TestService_UpdateCouponStatus(t *testing.T) {
	f := newCouponFixture()
	f.repo.add(&models.Coupon{Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10})

	coupon, svcErr := f.svc.UpdateCouponStatus(context.Background(), "admin-1", "save10", models.CouponStatusDisabled)
	require.Nil(t, svcErr)
	assert.Equal(t, models.CouponStatusDisabled, coupon.Status)

	_, svcErr = f.svc.UpdateCouponStatus(context.Background(), "admin-1", "NOPE", models.CouponStatusDisabled)
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusNotFound, svcErr.StatusCode)

	_, svcErr = f.svc.UpdateCouponStatus(context.Background(), "admin-1", "SAVE10", "paused")
	require.NotNil(t, svcErr)
	assert.Equal(t, http.StatusBadRequest, svcErr.StatusCode)
}

func TestService_RedeemCoupon(t *testing.T) {
	f := newCouponFixture()
	c := f.repo.add(&models.Coupon{Code: "SAVE10", Type: models.CouponTypePercentage, Value: 10, MaxUses: intPtr(1)})

	r, svcErr := f.svc.RedeemCoupon(context.Background(), services.RedeemCouponInput{
		Code: "SAVE10", OrderID: "1001", UserID: "user-1", DiscountAmount: 10, Currency: "sar",
	})
	require.Nil(t, svcErr)
	require.NotNil(t, r)
	assert.Equal(t, "SAR", r.Currency)
	assert.Equal(t, 1, c.UsedCount)
	require.Len(t, f.sns.published, 1)

	var event models.CouponRedeemedEvent
	require.NoError(t, json.Unmarshal(f.sns.published[0], &event))
	assert.Equal(t, "coupon_redeemed", event.EventType)
	assert.Equal(t, "1001", event.OrderID)

	again, svcErr := f.svc.RedeemCoupon(context.Background(), services.RedeemCouponInput{Code: "SAVE10", OrderID: "1001"})
	assert.Nil(t, svcErr)
	assert.Nil(t, again)

	_, svcErr = f.svc.RedeemCoupon(context.Background(), services.RedeemCouponInput{Code: "SAVE10", OrderID: "1002"})
	require.NotNil(t, svcErr)
	assert.Equal(t, services.KindRuleViolation, svcErr.Kind)
	assert.Equal(t, 1, c.UsedCount)
}

func TestService_RedeemCoupon_ConcurrentCheckoutsRespectMaxUses(t *testing.T) {
	f := newCouponFixture()
	c := f.repo.add(&models.Coupon{Code: "LIMITED", Type: models.CouponTypeFixed, Value: 5, MaxUses: intPtr(3)})

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, svcErr := f.svc.RedeemCoupon(context.Background(), services.RedeemCouponInput{Code: "LIMITED", OrderID: fmt.Sprintf("order-%d", i)})
			if svcErr == nil && r != nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	assert.Equal(t, 3, c.UsedCount)
}
