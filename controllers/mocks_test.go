package controllers_test

import (
	"context"

	"github.com/drme990/manasik-v2-sub001/models"
	"github.com/drme990/manasik-v2-sub001/services"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mock CouponService ---

type mockCouponService struct {
	createFn   func(ctx context.Context, actor string, req *models.CreateCouponRequest) (*models.Coupon, *services.ServiceError)
	validateFn func(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *services.ServiceError)
	getFn      func(ctx context.Context, code string) (*models.Coupon, *services.ServiceError)
	statusFn   func(ctx context.Context, actor, code string, status models.CouponStatus) (*models.Coupon, *services.ServiceError)
	listFn     func(ctx context.Context, page, limit int) ([]models.Coupon, int64, *services.ServiceError)
}

func (m *mockCouponService) CreateCoupon(ctx context.Context, actor string, req *models.CreateCouponRequest) (*models.Coupon, *services.ServiceError) {
	return m.createFn(ctx, actor, req)
}
func (m *mockCouponService) ValidateCoupon(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *services.ServiceError) {
	return m.validateFn(ctx, req)
}
func (m *mockCouponService) GetCoupon(ctx context.Context, code string) (*models.Coupon, *services.ServiceError) {
	return m.getFn(ctx, code)
}
func (m *mockCouponService) UpdateCouponStatus(ctx context.Context, actor, code string, status models.CouponStatus) (*models.Coupon, *services.ServiceError) {
	return m.statusFn(ctx, actor, code, status)
}
func (m *mockCouponService) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *services.ServiceError) {
	return m.listFn(ctx, page, limit)
}
func (m *mockCouponService) RedeemCoupon(context.Context, services.RedeemCouponInput) (*models.CouponRedemption, *services.ServiceError) {
	return nil, nil
}

// --- Mock CurrencyService ---

type mockCurrencyService struct {
	ratesFn   func(ctx context.Context, base string) (*models.RateResult, *services.ServiceError)
	convertFn func(ctx context.Context, amount float64, from, to string) (*models.ConvertResult, *services.ServiceError)
	refreshFn func(ctx context.Context, actor, base string) (*models.RateResult, *services.ServiceError)
}

func (m *mockCurrencyService) GetRates(ctx context.Context, base string) (*models.RateResult, *services.ServiceError) {
	return m.ratesFn(ctx, base)
}
func (m *mockCurrencyService) Convert(ctx context.Context, amount float64, from, to string) (*models.ConvertResult, *services.ServiceError) {
	return m.convertFn(ctx, amount, from, to)
}
func (m *mockCurrencyService) RefreshRates(ctx context.Context, actor, base string) (*models.RateResult, *services.ServiceError) {
	return m.refreshFn(ctx, actor, base)
}
func (m *mockCurrencyService) SupportedCurrencies() []string {
	return []string{"EGP", "SAR", "USD"}
}

// --- Mock ReferralService ---

type mockReferralService struct {
	findFn   func(ctx context.Context, id int64) (*models.ReferralLookup, *services.ServiceError)
	createFn func(ctx context.Context, actor string, req *models.CreateReferralRequest) (*models.Referral, *services.ServiceError)
	listFn   func(ctx context.Context, page, limit int) ([]models.Referral, int64, *services.ServiceError)
}

func (m *mockReferralService) FindReferralForOrder(ctx context.Context, id int64) (*models.ReferralLookup, *services.ServiceError) {
	return m.findFn(ctx, id)
}
func (m *mockReferralService) CreateReferral(ctx context.Context, actor string, req *models.CreateReferralRequest) (*models.Referral, *services.ServiceError) {
	return m.createFn(ctx, actor, req)
}
func (m *mockReferralService) ListReferrals(ctx context.Context, page, limit int) ([]models.Referral, int64, *services.ServiceError) {
	return m.listFn(ctx, page, limit)
}

// --- Mock PaymentService ---

type mockPaymentService struct {
	handleFn func(ctx context.Context, cb *models.PaymobCallback, signature string) (*models.PaymobCallbackResult, *services.ServiceError)
}

func (m *mockPaymentService) HandlePaymobCallback(ctx context.Context, cb *models.PaymobCallback, signature string) (*models.PaymobCallbackResult, *services.ServiceError) {
	return m.handleFn(ctx, cb, signature)
}

// --- Mock ActivityService ---

type mockActivityService struct {
	listFn func(ctx context.Context, page, limit int) ([]models.Activity, int64, *services.ServiceError)
}

func (m *mockActivityService) Record(context.Context, models.Activity) {}
func (m *mockActivityService) ListActivities(ctx context.Context, page, limit int) ([]models.Activity, int64, *services.ServiceError) {
	return m.listFn(ctx, page, limit)
}

// withIdentity mimics the auth middleware.
func withIdentity(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID != "" {
			c.Set("userID", userID)
			c.Set("role", role)
		}
		c.Next()
	}
}
