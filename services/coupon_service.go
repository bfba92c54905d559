package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/drme990/manasik-v2-sub001/models"
	aws_pkg "github.com/drme990/manasik-v2-sub001/pkg/aws"
	"github.com/drme990/manasik-v2-sub001/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CouponService defines the interface for coupon business logic.
type CouponService interface {
	CreateCoupon(ctx context.Context, actor string, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError)
	// ValidateCoupon never mutates state. Rule failures come back as a
	// response with Valid=false; only bad input and store outages are errors.
	ValidateCoupon(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *ServiceError)
	GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError)
	UpdateCouponStatus(ctx context.Context, actor, code string, status models.CouponStatus) (*models.Coupon, *ServiceError)
	ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError)
	// RedeemCoupon commits one use of a coupon for an order. A nil
	// redemption with a nil error means the order was already redeemed.
	RedeemCoupon(ctx context.Context, in RedeemCouponInput) (*models.CouponRedemption, *ServiceError)
}

// RedeemCouponInput carries what a paid order knows about its coupon.
type RedeemCouponInput struct {
	Code           string
	OrderID        string
	UserID         string
	DiscountAmount float64
	Currency       string
	Actor          string
}

type couponServiceImpl struct {
	repo        repository.CouponRepository
	activities  ActivityService
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	currencies  models.CurrencySet
	metrics     aws_pkg.MetricsRecorder
	logger      *zap.Logger
	opts        serviceOptions
}

func NewCouponService(
	repo repository.CouponRepository,
	activities ActivityService,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	currencies models.CurrencySet,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
	opts ...Option,
) CouponService {
	return &couponServiceImpl{
		repo:        repo,
		activities:  activities,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		currencies:  currencies,
		metrics:     metrics,
		logger:      logger,
		opts:        applyOptions(opts),
	}
}

func (s *couponServiceImpl) CreateCoupon(ctx context.Context, actor string, req *models.CreateCouponRequest) (*models.Coupon, *ServiceError) {
	if req.Currency != "" && !s.currencies.Contains(req.Currency) {
		return nil, invalidInputError("Unsupported currency: " + req.Currency)
	}
	if req.ValidUntil != nil && req.ValidUntil.Before(s.opts.now()) {
		return nil, invalidInputError("valid_until must be in the future")
	}

	coupon := &models.Coupon{
		Code:               strings.ToUpper(strings.TrimSpace(req.Code)),
		Type:               req.Type,
		Value:              req.Value,
		Description:        req.Description,
		DescriptionAr:      req.DescriptionAr,
		Currency:           models.NormalizeCurrency(req.Currency),
		MaxUses:            req.MaxUses,
		MaxUsesPerUser:     req.MaxUsesPerUser,
		ValidFrom:          req.ValidFrom,
		ValidUntil:         req.ValidUntil,
		Status:             models.CouponStatusActive,
		MinOrderAmount:     req.MinOrderAmount,
		MaxDiscountAmount:  req.MaxDiscountAmount,
		ApplicableProducts: req.ApplicableProducts,
	}
	if err := coupon.Validate(); err != nil {
		return nil, invalidInputError(err.Error())
	}

	if err := s.repo.Create(ctx, coupon); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("Coupon code already exists")
		}
		s.logger.Error("Failed to create coupon", zap.Error(err))
		return nil, internalError("Failed to create coupon")
	}

	s.logger.Info("Coupon created", zap.String("code", coupon.Code), zap.String("type", string(coupon.Type)))
	s.activities.Record(ctx, models.Activity{
		Actor:    actor,
		Action:   models.ActionCouponCreated,
		Entity:   "coupon",
		EntityID: coupon.Code,
		Details:  map[string]interface{}{"type": coupon.Type, "value": coupon.Value},
	})
	return coupon, nil
}

func (s *couponServiceImpl) ValidateCoupon(ctx context.Context, req *models.ValidateCouponRequest) (*models.ValidateCouponResponse, *ServiceError) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		return nil, invalidInputError("Coupon code is required")
	}
	if req.OrderAmount <= 0 || math.IsNaN(req.OrderAmount) || math.IsInf(req.OrderAmount, 0) {
		return nil, invalidInputError("Order amount must be a positive number")
	}
	currency := models.NormalizeCurrency(req.Currency)
	if !s.currencies.Contains(currency) {
		return nil, invalidInputError("Unsupported currency: " + req.Currency)
	}

	coupon, err := s.repo.FindByCode(ctx, code)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return s.reject(code, models.ReasonInvalidCode, "Invalid coupon code"), nil
	case errors.Is(err, models.ErrMalformedCoupon):
		s.logger.Error("Malformed coupon record", zap.String("code", code), zap.Error(err))
		return s.reject(code, models.ReasonInvalidCode, "Invalid coupon code"), nil
	case err != nil:
		s.logger.Error("Coupon lookup failed", zap.String("code", code), zap.Error(err))
		return nil, upstreamError("Coupon service temporarily unavailable")
	}

	if reason, msg := s.checkRules(coupon, req.OrderAmount, currency, strings.TrimSpace(req.ProductID)); reason != "" {
		return s.reject(coupon.Code, reason, msg), nil
	}

	perUserSkipped := false
	if coupon.MaxUsesPerUser != nil {
		if req.UserID == "" {
			perUserSkipped = true
		} else {
			used, err := s.repo.CountUserRedemptions(ctx, coupon.ID, req.UserID)
			if err != nil {
				s.logger.Error("Per-user redemption count failed", zap.String("code", coupon.Code), zap.Error(err))
				return nil, upstreamError("Coupon service temporarily unavailable")
			}
			if used >= int64(*coupon.MaxUsesPerUser) {
				return s.reject(coupon.Code, models.ReasonUserUsageLimitReached, "You have already used this coupon the maximum number of times"), nil
			}
		}
	}

	discount := ComputeDiscount(coupon, req.OrderAmount).InexactFloat64()
	recordCount(s.metrics, aws_pkg.MetricCouponValidated, map[string]string{"Service": "manasik", "Type": string(coupon.Type)})

	return &models.ValidateCouponResponse{
		Valid: true,
		Coupon: &models.CouponSnapshot{
			Code:          coupon.Code,
			Type:          coupon.Type,
			Value:         coupon.Value,
			Description:   coupon.Description,
			DescriptionAr: coupon.DescriptionAr,
		},
		DiscountAmount:      &discount,
		PerUserCheckSkipped: perUserSkipped,
	}, nil
}

// checkRules applies the eligibility checks in order and returns the first failure.
func (s *couponServiceImpl) checkRules(c *models.Coupon, orderAmount float64, currency, productID string) (models.RejectReason, string) {
	switch c.Status {
	case models.CouponStatusDisabled:
		return models.ReasonCouponDisabled, "This coupon has been disabled"
	case models.CouponStatusExpired:
		return models.ReasonCouponExpired, "This coupon has expired"
	}

	now := s.opts.now()
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return models.ReasonNotYetValid, "This coupon is not valid yet"
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return models.ReasonOutsideValidity, "This coupon is outside its validity window"
	}
	if c.MaxUses != nil && c.UsedCount >= *c.MaxUses {
		return models.ReasonUsageLimitReached, "Coupon usage limit reached"
	}
	if c.Currency != "" && !strings.EqualFold(c.Currency, currency) {
		return models.ReasonCurrencyMismatch, fmt.Sprintf("This coupon is only valid for %s orders", c.Currency)
	}
	if c.MinOrderAmount != nil && orderAmount < *c.MinOrderAmount {
		return models.ReasonOrderAmountTooLow, fmt.Sprintf("Minimum order amount of %.2f required", *c.MinOrderAmount)
	}
	if !c.AppliesTo(productID) {
		return models.ReasonNotApplicableToProduct, "This coupon is not applicable to this product"
	}
	return "", ""
}

func (s *couponServiceImpl) reject(code string, reason models.RejectReason, msg string) *models.ValidateCouponResponse {
	s.logger.Info("Coupon rejected", zap.String("code", code), zap.String("reason", string(reason)))
	recordCount(s.metrics, aws_pkg.MetricCouponRejected, map[string]string{"Service": "manasik", "Reason": string(reason)})
	return &models.ValidateCouponResponse{Valid: false, Error: msg, Reason: reason}
}

// ComputeDiscount applies the coupon to orderAmount and clamps the result to
// [0, orderAmount], then to MaxDiscountAmount when set.
func ComputeDiscount(c *models.Coupon, orderAmount float64) decimal.Decimal {
	amount := decimal.NewFromFloat(orderAmount)
	value := decimal.NewFromFloat(c.Value)

	var discount decimal.Decimal
	switch c.Type {
	case models.CouponTypePercentage:
		discount = amount.Mul(value).Div(decimal.NewFromInt(100))
	case models.CouponTypeFixed:
		discount = value
	}

	discount = decimal.Min(discount, amount)
	if c.MaxDiscountAmount != nil {
		discount = decimal.Min(discount, decimal.NewFromFloat(*c.MaxDiscountAmount))
	}
	return decimal.Max(discount, decimal.Zero)
}

func (s *couponServiceImpl) GetCoupon(ctx context.Context, code string) (*models.Coupon, *ServiceError) {
	coupon, err := s.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Coupon not found")
		}
		s.logger.Error("Failed to load coupon", zap.String("code", code), zap.Error(err))
		return nil, internalError("Failed to load coupon")
	}
	return coupon, nil
}

func (s *couponServiceImpl) UpdateCouponStatus(ctx context.Context, actor, code string, status models.CouponStatus) (*models.Coupon, *ServiceError) {
	switch status {
	case models.CouponStatusActive, models.CouponStatusExpired, models.CouponStatusDisabled:
	default:
		return nil, invalidInputError("Unknown coupon status: " + string(status))
	}

	if err := s.repo.UpdateStatus(ctx, code, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, notFoundError("Coupon not found")
		}
		s.logger.Error("Failed to update coupon status", zap.String("code", code), zap.Error(err))
		return nil, internalError("Failed to update coupon")
	}

	s.logger.Info("Coupon status changed", zap.String("code", code), zap.String("status", string(status)))
	s.activities.Record(ctx, models.Activity{
		Actor:    actor,
		Action:   models.ActionCouponStatusChanged,
		Entity:   "coupon",
		EntityID: strings.ToUpper(code),
		Details:  map[string]interface{}{"status": status},
	})
	return s.GetCoupon(ctx, code)
}

func (s *couponServiceImpl) ListCoupons(ctx context.Context, page, limit int) ([]models.Coupon, int64, *ServiceError) {
	coupons, total, err := s.repo.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list coupons", zap.Error(err))
		return nil, 0, internalError("Failed to list coupons")
	}
	return coupons, total, nil
}

func (s *couponServiceImpl) RedeemCoupon(ctx context.Context, in RedeemCouponInput) (*models.CouponRedemption, *ServiceError) {
	if strings.TrimSpace(in.Code) == "" || in.OrderID == "" {
		return nil, invalidInputError("Coupon code and order id are required")
	}

	coupon, svcErr := s.GetCoupon(ctx, in.Code)
	if svcErr != nil {
		return nil, svcErr
	}

	if coupon.MaxUsesPerUser != nil && in.UserID != "" {
		used, err := s.repo.CountUserRedemptions(ctx, coupon.ID, in.UserID)
		if err != nil {
			s.logger.Error("Per-user redemption count failed", zap.String("code", coupon.Code), zap.Error(err))
			return nil, upstreamError("Coupon service temporarily unavailable")
		}
		if used >= int64(*coupon.MaxUsesPerUser) {
			return nil, ruleViolationError("Per-user usage limit reached")
		}
	}

	redemption := &models.CouponRedemption{
		CouponID:       coupon.ID,
		Code:           coupon.Code,
		OrderID:        in.OrderID,
		UserID:         in.UserID,
		DiscountAmount: in.DiscountAmount,
		Currency:       models.NormalizeCurrency(in.Currency),
		RedeemedAt:     s.opts.now().UTC(),
	}
	updated, err := s.repo.Redeem(ctx, redemption)
	switch {
	case errors.Is(err, repository.ErrAlreadyRedeemed):
		s.logger.Info("Coupon already redeemed for order", zap.String("code", coupon.Code), zap.String("order_id", in.OrderID))
		return nil, nil
	case errors.Is(err, repository.ErrUsageLimitReached):
		return nil, ruleViolationError("Coupon usage limit reached")
	case err != nil:
		s.logger.Error("Failed to redeem coupon", zap.String("code", coupon.Code), zap.Error(err))
		return nil, upstreamError("Failed to redeem coupon")
	}

	s.logger.Info("Coupon redeemed",
		zap.String("code", updated.Code),
		zap.String("order_id", in.OrderID),
		zap.Int("used_count", updated.UsedCount),
	)
	recordCount(s.metrics, aws_pkg.MetricCouponRedeemed, map[string]string{"Service": "manasik"})
	s.publishRedeemed(ctx, redemption)
	s.activities.Record(ctx, models.Activity{
		Actor:    in.Actor,
		Action:   models.ActionCouponRedeemed,
		Entity:   "coupon",
		EntityID: updated.Code,
		Details:  map[string]interface{}{"order_id": in.OrderID, "discount_amount": in.DiscountAmount},
	})
	return redemption, nil
}

func (s *couponServiceImpl) publishRedeemed(ctx context.Context, r *models.CouponRedemption) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		s.logger.Warn("SNS client not configured, skipping coupon_redeemed event")
		return
	}
	event := models.CouponRedeemedEvent{
		EventType:      "coupon_redeemed",
		CouponID:       r.CouponID.Hex(),
		CouponCode:     r.Code,
		OrderID:        r.OrderID,
		UserID:         r.UserID,
		DiscountAmount: r.DiscountAmount,
		Currency:       r.Currency,
		Timestamp:      r.RedeemedAt,
	}
	if err := aws_pkg.PublishJSON(ctx, s.snsClient, s.snsTopicArn, event); err != nil {
		s.logger.Error("Failed to publish coupon_redeemed event", zap.Error(err))
	}
}
