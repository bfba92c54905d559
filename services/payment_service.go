package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	aws_pkg "github.com/drme990/manasik-v2-sub001/pkg/aws"
	"github.com/drme990/manasik-v2-sub001/repository"
	"go.uber.org/zap"
)

// SignatureVerifier checks a Paymob callback signature.
type SignatureVerifier interface {
	Verify(tx models.PaymobTransaction, signature string) bool
}

type PaymentService interface {
	// HandlePaymobCallback applies a processed-transaction callback. Errors
	// other than a bad signature are returned as 5xx so Paymob retries.
	HandlePaymobCallback(ctx context.Context, cb *models.PaymobCallback, signature string) (*models.PaymobCallbackResult, *ServiceError)
}

type paymentServiceImpl struct {
	verifier    SignatureVerifier
	orders      repository.OrderRepository
	coupons     CouponService
	activities  ActivityService
	snsClient   aws_pkg.SNSPublisher
	snsTopicArn string
	metrics     aws_pkg.MetricsRecorder
	logger      *zap.Logger
	opts        serviceOptions
}

func NewPaymentService(
	verifier SignatureVerifier,
	orders repository.OrderRepository,
	coupons CouponService,
	activities ActivityService,
	snsClient aws_pkg.SNSPublisher,
	snsTopicArn string,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
	opts ...Option,
) PaymentService {
	return &paymentServiceImpl{
		verifier:    verifier,
		orders:      orders,
		coupons:     coupons,
		activities:  activities,
		snsClient:   snsClient,
		snsTopicArn: snsTopicArn,
		metrics:     metrics,
		logger:      logger,
		opts:        applyOptions(opts),
	}
}

func (s *paymentServiceImpl) HandlePaymobCallback(ctx context.Context, cb *models.PaymobCallback, signature string) (*models.PaymobCallbackResult, *ServiceError) {
	if !s.verifier.Verify(cb.Obj, signature) {
		s.logger.Warn("Rejected Paymob callback with bad signature", zap.Int64("transaction_id", cb.Obj.ID))
		return nil, unauthorizedError("Invalid HMAC signature")
	}
	if cb.Type != "TRANSACTION" {
		return &models.PaymobCallbackResult{Status: models.CallbackIgnored}, nil
	}

	tx := cb.Obj
	log := s.logger.With(zap.Int64("paymob_order_id", tx.Order.ID), zap.Int64("transaction_id", tx.ID))

	order, err := s.orders.FindByPaymobOrderID(ctx, tx.Order.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("Paymob callback for unknown order")
			return &models.PaymobCallbackResult{Status: models.CallbackUnknownOrder}, nil
		}
		log.Error("Order lookup failed", zap.Error(err))
		return nil, upstreamError("Order store unavailable")
	}

	if tx.Pending {
		log.Info("Paymob transaction pending")
		return &models.PaymobCallbackResult{Status: models.CallbackPending}, nil
	}

	if !tx.Success || tx.IsVoided || tx.IsRefunded {
		changed, err := s.orders.MarkFailed(ctx, tx.Order.ID, tx.ID)
		if err != nil {
			log.Error("Failed to mark order failed", zap.Error(err))
			return nil, upstreamError("Order store unavailable")
		}
		if !changed {
			return &models.PaymobCallbackResult{Status: models.CallbackDuplicate}, nil
		}
		log.Info("Order payment failed")
		recordCount(s.metrics, aws_pkg.MetricPaymentFailed, map[string]string{"Service": "manasik"})
		s.activities.Record(ctx, models.Activity{
			Actor:    "paymob",
			Action:   models.ActionOrderFailed,
			Entity:   "order",
			EntityID: strconv.FormatInt(tx.Order.ID, 10),
			Details:  map[string]interface{}{"transaction_id": tx.ID},
		})
		return &models.PaymobCallbackResult{Status: models.CallbackFailed}, nil
	}

	// Redemption runs before the order flips to paid and on every resent
	// success callback. It is idempotent per order id, so a lost redemption
	// is healed by Paymob's retry.
	if order.CouponCode != "" && order.Status != models.OrderStatusFailed {
		if svcErr := s.redeem(ctx, order); svcErr != nil {
			return nil, svcErr
		}
	}

	paidAt := s.opts.now().UTC()
	changed, err := s.orders.MarkPaid(ctx, tx.Order.ID, tx.ID, paidAt)
	if err != nil {
		log.Error("Failed to mark order paid", zap.Error(err))
		return nil, upstreamError("Order store unavailable")
	}
	if !changed {
		log.Info("Duplicate Paymob success callback")
		return &models.PaymobCallbackResult{Status: models.CallbackDuplicate}, nil
	}

	log.Info("Order paid", zap.Float64("amount", order.Amount), zap.String("currency", order.Currency))
	recordCount(s.metrics, aws_pkg.MetricPaymentSucceeded, map[string]string{"Service": "manasik"})
	s.publishPaid(ctx, order, tx, paidAt)
	s.activities.Record(ctx, models.Activity{
		Actor:    "paymob",
		Action:   models.ActionOrderPaid,
		Entity:   "order",
		EntityID: strconv.FormatInt(tx.Order.ID, 10),
		Details:  map[string]interface{}{"transaction_id": tx.ID, "amount_cents": tx.AmountCents},
	})
	return &models.PaymobCallbackResult{Status: models.CallbackPaid}, nil
}

// redeem consumes the order's coupon. Store failures are returned so the
// callback fails and Paymob resends it; rule failures only get logged since
// retrying cannot change them.
func (s *paymentServiceImpl) redeem(ctx context.Context, order *models.Order) *ServiceError {
	_, svcErr := s.coupons.RedeemCoupon(ctx, RedeemCouponInput{
		Code:           order.CouponCode,
		OrderID:        strconv.FormatInt(order.PaymobOrderID, 10),
		UserID:         order.UserID,
		DiscountAmount: order.DiscountAmount,
		Currency:       order.Currency,
		Actor:          "paymob",
	})
	if svcErr == nil {
		return nil
	}
	log := s.logger.With(zap.Int64("paymob_order_id", order.PaymobOrderID), zap.String("code", order.CouponCode))
	switch svcErr.Kind {
	case KindUpstreamUnavailable, KindInternal:
		log.Error("Coupon redemption failed, awaiting callback retry", zap.String("error", svcErr.Message))
		return upstreamError("Coupon store unavailable")
	default:
		log.Warn("Coupon not redeemed for paid order", zap.String("error", svcErr.Message))
		return nil
	}
}

func (s *paymentServiceImpl) publishPaid(ctx context.Context, order *models.Order, tx models.PaymobTransaction, paidAt time.Time) {
	if s.snsClient == nil || s.snsTopicArn == "" {
		s.logger.Warn("SNS client not configured, skipping order_paid event")
		return
	}
	event := models.OrderPaidEvent{
		EventType:     "order_paid",
		OrderID:       order.ID.Hex(),
		PaymobOrderID: order.PaymobOrderID,
		TransactionID: tx.ID,
		Amount:        order.Amount,
		Currency:      order.Currency,
		CouponCode:    order.CouponCode,
		ReferralID:    order.ReferralID,
		Timestamp:     paidAt,
	}
	if err := aws_pkg.PublishJSON(ctx, s.snsClient, s.snsTopicArn, event); err != nil {
		s.logger.Error("Failed to publish order_paid event", zap.Error(err))
	}
}
