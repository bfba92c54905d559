package services

import (
	"context"
	"errors"
	"strings"

	"github.com/drme990/manasik-v2-sub001/models"
	"github.com/drme990/manasik-v2-sub001/repository"
	"go.uber.org/zap"
)

type ReferralService interface {
	// FindReferralForOrder joins an order to its referrer. Misses are
	// reported as not_found and store failures as degraded, never as errors.
	FindReferralForOrder(ctx context.Context, paymobOrderID int64) (*models.ReferralLookup, *ServiceError)
	CreateReferral(ctx context.Context, actor string, req *models.CreateReferralRequest) (*models.Referral, *ServiceError)
	ListReferrals(ctx context.Context, page, limit int) ([]models.Referral, int64, *ServiceError)
}

type referralServiceImpl struct {
	orders     repository.OrderRepository
	referrals  repository.ReferralRepository
	activities ActivityService
	logger     *zap.Logger
}

func NewReferralService(
	orders repository.OrderRepository,
	referrals repository.ReferralRepository,
	activities ActivityService,
	logger *zap.Logger,
) ReferralService {
	return &referralServiceImpl{orders: orders, referrals: referrals, activities: activities, logger: logger}
}

func (s *referralServiceImpl) FindReferralForOrder(ctx context.Context, paymobOrderID int64) (*models.ReferralLookup, *ServiceError) {
	if paymobOrderID <= 0 {
		return nil, invalidInputError("Invalid Paymob order id")
	}

	order, err := s.orders.FindByPaymobOrderID(ctx, paymobOrderID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.ReferralLookup{Status: models.ReferralNotFound}, nil
		}
		s.logger.Warn("Order lookup failed", zap.Int64("paymob_order_id", paymobOrderID), zap.Error(err))
		return &models.ReferralLookup{Status: models.ReferralDegraded, Reason: "order lookup failed"}, nil
	}
	if order.ReferralID == "" {
		return &models.ReferralLookup{Status: models.ReferralNotFound}, nil
	}

	referral, err := s.referrals.FindByReferralID(ctx, order.ReferralID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &models.ReferralLookup{Status: models.ReferralNotFound}, nil
		}
		s.logger.Warn("Referral lookup failed", zap.String("referral_id", order.ReferralID), zap.Error(err))
		return &models.ReferralLookup{Status: models.ReferralDegraded, Reason: "referral lookup failed"}, nil
	}

	return &models.ReferralLookup{
		Status:   models.ReferralFound,
		Referral: &models.ReferralContact{Name: referral.Name, Phone: referral.Phone},
	}, nil
}

func (s *referralServiceImpl) CreateReferral(ctx context.Context, actor string, req *models.CreateReferralRequest) (*models.Referral, *ServiceError) {
	referral := &models.Referral{
		ReferralID: strings.TrimSpace(req.ReferralID),
		Name:       strings.TrimSpace(req.Name),
		Phone:      strings.TrimSpace(req.Phone),
	}
	if err := referral.Validate(); err != nil {
		return nil, invalidInputError(err.Error())
	}
	if err := s.referrals.Create(ctx, referral); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflictError("Referral id already exists")
		}
		s.logger.Error("Failed to create referral", zap.Error(err))
		return nil, internalError("Failed to create referral")
	}

	s.activities.Record(ctx, models.Activity{
		Actor:    actor,
		Action:   models.ActionReferralCreated,
		Entity:   "referral",
		EntityID: referral.ReferralID,
	})
	return referral, nil
}

func (s *referralServiceImpl) ListReferrals(ctx context.Context, page, limit int) ([]models.Referral, int64, *ServiceError) {
	referrals, total, err := s.referrals.FindAll(ctx, page, limit)
	if err != nil {
		s.logger.Error("Failed to list referrals", zap.Error(err))
		return nil, 0, internalError("Failed to list referrals")
	}
	return referrals, total, nil
}
