package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	couponsCollection     = "coupons"
	redemptionsCollection = "coupon_redemptions"
)

// CouponRepository defines the data access interface for coupons.
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	FindByCode(ctx context.Context, code string) (*models.Coupon, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error)
	UpdateStatus(ctx context.Context, code string, status models.CouponStatus) error
	// Redeem records the redemption and increments used_count in one
	// conditional update that only matches while the coupon is active and
	// below max_uses.
	Redeem(ctx context.Context, redemption *models.CouponRedemption) (*models.Coupon, error)
	CountUserRedemptions(ctx context.Context, couponID primitive.ObjectID, userID string) (int64, error)
}

type mongoCouponRepository struct {
	coupons     *mongo.Collection
	redemptions *mongo.Collection
}

func NewMongoCouponRepository(db *mongo.Database) CouponRepository {
	return &mongoCouponRepository{
		coupons:     db.Collection(couponsCollection),
		redemptions: db.Collection(redemptionsCollection),
	}
}

func (r *mongoCouponRepository) Create(ctx context.Context, coupon *models.Coupon) error {
	now := time.Now().UTC()
	coupon.CreatedAt = now
	coupon.UpdatedAt = now

	res, err := r.coupons.InsertOne(ctx, coupon)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		coupon.ID = id
	}
	return nil
}

// FindByCode matches the code case-insensitively and rejects malformed documents.
func (r *mongoCouponRepository) FindByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var coupon models.Coupon
	err := r.coupons.FindOne(ctx,
		bson.M{"code": strings.TrimSpace(code)},
		options.FindOne().SetCollation(caseInsensitive),
	).Decode(&coupon)
	if err != nil {
		return nil, notFound(err)
	}
	if err := coupon.Validate(); err != nil {
		return nil, err
	}
	return &coupon, nil
}

func (r *mongoCouponRepository) FindAll(ctx context.Context, page, limit int) ([]models.Coupon, int64, error) {
	total, err := r.coupons.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count coupons: %w", err)
	}
	cursor, err := r.coupons.Find(ctx, bson.M{}, findPage(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find coupons: %w", err)
	}
	defer cursor.Close(ctx)

	coupons := []models.Coupon{}
	if err := cursor.All(ctx, &coupons); err != nil {
		return nil, 0, fmt.Errorf("decode coupons: %w", err)
	}
	return coupons, total, nil
}

func (r *mongoCouponRepository) UpdateStatus(ctx context.Context, code string, status models.CouponStatus) error {
	res, err := r.coupons.UpdateOne(ctx,
		bson.M{"code": strings.TrimSpace(code)},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().UTC()}},
		options.Update().SetCollation(caseInsensitive),
	)
	if err != nil {
		return fmt.Errorf("update coupon status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCouponRepository) Redeem(ctx context.Context, redemption *models.CouponRedemption) (*models.Coupon, error) {
	if redemption.RedeemedAt.IsZero() {
		redemption.RedeemedAt = time.Now().UTC()
	}
	if _, err := r.redemptions.InsertOne(ctx, redemption); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyRedeemed
		}
		return nil, fmt.Errorf("insert redemption: %w", err)
	}

	filter := bson.M{
		"_id":    redemption.CouponID,
		"status": models.CouponStatusActive,
		"$or": bson.A{
			bson.M{"max_uses": nil},
			bson.M{"$expr": bson.M{"$lt": bson.A{"$used_count", "$max_uses"}}},
		},
	}
	update := bson.M{
		"$inc": bson.M{"used_count": 1},
		"$set": bson.M{"updated_at": time.Now().UTC()},
	}

	var coupon models.Coupon
	err := r.coupons.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&coupon)
	if err == nil {
		return &coupon, nil
	}

	// The counter did not move, so the redemption record must not stay behind.
	if _, delErr := r.redemptions.DeleteOne(ctx, bson.M{"order_id": redemption.OrderID}); delErr != nil {
		return nil, fmt.Errorf("rollback redemption for order %s: %w", redemption.OrderID, delErr)
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUsageLimitReached
	}
	return nil, fmt.Errorf("increment used_count: %w", err)
}

func (r *mongoCouponRepository) CountUserRedemptions(ctx context.Context, couponID primitive.ObjectID, userID string) (int64, error) {
	n, err := r.redemptions.CountDocuments(ctx, bson.M{"coupon_id": couponID, "user_id": userID})
	if err != nil {
		return 0, fmt.Errorf("count redemptions: %w", err)
	}
	return n, nil
}
