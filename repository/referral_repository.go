package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/drme990/manasik-v2-sub001/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const referralsCollection = "referrals"

type ReferralRepository interface {
	Create(ctx context.Context, referral *models.Referral) error
	FindByReferralID(ctx context.Context, referralID string) (*models.Referral, error)
	FindAll(ctx context.Context, page, limit int) ([]models.Referral, int64, error)
}

type mongoReferralRepository struct {
	collection *mongo.Collection
}

func NewMongoReferralRepository(db *mongo.Database) ReferralRepository {
	return &mongoReferralRepository{collection: db.Collection(referralsCollection)}
}

func (r *mongoReferralRepository) Create(ctx context.Context, referral *models.Referral) error {
	referral.CreatedAt = time.Now().UTC()
	res, err := r.collection.InsertOne(ctx, referral)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("insert referral: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		referral.ID = id
	}
	return nil
}

func (r *mongoReferralRepository) FindByReferralID(ctx context.Context, referralID string) (*models.Referral, error) {
	var referral models.Referral
	if err := r.collection.FindOne(ctx, bson.M{"referral_id": referralID}).Decode(&referral); err != nil {
		return nil, notFound(err)
	}
	if err := referral.Validate(); err != nil {
		return nil, err
	}
	return &referral, nil
}

func (r *mongoReferralRepository) FindAll(ctx context.Context, page, limit int) ([]models.Referral, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count referrals: %w", err)
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, findPage(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find referrals: %w", err)
	}
	defer cursor.Close(ctx)

	referrals := []models.Referral{}
	if err := cursor.All(ctx, &referrals); err != nil {
		return nil, 0, fmt.Errorf("decode referrals: %w", err)
	}
	return referrals, total, nil
}
