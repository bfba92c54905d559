package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the unique keys the repositories rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	specs := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{couponsCollection, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "code", Value: 1}},
			Options: options.Index().SetUnique(true).SetCollation(caseInsensitive),
		}}},
		{redemptionsCollection, []mongo.IndexModel{
			{Keys: bson.D{{Key: "order_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "coupon_id", Value: 1}, {Key: "user_id", Value: 1}}},
		}},
		{ordersCollection, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "paymob_order_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}}},
		{referralsCollection, []mongo.IndexModel{{
			Keys:    bson.D{{Key: "referral_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		}}},
		{activitiesCollection, []mongo.IndexModel{{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		}}},
	}
	for _, s := range specs {
		if _, err := db.Collection(s.collection).Indexes().CreateMany(ctx, s.models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", s.collection, err)
		}
	}
	return nil
}
