package repository

import (
	"context"
	"fmt"

	"github.com/drme990/manasik-v2-sub001/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const activitiesCollection = "activities"

type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindAll(ctx context.Context, page, limit int) ([]models.Activity, int64, error)
}

type mongoActivityRepository struct {
	collection *mongo.Collection
}

func NewMongoActivityRepository(db *mongo.Database) ActivityRepository {
	return &mongoActivityRepository{collection: db.Collection(activitiesCollection)}
}

func (r *mongoActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if _, err := r.collection.InsertOne(ctx, activity); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

func (r *mongoActivityRepository) FindAll(ctx context.Context, page, limit int) ([]models.Activity, int64, error) {
	total, err := r.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}
	cursor, err := r.collection.Find(ctx, bson.M{}, findPage(page, limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find activities: %w", err)
	}
	defer cursor.Close(ctx)

	activities := []models.Activity{}
	if err := cursor.All(ctx, &activities); err != nil {
		return nil, 0, fmt.Errorf("decode activities: %w", err)
	}
	return activities, total, nil
}
