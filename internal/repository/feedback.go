package repository

import (
	"context"
	"errors"

	"agrilink/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FeedbackRepository defines persistence operations for order feedback.
type FeedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	GetByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Feedback, error)
	// AverageRatingForSeller computes the mean rating across all feedback
	// left on the seller's orders. Returns 0 when no feedback exists.
	AverageRatingForSeller(ctx context.Context, sellerID primitive.ObjectID) (float64, error)
}

type feedbackRepository struct {
	coll *mongo.Collection
}

// NewFeedbackRepository returns a new FeedbackRepository implementation.
func NewFeedbackRepository(db *mongo.Database) FeedbackRepository {
	return &feedbackRepository{coll: db.Collection("feedback")}
}

// Create relies on the unique orderId index for the one-feedback-per-order
// invariant.
func (r *feedbackRepository) Create(ctx context.Context, feedback *models.Feedback) error {
	res, err := r.coll.InsertOne(ctx, feedback)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewConflictError("Feedback already submitted for this order")
		}
		return models.NewInternalError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		feedback.ID = id
	}
	return nil
}

func (r *feedbackRepository) GetByOrderID(ctx context.Context, orderID primitive.ObjectID) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := r.coll.FindOne(ctx, bson.M{"orderId": orderID}).Decode(&feedback); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &feedback, nil
}

func (r *feedbackRepository) AverageRatingForSeller(ctx context.Context, sellerID primitive.ObjectID) (float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"sellerId": sellerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"rating": bson.M{"$avg": "$rating"},
		}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, models.NewInternalError(err)
	}

	var results []struct {
		Rating float64 `bson:"rating"`
	}
	if err := cursor.All(ctx, &results); err != nil {
		return 0, models.NewInternalError(err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Rating, nil
}
