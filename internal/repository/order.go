package repository

import (
	"context"
	"errors"

	"agrilink/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error)
	ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Order, error)
	ListByPostingIDs(ctx context.Context, postingIDs []primitive.ObjectID) ([]models.Order, error)
	// UpdateStatus advances the order status only if it still equals from.
	// Returns false when the order was not in the expected state.
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error)
}

type orderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository returns a new OrderRepository implementation.
func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{coll: db.Collection("orders")}
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	res, err := r.coll.InsertOne(ctx, order)
	if err != nil {
		return models.NewInternalError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		order.ID = id
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &order, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Order, error) {
	return r.list(ctx, bson.M{"buyerId": buyerID})
}

func (r *orderRepository) ListByPostingIDs(ctx context.Context, postingIDs []primitive.ObjectID) ([]models.Order, error) {
	if len(postingIDs) == 0 {
		return nil, nil
	}
	return r.list(ctx, bson.M{"postingId": bson.M{"$in": postingIDs}})
}

func (r *orderRepository) list(ctx context.Context, query bson.M) ([]models.Order, error) {
	cursor, err := r.coll.Find(ctx, query,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, models.NewInternalError(err)
	}
	return orders, nil
}

// UpdateStatus is a compare-and-swap on the status field: the expected prior
// status is part of the filter, so two racing transitions cannot both apply.
func (r *orderRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}},
	)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return res.MatchedCount == 1, nil
}
