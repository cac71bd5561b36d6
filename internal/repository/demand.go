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

// DemandFilter narrows demand listings.
type DemandFilter struct {
	ProductType string
	Status      models.DemandStatus
	Limit       int
	Offset      int
}

// DemandRepository defines persistence operations for demands.
type DemandRepository interface {
	Create(ctx context.Context, demand *models.Demand) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Demand, error)
	List(ctx context.Context, filter DemandFilter) ([]models.Demand, error)
	ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Demand, error)
	// AddResponse appends the response only if the demand is still active and
	// the seller has not responded yet. Returns false otherwise.
	AddResponse(ctx context.Context, id primitive.ObjectID, response models.DemandResponse) (bool, error)
	// UpdateStatus moves an active demand owned by buyerID to the given
	// terminal status. Returns false if the demand is not active anymore or
	// not owned by the buyer.
	UpdateStatus(ctx context.Context, id, buyerID primitive.ObjectID, status models.DemandStatus) (bool, error)
}

type demandRepository struct {
	coll *mongo.Collection
}

// NewDemandRepository returns a new DemandRepository implementation.
func NewDemandRepository(db *mongo.Database) DemandRepository {
	return &demandRepository{coll: db.Collection("demands")}
}

func (r *demandRepository) Create(ctx context.Context, demand *models.Demand) error {
	res, err := r.coll.InsertOne(ctx, demand)
	if err != nil {
		return models.NewInternalError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		demand.ID = id
	}
	return nil
}

func (r *demandRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Demand, error) {
	var demand models.Demand
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&demand); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &demand, nil
}

func (r *demandRepository) List(ctx context.Context, filter DemandFilter) ([]models.Demand, error) {
	status := filter.Status
	if status == "" {
		status = models.DemandStatusActive
	}
	query := bson.M{"status": status}
	if filter.ProductType != "" {
		query["productType"] = filter.ProductType
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var demands []models.Demand
	if err := cursor.All(ctx, &demands); err != nil {
		return nil, models.NewInternalError(err)
	}
	return demands, nil
}

func (r *demandRepository) ListByBuyer(ctx context.Context, buyerID primitive.ObjectID) ([]models.Demand, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"buyerId": buyerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var demands []models.Demand
	if err := cursor.All(ctx, &demands); err != nil {
		return nil, models.NewInternalError(err)
	}
	return demands, nil
}

// AddResponse pushes the response in one guarded update: the filter requires
// the demand to be active and to hold no response from this seller, so two
// racing responses from the same seller cannot both land.
func (r *demandRepository) AddResponse(ctx context.Context, id primitive.ObjectID, response models.DemandResponse) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{
			"_id":                id,
			"status":             models.DemandStatusActive,
			"responses.sellerId": bson.M{"$ne": response.SellerID},
		},
		bson.M{"$push": bson.M{"responses": response}},
	)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return res.MatchedCount == 1, nil
}

func (r *demandRepository) UpdateStatus(ctx context.Context, id, buyerID primitive.ObjectID, status models.DemandStatus) (bool, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "buyerId": buyerID, "status": models.DemandStatusActive},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return res.MatchedCount == 1, nil
}
