package repository

import (
	"context"
	"errors"
	"regexp"

	"agrilink/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostingFilter narrows posting listings. Only active postings are returned.
type PostingFilter struct {
	Category string
	SellerID *primitive.ObjectID
	// Search matches title or description, case-insensitively.
	Search string
	Limit  int
	Offset int
}

// PostingRepository defines persistence operations for postings.
type PostingRepository interface {
	Create(ctx context.Context, posting *models.Posting) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Posting, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Posting, error)
	List(ctx context.Context, filter PostingFilter) ([]models.Posting, error)
	ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Posting, error)
	Update(ctx context.Context, id, sellerID primitive.ObjectID, update bson.M) (*models.Posting, error)
	Deactivate(ctx context.Context, id, sellerID primitive.ObjectID) error
}

type postingRepository struct {
	coll *mongo.Collection
}

// NewPostingRepository returns a new PostingRepository implementation.
func NewPostingRepository(db *mongo.Database) PostingRepository {
	return &postingRepository{coll: db.Collection("postings")}
}

func (r *postingRepository) Create(ctx context.Context, posting *models.Posting) error {
	res, err := r.coll.InsertOne(ctx, posting)
	if err != nil {
		return models.NewInternalError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		posting.ID = id
	}
	return nil
}

func (r *postingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Posting, error) {
	var posting models.Posting
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&posting); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &posting, nil
}

func (r *postingRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Posting, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var postings []models.Posting
	if err := cursor.All(ctx, &postings); err != nil {
		return nil, models.NewInternalError(err)
	}
	return postings, nil
}

func (r *postingRepository) List(ctx context.Context, filter PostingFilter) ([]models.Posting, error) {
	query := bson.M{"active": true}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if filter.SellerID != nil {
		query["sellerId"] = *filter.SellerID
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"description": pattern},
		}
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
	var postings []models.Posting
	if err := cursor.All(ctx, &postings); err != nil {
		return nil, models.NewInternalError(err)
	}
	return postings, nil
}

// ListBySeller returns all of a seller's postings, inactive ones included.
// Seller-side order listings need the full set.
func (r *postingRepository) ListBySeller(ctx context.Context, sellerID primitive.ObjectID) ([]models.Posting, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"sellerId": sellerID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var postings []models.Posting
	if err := cursor.All(ctx, &postings); err != nil {
		return nil, models.NewInternalError(err)
	}
	return postings, nil
}

// Update applies the given fields only when the posting is still owned by
// sellerID. Ownership is part of the update filter, so the check and the
// write are one atomic operation.
func (r *postingRepository) Update(ctx context.Context, id, sellerID primitive.ObjectID, update bson.M) (*models.Posting, error) {
	var posting models.Posting
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "sellerId": sellerID},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&posting)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &posting, nil
}

// Deactivate is the soft delete: the document stays, active flips to false.
func (r *postingRepository) Deactivate(ctx context.Context, id, sellerID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "sellerId": sellerID},
		bson.M{"$set": bson.M{"active": false}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Posting not found")
	}
	return nil
}
