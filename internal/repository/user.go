// Package repository implements the data access layer for the application.
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

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error)
	AddFavorite(ctx context.Context, userID, favoriteID primitive.ObjectID) error
	RemoveFavorite(ctx context.Context, userID, favoriteID primitive.ObjectID) error
	ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.User, error)
	SetSellerRating(ctx context.Context, sellerID primitive.ObjectID, rating float64) error
}

type userRepository struct {
	coll *mongo.Collection
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *mongo.Database) UserRepository {
	return &userRepository{coll: db.Collection("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return models.NewConflictError("Phone number already registered")
		}
		return models.NewInternalError(err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		user.ID = id
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"phone": phone}).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) UpdateProfile(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	var user models.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

// AddFavorite inserts the favorite in a single guarded update so a concurrent
// duplicate add cannot slip in between a check and a write.
func (r *userRepository) AddFavorite(ctx context.Context, userID, favoriteID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "favorites": bson.M{"$ne": favoriteID}},
		bson.M{"$addToSet": bson.M{"favorites": favoriteID}},
	)
	if err != nil {
		return models.NewInternalError(err)
	}
	if res.MatchedCount == 0 {
		return models.NewValidationError("User already in favorites")
	}
	return nil
}

// RemoveFavorite is a $pull and therefore idempotent: removing an absent
// favorite succeeds.
func (r *userRepository) RemoveFavorite(ctx context.Context, userID, favoriteID primitive.ObjectID) error {
	if _, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$pull": bson.M{"favorites": favoriteID}},
	); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *userRepository) ListFavorites(ctx context.Context, userID primitive.ObjectID) ([]models.User, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || len(user.Favorites) == 0 {
		return nil, nil
	}
	return r.GetByIDs(ctx, user.Favorites)
}

func (r *userRepository) SetSellerRating(ctx context.Context, sellerID primitive.ObjectID, rating float64) error {
	if _, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": sellerID},
		bson.M{"$set": bson.M{"sellerProfile.rating": rating}},
	); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
