// Package database establishes the MongoDB connection and schema indexes.
package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"agrilink/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

// Connect opens the MongoDB connection, verifies it with a ping and ensures
// the collection indexes exist.
func Connect(cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect failed: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, nil, fmt.Errorf("mongo ping failed: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	if err := ensureIndexes(ctx, db); err != nil {
		return nil, nil, fmt.Errorf("ensuring indexes failed: %w", err)
	}

	log.Println("MongoDB connected successfully")
	return client, db, nil
}

// ensureIndexes creates the indexes the repositories rely on. The unique
// indexes back the phone-is-login-key and one-feedback-per-order invariants.
func ensureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	if _, err := db.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: unique,
	}); err != nil {
		return err
	}

	if _, err := db.Collection("feedback").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "orderId", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	if _, err := db.Collection("postings").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sellerId", Value: 1}, {Key: "active", Value: 1}},
	}); err != nil {
		return err
	}

	if _, err := db.Collection("orders").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyerId", Value: 1}}},
		{Keys: bson.D{{Key: "postingId", Value: 1}}},
	}); err != nil {
		return err
	}

	if _, err := db.Collection("demands").Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "buyerId", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "productType", Value: 1}}},
	}); err != nil {
		return err
	}

	if _, err := db.Collection("feedback").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "sellerId", Value: 1}},
	}); err != nil {
		return err
	}

	return nil
}
