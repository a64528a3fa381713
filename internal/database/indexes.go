package database

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func EnsureUserIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	emailIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}},
		Options: options.Index().
			SetName("email_unique").
			SetUnique(true),
	}

	_, err := db.Collection("users").Indexes().CreateOne(ctx, emailIndex)
	if err != nil {
		log.Println("EnsureUserIndexes: email index error:", err)
		return err
	}
	return nil
}

func EnsureOrderIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("ownerId_status"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("ownerId_createdAt"),
		},
		{
			Keys: bson.D{{Key: "orderNumber", Value: 1}},
			Options: options.Index().
				SetName("orderNumber_unique").
				SetUnique(true),
		},
	}

	_, err := db.Collection("orders").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureOrderIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureNotificationIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("ownerId_createdAt"),
		},
		{
			Keys:    bson.D{{Key: "ownerId", Value: 1}, {Key: "read", Value: 1}},
			Options: options.Index().SetName("ownerId_read"),
		},
	}

	_, err := db.Collection("notifications").Indexes().CreateMany(ctx, indexes)
	if err != nil {
		log.Println("EnsureNotificationIndexes: index error:", err)
		return err
	}
	return nil
}

func EnsureCartIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ownerIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}},
		Options: options.Index().
			SetName("ownerId_unique").
			SetUnique(true),
	}

	for _, name := range []string{"carts", "wishlists"} {
		if _, err := db.Collection(name).Indexes().CreateOne(ctx, ownerIndex); err != nil {
			log.Println("EnsureCartIndexes:", name, "index error:", err)
			return err
		}
	}
	return nil
}

func EnsureOutboxIndexes(db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pendingIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "published", Value: 1}, {Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("published_createdAt"),
	}

	_, err := db.Collection("outbox").Indexes().CreateOne(ctx, pendingIndex)
	if err != nil {
		log.Println("EnsureOutboxIndexes: index error:", err)
		return err
	}
	return nil
}
