package database

import (
	"context"
	"fmt"

	"sociofeed/engine"
	"sociofeed/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoUserDirectory resolves author ids against the users collection
// when the engine takes profile snapshots.
type MongoUserDirectory struct {
	coll *mongo.Collection
}

func NewMongoUserDirectory(coll *mongo.Collection) *MongoUserDirectory {
	return &MongoUserDirectory{coll: coll}
}

func (d *MongoUserDirectory) FindUser(ctx context.Context, userID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, engine.ErrUserNotFound
	}

	var user models.User
	err = d.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, engine.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}
