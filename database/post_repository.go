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

// MongoPostRepository stores post aggregates as whole documents in a
// single collection, one document per post with comments and likes
// embedded.
type MongoPostRepository struct {
	coll *mongo.Collection
}

func NewMongoPostRepository(coll *mongo.Collection) *MongoPostRepository {
	return &MongoPostRepository{coll: coll}
}

func (r *MongoPostRepository) FindAll(ctx context.Context) ([]models.Post, error) {
	cursor, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (r *MongoPostRepository) FindByID(ctx context.Context, id string) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, engine.ErrPostNotFound
	}

	var post models.Post
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, engine.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find post: %w", err)
	}
	return &post, nil
}

func (r *MongoPostRepository) FindByAuthor(ctx context.Context, userID string) ([]models.Post, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID})
	if err != nil {
		return nil, fmt.Errorf("find posts by author: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (r *MongoPostRepository) Insert(ctx context.Context, post *models.Post) error {
	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	return nil
}

// Replace writes the whole aggregate back, matching on the revision
// the caller read. A stale revision means another writer got there
// first; the caller is told via engine.ErrConflict rather than having
// its view silently overwrite the other mutation.
func (r *MongoPostRepository) Replace(ctx context.Context, id string, post *models.Post) (*models.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, engine.ErrPostNotFound
	}

	next := *post
	next.Revision = post.Revision + 1

	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": oid, "revision": post.Revision}, &next)
	if err != nil {
		return nil, fmt.Errorf("replace post: %w", err)
	}
	if res.MatchedCount == 0 {
		n, err := r.coll.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return nil, fmt.Errorf("replace post: %w", err)
		}
		if n == 0 {
			return nil, engine.ErrPostNotFound
		}
		return nil, engine.ErrConflict
	}
	return &next, nil
}
