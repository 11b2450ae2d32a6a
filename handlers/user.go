package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"sociofeed/database"
	"sociofeed/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func GetUser(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	c.JSON(http.StatusOK, user)
}

func GetUserFriends(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user models.User
	err = database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Database error"})
		return
	}

	friends, err := resolveFriends(ctx, user.Friends)
	if err != nil {
		log.Printf("GetUserFriends error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch friends"})
		return
	}

	c.JSON(http.StatusOK, friends)
}

// AddRemoveFriend toggles the friendship both ways: each user appears
// in or disappears from the other's friend list together.
func AddRemoveFriend(c *gin.Context) {
	userID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid user ID"})
		return
	}
	friendID, err := primitive.ObjectIDFromHex(c.Param("friendId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid friend ID"})
		return
	}
	if userID == friendID {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Cannot friend yourself"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	var user, friend models.User
	if err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "User not found"})
		return
	}
	if err := database.Users.FindOne(ctx, bson.M{"_id": friendID}).Decode(&friend); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Friend not found"})
		return
	}

	if containsID(user.Friends, friendID.Hex()) {
		user.Friends = removeID(user.Friends, friendID.Hex())
		friend.Friends = removeID(friend.Friends, userID.Hex())
	} else {
		user.Friends = append(user.Friends, friendID.Hex())
		friend.Friends = append(friend.Friends, userID.Hex())
	}

	if _, err := database.Users.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": bson.M{"friends": user.Friends}}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update friends"})
		return
	}
	if _, err := database.Users.UpdateOne(ctx, bson.M{"_id": friendID}, bson.M{"$set": bson.M{"friends": friend.Friends}}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to update friends"})
		return
	}

	friends, err := resolveFriends(ctx, user.Friends)
	if err != nil {
		log.Printf("AddRemoveFriend error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch friends"})
		return
	}

	c.JSON(http.StatusOK, friends)
}

func SearchUsers(c *gin.Context) {
	query := c.Param("query")

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	filter := bson.M{"$or": []bson.M{
		{"firstName": bson.M{"$regex": query, "$options": "i"}},
		{"lastName": bson.M{"$regex": query, "$options": "i"}},
	}}

	cursor, err := database.Users.Find(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to search users"})
		return
	}
	defer cursor.Close(ctx)

	users := []models.User{}
	if err := cursor.All(ctx, &users); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to decode users"})
		return
	}

	c.JSON(http.StatusOK, users)
}

// resolveFriends projects friend ids to the profile fields the feed
// renders next to posts and comments.
func resolveFriends(ctx context.Context, ids []string) ([]map[string]interface{}, error) {
	friends := []map[string]interface{}{}
	if len(ids) == 0 {
		return friends, nil
	}

	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}

	cursor, err := database.Users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, err
	}

	byID := make(map[string]models.User, len(users))
	for _, u := range users {
		byID[u.ID.Hex()] = u
	}

	// Preserve the stored friend-list order
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}
		friends = append(friends, map[string]interface{}{
			"_id":         u.ID.Hex(),
			"firstName":   u.FirstName,
			"lastName":    u.LastName,
			"occupation":  u.Occupation,
			"location":    u.Location,
			"picturePath": u.PicturePath,
		})
	}
	return friends, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
