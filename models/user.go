package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"passwordHash" json:"-"`

	FirstName   string   `bson:"firstName" json:"firstName"`
	LastName    string   `bson:"lastName" json:"lastName"`
	PicturePath string   `bson:"picturePath" json:"picturePath"`
	Location    string   `bson:"location" json:"location"`
	Occupation  string   `bson:"occupation" json:"occupation"`
	Friends     []string `bson:"friends" json:"friends"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
	LastSeen  int64 `bson:"lastSeen" json:"lastSeen"`
}
