package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Post is the aggregate root for the feed. The author fields are a
// snapshot of the user document taken when the post was created; they
// are never refreshed when the profile changes later.
type Post struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID          string             `bson:"userId" json:"userId"`
	FirstName       string             `bson:"firstName" json:"firstName"`
	LastName        string             `bson:"lastName" json:"lastName"`
	Location        string             `bson:"location" json:"location"`
	Description     string             `bson:"description" json:"description"`
	PicturePath     string             `bson:"picturePath" json:"picturePath"`
	UserPicturePath string             `bson:"userPicturePath" json:"userPicturePath"`
	Likes           []string           `bson:"likes" json:"likes"`
	Comments        []Comment          `bson:"comments" json:"comments"`
	Revision        int64              `bson:"revision" json:"-"`
	CreatedAt       int64              `bson:"createdAt" json:"createdAt"`
	UpdatedAt       int64              `bson:"updatedAt" json:"updatedAt"`
}

// Comment lives only inside its post. The id is unique within that
// post; the author fields are snapshotted independently from the
// post's own author snapshot.
type Comment struct {
	ID              string `bson:"_id" json:"id"`
	UserID          string `bson:"userId" json:"userId"`
	FirstName       string `bson:"firstName" json:"firstName"`
	LastName        string `bson:"lastName" json:"lastName"`
	UserPicturePath string `bson:"userPicturePath" json:"userPicturePath"`
	Comment         string `bson:"comment" json:"comment"`
	CreatedAt       int64  `bson:"createdAt" json:"createdAt"`
}

// Liked reports whether userID is in the like set.
func (p *Post) Liked(userID string) bool {
	for _, id := range p.Likes {
		if id == userID {
			return true
		}
	}
	return false
}

// AddLike inserts userID into the like set. Adding an existing member
// is a no-op, so the set never holds duplicates.
func (p *Post) AddLike(userID string) {
	if p.Liked(userID) {
		return
	}
	p.Likes = append(p.Likes, userID)
}

// RemoveLike deletes userID from the like set, keeping the order of
// the remaining members.
func (p *Post) RemoveLike(userID string) {
	for i, id := range p.Likes {
		if id == userID {
			p.Likes = append(p.Likes[:i], p.Likes[i+1:]...)
			return
		}
	}
}

// CommentIndex returns the position of the comment with the given id,
// or -1 if no comment matches.
func (p *Post) CommentIndex(commentID string) int {
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return i
		}
	}
	return -1
}

// RemoveComment filters out the comment with the given id and reports
// whether anything was removed. Survivors keep their order.
func (p *Post) RemoveComment(commentID string) bool {
	i := p.CommentIndex(commentID)
	if i < 0 {
		return false
	}
	p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
	return true
}
