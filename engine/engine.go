// Package engine implements the post aggregate mutation engine:
// creating posts, toggling per-user likes and managing the embedded
// comment collection. Every mutation reads the whole aggregate,
// applies the transform in memory and writes it back through a single
// Replace call, so no partially applied state is ever observable.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"sociofeed/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultMaxCommentLen bounds comment text when no limit is configured.
const DefaultMaxCommentLen = 2000

// PostRepository is the persistence boundary for post aggregates.
// Replace is a whole-document write guarded by the revision recorded
// on the passed-in post: a writer holding a stale revision gets
// ErrConflict instead of silently overwriting a concurrent mutation.
type PostRepository interface {
	FindAll(ctx context.Context) ([]models.Post, error)
	FindByID(ctx context.Context, id string) (*models.Post, error)
	FindByAuthor(ctx context.Context, userID string) ([]models.Post, error)
	Insert(ctx context.Context, post *models.Post) error
	Replace(ctx context.Context, id string, post *models.Post) (*models.Post, error)
}

// UserDirectory resolves user ids to profile documents for author
// snapshots. The engine never validates ids it only records (likes).
type UserDirectory interface {
	FindUser(ctx context.Context, userID string) (*models.User, error)
}

type Config struct {
	// MaxCommentLen is the maximum comment text length in runes.
	// Zero or negative selects DefaultMaxCommentLen.
	MaxCommentLen int
}

type Engine struct {
	posts         PostRepository
	users         UserDirectory
	maxCommentLen int
	now           func() time.Time
}

func New(posts PostRepository, users UserDirectory, cfg Config) *Engine {
	maxLen := cfg.MaxCommentLen
	if maxLen <= 0 {
		maxLen = DefaultMaxCommentLen
	}
	return &Engine{
		posts:         posts,
		users:         users,
		maxCommentLen: maxLen,
		now:           time.Now,
	}
}

// CreatePost denormalizes the author's profile into a new post. The
// snapshot is fixed at this instant; later profile edits do not
// propagate to the post.
func (e *Engine) CreatePost(ctx context.Context, authorID, description, picturePath string) (*models.Post, error) {
	author, err := e.users.FindUser(ctx, authorID)
	if err != nil {
		return nil, err
	}

	now := e.now().Unix()
	post := &models.Post{
		ID:              primitive.NewObjectID(),
		UserID:          authorID,
		FirstName:       author.FirstName,
		LastName:        author.LastName,
		Location:        author.Location,
		Description:     description,
		PicturePath:     picturePath,
		UserPicturePath: author.PicturePath,
		Likes:           []string{},
		Comments:        []models.Comment{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := e.posts.Insert(ctx, post); err != nil {
		return nil, fmt.Errorf("persist post: %w", err)
	}
	return post, nil
}

// FeedPosts returns every post. Full-collection scan, no pagination.
func (e *Engine) FeedPosts(ctx context.Context) ([]models.Post, error) {
	return e.posts.FindAll(ctx)
}

// UserPosts returns all posts authored by userID.
func (e *Engine) UserPosts(ctx context.Context, userID string) ([]models.Post, error) {
	return e.posts.FindByAuthor(ctx, userID)
}

// ToggleLike flips userID's membership in the post's like set. The
// flip is an involution: two consecutive calls restore the original
// set, so a retried request inverts the visible state again. userID
// is recorded as-is, never resolved against the user directory.
func (e *Engine) ToggleLike(ctx context.Context, postID, userID string) (*models.Post, error) {
	post, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if post.Liked(userID) {
		post.RemoveLike(userID)
	} else {
		post.AddLike(userID)
	}

	post.UpdatedAt = e.now().Unix()
	return e.posts.Replace(ctx, postID, post)
}

// AddComment appends a comment authored by authorID to the post. The
// comment carries its own author snapshot, resolved now, independent
// of the post's snapshot. The new id is unique within the post.
func (e *Engine) AddComment(ctx context.Context, postID, authorID, text string) (*models.Post, error) {
	if err := e.validateCommentText(text); err != nil {
		return nil, err
	}

	post, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	author, err := e.users.FindUser(ctx, authorID)
	if err != nil {
		return nil, err
	}

	id := primitive.NewObjectID().Hex()
	for post.CommentIndex(id) >= 0 {
		id = primitive.NewObjectID().Hex()
	}

	post.Comments = append(post.Comments, models.Comment{
		ID:              id,
		UserID:          authorID,
		FirstName:       author.FirstName,
		LastName:        author.LastName,
		UserPicturePath: author.PicturePath,
		Comment:         text,
		CreatedAt:       e.now().Unix(),
	})

	post.UpdatedAt = e.now().Unix()
	return e.posts.Replace(ctx, postID, post)
}

// EditComment replaces the text of the comment with the given id.
// Identity, author snapshot, creation time and ordering are untouched.
// A missing comment id is ErrCommentNotFound and the post stays
// unmodified.
func (e *Engine) EditComment(ctx context.Context, postID, commentID, text string) (*models.Post, error) {
	if err := e.validateCommentText(text); err != nil {
		return nil, err
	}

	post, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	i := post.CommentIndex(commentID)
	if i < 0 {
		return nil, ErrCommentNotFound
	}

	post.Comments[i].Comment = text
	post.UpdatedAt = e.now().Unix()
	return e.posts.Replace(ctx, postID, post)
}

// DeleteComment removes the comment with the given id. Unlike
// EditComment, a missing id is a no-op success: the post is returned
// unchanged and nothing is persisted.
func (e *Engine) DeleteComment(ctx context.Context, postID, commentID string) (*models.Post, error) {
	post, err := e.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !post.RemoveComment(commentID) {
		return post, nil
	}

	post.UpdatedAt = e.now().Unix()
	return e.posts.Replace(ctx, postID, post)
}

func (e *Engine) validateCommentText(text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyComment
	}
	if utf8.RuneCountInString(text) > e.maxCommentLen {
		return ErrCommentTooLong
	}
	return nil
}
