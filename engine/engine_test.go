package engine

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"sociofeed/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory PostRepository with the same revision
// compare-and-swap contract as the Mongo implementation. Reads return
// deep copies so a caller's mutations never alias stored state.
type memRepo struct {
	mu    sync.Mutex
	posts map[string]models.Post
}

func newMemRepo() *memRepo {
	return &memRepo{posts: map[string]models.Post{}}
}

func clonePost(p models.Post) models.Post {
	out := p
	out.Likes = append([]string{}, p.Likes...)
	out.Comments = append([]models.Comment{}, p.Comments...)
	return out
}

func (r *memRepo) FindAll(context.Context) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts := []models.Post{}
	for _, p := range r.posts {
		posts = append(posts, clonePost(p))
	}
	return posts, nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	out := clonePost(p)
	return &out, nil
}

func (r *memRepo) FindByAuthor(_ context.Context, userID string) ([]models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	posts := []models.Post{}
	for _, p := range r.posts {
		if p.UserID == userID {
			posts = append(posts, clonePost(p))
		}
	}
	return posts, nil
}

func (r *memRepo) Insert(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID.Hex()] = clonePost(*post)
	return nil
}

func (r *memRepo) Replace(_ context.Context, id string, post *models.Post) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.posts[id]
	if !ok {
		return nil, ErrPostNotFound
	}
	if cur.Revision != post.Revision {
		return nil, ErrConflict
	}
	next := clonePost(*post)
	next.Revision++
	r.posts[id] = next
	out := clonePost(next)
	return &out, nil
}

// staleReadRepo serves every FindByID from one fixed snapshot,
// simulating two request handlers that read the same pre-mutation
// state before writing back.
type staleReadRepo struct {
	*memRepo
	snapshot models.Post
}

func (r *staleReadRepo) FindByID(context.Context, string) (*models.Post, error) {
	out := clonePost(r.snapshot)
	return &out, nil
}

type memDirectory struct {
	mu    sync.Mutex
	users map[string]models.User
}

func (d *memDirectory) FindUser(_ context.Context, userID string) (*models.User, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	u, ok := d.users[userID]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := u
	return &out, nil
}

func (d *memDirectory) set(id string, u models.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[id] = u
}

const testMaxCommentLen = 40

func newTestEngine(t *testing.T) (*Engine, *memRepo, *memDirectory) {
	t.Helper()
	repo := newMemRepo()
	dir := &memDirectory{users: map[string]models.User{
		"u1": {FirstName: "Ada", LastName: "Lovelace", PicturePath: "ada.jpg", Location: "London", Occupation: "Mathematician"},
		"u2": {FirstName: "Alan", LastName: "Turing", PicturePath: "alan.jpg", Location: "Wilmslow", Occupation: "Cryptographer"},
	}}
	return New(repo, dir, Config{MaxCommentLen: testMaxCommentLen}), repo, dir
}

func seedPost(t *testing.T, e *Engine) *models.Post {
	t.Helper()
	post, err := e.CreatePost(context.Background(), "u1", "first post", "beach.jpg")
	require.NoError(t, err)
	return post
}

func TestCreatePostSnapshotsAuthor(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()

	post, err := e.CreatePost(ctx, "u1", "hello world", "pic.jpg")
	require.NoError(t, err)

	assert.Equal(t, "u1", post.UserID)
	assert.Equal(t, "Ada", post.FirstName)
	assert.Equal(t, "Lovelace", post.LastName)
	assert.Equal(t, "London", post.Location)
	assert.Equal(t, "ada.jpg", post.UserPicturePath)
	assert.Equal(t, "hello world", post.Description)
	assert.Equal(t, "pic.jpg", post.PicturePath)
	assert.Empty(t, post.Likes)
	assert.Empty(t, post.Comments)
	assert.Equal(t, post.CreatedAt, post.UpdatedAt)

	stored, err := repo.FindByID(ctx, post.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, post.Description, stored.Description)
}

func TestCreatePostUnknownAuthor(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.CreatePost(context.Background(), "ghost", "hi", "")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestFeedAndUserPosts(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := e.CreatePost(ctx, "u1", "one", "")
	require.NoError(t, err)
	_, err = e.CreatePost(ctx, "u1", "two", "")
	require.NoError(t, err)
	_, err = e.CreatePost(ctx, "u2", "three", "")
	require.NoError(t, err)

	feed, err := e.FeedPosts(ctx)
	require.NoError(t, err)
	assert.Len(t, feed, 3)

	mine, err := e.UserPosts(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)
	for _, p := range mine {
		assert.Equal(t, "u1", p.UserID)
	}
}

func TestToggleLikeIsAnInvolution(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	liked, err := e.ToggleLike(ctx, id, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, liked.Likes)

	// Second toggle restores the original set
	unliked, err := e.ToggleLike(ctx, id, "u2")
	require.NoError(t, err)
	assert.Empty(t, unliked.Likes)
}

func TestToggleLikeKeepsOtherMembers(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	_, err := e.ToggleLike(ctx, id, "u1")
	require.NoError(t, err)
	_, err = e.ToggleLike(ctx, id, "u2")
	require.NoError(t, err)

	updated, err := e.ToggleLike(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, updated.Likes)
}

func TestToggleLikeDoesNotValidateUser(t *testing.T) {
	e, _, _ := newTestEngine(t)
	post := seedPost(t, e)

	// The engine records the id without consulting the directory
	updated, err := e.ToggleLike(context.Background(), post.ID.Hex(), "nobody-knows-me")
	require.NoError(t, err)
	assert.Equal(t, []string{"nobody-knows-me"}, updated.Likes)
}

func TestToggleLikeUnknownPost(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.ToggleLike(context.Background(), "64b000000000000000000000", "u1")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestAddCommentAppendsWithoutDisturbingExisting(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	first, err := e.AddComment(ctx, id, "u2", "nice view")
	require.NoError(t, err)
	require.Len(t, first.Comments, 1)

	second, err := e.AddComment(ctx, id, "u1", "thanks!")
	require.NoError(t, err)
	require.Len(t, second.Comments, 2)

	// Pre-existing comment is untouched and keeps its position
	assert.Equal(t, first.Comments[0], second.Comments[0])
	assert.NotEqual(t, second.Comments[0].ID, second.Comments[1].ID)
	assert.Equal(t, "thanks!", second.Comments[1].Comment)
}

func TestAddCommentSnapshotsCommentAuthor(t *testing.T) {
	e, _, _ := newTestEngine(t)
	post := seedPost(t, e)

	updated, err := e.AddComment(context.Background(), post.ID.Hex(), "u2", "hello")
	require.NoError(t, err)

	c := updated.Comments[0]
	assert.Equal(t, "u2", c.UserID)
	assert.Equal(t, "Alan", c.FirstName)
	assert.Equal(t, "Turing", c.LastName)
	assert.Equal(t, "alan.jpg", c.UserPicturePath)

	// The post's own author snapshot is not mutated by the comment
	assert.Equal(t, "Ada", updated.FirstName)
	assert.Equal(t, "ada.jpg", updated.UserPicturePath)
}

func TestSnapshotsAreNeverRefreshed(t *testing.T) {
	e, repo, dir := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	_, err := e.AddComment(ctx, id, "u2", "before rename")
	require.NoError(t, err)

	dir.set("u2", models.User{FirstName: "A.", LastName: "Turing", PicturePath: "new.jpg"})

	updated, err := e.AddComment(ctx, id, "u2", "after rename")
	require.NoError(t, err)

	// Old comment keeps the old snapshot, new comment gets the new one
	assert.Equal(t, "Alan", updated.Comments[0].FirstName)
	assert.Equal(t, "A.", updated.Comments[1].FirstName)

	// The post's author snapshot never moves either
	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", stored.FirstName)
}

func TestAddCommentUnknownAuthor(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	_, err := e.AddComment(ctx, id, "ghost", "boo")
	assert.ErrorIs(t, err, ErrUserNotFound)

	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, stored.Comments)
}

func TestAddCommentUnknownPost(t *testing.T) {
	e, _, _ := newTestEngine(t)

	_, err := e.AddComment(context.Background(), "64b000000000000000000000", "u1", "hi")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCommentTextPolicy(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	_, err := e.AddComment(ctx, id, "u2", "")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = e.AddComment(ctx, id, "u2", "   \t\n")
	assert.ErrorIs(t, err, ErrEmptyComment)

	_, err = e.AddComment(ctx, id, "u2", strings.Repeat("x", testMaxCommentLen+1))
	assert.ErrorIs(t, err, ErrCommentTooLong)

	// Exactly at the limit is accepted
	updated, err := e.AddComment(ctx, id, "u2", strings.Repeat("x", testMaxCommentLen))
	require.NoError(t, err)
	assert.Len(t, updated.Comments, 1)
}

func TestEditCommentChangesOnlyText(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	withFirst, err := e.AddComment(ctx, id, "u2", "hi")
	require.NoError(t, err)
	withBoth, err := e.AddComment(ctx, id, "u1", "second")
	require.NoError(t, err)

	target := withFirst.Comments[0]
	updated, err := e.EditComment(ctx, id, target.ID, "hello")
	require.NoError(t, err)

	edited := updated.Comments[0]
	assert.Equal(t, "hello", edited.Comment)
	assert.Equal(t, target.ID, edited.ID)
	assert.Equal(t, target.UserID, edited.UserID)
	assert.Equal(t, target.FirstName, edited.FirstName)
	assert.Equal(t, target.CreatedAt, edited.CreatedAt)

	// The other comment and the order are untouched
	assert.Equal(t, withBoth.Comments[1], updated.Comments[1])
}

func TestEditCommentMissingLeavesPostUnmodified(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	withComment, err := e.AddComment(ctx, id, "u2", "hi")
	require.NoError(t, err)

	_, err = e.EditComment(ctx, id, "no-such-comment", "new text")
	assert.ErrorIs(t, err, ErrCommentNotFound)

	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, withComment.Comments, stored.Comments)
	assert.Equal(t, withComment.UpdatedAt, stored.UpdatedAt)
	assert.Equal(t, withComment.Revision, stored.Revision)
}

func TestEditCommentRejectsEmptyText(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	withComment, err := e.AddComment(ctx, id, "u2", "hi")
	require.NoError(t, err)

	_, err = e.EditComment(ctx, id, withComment.Comments[0].ID, "")
	assert.ErrorIs(t, err, ErrEmptyComment)
}

func TestDeleteCommentPreservesSurvivorOrder(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	_, err := e.AddComment(ctx, id, "u2", "one")
	require.NoError(t, err)
	withTwo, err := e.AddComment(ctx, id, "u1", "two")
	require.NoError(t, err)
	withThree, err := e.AddComment(ctx, id, "u2", "three")
	require.NoError(t, err)

	updated, err := e.DeleteComment(ctx, id, withTwo.Comments[1].ID)
	require.NoError(t, err)

	require.Len(t, updated.Comments, 2)
	assert.Equal(t, withThree.Comments[0], updated.Comments[0])
	assert.Equal(t, withThree.Comments[2], updated.Comments[1])
}

func TestDeleteCommentMissingIsNoOpSuccess(t *testing.T) {
	e, repo, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	withComment, err := e.AddComment(ctx, id, "u2", "hi")
	require.NoError(t, err)

	returned, err := e.DeleteComment(ctx, id, "never-existed")
	require.NoError(t, err)
	assert.Equal(t, withComment.Comments, returned.Comments)

	// Nothing was persisted: same revision, same updatedAt
	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, withComment.Revision, stored.Revision)
	assert.Equal(t, withComment.UpdatedAt, stored.UpdatedAt)
}

func TestDeleteCommentTwice(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	withComment, err := e.AddComment(ctx, id, "u2", "hi")
	require.NoError(t, err)
	commentID := withComment.Comments[0].ID

	first, err := e.DeleteComment(ctx, id, commentID)
	require.NoError(t, err)
	assert.Empty(t, first.Comments)

	second, err := e.DeleteComment(ctx, id, commentID)
	require.NoError(t, err)
	assert.Empty(t, second.Comments)
}

// Two mutations computed from the same pre-mutation read race on the
// write-back. The revision check rejects the second writer instead of
// letting its whole document silently erase the first mutation.
func TestConcurrentMutationsConflictInsteadOfLosingWrites(t *testing.T) {
	e, repo, dir := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	stored, err := repo.FindByID(ctx, id)
	require.NoError(t, err)

	stale := &staleReadRepo{memRepo: repo, snapshot: *stored}
	racing := New(stale, dir, Config{MaxCommentLen: testMaxCommentLen})

	commented, err := racing.AddComment(ctx, id, "u1", "hi")
	require.NoError(t, err)
	require.Len(t, commented.Comments, 1)

	_, err = racing.ToggleLike(ctx, id, "u2")
	assert.ErrorIs(t, err, ErrConflict)

	// The first mutation survives; the second failed loudly, so no
	// change was silently discarded.
	final, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, final.Comments, 1)
	assert.Empty(t, final.Likes)
}

func TestMutationsRefreshUpdatedAt(t *testing.T) {
	e, _, _ := newTestEngine(t)
	ctx := context.Background()
	post := seedPost(t, e)
	id := post.ID.Hex()

	later := time.Unix(post.CreatedAt+60, 0)
	e.now = func() time.Time { return later }

	updated, err := e.ToggleLike(ctx, id, "u2")
	require.NoError(t, err)
	assert.Equal(t, later.Unix(), updated.UpdatedAt)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)
}
