package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"sociofeed/engine"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	engine *engine.Engine
}

func NewPostHandler(e *engine.Engine) *PostHandler {
	return &PostHandler{engine: e}
}

type CreatePostRequest struct {
	AuthorID    string `json:"authorId" binding:"required"`
	Description string `json:"description"`
	PicturePath string `json:"picturePath"`
}

type LikeRequest struct {
	UserID string `json:"userId" binding:"required"`
}

type AddCommentRequest struct {
	UserID  string `json:"userId" binding:"required"`
	Comment string `json:"comment"`
}

type EditCommentRequest struct {
	Comment string `json:"comment"`
}

func (h *PostHandler) CreatePost(c *gin.Context) {
	var req CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.engine.CreatePost(ctx, req.AuthorID, req.Description, req.PicturePath)
	if err != nil {
		if errors.Is(err, engine.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
			return
		}
		log.Printf("CreatePost error: %v", err)
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) GetFeedPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	posts, err := h.engine.FeedPosts(ctx)
	if err != nil {
		log.Printf("GetFeedPosts error: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) GetUserPosts(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	posts, err := h.engine.UserPosts(ctx, c.Param("id"))
	if err != nil {
		log.Printf("GetUserPosts error: %v", err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, posts)
}

// LikePost handles PATCH /posts/:id/like. The route is registered
// with the ":commentId" wildcard because gin cannot mix the static
// "like" segment with the wildcard the edit route needs at the same
// position, so the literal segment is checked here.
func (h *PostHandler) LikePost(c *gin.Context) {
	if c.Param("commentId") != "like" {
		c.JSON(http.StatusNotFound, gin.H{"message": "endpoint not found"})
		return
	}

	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.engine.ToggleLike(ctx, c.Param("id"), req.UserID)
	if err != nil {
		h.respondError(c, "LikePost", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) PostComment(c *gin.Context) {
	var req AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.engine.AddComment(ctx, c.Param("id"), req.UserID, req.Comment)
	if err != nil {
		h.respondError(c, "PostComment", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) EditComment(c *gin.Context) {
	var req EditCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.engine.EditComment(ctx, c.Param("id"), c.Param("commentId"), req.Comment)
	if err != nil {
		h.respondError(c, "EditComment", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

func (h *PostHandler) DeleteComment(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	post, err := h.engine.DeleteComment(ctx, c.Param("id"), c.Param("commentId"))
	if err != nil {
		h.respondError(c, "DeleteComment", err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// respondError maps engine errors to wire statuses. Missing posts,
// comments and users are 404; a lost revision race is 409; rejected
// comment text is 400. Anything else keeps the original API's
// conflated 404, logged so the kinds stay distinguishable server-side.
func (h *PostHandler) respondError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, engine.ErrPostNotFound),
		errors.Is(err, engine.ErrCommentNotFound),
		errors.Is(err, engine.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	case errors.Is(err, engine.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": err.Error()})
	case errors.Is(err, engine.ErrEmptyComment),
		errors.Is(err, engine.ErrCommentTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	default:
		log.Printf("%s error: %v", op, err)
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
	}
}
