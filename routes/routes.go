package routes

import (
	"time"

	"sociofeed/engine"
	"sociofeed/handlers"
	"sociofeed/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(e *engine.Engine) *gin.Engine {
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Sociofeed API is running",
			"time":    time.Now().Unix(),
		})
	})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Public auth routes, rate limited against brute force
	authLimiter := middleware.NewIPRateLimiter(20, time.Minute)
	auth := router.Group("/auth")
	auth.Use(middleware.RateLimit(authLimiter))
	auth.POST("/register", handlers.Register)
	auth.POST("/login", handlers.Login)

	protected := router.Group("/")
	protected.Use(middleware.JWTAuthMiddleware())

	// Posts
	posts := handlers.NewPostHandler(e)
	protected.POST("/posts", posts.CreatePost)
	protected.GET("/posts", posts.GetFeedPosts)
	protected.POST("/posts/:id/comment", posts.PostComment)
	// gin's tree cannot hold the static "like" segment next to the
	// ":commentId" wildcard, so the like route shares the wildcard
	// and the handler rejects anything but the literal "like".
	protected.PATCH("/posts/:id/:commentId", posts.LikePost)
	protected.PATCH("/posts/:id/:commentId/edit", posts.EditComment)
	protected.DELETE("/posts/:id/:commentId/delete", posts.DeleteComment)

	// Users
	protected.GET("/users/:id", handlers.GetUser)
	protected.GET("/users/:id/posts", posts.GetUserPosts)
	protected.GET("/users/:id/friends", handlers.GetUserFriends)
	protected.PATCH("/users/:id/:friendId", handlers.AddRemoveFriend)
	protected.GET("/search/users/:query", handlers.SearchUsers)

	return router
}
