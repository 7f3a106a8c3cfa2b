package httpserver

import (
	"net/http"

	"abricot/internal/handler"
	"abricot/internal/session"
	redisclient "abricot/pkg/redis"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(
	sessionHandler *handler.SessionHandler,
	projectHandler *handler.ProjectHandler,
	taskHandler *handler.TaskHandler,
	sess *session.Session,
	rdb *redis.Client,
	logger *zap.Logger,
) *Router {
	r := gin.New()
	r.Use(gin.Recovery(), TraceMiddleware(logger), MetricsMiddleware())

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	r.GET("/readyz", func(c *gin.Context) {
		if rdb == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "cache": "memory"})
			return
		}
		if err := redisclient.Ping(c.Request.Context(), rdb); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "redis_not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "cache": "redis"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public
	public := r.Group("/api")
	{
		public.GET("/session", sessionHandler.Get)
		public.POST("/session", sessionHandler.Login)
		public.DELETE("/session", sessionHandler.Logout)
		public.POST("/register", sessionHandler.Register)
	}

	// Signed in
	auth := r.Group("/api")
	auth.Use(handler.RequireSession(sess))
	{
		auth.PUT("/account/profile", sessionHandler.UpdateProfile)
		auth.PUT("/account/password", sessionHandler.UpdatePassword)

		auth.GET("/dashboard", taskHandler.Dashboard)
		auth.POST("/board/move", taskHandler.Move)
		auth.GET("/users/search", projectHandler.SearchUsers)

		auth.GET("/projects", projectHandler.List)
		auth.POST("/projects", projectHandler.Create)
		auth.GET("/projects/:id", projectHandler.Get)
		auth.PUT("/projects/:id", projectHandler.Update)
		auth.DELETE("/projects/:id", projectHandler.Delete)

		auth.POST("/projects/:id/members", projectHandler.AddMember)
		auth.PUT("/projects/:id/members/:userId", projectHandler.UpdateMemberRole)
		auth.DELETE("/projects/:id/members/:userId", projectHandler.RemoveMember)

		auth.POST("/projects/:id/tasks", taskHandler.Create)
		auth.PUT("/projects/:id/tasks/:taskId", taskHandler.Update)
		auth.DELETE("/projects/:id/tasks/:taskId", taskHandler.Delete)
		auth.GET("/projects/:id/tasks/:taskId/comments", taskHandler.Comments)
		auth.POST("/projects/:id/tasks/:taskId/comments", taskHandler.AddComment)

		auth.POST("/projects/:id/ai/generate", taskHandler.Generate)
		auth.POST("/projects/:id/ai/apply", taskHandler.Apply)
	}

	return &Router{Engine: r}
}

func (r *Router) Run(port string) error {
	return r.Engine.Run(port)
}
