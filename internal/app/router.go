package app

import (
	"interview_coach_backend/internal/config"
	"interview_coach_backend/internal/middleware"

	"interview_coach_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.Check)

	// 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.POST("/register", c.auth.Register)
		public.POST("/login", c.auth.Login)
	}

	// 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(cfg))
	{
		authGroup.GET("/profile", c.auth.GetProfile)

		// 面试会话与作答
		authGroup.POST("/sessions", c.interview.CreateSession)
		authGroup.GET("/sessions", c.interview.ListSessions)
		authGroup.GET("/sessions/:id", c.interview.GetSession)
		authGroup.POST("/sessions/:id/finish", c.interview.FinishSession)
		authGroup.POST("/sessions/:id/attempts", c.interview.CreateAttempt)
		authGroup.GET("/attempts/:id", c.interview.GetAttempt)
		authGroup.PUT("/attempts/:id/stt", c.interview.UpdateSttText)
		authGroup.POST("/attempts/:id/media", c.interview.UploadMedia)

		// 分析触发与反馈轮询
		authGroup.POST("/attempts/:id/analysis", c.analysis.Trigger)
		authGroup.GET("/attempts/:id/feedback", c.analysis.GetFeedback)
	}
}
