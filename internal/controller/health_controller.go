package controller

import (
	"time"

	"interview_coach_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type HealthController struct {
	DB    *gorm.DB
	Cache *redis.Client
}

func NewHealthController(db *gorm.DB, cache *redis.Client) *HealthController {
	return &HealthController{DB: db, Cache: cache}
}

// Check godoc
// @Summary 健康检查
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Router /health [get]
func (c *HealthController) Check(ctx *gin.Context) {
	status := gin.H{"status": "ok", "time": time.Now().Format(time.RFC3339)}

	if c.DB != nil {
		sqlDB, err := c.DB.DB()
		if err != nil || sqlDB.Ping() != nil {
			status["database"] = "down"
		} else {
			status["database"] = "up"
		}
	}

	if c.Cache != nil {
		if err := c.Cache.Ping(ctx.Request.Context()).Err(); err != nil {
			status["redis"] = "down"
		} else {
			status["redis"] = "up"
		}
	}

	util.Success(ctx, status)
}
