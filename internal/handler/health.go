package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports liveness of the engine's two backing stores. 200 only when
// both answer within the probe timeout; details never go beyond "up"/"down".
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbUp := false
		if sqlDB, err := db.DB(); err == nil && sqlDB.PingContext(ctx) == nil {
			dbUp = true
		}
		redisUp := rdb.Ping(ctx).Err() == nil

		status := http.StatusOK
		if !dbUp || !redisUp {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":    status == http.StatusOK,
			"db":    upDown(dbUp),
			"redis": upDown(redisUp),
		})
	}
}

func upDown(up bool) string {
	if up {
		return "up"
	}
	return "down"
}
