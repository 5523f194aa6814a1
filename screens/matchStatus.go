package screens

import (
	"context"
	"net/http"
	"time"

	"utttserver/uttt/actions"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MatchStatusHandler は対戦の状態を返すハンドラです。userID クエリを付けると自分の userID だけが含まれます。
func MatchStatusHandler(c *gin.Context, manager *actions.Manager, logger *zap.Logger) {
	code := c.Param("code")
	status, err := manager.CheckStatus(c.Request.Context(), code, c.Query("userID"))
	if err != nil {
		logger.Error("Failed to check match status", zap.String("code", code), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": true, "message": "Internal server error"})
		return
	}
	if !status.Found {
		c.JSON(http.StatusNotFound, gin.H{"error": false, "found": false})
		return
	}
	c.JSON(http.StatusOK, status)
}

// HealthHandler はRedisが応答するかどうかを返すハンドラです。
func HealthHandler(c *gin.Context, rdb *redis.Client, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Warn("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
