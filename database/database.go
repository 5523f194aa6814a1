package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"utttserver/models"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// LoadConfig はデフォルト値の上に JSON 設定ファイルを読み込みます。
// ファイルが無ければデフォルトのまま。REDIS_ADDR、REDIS_PASSWORD、REDIS_DB はファイルより優先されます。
func LoadConfig(filename string) (models.Config, error) {
	config := models.DefaultConfig()

	configFile, err := os.Open(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return config, err
	default:
		defer configFile.Close()
		jsonParser := json.NewDecoder(configFile)
		if err := jsonParser.Decode(&config); err != nil {
			return config, fmt.Errorf("parsing %s: %w", filename, err)
		}
	}

	// 環境変数からRedis接続情報を取得
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.RedisAddr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		config.RedisPassword = password
	}
	if redisDB := os.Getenv("REDIS_DB"); redisDB != "" {
		db, err := strconv.Atoi(redisDB)
		if err != nil {
			return config, fmt.Errorf("invalid REDIS_DB %q: %w", redisDB, err)
		}
		config.RedisDB = db
	}
	return config, nil
}

const (
	maxRetries    = 3
	retryInterval = 2 * time.Second
)

// InitRedis はRedisに接続し、失敗した場合は数回リトライします。
func InitRedis(ctx context.Context, config models.Config, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     config.RedisAddr,
		Password: config.RedisPassword,
		DB:       config.RedisDB,
	})

	var err error
	for i := 0; i <= maxRetries; i++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			logger.Info("Connected to Redis", zap.String("addr", config.RedisAddr))
			return rdb, nil
		}
		logger.Warn("Redis接続のリトライ", zap.Int("retry", i), zap.Error(err))
		select {
		case <-ctx.Done():
			rdb.Close()
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
	rdb.Close()
	return nil, fmt.Errorf("Redis接続に失敗しました: %w", err)
}
