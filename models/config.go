package models

import (
	"time"
)

// Config はサーバー全体の設定情報を保持します。
type Config struct {
	ListenAddr        string   `json:"listen_addr"`
	RedisAddr         string   `json:"redis_addr"`
	RedisPassword     string   `json:"redis_password"`
	RedisDB           int      `json:"redis_db"`
	MatchTTLHours     int      `json:"match_ttl_hours"`
	AllowedOrigins    []string `json:"allowed_origins"`
	PingPeriodSeconds int      `json:"ping_period_seconds"`
	PongWaitSeconds   int      `json:"pong_wait_seconds"`
	CleanupSchedule   string   `json:"cleanup_schedule"`
	Debug             bool     `json:"debug"`
}

// DefaultConfig は設定ファイルが無い場合に使う値を返します。
func DefaultConfig() Config {
	return Config{
		ListenAddr:        ":40404",
		RedisAddr:         "localhost:6379",
		MatchTTLHours:     8 * 7 * 24,
		AllowedOrigins:    []string{"*"},
		PingPeriodSeconds: 10,
		PongWaitSeconds:   60,
		CleanupSchedule:   "@every 10m",
	}
}

func (c Config) MatchTTL() time.Duration {
	return time.Duration(c.MatchTTLHours) * time.Hour
}

func (c Config) PingPeriod() time.Duration {
	return time.Duration(c.PingPeriodSeconds) * time.Second
}

func (c Config) PongWait() time.Duration {
	return time.Duration(c.PongWaitSeconds) * time.Second
}
