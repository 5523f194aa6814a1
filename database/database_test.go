package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"utttserver/models"

	"github.com/alicebob/miniredis/v2"
	"go.uber.org/zap/zaptest"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("REDIS_PASSWORD", "")
	t.Setenv("REDIS_DB", "")

	t.Run("missing file gives defaults", func(t *testing.T) {
		got, err := LoadConfig(filepath.Join(t.TempDir(), "none.json"))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		want := models.DefaultConfig()
		if got.ListenAddr != want.ListenAddr || got.MatchTTL() != want.MatchTTL() || got.CleanupSchedule != want.CleanupSchedule {
			t.Fatalf("config = %+v, want %+v", got, want)
		}
	})

	t.Run("file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(`{"listen_addr":":9000","match_ttl_hours":1}`), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		got, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got.ListenAddr != ":9000" || got.MatchTTLHours != 1 || got.PongWaitSeconds != 60 {
			t.Fatalf("config = %+v", got)
		}
	})

	t.Run("environment overrides file", func(t *testing.T) {
		t.Setenv("REDIS_ADDR", "redis:6380")
		t.Setenv("REDIS_DB", "3")
		got, err := LoadConfig(filepath.Join(t.TempDir(), "none.json"))
		if err != nil {
			t.Fatalf("load: %v", err)
		}
		if got.RedisAddr != "redis:6380" || got.RedisDB != 3 {
			t.Fatalf("config = %+v", got)
		}
	})

	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		if err := os.WriteFile(path, []byte(`{`), 0o600); err != nil {
			t.Fatalf("write: %v", err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Fatalf("expected an error")
		}
	})
}

func TestInitRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := models.DefaultConfig()
	cfg.RedisAddr = mr.Addr()

	rdb, err := InitRedis(context.Background(), cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	defer rdb.Close()
	if err := rdb.Set(context.Background(), "k", "v", 0).Err(); err != nil {
		t.Fatalf("set: %v", err)
	}
}
