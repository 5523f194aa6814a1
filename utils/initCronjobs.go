package utils

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper は存在しない、または終了した試合のコードを取り除きます。
type Sweeper interface {
	SweepStale(ctx context.Context) (ongoing int, queued int, err error)
}

// Pruner は切断済みの接続の購読を削除します。
type Pruner interface {
	PruneClosed() int
}

const sweepTimeout = 30 * time.Second

// CronCleaner は定期的に古いエントリを掃除するジョブを登録して開始します。
func CronCleaner(schedule string, sweeper Sweeper, pruner Pruner, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		ongoing, queued, err := sweeper.SweepStale(ctx)
		if err != nil {
			logger.Error("古いマッチコードの掃除に失敗しました", zap.Error(err))
		}
		pruned := pruner.PruneClosed()
		StaleEntriesEvicted.WithLabelValues("subscription").Add(float64(pruned))
		logger.Info("Stale entry sweep finished",
			zap.Int("ongoing_evicted", ongoing),
			zap.Int("queue_evicted", queued),
			zap.Int("subscriptions_pruned", pruned),
		)
	})
	if err != nil {
		return nil, err
	}

	c.Start()
	return c, nil
}
