package actions

import (
	"context"
	"errors"
	"fmt"

	"utttserver/models"
	"utttserver/utils"
	"utttserver/uttt/database"
)

// SweepStale は存在しない、または決着済みの試合のコードを進行中の集合から、
// 存在しない、または開始済みの試合のコードをマッチメイキングのキューから取り除きます。
func (m *Manager) SweepStale(ctx context.Context) (ongoing int, queued int, err error) {
	codes, err := m.store.OngoingCodes(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("listing ongoing matches: %w", err)
	}
	for _, code := range codes {
		stale, err := m.isStale(ctx, code, func(match *models.Match) bool { return match.WinStatus != models.Empty })
		if err != nil {
			return ongoing, queued, err
		}
		if !stale {
			continue
		}
		if err := m.store.RemoveOngoing(ctx, code); err != nil {
			return ongoing, queued, fmt.Errorf("evicting ongoing match %s: %w", code, err)
		}
		ongoing++
	}

	codes, err = m.store.QueuedCodes(ctx)
	if err != nil {
		return ongoing, queued, fmt.Errorf("listing queued matches: %w", err)
	}
	for _, code := range codes {
		stale, err := m.isStale(ctx, code, func(match *models.Match) bool { return match.Started })
		if err != nil {
			return ongoing, queued, err
		}
		if !stale {
			continue
		}
		if err := m.store.RemoveQueued(ctx, code); err != nil {
			return ongoing, queued, fmt.Errorf("evicting queued match %s: %w", code, err)
		}
		queued++
	}

	utils.StaleEntriesEvicted.WithLabelValues("ongoing").Add(float64(ongoing))
	utils.StaleEntriesEvicted.WithLabelValues("queue").Add(float64(queued))
	return ongoing, queued, nil
}

func (m *Manager) isStale(ctx context.Context, code string, done func(*models.Match) bool) (bool, error) {
	match, err := m.store.Load(ctx, code)
	if errors.Is(err, database.ErrMatchNotFound) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("loading match %s: %w", code, err)
	}
	return done(match), nil
}
