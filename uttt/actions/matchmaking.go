package actions

import (
	"context"
	"errors"
	"fmt"

	"utttserver/models"
	"utttserver/utils"
	"utttserver/uttt/database"

	"go.uber.org/zap"
)

// FetchOpenMatch は存在していて未開始の試合が見つかるまでキューからコードを取り出します。
// キューが空になれば false を返します。
func (m *Manager) FetchOpenMatch(ctx context.Context) (string, bool, error) {
	for {
		code, err := m.store.Dequeue(ctx)
		if errors.Is(err, database.ErrEmpty) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("popping matchmaking queue: %w", err)
		}

		match, err := m.store.Load(ctx, code)
		if errors.Is(err, database.ErrMatchNotFound) {
			utils.StaleEntriesEvicted.WithLabelValues("queue").Inc()
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("loading queued match %s: %w", code, err)
		}
		if match.Started {
			utils.StaleEntriesEvicted.WithLabelValues("queue").Inc()
			continue
		}
		return code, true, nil
	}
}

// FetchOngoingMatch は観戦できる試合が見つかるまで進行中の集合から無作為に選び、
// 存在しない試合や決着済みの試合のコードは取り除きます。
func (m *Manager) FetchOngoingMatch(ctx context.Context) (string, bool, error) {
	for {
		code, err := m.store.RandomOngoing(ctx)
		if errors.Is(err, database.ErrEmpty) {
			return "", false, nil
		}
		if err != nil {
			return "", false, fmt.Errorf("sampling ongoing matches: %w", err)
		}

		match, err := m.store.Load(ctx, code)
		if err != nil && !errors.Is(err, database.ErrMatchNotFound) {
			return "", false, fmt.Errorf("loading ongoing match %s: %w", code, err)
		}
		if err == nil && match.WinStatus == models.Empty {
			return code, true, nil
		}
		if err := m.store.RemoveOngoing(ctx, code); err != nil {
			return "", false, fmt.Errorf("evicting ongoing match %s: %w", code, err)
		}
		utils.StaleEntriesEvicted.WithLabelValues("ongoing").Inc()
	}
}

// StopMatchmake は待機中のプレイヤーを取り下げ、誰も残らなければ試合を削除します。
// 開始済みの試合では呼び出し元の購読だけを外します。
func (m *Manager) StopMatchmake(ctx context.Context, code, userID string, conn models.Conn) error {
	unlock := m.locks.Lock(code)
	defer unlock()

	match, err := m.store.Load(ctx, code)
	if errors.Is(err, database.ErrMatchNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading match %s: %w", code, err)
	}

	if conn != nil {
		m.registry.RemoveConn(code, conn)
	}
	if match.Started {
		return nil
	}

	kept := match.Players[:0:0]
	for _, p := range match.Players {
		if p.UserID != userID {
			kept = append(kept, p)
		}
	}
	match.Players = kept

	if len(match.Players) == 0 {
		if err := m.store.Delete(ctx, code); err != nil {
			return fmt.Errorf("deleting match %s: %w", code, err)
		}
		m.logger.Info("Abandoned match deleted", zap.String("code", code))
		return nil
	}

	match.LastMove = m.nowMillis()
	if err := m.store.Save(ctx, match); err != nil {
		return fmt.Errorf("saving match %s: %w", code, err)
	}
	return nil
}
