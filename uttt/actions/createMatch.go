package actions

import (
	"context"
	"fmt"

	"utttserver/models"
	"utttserver/utils"

	"go.uber.org/zap"
)

type CreateResult struct {
	Code   string `json:"code"`
	UserID string `json:"userID"`
}

// CreateMatch は作成者だけが参加する新しい試合を保存します。
// visible なら観戦リストに、private でなければマッチメイキングのキューに追加します。
// conn が nil でなければ、コードのロックを解放する前に作成者の接続として登録します。
func (m *Manager) CreateMatch(ctx context.Context, playerName string, privateMatch, visible bool, conn models.Conn) (CreateResult, error) {
	userID, err := m.newUserID()
	if err != nil {
		return CreateResult{}, fmt.Errorf("generating user id: %w", err)
	}

	code, unlock, err := m.reserveCode(ctx)
	if err != nil {
		return CreateResult{}, err
	}
	defer unlock()

	match := &models.Match{
		Code:  code,
		Board: models.NewGlobalBoard(),
		Players: []models.Player{
			{UserID: userID, Name: models.PlayerName(playerName)},
		},
		Visible:      visible,
		PrivateMatch: privateMatch,
	}
	if err := m.store.Save(ctx, match); err != nil {
		return CreateResult{}, fmt.Errorf("saving new match: %w", err)
	}

	if conn != nil {
		m.registry.Append(code, conn, userID)
	}

	// 一覧とキューは補助的な索引なので、失敗してもマッチ自体は有効
	if visible {
		if err := m.store.AddOngoing(ctx, code); err != nil {
			m.logger.Warn("Failed to list new match", zap.String("code", code), zap.Error(err))
		}
	}
	if !privateMatch {
		if err := m.store.Enqueue(ctx, code); err != nil {
			m.logger.Warn("Failed to queue new match", zap.String("code", code), zap.Error(err))
		}
	}

	utils.MatchesCreated.Inc()
	m.logger.Info("Match created",
		zap.String("code", code),
		zap.Bool("private", privateMatch),
		zap.Bool("visible", visible),
	)
	return CreateResult{Code: code, UserID: userID}, nil
}

// 未使用のコードが出るまで引き直し、ロックした状態で返す
func (m *Manager) reserveCode(ctx context.Context) (string, func(), error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", nil, err
		}
		code := m.dict.Code()
		unlock := m.locks.Lock(code)
		exists, err := m.store.Exists(ctx, code)
		if err != nil {
			unlock()
			return "", nil, fmt.Errorf("checking code %s: %w", code, err)
		}
		if !exists {
			return code, unlock, nil
		}
		unlock()
		m.logger.Debug("Match code collision, drawing again", zap.String("code", code))
	}
}
