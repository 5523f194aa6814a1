package actions

import (
	"context"
	"errors"
	"fmt"

	"utttserver/models"
	"utttserver/uttt/broadcast"
	"utttserver/uttt/database"
	"utttserver/uttt/rules"

	"go.uber.org/zap"
)

// StatusResult は状態確認、購読、観戦に返す試合のビューです。
type StatusResult struct {
	Found     bool                   `json:"found"`
	Code      string                 `json:"code,omitempty"`
	Board     *models.GlobalBoard    `json:"board,omitempty"`
	Started   bool                   `json:"started"`
	Players   []broadcast.PlayerView `json:"players,omitempty"`
	GameStart int64                  `json:"gameStart"`
	GameEnd   int64                  `json:"gameEnd"`
	WinStatus *models.WinStatus      `json:"winStatus,omitempty"`
}

// CheckStatus は試合の現在の状態を返します。userID が含まれるのは呼び出し元自身のエントリだけです。
func (m *Manager) CheckStatus(ctx context.Context, code, userID string) (StatusResult, error) {
	unlock := m.locks.Lock(code)
	defer unlock()

	match, err := m.store.Load(ctx, code)
	if errors.Is(err, database.ErrMatchNotFound) {
		return StatusResult{Found: false}, nil
	}
	if err != nil {
		return StatusResult{}, fmt.Errorf("loading match %s: %w", code, err)
	}
	return m.status(ctx, match, userID), nil
}

// status は試合のロックを保持した状態で呼ぶこと。勝敗は常に盤面から再計算し、
// gameEnd の無い決着済みの試合には lastMove を補います。
func (m *Manager) status(ctx context.Context, match *models.Match, userID string) StatusResult {
	win := rules.EvaluateGlobal(match.Board)
	if win.WinChar != models.Empty && match.GameEnd == 0 {
		match.GameEnd = match.LastMove
		if err := m.store.Save(ctx, match); err != nil {
			// 補正の保存に失敗しても状態は返す
			m.logger.Warn("Failed to backfill gameEnd", zap.String("code", match.Code), zap.Error(err))
		}
	}
	board := match.Board
	return StatusResult{
		Found:     true,
		Code:      match.Code,
		Board:     &board,
		Started:   match.Started,
		Players:   broadcast.PlayerViews(match.Players, userID),
		GameStart: match.GameStart,
		GameEnd:   match.GameEnd,
		WinStatus: &win,
	}
}
