package actions

import (
	"context"
	"errors"

	"utttserver/models"
	"utttserver/utils"
	"utttserver/uttt/broadcast"
	"utttserver/uttt/database"
	"utttserver/uttt/rules"

	"go.uber.org/zap"
)

// MoveResult は着手したプレイヤーへの応答です。試合を読めない場合や
// 呼び出し元が参加者でない場合、Board と WinStatus は nil です。
type MoveResult struct {
	Status    models.MoveStatus   `json:"status"`
	Board     *models.GlobalBoard `json:"board"`
	WinStatus *models.WinStatus   `json:"winStatus"`
	Code      string              `json:"code"`
	GameEnd   int64               `json:"gameEnd"`
}

// MakeMove は小盤面 local のマス square に呼び出し元の記号を置きます。
// 進行中の試合で拒否された着手でも、最新の盤面を呼び出し元に送ります。
func (m *Manager) MakeMove(ctx context.Context, code string, local, square models.Position, userID string, conn models.Conn) MoveResult {
	unlock := m.locks.Lock(code)
	defer unlock()

	res := m.makeMove(ctx, code, local, square, userID, conn)
	utils.MovesTotal.WithLabelValues(string(res.Status)).Inc()
	return res
}

func (m *Manager) makeMove(ctx context.Context, code string, local, square models.Position, userID string, conn models.Conn) MoveResult {
	match, err := m.store.Load(ctx, code)
	if errors.Is(err, database.ErrMatchNotFound) {
		return MoveResult{Status: models.MoveGameNotFound, Code: code}
	}
	if err != nil {
		m.logger.Error("Failed to load match for move", zap.String("code", code), zap.Error(err))
		return MoveResult{Status: models.MoveUnknownError, Code: code}
	}

	player, ok := match.Player(userID)
	if !ok || !match.Started || player.IsX == nil {
		return MoveResult{Status: models.MoveInvalidGame, Code: code}
	}

	board := match.Board
	win := rules.EvaluateGlobal(board)

	if *player.IsX != board.XTurn {
		return m.reject(models.MoveOutOfTurn, match, win, conn)
	}
	if !legalMove(board, win, local, square) {
		return m.reject(models.MoveInvalidPosition, match, win, conn)
	}

	board.Boards[local][square] = models.Mark(*player.IsX)
	board.XTurn = !*player.IsX
	win = rules.EvaluateGlobal(board)
	now := m.nowMillis()
	decided := win.WinChar != models.Empty
	if decided {
		match.WinStatus = win.WinChar
		match.GameEnd = now
	}
	board.ActiveBoard = rules.NextActiveBoard(board, win, square)
	match.Board = board
	match.LastMove = now

	if err := m.store.Save(ctx, match); err != nil {
		m.logger.Error("Failed to save move", zap.String("code", code), zap.Error(err))
		return MoveResult{Status: models.MoveUnknownError, Code: code}
	}
	// 保存できた場合のみ観戦リストから外す
	if decided {
		if err := m.store.RemoveOngoing(ctx, code); err != nil {
			m.logger.Warn("Failed to unlist finished match", zap.String("code", code), zap.Error(err))
		}
	}

	if m.registry.Has(code) {
		m.registry.Broadcast(code, broadcast.MoveUpdate(code, board, win, match.GameEnd))
	} else if conn != nil {
		m.registry.Append(code, conn, userID)
	}

	if decided {
		m.logger.Info("Match decided", zap.String("code", code), zap.String("winner", string(win.WinChar)))
	}
	return MoveResult{Status: models.MoveSuccess, Board: &board, WinStatus: &win, Code: code, GameEnd: match.GameEnd}
}

// 指定の小盤面に置けるか、マスが空いているか、小盤面と全体が未決着かを確認する
func legalMove(board models.GlobalBoard, win models.WinStatus, local, square models.Position) bool {
	if !local.Valid() || !square.Valid() {
		return false
	}
	if win.WinChar != models.Empty {
		return false
	}
	if board.ActiveBoard != models.Any && board.ActiveBoard != local {
		return false
	}
	return board.Boards[local][square] == models.Empty && win.Status[local] == models.Empty
}

func (m *Manager) reject(status models.MoveStatus, match *models.Match, win models.WinStatus, conn models.Conn) MoveResult {
	board := match.Board
	if conn != nil {
		if err := conn.Write(broadcast.MoveUpdate(match.Code, board, win, match.GameEnd)); err != nil {
			m.logger.Warn("Failed to resync rejected mover", zap.String("code", match.Code), zap.Error(err))
		}
	}
	return MoveResult{Status: status, Board: &board, WinStatus: &win, Code: match.Code, GameEnd: match.GameEnd}
}
