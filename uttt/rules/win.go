// Package rules はアルティメット三目並べの勝敗判定です。
// 結果は常に盤面そのものから再計算します。
package rules

import (
	"utttserver/models"
)

var winningLines = [8][3]models.Position{
	// 横
	{models.TopLeft, models.TopCenter, models.TopRight},
	{models.CenterLeft, models.CenterCenter, models.CenterRight},
	{models.BottomLeft, models.BottomCenter, models.BottomRight},
	// 縦
	{models.TopLeft, models.CenterLeft, models.BottomLeft},
	{models.TopCenter, models.CenterCenter, models.BottomCenter},
	{models.TopRight, models.CenterRight, models.BottomRight},
	// 斜め
	{models.TopLeft, models.CenterCenter, models.BottomRight},
	{models.BottomLeft, models.CenterCenter, models.TopRight},
}

// EvaluateLocal は一列揃えた記号を返します。揃わずに埋まった盤面は Tie、それ以外は Empty です。
// 列の判定を先に行います。
func EvaluateLocal(board models.LocalBoard) models.Square {
	for _, line := range winningLines {
		first := board[line[0]]
		if first != models.Empty && first == board[line[1]] && first == board[line[2]] {
			return first
		}
	}
	if board.EmptyCount() == 0 {
		return models.Tie
	}
	return models.Empty
}

// EvaluateGlobal は各小盤面を評価し、その結果を並べた盤面をさらに評価します。
func EvaluateGlobal(board models.GlobalBoard) models.WinStatus {
	var meta models.LocalBoard
	for _, pos := range models.Positions {
		meta[pos] = EvaluateLocal(board.Boards[pos])
	}
	return models.WinStatus{WinChar: EvaluateLocal(meta), Status: meta}
}

// NextActiveBoard は直前に置いたマスに対応する小盤面を次の手番の盤面にします。
// その小盤面が埋まっているか決着済みなら、どこでも置けます。
func NextActiveBoard(board models.GlobalBoard, status models.WinStatus, square models.Position) models.Position {
	if board.Boards[square].EmptyCount() > 0 && status.Status[square] == models.Empty {
		return square
	}
	return models.Any
}
