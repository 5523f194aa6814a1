package broadcast

import (
	"encoding/json"

	"utttserver/models"
)

const (
	MsgMoveUpdate   = "moveUpdate"
	MsgMatchStarted = "matchStarted"
)

// GameConfig は試合開始時にプレイヤーへ伝える情報です。
type GameConfig struct {
	Opponent  string `json:"opponent"`
	IsX       bool   `json:"isX"`
	GameStart int64  `json:"gameStart"`
}

// PlayerView はクライアントに見せるプレイヤーです。UserID は呼び出し元自身のエントリにのみ入ります。
type PlayerView struct {
	Name   string `json:"name"`
	IsX    *bool  `json:"isX"`
	UserID string `json:"userID,omitempty"`
}

// PlayerViews は viewer 以外の userID をすべて隠します。
func PlayerViews(players []models.Player, viewer string) []PlayerView {
	views := make([]PlayerView, 0, len(players))
	for _, p := range players {
		v := PlayerView{Name: p.Name, IsX: p.IsX}
		if viewer != "" && p.UserID == viewer {
			v.UserID = p.UserID
		}
		views = append(views, v)
	}
	return views
}

// MoveUpdate は着手後に購読者へ、また拒否された着手者には再同期のために送られます。
func MoveUpdate(code string, board models.GlobalBoard, status models.WinStatus, gameEnd int64) []byte {
	return marshal(map[string]interface{}{
		"msgType":   MsgMoveUpdate,
		"board":     board,
		"winStatus": status,
		"code":      code,
		"gameEnd":   gameEnd,
	})
}

// MatchStartedForPlayer はプレイヤー個別の開始通知です。
func MatchStartedForPlayer(code, userID string, cfg GameConfig) []byte {
	return marshal(map[string]interface{}{
		"msgType":    MsgMatchStarted,
		"started":    true,
		"gameConfig": cfg,
		"code":       code,
		"userID":     userID,
		"found":      true,
	})
}

// MatchStartedForSpectator は userID を含まない観戦者向けの開始通知です。
func MatchStartedForSpectator(code string, players []models.Player) []byte {
	return marshal(map[string]interface{}{
		"msgType": MsgMatchStarted,
		"started": true,
		"players": PlayerViews(players, ""),
		"code":    code,
		"found":   true,
	})
}

// nil を返すと BroadcastFunc はその購読者を飛ばす
func marshal(v interface{}) []byte {
	data, _ := json.Marshal(v)
	return data
}
