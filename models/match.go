package models

import (
	"encoding/json"
	"fmt"
)

// RecordVersion は保存するすべての試合に書き込まれます。
// 異なるバージョンのレコードはデコード時に拒否されます。
const RecordVersion = 1

// 空の名前の代わりに使う名前
const DefaultPlayerName = "Nameless Wonder"

type Player struct {
	UserID string `json:"userID"`
	Name   string `json:"name"`
	IsX    *bool  `json:"isX"` // nil until the match starts
}

// Match は永続化される試合レコードです。
type Match struct {
	Version      int         `json:"version"`
	Code         string      `json:"code"`
	Board        GlobalBoard `json:"board"`
	Players      []Player    `json:"players"`
	Started      bool        `json:"started"`
	WinStatus    Square      `json:"winStatus"` // "" until decided, never reset afterwards
	Visible      bool        `json:"visible"`
	PrivateMatch bool        `json:"privateMatch"`
	LastMove     int64       `json:"lastMove"`  // unix millis
	GameStart    int64       `json:"gameStart"` // unix millis, 0 until the second player joins
	GameEnd      int64       `json:"gameEnd"`   // unix millis, 0 until decided
}

// Player は userID を持つプレイヤーを返します。
func (m *Match) Player(userID string) (*Player, bool) {
	for i := range m.Players {
		if m.Players[i].UserID == userID {
			return &m.Players[i], true
		}
	}
	return nil, false
}

// PlayerName は空の名前を DefaultPlayerName に置き換えます。
func PlayerName(name string) string {
	if name == "" {
		return DefaultPlayerName
	}
	return name
}

// EncodeMatch は現在のレコードバージョンを付けて試合をシリアライズします。
func EncodeMatch(m *Match) ([]byte, error) {
	m.Version = RecordVersion
	return json.Marshal(m)
}

// DecodeMatch は保存されたレコードを解析します。形式が合わなければエラーです。
func DecodeMatch(data []byte) (*Match, error) {
	var m Match
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding match: %w", err)
	}
	if m.Version != RecordVersion {
		return nil, fmt.Errorf("decoding match: unsupported record version %d", m.Version)
	}
	if m.Code == "" {
		return nil, fmt.Errorf("decoding match: missing code")
	}
	if len(m.Players) > 2 {
		return nil, fmt.Errorf("decoding match: %d players", len(m.Players))
	}
	if m.Started {
		if len(m.Players) != 2 || m.Players[0].IsX == nil || m.Players[1].IsX == nil {
			return nil, fmt.Errorf("decoding match: started without two assigned players")
		}
	}
	return &m, nil
}

// WinStatus は盤面全体の評価結果で、全体の勝者と各小盤面の結果を持ちます。
type WinStatus struct {
	WinChar Square     `json:"winChar"`
	Status  LocalBoard `json:"status"`
}

// MoveStatus は着手の結果です。
type MoveStatus string

const (
	MoveSuccess         MoveStatus = "Success"
	MoveOutOfTurn       MoveStatus = "OutOfTurn"
	MoveInvalidPosition MoveStatus = "InvalidPosition"
	MoveUnknownError    MoveStatus = "UnknownError"
	MoveGameNotFound    MoveStatus = "GameNotFound"
	MoveInvalidGame     MoveStatus = "InvalidGame"
)
