package models

import (
	"encoding/json"
	"fmt"
)

// LocalBoard は3x3の小盤面で、Position で添字付けされます。
type LocalBoard [9]Square

// 空きマスの数
func (b LocalBoard) EmptyCount() int {
	n := 0
	for _, s := range b {
		if s == Empty {
			n++
		}
	}
	return n
}

func (b LocalBoard) MarshalJSON() ([]byte, error) {
	m := make(map[string]Square, len(b))
	for _, pos := range Positions {
		m[pos.String()] = b[pos]
	}
	return json.Marshal(m)
}

// UnmarshalJSON は9つの位置がすべて揃っていることを要求し、余分なキーは拒否します。
func (b *LocalBoard) UnmarshalJSON(data []byte) error {
	var m map[string]Square
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if len(m) != len(Positions) {
		return fmt.Errorf("local board has %d cells, want %d", len(m), len(Positions))
	}
	var out LocalBoard
	for name, sq := range m {
		pos, err := ParsePosition(name)
		if err != nil || !pos.Valid() {
			return fmt.Errorf("local board: unknown cell %q", name)
		}
		out[pos] = sq
	}
	*b = out
	return nil
}

// GlobalBoard は小盤面を並べた大盤面と手番の状態です。
type GlobalBoard struct {
	Boards      [9]LocalBoard
	ActiveBoard Position
	XTurn       bool
}

// NewGlobalBoard は空の盤面を返します。Xが先手で、どの小盤面にも置けます。
func NewGlobalBoard() GlobalBoard {
	return GlobalBoard{ActiveBoard: Any, XTurn: true}
}

// 送受信の形式: 位置名をキーにした9つの小盤面と activeBoard、xTurn
func (g GlobalBoard) MarshalJSON() ([]byte, error) {
	m := make(map[string]interface{}, len(Positions)+2)
	for _, pos := range Positions {
		m[pos.String()] = g.Boards[pos]
	}
	m["activeBoard"] = g.ActiveBoard
	m["xTurn"] = g.XTurn
	return json.Marshal(m)
}

func (g *GlobalBoard) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out GlobalBoard
	for _, pos := range Positions {
		cell, ok := raw[pos.String()]
		if !ok {
			return fmt.Errorf("global board: missing sub-board %s", pos)
		}
		if err := json.Unmarshal(cell, &out.Boards[pos]); err != nil {
			return fmt.Errorf("global board: sub-board %s: %w", pos, err)
		}
	}
	active, ok := raw["activeBoard"]
	if !ok {
		return fmt.Errorf("global board: missing activeBoard")
	}
	if err := json.Unmarshal(active, &out.ActiveBoard); err != nil {
		return fmt.Errorf("global board: activeBoard: %w", err)
	}
	turn, ok := raw["xTurn"]
	if !ok {
		return fmt.Errorf("global board: missing xTurn")
	}
	if err := json.Unmarshal(turn, &out.XTurn); err != nil {
		return fmt.Errorf("global board: xTurn: %w", err)
	}
	*g = out
	return nil
}
