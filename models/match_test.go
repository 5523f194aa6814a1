package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func newTestMatch() *Match {
	isX, isO := true, false
	board := NewGlobalBoard()
	board.Boards[CenterCenter][TopLeft] = X
	board.ActiveBoard = TopLeft
	board.XTurn = false
	return &Match{
		Code:  "apple-river",
		Board: board,
		Players: []Player{
			{UserID: "u1", Name: "Alice", IsX: &isX},
			{UserID: "u2", Name: "Bob", IsX: &isO},
		},
		Started:   true,
		Visible:   true,
		LastMove:  1700000000000,
		GameStart: 1690000000000,
	}
}

func TestEncodeDecodeMatch(t *testing.T) {
	data, err := EncodeMatch(newTestMatch())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeMatch(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Board.Boards[CenterCenter][TopLeft] != X || got.Board.ActiveBoard != TopLeft || got.Board.XTurn {
		t.Fatalf("board not preserved: %+v", got.Board)
	}
	if *got.Players[0].IsX != true || *got.Players[1].IsX != false {
		t.Fatalf("players not preserved: %+v", got.Players)
	}
}

func TestBoardWireShape(t *testing.T) {
	data, err := json.Marshal(NewGlobalBoard())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(raw["activeBoard"]) != `"any"` {
		t.Fatalf("activeBoard = %s, want \"any\"", raw["activeBoard"])
	}
	if string(raw["xTurn"]) != "true" {
		t.Fatalf("xTurn = %s, want true", raw["xTurn"])
	}
	var cells map[string]string
	if err := json.Unmarshal(raw["bottomRight"], &cells); err != nil {
		t.Fatalf("bottomRight: %v", err)
	}
	if len(cells) != 9 || cells["centerCenter"] != "" {
		t.Fatalf("bottomRight = %v", cells)
	}
}

func TestDecodeMatchRejectsSchemaMismatch(t *testing.T) {
	valid, err := EncodeMatch(newTestMatch())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	tests := []struct {
		name string
		data string
	}{
		{"not json", "{"},
		{"wrong version", strings.Replace(string(valid), `"version":1`, `"version":7`, 1)},
		{"unknown square", strings.Replace(string(valid), `"topLeft":"X"`, `"topLeft":"Z"`, 1)},
		{"unknown active board", strings.Replace(string(valid), `"activeBoard":"topLeft"`, `"activeBoard":"middle"`, 1)},
		{"started without sides", strings.Replace(string(valid), `"isX":false`, `"isX":null`, 1)},
		{"legacy untyped record", `{"code":"a-b","board":{},"players":[],"winStatus":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.data == string(valid) {
				t.Fatalf("test input did not change the record")
			}
			if _, err := DecodeMatch([]byte(tt.data)); err == nil {
				t.Fatalf("expected an error")
			}
		})
	}
}

func TestParsePosition(t *testing.T) {
	for _, pos := range append(Positions[:], Any) {
		got, err := ParsePosition(pos.String())
		if err != nil || got != pos {
			t.Fatalf("ParsePosition(%q) = %v, %v", pos.String(), got, err)
		}
	}
	if _, err := ParsePosition("middle"); err == nil {
		t.Fatalf("expected an error for an unknown name")
	}
	if Any.Valid() {
		t.Fatalf("any must not be a playable position")
	}
}
