package models

import (
	"fmt"
)

// Square はマスの中身、または盤面の結果です。
// Tie はプレイヤーが置くことはなく、決着した盤面にのみ使います。
type Square string

const (
	Empty Square = ""
	X     Square = "X"
	O     Square = "O"
	Tie   Square = "Tie"
)

func (s Square) Valid() bool {
	switch s {
	case Empty, X, O, Tie:
		return true
	}
	return false
}

func (s *Square) UnmarshalText(text []byte) error {
	v := Square(text)
	if !v.Valid() {
		return fmt.Errorf("invalid square %q", string(text))
	}
	*s = v
	return nil
}

// Mark はプレイヤーが置く記号を返します。
func Mark(isX bool) Square {
	if isX {
		return X
	}
	return O
}

// Position は3x3のマスの位置です。Any はアクティブな盤面としてのみ意味を持ちます。
type Position uint8

const (
	TopLeft Position = iota
	TopCenter
	TopRight
	CenterLeft
	CenterCenter
	CenterRight
	BottomLeft
	BottomCenter
	BottomRight
	Any
)

// 9つの位置を行優先で並べたもの
var Positions = [9]Position{
	TopLeft, TopCenter, TopRight,
	CenterLeft, CenterCenter, CenterRight,
	BottomLeft, BottomCenter, BottomRight,
}

var positionNames = [...]string{
	TopLeft:      "topLeft",
	TopCenter:    "topCenter",
	TopRight:     "topRight",
	CenterLeft:   "centerLeft",
	CenterCenter: "centerCenter",
	CenterRight:  "centerRight",
	BottomLeft:   "bottomLeft",
	BottomCenter: "bottomCenter",
	BottomRight:  "bottomRight",
	Any:          "any",
}

func (p Position) String() string {
	if int(p) < len(positionNames) {
		return positionNames[p]
	}
	return fmt.Sprintf("Position(%d)", uint8(p))
}

// Valid は p が9マスのいずれかかどうかを返します。
func (p Position) Valid() bool {
	return p < Any
}

// ParsePosition は "any" を含む位置名を解析します。
func ParsePosition(name string) (Position, error) {
	for i, n := range positionNames {
		if n == name {
			return Position(i), nil
		}
	}
	return 0, fmt.Errorf("unknown position %q", name)
}

func (p Position) MarshalText() ([]byte, error) {
	if p > Any {
		return nil, fmt.Errorf("invalid position %d", uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	v, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
