package models

// ReadyState はクライアント接続の状態です。
type ReadyState int32

const (
	Connecting ReadyState = iota
	Open
	Closing
	Closed
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// Conn は試合の更新を送れるクライアント接続です。
// 実装は並行呼び出しに対して安全でなければなりません。
type Conn interface {
	ID() string
	ReadyState() ReadyState
	Write(payload []byte) error
}
