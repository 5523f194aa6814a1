package database

import (
	"context"
	"errors"

	"utttserver/models"
)

var (
	// 存在しない、期限切れ、またはデコードできないレコード
	ErrMatchNotFound = errors.New("match not found")
	// 進行中の集合やマッチメイキングのキューが空
	ErrEmpty = errors.New("no entries")
)

// MatchStore はコードをキーにした試合レコードと、観戦できる進行中の試合の集合、
// 対戦相手を待つ試合の FIFO を保存します。
type MatchStore interface {
	Load(ctx context.Context, code string) (*models.Match, error)
	// 書き込むたびに有効期限を延長する
	Save(ctx context.Context, match *models.Match) error
	Delete(ctx context.Context, code string) error
	Exists(ctx context.Context, code string) (bool, error)

	AddOngoing(ctx context.Context, code string) error
	RemoveOngoing(ctx context.Context, code string) error
	RandomOngoing(ctx context.Context) (string, error)
	OngoingCodes(ctx context.Context) ([]string, error)

	Enqueue(ctx context.Context, code string) error
	Dequeue(ctx context.Context) (string, error)
	// キューから code を一つだけ取り除く
	RemoveQueued(ctx context.Context, code string) error
	QueuedCodes(ctx context.Context) ([]string, error)
}
