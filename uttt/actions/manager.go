package actions

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	mathrand "math/rand"
	"time"

	"utttserver/uttt/broadcast"
	"utttserver/uttt/database"
	"utttserver/uttt/words"

	"go.uber.org/zap"
)

// ErrNameRequired は名前が空のときに JoinMatch が返すエラーです。
var ErrNameRequired = errors.New("name must not be empty")

// クライアントに返す ErrNameRequired のメッセージ
const NameRequiredMessage = "Names must be at least 1 character long"

// 16進数で20文字
const userIDBytes = 10

// Options は時刻と乱数の供給元を差し替えます。
// ゼロ値の場合は実時間、math/rand、crypto/rand を使います。
type Options struct {
	Now       func() time.Time
	CoinFlip  func() bool
	NewUserID func() (string, error)
}

// Manager は試合の作成から終了までを管理します。
// 保存された試合の変更はすべてその試合のロック下で行います。
type Manager struct {
	store     database.MatchStore
	registry  *broadcast.Registry
	dict      *words.Dictionary
	logger    *zap.Logger
	locks     *keyedMutex
	now       func() time.Time
	coinFlip  func() bool
	newUserID func() (string, error)
}

func NewManager(store database.MatchStore, registry *broadcast.Registry, dict *words.Dictionary, logger *zap.Logger, opts Options) *Manager {
	m := &Manager{
		store:     store,
		registry:  registry,
		dict:      dict,
		logger:    logger,
		locks:     newKeyedMutex(),
		now:       opts.Now,
		coinFlip:  opts.CoinFlip,
		newUserID: opts.NewUserID,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.coinFlip == nil {
		// 先攻後攻はコイントスで決める
		m.coinFlip = func() bool { return mathrand.Intn(2) == 0 }
	}
	if m.newUserID == nil {
		m.newUserID = randomUserID
	}
	return m
}

// Registry はプロトコル層が接続を登録するための購読レジストリを返します。
func (m *Manager) Registry() *broadcast.Registry {
	return m.registry
}

func (m *Manager) nowMillis() int64 {
	return m.now().UnixMilli()
}

// 推測できない20文字の16進数トークンを生成する関数
func randomUserID() (string, error) {
	b := make([]byte, userIDBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
