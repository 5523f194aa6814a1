package actions

import (
	"context"
	"errors"
	"fmt"

	"utttserver/models"
	"utttserver/utils"
	"utttserver/uttt/broadcast"
	"utttserver/uttt/database"

	"go.uber.org/zap"
)

// JoinResult は参加の結果です。試合が既に始まっていた場合は Status に状態ビューが入ります。
type JoinResult struct {
	Found      bool
	Started    bool
	UserID     string
	Code       string
	GameConfig *broadcast.GameConfig
	Status     *StatusResult
}

// JoinMatch は待機中の試合に参加し、生きている対戦相手が既にいれば試合を開始します。
// conn はロックを解放する前に登録されます。新しい userID に紐付けるか、
// 試合が既に始まっていた場合は紐付けなしで登録します。
func (m *Manager) JoinMatch(ctx context.Context, code, name string, conn models.Conn) (JoinResult, error) {
	unlock := m.locks.Lock(code)
	defer unlock()

	match, err := m.store.Load(ctx, code)
	if errors.Is(err, database.ErrMatchNotFound) {
		return JoinResult{Found: false}, nil
	}
	if err != nil {
		return JoinResult{}, fmt.Errorf("loading match %s: %w", code, err)
	}
	if name == "" {
		return JoinResult{Found: true}, ErrNameRequired
	}
	if match.Started {
		status := m.status(ctx, match, "")
		m.registry.Append(code, conn, "")
		return JoinResult{Found: true, Started: true, Code: code, Status: &status}, nil
	}

	bound := m.registry.Bound(code)
	if len(bound) > 0 && isLive(bound[0].Conn) {
		if bound[0].Conn == conn {
			return m.rename(ctx, match, bound[0].UserID, name)
		}
		if opponent, ok := m.opponentFor(match, bound[0].UserID); ok {
			return m.start(ctx, match, opponent, name, conn)
		}
	}
	return m.takeSecondSlot(ctx, match, bound, name, conn)
}

// 待機プレイヤーを追加する。接続が切れたプレイヤーとその購読は先に取り除く
func (m *Manager) takeSecondSlot(ctx context.Context, match *models.Match, bound []broadcast.Subscription, name string, conn models.Conn) (JoinResult, error) {
	userID, err := m.newUserID()
	if err != nil {
		return JoinResult{}, fmt.Errorf("generating user id: %w", err)
	}

	liveIDs := make(map[string]bool)
	for _, sub := range bound {
		if isLive(sub.Conn) {
			liveIDs[sub.UserID] = true
			continue
		}
		m.registry.Remove(match.Code, sub.Conn, sub.UserID)
		m.logger.Info("Dropping disconnected player", zap.String("code", match.Code), zap.String("connID", sub.Conn.ID()))
	}
	kept := match.Players[:0:0]
	for _, p := range match.Players {
		if liveIDs[p.UserID] {
			kept = append(kept, p)
		}
	}
	if len(kept) > 1 {
		kept = kept[:1]
	}
	match.Players = append(kept, models.Player{UserID: userID, Name: models.PlayerName(name)})
	match.LastMove = m.nowMillis()

	if err := m.saveWaiting(ctx, match); err != nil {
		return JoinResult{}, err
	}
	m.registry.Append(match.Code, conn, userID)
	return JoinResult{Found: true, Started: false, UserID: userID, Code: match.Code}, nil
}

// 同じ接続から待機中のプレイヤーが再参加した場合。接続は同じ userID のまま登録されている
func (m *Manager) rename(ctx context.Context, match *models.Match, userID, name string) (JoinResult, error) {
	match.Players = []models.Player{{UserID: userID, Name: models.PlayerName(name)}}
	match.LastMove = m.nowMillis()
	if err := m.saveWaiting(ctx, match); err != nil {
		return JoinResult{}, err
	}
	return JoinResult{Found: true, Started: false, UserID: userID, Code: match.Code}, nil
}

func (m *Manager) saveWaiting(ctx context.Context, match *models.Match) error {
	if err := m.store.Save(ctx, match); err != nil {
		return fmt.Errorf("saving match %s: %w", match.Code, err)
	}
	if !match.PrivateMatch {
		if err := m.store.Enqueue(ctx, match.Code); err != nil {
			return fmt.Errorf("queueing match %s: %w", match.Code, err)
		}
	}
	return nil
}

// 参加者と対戦相手を組ませ、コイントスで先後を決めて全員に通知する
func (m *Manager) start(ctx context.Context, match *models.Match, opponent models.Player, name string, conn models.Conn) (JoinResult, error) {
	userID, err := m.newUserID()
	if err != nil {
		return JoinResult{}, fmt.Errorf("generating user id: %w", err)
	}
	name = models.PlayerName(name)
	joinerIsX := m.coinFlip()
	opponentIsX := !joinerIsX
	gameStart := m.nowMillis()

	match.Started = true
	match.Players = []models.Player{
		{UserID: opponent.UserID, Name: opponent.Name, IsX: &opponentIsX},
		{UserID: userID, Name: name, IsX: &joinerIsX},
	}
	match.GameStart = gameStart
	match.LastMove = gameStart
	if err := m.store.Save(ctx, match); err != nil {
		return JoinResult{}, fmt.Errorf("saving match %s: %w", match.Code, err)
	}
	if err := m.store.RemoveQueued(ctx, match.Code); err != nil {
		m.logger.Warn("Failed to dequeue started match", zap.String("code", match.Code), zap.Error(err))
	}

	m.registry.BroadcastFunc(match.Code, func(sub broadcast.Subscription) []byte {
		if sub.UserID == opponent.UserID {
			return broadcast.MatchStartedForPlayer(match.Code, sub.UserID, broadcast.GameConfig{
				Opponent:  name,
				IsX:       opponentIsX,
				GameStart: gameStart,
			})
		}
		return broadcast.MatchStartedForSpectator(match.Code, match.Players)
	})

	cfg := broadcast.GameConfig{Opponent: opponent.Name, IsX: joinerIsX, GameStart: gameStart}
	if err := conn.Write(broadcast.MatchStartedForPlayer(match.Code, userID, cfg)); err != nil {
		m.logger.Warn("Failed to notify joining player", zap.String("code", match.Code), zap.Error(err))
	}
	m.registry.Append(match.Code, conn, userID)

	utils.MatchesStarted.Inc()
	m.logger.Info("Match started", zap.String("code", match.Code), zap.Bool("joinerIsX", joinerIsX))
	return JoinResult{Found: true, Started: true, UserID: userID, Code: match.Code, GameConfig: &cfg}, nil
}

// userID に対応するプレイヤーを探す。見つからなければ最初のプレイヤーを返す
func (m *Manager) opponentFor(match *models.Match, userID string) (models.Player, bool) {
	if p, ok := match.Player(userID); ok {
		return *p, true
	}
	if len(match.Players) > 0 {
		return match.Players[0], true
	}
	return models.Player{}, false
}

func isLive(conn models.Conn) bool {
	s := conn.ReadyState()
	return s == models.Connecting || s == models.Open
}
