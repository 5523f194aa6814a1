package broadcast

import (
	"sync"

	"utttserver/models"
	"utttserver/utils"

	"go.uber.org/zap"
)

// Subscription は試合を購読する一つの接続です。観戦者など紐付けの無い購読では UserID は空です。
type Subscription struct {
	Conn   models.Conn
	UserID string
}

// Registry は試合コードから更新を受け取る接続への対応表です。
// プロセス内だけのもので、試合状態の正本にはなりません。
type Registry struct {
	mu     sync.Mutex
	subs   map[string][]*Subscription
	logger *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		subs:   make(map[string][]*Subscription),
		logger: logger,
	}
}

// Append は購読を追加します。同じ接続の重複も許します。
func (r *Registry) Append(code string, conn models.Conn, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[code] = append(r.subs[code], &Subscription{Conn: conn, UserID: userID})
}

// Has は code の購読リストが（空でも）存在するかを返します。
func (r *Registry) Has(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[code]
	return ok
}

// Subscriptions は code の購読のスナップショットを返します。
func (r *Registry) Subscriptions(code string) []Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Subscription, 0, len(r.subs[code]))
	for _, sub := range r.subs[code] {
		out = append(out, *sub)
	}
	return out
}

// Bound はプレイヤーに紐付いた購読だけを返します。
func (r *Registry) Bound(code string) []Subscription {
	var out []Subscription
	for _, sub := range r.Subscriptions(code) {
		if sub.UserID != "" {
			out = append(out, sub)
		}
	}
	return out
}

// Remove は conn と userID の両方が一致する最初の購読を削除します。
func (r *Registry) Remove(code string, conn models.Conn, userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.subs[code]
	for i, sub := range list {
		if sub.Conn == conn && sub.UserID == userID {
			r.subs[code] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

// RemoveConn は code にある conn の購読をすべて削除します。
func (r *Registry) RemoveConn(code string, conn models.Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, ok := r.subs[code]
	if !ok {
		return
	}
	kept := list[:0:0]
	for _, sub := range list {
		if sub.Conn != conn {
			kept = append(kept, sub)
		}
	}
	r.subs[code] = kept
}

// Broadcast は code の開いている購読者全員に同じ内容を送ります。
func (r *Registry) Broadcast(code string, payload []byte) int {
	return r.BroadcastFunc(code, func(Subscription) []byte { return payload })
}

// BroadcastFunc は開いている購読者ごとに組み立てた内容を送ります。nil なら送りません。
// 閉じた接続や閉じかけの接続は見つけ次第削除します。送信した数を返します。
func (r *Registry) BroadcastFunc(code string, build func(sub Subscription) []byte) int {
	live := r.pruneAndSnapshot(code)
	sent := 0
	for _, sub := range live {
		payload := build(sub)
		if payload == nil {
			continue
		}
		if err := sub.Conn.Write(payload); err != nil {
			r.logger.Warn("Failed to deliver match update",
				zap.String("code", code),
				zap.String("connID", sub.Conn.ID()),
				zap.Error(err),
			)
			continue
		}
		sent++
	}
	utils.BroadcastsSent.Add(float64(sent))
	return sent
}

// 切れた購読を削除し、開いている購読を返す。接続中のものは残すが返さない
func (r *Registry) pruneAndSnapshot(code string) []Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	list, ok := r.subs[code]
	if !ok {
		return nil
	}
	kept := list[:0:0]
	var live []Subscription
	for _, sub := range list {
		switch sub.Conn.ReadyState() {
		case models.Closing, models.Closed:
			r.logger.Debug("Pruning dead subscription", zap.String("code", code), zap.String("connID", sub.Conn.ID()))
			continue
		case models.Open:
			live = append(live, *sub)
		}
		kept = append(kept, sub)
	}
	r.subs[code] = kept
	return live
}

// PruneClosed は全コードから切れた購読を掃除し、空になったコードも削除します。
// 削除した購読の数を返します。
func (r *Registry) PruneClosed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for code, list := range r.subs {
		kept := list[:0:0]
		for _, sub := range list {
			if s := sub.Conn.ReadyState(); s == models.Closing || s == models.Closed {
				removed++
				continue
			}
			kept = append(kept, sub)
		}
		if len(kept) == 0 {
			delete(r.subs, code)
			continue
		}
		r.subs[code] = kept
	}
	return removed
}

// Codes は購読リストを持つコードの数を返します。
func (r *Registry) Codes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.subs)
}
