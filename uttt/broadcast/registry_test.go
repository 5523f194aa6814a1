package broadcast

import (
	"encoding/json"
	"sync"
	"testing"

	"utttserver/models"

	"go.uber.org/zap/zaptest"
)

type fakeConn struct {
	id     string
	mu     sync.Mutex
	state  models.ReadyState
	writes [][]byte
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, state: models.Open}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) ReadyState() models.ReadyState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *fakeConn) Write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, payload)
	return nil
}

func (c *fakeConn) setState(s models.ReadyState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = s
}

func (c *fakeConn) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.writes)
}

func TestBroadcastPrunesDeadConnections(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	open := newFakeConn("open")
	closing := newFakeConn("closing")
	closed := newFakeConn("closed")
	connecting := newFakeConn("connecting")
	closing.setState(models.Closing)
	closed.setState(models.Closed)
	connecting.setState(models.Connecting)

	r.Append("a-b", open, "u1")
	r.Append("a-b", closing, "")
	r.Append("a-b", closed, "u2")
	r.Append("a-b", connecting, "")

	if sent := r.Broadcast("a-b", []byte(`{}`)); sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
	if open.count() != 1 || closing.count() != 0 || closed.count() != 0 || connecting.count() != 0 {
		t.Fatalf("unexpected deliveries")
	}
	subs := r.Subscriptions("a-b")
	if len(subs) != 2 || subs[0].Conn != open || subs[1].Conn != connecting {
		t.Fatalf("subscriptions after prune = %+v", subs)
	}
}

func TestAppendAllowsDuplicates(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	conn := newFakeConn("c1")
	r.Append("a-b", conn, "u1")
	r.Append("a-b", conn, "u1")

	if sent := r.Broadcast("a-b", []byte(`{}`)); sent != 2 {
		t.Fatalf("sent = %d, want 2", sent)
	}
	if len(r.Bound("a-b")) != 2 {
		t.Fatalf("bound = %d, want 2", len(r.Bound("a-b")))
	}
}

func TestHasDistinguishesEmptyFromMissing(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	if r.Has("a-b") {
		t.Fatalf("unexpected list for unknown code")
	}
	conn := newFakeConn("c1")
	r.Append("a-b", conn, "")
	r.RemoveConn("a-b", conn)
	if !r.Has("a-b") {
		t.Fatalf("emptied list should still exist")
	}
	if len(r.Subscriptions("a-b")) != 0 {
		t.Fatalf("list should be empty")
	}
}

func TestRemoveDropsSingleEntry(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	c1, c2 := newFakeConn("c1"), newFakeConn("c2")
	r.Append("a-b", c1, "u1")
	r.Append("a-b", c2, "u2")
	r.Append("a-b", c1, "u1")

	r.Remove("a-b", c1, "u1")
	subs := r.Subscriptions("a-b")
	if len(subs) != 2 || subs[0].Conn != c2 || subs[1].Conn != c1 {
		t.Fatalf("subscriptions = %+v", subs)
	}
}

func TestBroadcastFuncPersonalises(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	player, spectator := newFakeConn("p"), newFakeConn("s")
	r.Append("a-b", player, "u1")
	r.Append("a-b", spectator, "")

	isX := true
	players := []models.Player{{UserID: "u1", Name: "Alice", IsX: &isX}}
	r.BroadcastFunc("a-b", func(sub Subscription) []byte {
		if sub.UserID == "" {
			return MatchStartedForSpectator("a-b", players)
		}
		return MatchStartedForPlayer("a-b", sub.UserID, GameConfig{Opponent: "Bob", IsX: true})
	})

	var got map[string]interface{}
	if err := json.Unmarshal(spectator.writes[0], &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	views := got["players"].([]interface{})
	if _, leaked := views[0].(map[string]interface{})["userID"]; leaked {
		t.Fatalf("spectator view leaked a userID: %s", spectator.writes[0])
	}
	if err := json.Unmarshal(player.writes[0], &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["userID"] != "u1" || got["msgType"] != MsgMatchStarted {
		t.Fatalf("player view = %v", got)
	}
}

func TestPruneClosed(t *testing.T) {
	r := NewRegistry(zaptest.NewLogger(t))
	dead, alive := newFakeConn("dead"), newFakeConn("alive")
	dead.setState(models.Closed)
	r.Append("only-dead", dead, "u1")
	r.Append("mixed", dead, "")
	r.Append("mixed", alive, "")

	if removed := r.PruneClosed(); removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
	if r.Has("only-dead") {
		t.Fatalf("empty code should be dropped")
	}
	if r.Codes() != 1 || len(r.Subscriptions("mixed")) != 1 {
		t.Fatalf("unexpected registry state")
	}
}
