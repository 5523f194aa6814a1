package connection

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"utttserver/models"
	"utttserver/utils"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrClosed         = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

const (
	sendBufferSize = 64
	maxMessageSize = 8192
	writeWait      = 10 * time.Second

	defaultPingPeriod = 10 * time.Second
	defaultPongWait   = 60 * time.Second
)

// Handler は受信したフレームを一つ処理し、返信を返します。返信しない場合は nil です。
type Handler func(ctx context.Context, raw []byte, conn models.Conn) []byte

// Client はWebSocket接続のラッパーです。書き込みはキューに入れて単一の
// 書き込みゴルーチンが送り出すので、Write はどのゴルーチンからでも呼べます。
type Client struct {
	id         string
	conn       *websocket.Conn
	send       chan []byte
	done       chan struct{}
	closeOnce  sync.Once
	state      atomic.Int32
	pingPeriod time.Duration
	pongWait   time.Duration
	logger     *zap.Logger
}

func NewClient(conn *websocket.Conn, pingPeriod, pongWait time.Duration, logger *zap.Logger) *Client {
	if pingPeriod <= 0 {
		pingPeriod = defaultPingPeriod
	}
	if pongWait <= 0 {
		pongWait = defaultPongWait
	}
	id := uuid.NewString()
	c := &Client{
		id:         id,
		conn:       conn,
		send:       make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
		pingPeriod: pingPeriod,
		pongWait:   pongWait,
		logger:     logger.With(zap.String("connID", id)),
	}
	c.state.Store(int32(models.Open))
	return c
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) ReadyState() models.ReadyState {
	return models.ReadyState(c.state.Load())
}

// Write は payload を送信キューに入れ、ブロックはしません。キューが一杯の
// クライアントは更新を取りこぼさないよう切断し、次のブロードキャストで取り除かれます。
func (c *Client) Write(payload []byte) error {
	if c.ReadyState() != models.Open {
		return ErrClosed
	}
	select {
	case <-c.done:
		return ErrClosed
	case c.send <- payload:
		return nil
	default:
		c.logger.Warn("送信キューが一杯のため切断します", zap.Int("queued", len(c.send)))
		c.shutdown()
		return ErrSendBufferFull
	}
}

// Run は接続が閉じるまで処理を続けます。フレームは到着順に一つずつ処理します。
func (c *Client) Run(ctx context.Context, handle Handler) {
	utils.ActiveConnections.Inc()
	defer utils.ActiveConnections.Dec()

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		c.writePump()
	}()
	go func() {
		select {
		case <-ctx.Done():
			c.shutdown()
		case <-c.done:
		}
	}()

	c.readPump(ctx, handle)
	c.shutdown()
	<-writerDone
	c.state.Store(int32(models.Closed))
	c.logger.Info("Client removed")
}

func (c *Client) readPump(ctx context.Context, handle Handler) {
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(c.pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				c.logger.Warn("WebSocket error", zap.Error(err))
			}
			return
		}
		if reply := handle(ctx, message, c); reply != nil {
			if err := c.Write(reply); err != nil {
				c.logger.Warn("Failed to queue reply", zap.Error(err))
			}
		}
	}
}

// 切断中にして書き込みゴルーチンを止める
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		c.state.Store(int32(models.Closing))
		close(c.done)
	})
}
