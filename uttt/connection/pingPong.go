package connection

import (
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// writePump は送信キューのメッセージを書き出し、定期的に Ping を送って接続を維持します。
func (c *Client) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close() // 読み取り側もこれで終了する
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Warn("Error writing message", zap.Error(err))
				c.shutdown()
				return
			}
		case <-ticker.C:
			// Pingを送信
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Info("Error sending ping", zap.Error(err))
				c.shutdown()
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
