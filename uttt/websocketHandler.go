package uttt

import (
	"context"
	"net/http"

	"utttserver/models"
	"utttserver/uttt/connection"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// WebSocket接続へのアップグレードを行い、接続が閉じるまでメッセージを処理する関数
func HandleConnections(ctx context.Context, w http.ResponseWriter, r *http.Request, dispatcher *Dispatcher, cfg models.Config, upgrader websocket.Upgrader, logger *zap.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade はクライアントへのエラー応答を済ませている
		logger.Error("Error upgrading WebSocket", zap.Error(err))
		return
	}

	client := connection.NewClient(conn, cfg.PingPeriod(), cfg.PongWait(), logger)
	logger.Info("New client added", zap.String("connID", client.ID()), zap.String("remote", r.RemoteAddr))

	client.Run(ctx, dispatcher.Handle)
}
