package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"utttserver/database" //設定ファイルの読み込みとRedisの初期化
	"utttserver/screens"  //HTTPでの状態確認
	"utttserver/utils"    //ロガー、メトリクス、Cronジョブ
	"utttserver/uttt"     //対戦のプロトコル処理
	"utttserver/uttt/actions"
	"utttserver/uttt/broadcast"
	matchstore "utttserver/uttt/database"
	"utttserver/uttt/words"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	listenAddr := flag.String("addr", "", "listen address, overrides listen_addr")
	flag.Parse()

	config, err := database.LoadConfig(*configPath)
	if err != nil {
		panic(err) // ロガーより先に設定が必要
	}
	if *listenAddr != "" {
		config.ListenAddr = *listenAddr
	}

	logger, err := utils.InitLogger(config.Debug) // ロガーの初期化
	if err != nil {
		panic(err) // 失敗した場合はプログラム停止
	}
	defer logger.Sync() // ロガーのクリーンアップ

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := database.InitRedis(ctx, config, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Redis", zap.Error(err))
	}
	defer rdb.Close()

	dict, err := words.Load(nil)
	if err != nil {
		logger.Fatal("辞書の読み込みに失敗しました", zap.Error(err))
	}
	registry := broadcast.NewRegistry(logger)
	store := matchstore.NewRedisStore(rdb, config.MatchTTL(), logger)
	manager := actions.NewManager(store, registry, dict, logger, actions.Options{})
	dispatcher := uttt.NewDispatcher(manager, logger)

	// クーロンスケジューラのセットアップと呼び出し
	cleaner, err := utils.CronCleaner(config.CleanupSchedule, manager, registry, logger)
	if err != nil {
		logger.Fatal("Failed to schedule cleanup", zap.Error(err))
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(config.AllowedOrigins),
	}

	if !config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	//リクエストロガーを起動
	router.Use(gin.Recovery(), utils.RequestLogger(logger))

	//CORS（Cross-Origin Resource Sharing）ポリシーを設定
	router.Use(cors.New(corsConfig(config.AllowedOrigins)))

	router.GET("/api", func(c *gin.Context) {
		uttt.HandleConnections(ctx, c.Writer, c.Request, dispatcher, config, upgrader, logger)
	})
	router.GET("/matches/:code", func(c *gin.Context) {
		screens.MatchStatusHandler(c, manager, logger)
	})
	router.GET("/health", func(c *gin.Context) {
		screens.HealthHandler(c, rdb, logger)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	server := &http.Server{
		Addr:    config.ListenAddr,
		Handler: router,
	}
	go func() {
		logger.Info("Listening", zap.String("addr", config.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	<-cleaner.Stop().Done()
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || containsWildcard(origins) {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// 設定されたオリジンからのWebSocketアップグレードのみ許可する
func originChecker(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 || containsWildcard(origins) {
		return func(*http.Request) bool { return true }
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
