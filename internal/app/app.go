// Package app はアプリケーションの起動とワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/stampman/internal/admin"
	"github.com/hitoshi/stampman/internal/auth"
	"github.com/hitoshi/stampman/internal/cache"
	"github.com/hitoshi/stampman/internal/config"
	"github.com/hitoshi/stampman/internal/database"
	"github.com/hitoshi/stampman/internal/emotion"
	"github.com/hitoshi/stampman/internal/handler"
	"github.com/hitoshi/stampman/internal/interaction"
	"github.com/hitoshi/stampman/internal/logger"
	"github.com/hitoshi/stampman/internal/metrics"
	"github.com/hitoshi/stampman/internal/middleware"
	"github.com/hitoshi/stampman/internal/recommend"
	"github.com/hitoshi/stampman/internal/repository"
	"github.com/hitoshi/stampman/internal/security"
	"github.com/hitoshi/stampman/internal/sticker"
	"github.com/hitoshi/stampman/internal/token"
	"github.com/hitoshi/stampman/internal/user"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB・Redis接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. Redis接続
	redisClient, err := database.OpenRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	defer redisClient.Close()

	slog.Info("redis connection established")

	// 3. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	adminRepo := repository.NewPostgresAdminRepo(db)
	sessionRepo := repository.NewPostgresSessionRepo(db)
	interactionRepo := repository.NewPostgresInteractionRepo(db)
	metricRepo := repository.NewPostgresStickerMetricRepo(db)

	// 4. トークンコーデックの初期化
	codec, err := token.NewCodec(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to build token codec: %w", err)
	}

	// 5. メトリクスコレクターの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 6. 外部サービスクライアントの初期化
	httpClient := &http.Client{Timeout: cfg.ServiceTimeout}
	emotionClient := emotion.NewClient(httpClient, slog.Default(), cfg.EmotionServiceURL)
	stickerClient := sticker.NewClient(httpClient, slog.Default(), cfg.StickerServiceURL, cfg.StickerRating)

	// 7. ドメインサービスの初期化
	authService := auth.NewService(userRepo, adminRepo, sessionRepo, codec, slog.Default())
	userService := user.NewService(userRepo, slog.Default())
	adminService := admin.NewService(userRepo, slog.Default())
	historyService := interaction.NewService(interactionRepo, metricRepo)

	recorder := interaction.NewRecorder(interactionRepo, metricRepo, slog.Default())
	stickerCache := cache.NewRedisStickerCache(redisClient, cfg.CacheTTL)
	sanitizer := security.NewInputSanitizer()

	recommendService := recommend.NewService(
		emotionClient, stickerClient, stickerCache, recorder,
		sanitizer, collector, slog.Default(), cfg.BackfillTimeout,
	)

	// 8. 認可ゲートとレート制限の初期化
	authGate := middleware.NewAuthGate(codec, sessionRepo, userRepo, adminRepo, slog.Default())
	rateLimiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitRecommend))
	defer rateLimiter.Stop()

	// 9. ルーターの構築
	deps := &handler.RouterDeps{
		AuthGate:          authGate,
		RateLimiter:       rateLimiter,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		Logger:            slog.Default(),

		AuthService:      authService,
		RecommendService: recommendService,
		HistoryService:   historyService,
		UserService:      userService,
		AdminService:     adminService,

		DBPinger:    dbPinger{db: db},
		RedisPinger: redisPinger{client: redisClient},

		Gatherer: registry,
	}

	router := handler.NewRouter(deps)

	// 10. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// 進行中のキャッシュ書き戻しを待ってから接続を閉じる
	recommendService.WaitBackfill()

	slog.Info("API server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// dbPinger は*sql.DBをhandler.Pingerに適合させる。
type dbPinger struct {
	db *sql.DB
}

func (p dbPinger) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// redisPinger は*redis.Clientをhandler.Pingerに適合させる。
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
