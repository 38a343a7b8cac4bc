package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/stampman/internal/metrics"
	"github.com/hitoshi/stampman/internal/middleware"
	"github.com/hitoshi/stampman/internal/model"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	AuthGate          *middleware.AuthGate
	RateLimiter       *middleware.RateLimiter
	CORSAllowedOrigin string
	Logger            *slog.Logger

	// サービス
	AuthService      AuthServiceInterface
	RecommendService RecommendServiceInterface
	HistoryService   HistoryServiceInterface
	UserService      UserServiceInterface
	AdminService     AdminServiceInterface

	// ヘルスチェック
	DBPinger    Pinger
	RedisPinger Pinger

	// メトリクス公開
	Gatherer prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → AuthGate(スコープ別) → RateLimit
//
// 認証不要ルート（/auth/*、/health、/metrics）は認可ゲートの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	authHandler := NewAuthHandler(deps.AuthService)
	recommendHandler := NewRecommendHandler(deps.RecommendService)
	userHandler := NewUserHandler(deps.HistoryService, deps.UserService)
	adminHandler := NewAdminHandler(deps.AdminService)
	healthHandler := NewHealthHandler(deps.DBPinger, deps.RedisPinger)

	// --- 認証不要のルート ---

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/admin/register", authHandler.RegisterAdmin)
		r.Post("/admin/login", authHandler.LoginAdmin)
	})

	r.Get("/health", healthHandler.Health)
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- ユーザースコープのルート ---
	// ミドルウェアスタック: AuthGate(user) → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthGate.RequireScope(model.RoleUser))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/user", func(r chi.Router) {
			// POST /user/find - レコメンド実行（専用レート制限を追加）
			r.With(deps.RateLimiter.RecommendMiddleware()).Post("/find", recommendHandler.Find)

			r.Get("/history", userHandler.History)
			r.Get("/top-stickers", userHandler.TopStickers)
			r.Put("/update-username", userHandler.UpdateUsername)
			r.Delete("/delete", userHandler.Delete)
		})
	})

	// --- 管理者スコープのルート ---
	// ミドルウェアスタック: AuthGate(admin) → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(deps.AuthGate.RequireScope(model.RoleAdmin))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/admin/users", func(r chi.Router) {
			r.Get("/", adminHandler.ListUsers)
			r.Post("/", adminHandler.CreateUser)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", adminHandler.GetUser)
				r.Put("/", adminHandler.UpdateUser)
				r.Delete("/", adminHandler.DeleteUser)
			})
		})
	})

	return r
}
