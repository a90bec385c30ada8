package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newsdesk/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	IdentityResolver  middleware.IdentityResolver
	CORSAllowedOrigin string
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPMetricsRecorder

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// コメント
	CommentService CommentServiceInterface

	// フロントエンド向け
	ArticleAPIKey string
	StaticFS      fs.FS
	TemplateFS    fs.FS

	// 運用
	HealthChecks   map[string]HealthCheck
	MetricsHandler http.Handler
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → SecurityHeaders → Session → Logging → Metrics
//
// Sessionは匿名リクエストも通過させ、認可は各ハンドラーとサービスで判定する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewSessionMiddleware(deps.IdentityResolver))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	commentHandler := NewCommentHandler(deps.CommentService)

	// 認証（OIDCフロー）
	r.Get("/login", authHandler.Login)
	r.Get("/authorize", authHandler.Authorize)
	r.Get("/logout", authHandler.Logout)
	r.Get("/me", authHandler.Me)

	// API
	r.Get("/api/key", NewKeyHandler(deps.ArticleAPIKey))
	r.Route("/api/comments", func(r chi.Router) {
		r.Post("/", commentHandler.PostComment)
		r.Get("/{articleTitle}", commentHandler.ListComments)
		r.Delete("/{articleTitle}/{userEmail}", commentHandler.DeleteComments)
		r.Patch("/{articleTitle}/{userEmail}", commentHandler.RedactComments)
	})

	// 運用
	r.Get("/health", NewHealthHandler(deps.HealthChecks))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	// SPA（上記以外のGETは静的ファイルかindex.html）
	r.Get("/*", NewStaticHandler(deps.StaticFS, deps.TemplateFS).ServeHTTP)

	return r
}
