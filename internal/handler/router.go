package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/skindb/skinfront/internal/auth"
	"github.com/skindb/skinfront/internal/metrics"
	"github.com/skindb/skinfront/internal/middleware"
	"github.com/skindb/skinfront/internal/model"
	"github.com/skindb/skinfront/internal/render"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger *slog.Logger

	// ミドルウェア依存
	SessionFinder middleware.SessionFinder // nil可（セッションストアが無効な構成）
	Metrics       *metrics.Collector
	Gatherer      prometheus.Gatherer

	// ページ描画
	SkinAPI  SkinAPI
	Renderer *render.Renderer
	BaseURL  string

	// 認証
	AuthService *auth.Service // nil可
	Cookies     CookieSettings

	// 稼働状態
	DB Pinger // nil可

	// 診断レポート
	Reporter Reporter // nil可
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したハンドラーを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Metrics → Session → Logging → QueryParams
//
// セッションの読み込みは必須ではない。無効なセッションのリクエストも
// 未ログイン状態として通常どおり処理される。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewMetricsMiddleware(deps.Metrics))
	r.Use(middleware.NewSessionMiddleware(deps.SessionFinder, deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewQueryParamsMiddleware())

	funnel := NewErrorFunnel(deps.Logger, deps.Reporter)

	pageHandler := NewPageHandler(deps.SkinAPI, deps.Renderer, deps.BaseURL)
	authHandler := NewAuthHandler(deps.AuthService, deps.BaseURL, deps.Cookies)
	voteHandler := NewVoteHandler(deps.SkinAPI, deps.BaseURL)
	statusHandler := NewStatusHandler(deps.DB)

	// --- HTMLページ ---
	r.Handle("/", restful(funnel, map[string]handlerFunc{
		http.MethodGet: pageHandler.Index,
	}))
	r.Handle("/account/{uuid}", restful(funnel, map[string]handlerFunc{
		http.MethodGet: pageHandler.Account,
	}))
	r.Handle("/skin/{id}", restful(funnel, map[string]handlerFunc{
		http.MethodGet: pageHandler.Skin,
	}))
	r.Handle("/skin/{id}/vote", restful(funnel, map[string]handlerFunc{
		http.MethodPost: voteHandler.Vote,
	}))
	r.Handle("/skins", restful(funnel, map[string]handlerFunc{
		http.MethodGet: pageHandler.Skins,
	}))
	r.Handle("/search", restful(funnel, map[string]handlerFunc{
		http.MethodGet:  pageHandler.Search,
		http.MethodPost: pageHandler.SearchByImage,
	}))
	r.Handle("/cape", restful(funnel, map[string]handlerFunc{
		http.MethodGet: pageHandler.Cape,
	}))
	r.Handle("/history", restful(funnel, map[string]handlerFunc{
		http.MethodGet: pageHandler.History,
	}))

	// --- 認証フロー ---
	r.Handle("/login", restful(funnel, map[string]handlerFunc{
		http.MethodGet: authHandler.Login,
	}))
	r.Handle("/logout", restful(funnel, map[string]handlerFunc{
		http.MethodGet: authHandler.Logout,
	}))

	// --- 運用エンドポイント ---
	r.Handle("/status", restful(funnel, map[string]handlerFunc{
		http.MethodGet: statusHandler.Status,
	}))
	r.Handle("/health", restful(funnel, map[string]handlerFunc{
		http.MethodGet: statusHandler.Health,
	}))
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// chiのデフォルト404ではなく統一フォーマットで返す
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		funnel.Respond(w, r, model.NewNotFound(""))
	})

	return r
}
