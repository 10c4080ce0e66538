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

	"github.com/skindb/skinfront/internal/auth"
	"github.com/skindb/skinfront/internal/config"
	"github.com/skindb/skinfront/internal/database"
	"github.com/skindb/skinfront/internal/handler"
	"github.com/skindb/skinfront/internal/logger"
	"github.com/skindb/skinfront/internal/metrics"
	"github.com/skindb/skinfront/internal/render"
	"github.com/skindb/skinfront/internal/repository"
	"github.com/skindb/skinfront/internal/security"
	"github.com/skindb/skinfront/internal/skinapi"
	"github.com/skindb/skinfront/internal/webhook"
	"github.com/skindb/skinfront/internal/worker/prune"
)

// sessionPruneInterval は期限切れセッション削除ジョブの実行間隔。
const sessionPruneInterval = 24 * time.Hour

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
			port = "8091"
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
		slog.String("base_url", cfg.BaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はフロントエンドサーバーモードで起動する。
// 全依存関係をワイヤリングし、HTTPサーバーを起動する。
// DATABASE_URLが空の場合はセッションレスモードで動作する
// （閲覧機能は通常どおり、ログインは503）。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続（セッションストアが有効な場合のみ）
	var db *sql.DB
	var sessionRepo *repository.PostgresSessionRepo
	if cfg.SessionsEnabled() {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if err := db.Ping(); err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}

		slog.Info("database connection established")
		sessionRepo = repository.NewPostgresSessionRepo(db)
	} else {
		slog.Warn("DATABASE_URL is not set, logging in is disabled")
	}

	// 2. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 3. 外部APIクライアントの初期化
	apiClient := skinapi.NewClient(
		&http.Client{Timeout: cfg.SkinAPITimeout},
		slog.Default(),
		cfg.SkinAPIBaseURL,
		collector,
	)

	// 4. 認証サービスの初期化（セッションストアが有効な場合のみ）
	var authService *auth.Service
	if sessionRepo != nil {
		provider := auth.NewMcAuthProvider(auth.McAuthConfig{
			BaseURL:      cfg.McAuthBaseURL,
			ClientID:     cfg.McAuthClientID,
			ClientSecret: cfg.McAuthClientSecret,
			RedirectURL:  cfg.BaseURL + "/login",
			HTTPClient:   &http.Client{Timeout: 10 * time.Second},
		})
		authService = auth.NewService(provider, sessionRepo, auth.ServiceConfig{
			SessionMaxAge: cfg.SessionMaxAge,
		})
	}

	// 5. テンプレートのコンパイル
	sanitizer := security.NewContentSanitizer()
	renderer, err := render.New(render.GlobalContext{
		BaseURL:    cfg.BaseURL,
		StaticURL:  cfg.StaticURL,
		APIBaseURL: cfg.SkinAPIBaseURL,
	}, sanitizer)
	if err != nil {
		return fmt.Errorf("failed to compile templates: %w", err)
	}

	// 6. 診断Webhookの初期化
	// Webhook先URLは運用者の設定値だが、内部ネットワークへの
	// リクエスト横流しを防ぐため起動時に静的検証し、
	// 実行時もSSRFガード付きクライアントを使う。
	ssrfGuard := security.NewSSRFGuard()
	if cfg.DiscordErrorWebhookURL != "" {
		if err := ssrfGuard.ValidateURL(cfg.DiscordErrorWebhookURL); err != nil {
			return fmt.Errorf("invalid DISCORD_ERROR_WEBHOOK_URL: %w", err)
		}
	}
	notifier := webhook.NewNotifier(
		cfg.DiscordErrorWebhookURL,
		ssrfGuard.NewSafeClient(10*time.Second),
		slog.Default(),
	)

	// 7. ルーターの構築
	deps := &handler.RouterDeps{
		Logger:   slog.Default(),
		Metrics:  collector,
		Gatherer: registry,

		SkinAPI:  apiClient,
		Renderer: renderer,
		BaseURL:  cfg.BaseURL,

		AuthService: authService,
		Cookies: handler.CookieSettings{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
			MaxAge: cfg.SessionMaxAge,
		},
	}
	if sessionRepo != nil {
		deps.SessionFinder = sessionRepo
	}
	if db != nil {
		deps.DB = db
	}
	if notifier.Enabled() {
		deps.Reporter = notifier
	}

	router := handler.NewRouter(deps)

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// 8. 期限切れセッションの削除ジョブを日次でバックグラウンド実行
	if sessionRepo != nil {
		pruneJob := prune.NewPruneJob(sessionRepo, slog.Default())
		go pruneJob.Start(ctx, sessionPruneInterval)
	}

	// 9. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("frontend server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down frontend server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("frontend server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	if !cfg.SessionsEnabled() {
		return fmt.Errorf("DATABASE_URL is required for migrations")
	}

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
// /status エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/status", port)
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

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
