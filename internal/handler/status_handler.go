package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/skindb/skinfront/internal/middleware"
)

// Pinger はデータベース死活確認のインターフェース。
// sql.DBの部分集合として定義する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StatusHandler は稼働状態エンドポイントのハンドラー。
type StatusHandler struct {
	db Pinger // nil可（セッションストアが無効な構成）
}

// NewStatusHandler はStatusHandlerを生成する。
func NewStatusHandler(db Pinger) *StatusHandler {
	return &StatusHandler{db: db}
}

// statusResponse は/statusのレスポンスボディ。
type statusResponse struct {
	API string `json:"api"`
}

// Status はプロセスが応答可能であることを示す固定レスポンスを返す。
// 監視・ロードバランサー向けにキャッシュを禁止する。
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) error {
	middleware.SetNoCache(w)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(statusResponse{API: "OK"})
}

// healthResponse は/healthのレスポンスボディ。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// Health はプロセスと依存コンポーネントの状態を返す。
// セッションストアが無効な構成ではデータベースの項目は"disabled"になる。
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) error {
	middleware.SetNoCache(w)

	resp := healthResponse{Status: "ok", Database: "disabled"}
	statusCode := http.StatusOK

	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			resp.Status = "degraded"
			resp.Database = "unreachable"
			statusCode = http.StatusServiceUnavailable
		} else {
			resp.Database = "ok"
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(resp)
}
