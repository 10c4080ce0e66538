package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/skindb/skinfront/internal/model"
)

// Reporter は診断レポートの送信先インターフェース。
// webhook.Notifierの部分集合として定義する。
type Reporter interface {
	Notify(ctx context.Context, message string, obj any)
}

// errorEnvelope はエラーレスポンスの統一JSONフォーマット。
type errorEnvelope struct {
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Details []model.ErrorDetail `json:"details,omitempty"`
}

// ErrorFunnel は全ハンドラーのエラーを1箇所で処理する。
//
// APIError以外のエラーはそのまま（ラップせず）ログに出力した上で、
// クライアントには詳細を含まない500に変換する。
// 500系（503を除く）の未レポートエラーは診断レポートを送信する。
// 同一のAPIErrorインスタンスは二度レポートされない。
type ErrorFunnel struct {
	logger   *slog.Logger
	reporter Reporter // nil可
}

// NewErrorFunnel はErrorFunnelを生成する。
// reporterがnilの場合、診断レポートは送信されない。
func NewErrorFunnel(logger *slog.Logger, reporter Reporter) *ErrorFunnel {
	return &ErrorFunnel{
		logger:   logger,
		reporter: reporter,
	}
}

// Respond はエラーを統一JSONフォーマットでクライアントに返す。
func (f *ErrorFunnel) Respond(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := f.normalize(r, err)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(apiErr.HTTPStatus)

	body := errorEnvelope{
		Error:   model.StatusName(apiErr.HTTPStatus),
		Message: apiErr.Message,
		Details: apiErr.Details,
	}
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		f.logger.Error("failed to write error response",
			slog.String("error", encodeErr.Error()),
		)
	}
}

// LogOnly はレスポンス送信済みの状況でエラーを記録・レポートだけする。
func (f *ErrorFunnel) LogOnly(r *http.Request, err error) {
	f.normalize(r, err)
}

// normalize は任意のエラーをAPIErrorへ正規化し、必要に応じて
// ログ出力と診断レポートを行う。
func (f *ErrorFunnel) normalize(r *http.Request, err error) *model.APIError {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		// 想定外のエラーは原文のままログに残す
		f.logger.Error("unexpected error",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		apiErr = model.NewUnknown()
		apiErr.Logged = true
		f.report(r, err.Error())
		return apiErr
	}

	if f.shouldReport(apiErr) {
		f.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", apiErr.HTTPStatus),
			slog.String("error", apiErr.Message),
		)
		apiErr.Logged = true
		f.report(r, apiErr.Message)
	}
	return apiErr
}

// shouldReport は診断レポートの対象かを判定する。
// 503は依存サービスの停止という運用上の状態でありバグではないため除外する。
func (f *ErrorFunnel) shouldReport(apiErr *model.APIError) bool {
	return apiErr.HTTPStatus >= 500 &&
		apiErr.HTTPStatus != http.StatusServiceUnavailable &&
		!apiErr.Logged
}

// report は診断レポートを非同期に送信する。レスポンス送信を
// ブロックしないよう、リクエストコンテキストとは独立して実行する。
func (f *ErrorFunnel) report(r *http.Request, message string) {
	if f.reporter == nil {
		return
	}
	obj := map[string]string{
		"method": r.Method,
		"path":   r.URL.RequestURI(),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		f.reporter.Notify(ctx, message, obj)
	}()
}
