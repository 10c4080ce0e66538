// Package webhook は運用者向けの診断Webhook通知を提供する。
// 5xxエラー発生時にDiscord互換のWebhookへメッセージとオブジェクトダンプを送信する。
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// maxCallsPerMinute は60秒あたりのWebhook呼び出し上限。
// 障害時のエラー嵐でWebhook先を飽和させないための上限であり、
// 超過した通知は黙って破棄される（ログには残る）。
const maxCallsPerMinute = 8

// Notifier はDiscord互換Webhookへの通知クライアント。
// レートリミッターはイベントループに依存しないトークンバケットで、
// マルチゴルーチン環境でも追加の同期なしで安全に使用できる。
type Notifier struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	limiter    *rate.Limiter
	username   string
	avatarURL  string
}

// NewNotifier はNotifierを生成する。
// webhookURLが空の場合、Notifyは何もしない。
func NewNotifier(webhookURL string, httpClient *http.Client, logger *slog.Logger) *Notifier {
	return &Notifier{
		url:        webhookURL,
		httpClient: httpClient,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Every(time.Minute/maxCallsPerMinute), maxCallsPerMinute),
		username:   "SkinFront (Error-Reporter)",
		avatarURL:  "https://cdn.skindb.net/img/error-reporter.png",
	}
}

// Enabled はWebhook URLが設定されているかを返す。
func (n *Notifier) Enabled() bool {
	return n.url != ""
}

// webhookField はembed内の1フィールドを表す。
type webhookField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// webhookEmbed は通知の本文を表す。
type webhookEmbed struct {
	Title  string         `json:"title"`
	Fields []webhookField `json:"fields"`
}

// webhookPayload はWebhookへのリクエストボディ。
type webhookPayload struct {
	Username  string         `json:"username"`
	AvatarURL string         `json:"avatar_url"`
	Embeds    []webhookEmbed `json:"embeds"`
}

// Notify はメッセージとオブジェクトダンプをWebhookへ送信する。
// URL未設定・レート上限超過の場合は送信しない。
// 送信失敗はログに記録するのみで、再帰的なWebhook通知は行わない。
func (n *Notifier) Notify(ctx context.Context, message string, obj any) {
	if n.url == "" {
		return
	}
	if !n.limiter.Allow() {
		n.logger.Warn("diagnostic webhook call dropped by rate limit")
		return
	}

	payload := webhookPayload{
		Username:  n.username,
		AvatarURL: n.avatarURL,
		Embeds: []webhookEmbed{
			{
				Title: "An error occurred",
				Fields: []webhookField{
					{Name: "Message", Value: message},
					{Name: "Object", Value: formatObject(obj)},
				},
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Error("could not marshal webhook payload", slog.String("error", err.Error()))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		n.logger.Error("could not create webhook request", slog.String("error", err.Error()))
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		n.logger.Error("could not execute diagnostic webhook", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		n.logger.Error("diagnostic webhook returned an unexpected status",
			slog.Int("status", resp.StatusCode),
		)
	}
}

// formatObject はオブジェクトダンプをWebhook向けに整形する。
func formatObject(obj any) string {
	if obj == nil {
		return "Empty"
	}

	dump, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return "```JS\n" + string(dump) + "\n```"
}
