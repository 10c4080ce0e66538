package middleware

import "net/http"

// SetNoCache はレスポンスのキャッシュを禁止するヘッダーを設定する。
func SetNoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
}
