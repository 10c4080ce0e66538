package middleware

import (
	"net/http"
)

// NewQueryParamsMiddleware は重複したクエリパラメータを最後の値だけに正規化する
// ミドルウェアを返す。例えば ?page=1&page=5 は ?page=5 として扱われる。
// 後続のハンドラはパラメータが高々1つであることを前提にできる。
func NewQueryParamsMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			query := r.URL.Query()

			changed := false
			for key, values := range query {
				if len(values) > 1 {
					query[key] = values[len(values)-1:]
					changed = true
				}
			}

			if changed {
				r.URL.RawQuery = query.Encode()
			}

			next.ServeHTTP(w, r)
		})
	}
}
