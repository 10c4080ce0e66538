// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"net/http"
	"sort"
	"strings"

	"github.com/skindb/skinfront/internal/model"
)

// handlerFunc はエラーを返すHTTPハンドラー。返されたエラーは
// 中央のエラーファネルで統一フォーマットに変換される。
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// respWriter はレスポンスの書き込み状態を追跡するラッパー。
// エラーファネルがヘッダー送信済みのレスポンスを上書きしないために使う。
type respWriter struct {
	http.ResponseWriter
	written bool
}

func (rw *respWriter) WriteHeader(code int) {
	rw.written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *respWriter) Write(b []byte) (int, error) {
	rw.written = true
	return rw.ResponseWriter.Write(b)
}

// restful はHTTPメソッドごとのハンドラーを束ね、未対応メソッドには
// Allowヘッダー付きの405を返すディスパッチャを生成する。
// GETが定義されている場合、HEADも暗黙的に許可される。
// エラーファネルはここで各ハンドラーの戻り値に適用される。
func restful(funnel *ErrorFunnel, methods map[string]handlerFunc) http.Handler {
	allowed := make([]string, 0, len(methods)+1)
	for method := range methods {
		allowed = append(allowed, method)
		if method == http.MethodGet {
			allowed = append(allowed, http.MethodHead)
		}
	}
	sort.Strings(allowed)
	allowHeader := strings.Join(allowed, ", ")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method := r.Method
		if method == http.MethodHead {
			method = http.MethodGet
		}

		fn, ok := methods[method]
		if !ok {
			w.Header().Set("Allow", allowHeader)
			funnel.Respond(w, r, model.NewMethodNotAllowed())
			return
		}

		rw := &respWriter{ResponseWriter: w}
		if err := fn(rw, r); err != nil {
			if rw.written {
				funnel.LogOnly(r, err)
				return
			}
			funnel.Respond(w, r, err)
		}
	})
}

// isNumericID はスキンIDとして有効な文字列（数字のみ、1文字以上）かを返す。
func isNumericID(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
