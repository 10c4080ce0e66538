// Package model はドメインモデルを定義する。
package model

import (
	"net/http"
	"strconv"
)

// ErrorDetail はリクエストパラメータ単位のバリデーションエラー詳細を表す。
type ErrorDetail struct {
	Param     string `json:"param"`
	Condition string `json:"condition"`
}

// APIError はクライアントに返却する統一エラーフォーマットを表す。
// HTTPStatusは常に有効なHTTPステータスコードを保持する。
// Loggedはこのエラーインスタンスに対して診断レポートが既に送信済みか
// どうかを示す（同一エラーの二重レポートを防ぐ）。
type APIError struct {
	Message    string
	HTTPStatus int
	Details    []ErrorDetail
	Logged     bool
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return e.Message
}

// StatusName はHTTPステータスコードの正式名称を返す。
// 未知のコードの場合はコードの数値文字列を返す。
func StatusName(httpStatus int) string {
	if name := http.StatusText(httpStatus); name != "" {
		return name
	}
	return strconv.Itoa(httpStatus)
}

// NewUnknown は原因不明の内部エラーを生成する。
func NewUnknown() *APIError {
	return &APIError{
		Message:    "An unknown error occurred",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewNotFound はリソース未検出エラーを生成する。
// whatが空の場合は汎用メッセージを使用する。
func NewNotFound(what string) *APIError {
	if what == "" {
		what = "The requested resource could not be found"
	}
	return &APIError{
		Message:    what,
		HTTPStatus: http.StatusNotFound,
	}
}

// NewUnauthorized はログインが必要な操作に対する未認証エラーを生成する。
func NewUnauthorized() *APIError {
	return &APIError{
		Message:    "This action requires you to be logged in",
		HTTPStatus: http.StatusUnauthorized,
	}
}

// NewServiceUnavailable は依存サービス停止などの想定内の劣化状態を表す
// エラーを生成する。503は運用上の状態でありバグではないため、
// 診断レポートの対象外となる。
func NewServiceUnavailable(description string) *APIError {
	if description == "" {
		description = "Service Unavailable"
	}
	return &APIError{
		Message:    description,
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

// NewInvalidParams は不正なURL/クエリパラメータのエラーを生成する。
// paramTypeは"url"または"query"を指定する。
func NewInvalidParams(paramType string, details []ErrorDetail) *APIError {
	return &APIError{
		Message:    "Missing or invalid " + paramType + " parameters",
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// NewInvalidBody は不正なリクエストボディのエラーを生成する。
func NewInvalidBody(expected []ErrorDetail) *APIError {
	return &APIError{
		Message:    "Missing or invalid body",
		HTTPStatus: http.StatusBadRequest,
		Details:    expected,
	}
}

// NewServerError は内部エラーを生成する。
func NewServerError(whatFailed string) *APIError {
	if whatFailed == "" {
		whatFailed = "An error occurred"
	}
	return &APIError{
		Message:    whatFailed,
		HTTPStatus: http.StatusInternalServerError,
	}
}

// NewMethodNotAllowed は許可されていないHTTPメソッドに対するエラーを生成する。
func NewMethodNotAllowed() *APIError {
	return &APIError{
		Message:    "Method Not Allowed",
		HTTPStatus: http.StatusMethodNotAllowed,
	}
}
