// Package security はアプリケーションのセキュリティ機能を提供する。
//
// ContentSanitizerService は外部スキンAPI由来のリッチテキスト
// （タグ名、プロフィール名、検索クエリのエコーなど）をサニタイズし、
// テンプレートに信頼済みHTMLとして埋め込む前にXSSリスクを除去する。
// bluemondayライブラリを使用した許可リストベースのポリシーで、
// 安全なタグのみを通過させる。
package security

import (
	"github.com/microcosm-cc/bluemonday"
)

// ContentSanitizerService はHTMLコンテンツのサニタイズ機能のインターフェースを定義する。
// ページレンダリング時、API由来の文字列を信頼済みHTMLに昇格させる直前に使用される。
type ContentSanitizerService interface {
	// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
	// 許可タグ（br, strong, em, code）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(rawHTML string) string
}

// contentSanitizer はContentSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type contentSanitizer struct {
	policy *bluemonday.Policy
}

// NewContentSanitizer はContentSanitizerServiceの新しいインスタンスを生成する。
// 初期化時にbluemondayのカスタムポリシーを構築する。
// ポリシーの内容:
//   - 許可タグ: br, strong, em, code（インライン装飾のみ）
//   - 禁止タグ: script, iframe, style および全てのon*イベント属性
//   - リンクと画像は許可しない（表示名にURLが紛れても無害化する）
func NewContentSanitizer() *contentSanitizer {
	p := bluemonday.NewPolicy()

	// 外部API由来の表示文字列に必要なのはインライン装飾のみ。
	// 許可リストに含まれないタグ・属性は自動的に除去される。
	p.AllowElements("br", "strong", "em", "code")

	return &contentSanitizer{
		policy: p,
	}
}

// Sanitize はHTMLコンテンツをサニタイズして安全なHTMLを返す。
func (s *contentSanitizer) Sanitize(rawHTML string) string {
	return s.policy.Sanitize(rawHTML)
}

// compile-time interface check
var _ ContentSanitizerService = (*contentSanitizer)(nil)
