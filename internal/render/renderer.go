// Package render は2段階のHTMLテンプレートレンダリングを提供する。
//
// 第1段階は起動時に一度だけ実行され、"[[" と "]]" を区切り文字とする
// text/templateでページ共通部品（head、ヘッダー、フッター等）と
// 固定URLを各ページテンプレートに埋め込む。
// 第2段階はリクエストごとに実行され、標準の "{{" と "}}" を区切り文字とする
// html/templateでリクエスト固有のデータを描画する。
package render

import (
	"bytes"
	"embed"
	"fmt"
	html "html/template"
	"net/url"
	"strings"
	text "text/template"

	"github.com/skindb/skinfront/internal/model"
	"github.com/skindb/skinfront/internal/security"
)

//go:embed templates/*.html
var templateFS embed.FS

// PagePart は描画可能なページの識別子。
type PagePart string

const (
	PartIndex   PagePart = "index"
	PartAccount PagePart = "account"
	PartSkin    PagePart = "skin"
	PartSkins   PagePart = "skins"
	PartCape    PagePart = "cape"
	PartHistory PagePart = "history"
	PartSearch  PagePart = "search"
)

// pageParts は第1段階でコンパイルされる全ページの一覧。
var pageParts = []PagePart{
	PartIndex,
	PartAccount,
	PartSkin,
	PartSkins,
	PartCape,
	PartHistory,
	PartSearch,
}

// GlobalContext は起動時に確定し、全リクエストで共有される値。
type GlobalContext struct {
	BaseURL   string
	StaticURL string
	// APIBaseURL はスキン画像の参照に使う外部APIのベースURL。
	APIBaseURL string
}

// PageContext はリクエストごとに変化する描画コンテキスト。
type PageContext struct {
	// Query はリクエストのクエリパラメータ（重複除去済み）。
	Query url.Values
	// IsLoggedIn はセッションが有効かどうか。
	IsLoggedIn bool
	// ProfileName はログイン中のMinecraftプロフィール名。未ログイン時は空。
	ProfileName string
	// CanonicalURL はこのページの正規URL。
	CanonicalURL string
	// CanonicalURLEncoded はreturnToパラメータ等に使うエスケープ済み正規URL。
	CanonicalURLEncoded string
	// DarkMode はダークテーマCookieの有無。
	DarkMode bool
}

// QueryValue はクエリパラメータの値を返す。テンプレートから参照する。
func (pc PageContext) QueryValue(key string) string {
	if pc.Query == nil {
		return ""
	}
	return pc.Query.Get(key)
}

// PageData はページ本文の描画に使うデータ。描画対象のページに応じて
// いずれか1つのフィールドだけが設定される。
type PageData struct {
	Index   *model.Index
	Account *model.Account
	Skin    *model.Skin
	Skins   *model.SkinsPage
	Search  *model.Search
	// Page は一覧・検索ページの現在ページ番号。
	Page int
	// Query は検索ページの検索語。
	Query string
}

// PrevPage は1つ前のページ番号を返す。
func (pd PageData) PrevPage() int {
	return pd.Page - 1
}

// NextPage は1つ次のページ番号を返す。
func (pd PageData) NextPage() int {
	return pd.Page + 1
}

// renderInput は第2段階テンプレートのルートオブジェクト。
type renderInput struct {
	Page PageData
	Con  PageContext
}

// chrome は第1段階で各ページに埋め込まれる共通部品。
type chrome struct {
	BaseURL   string
	StaticURL string
	APIURL    string
	Head      string
	Header    string
	Search    string
	Footer    string
}

// Renderer はコンパイル済みページテンプレートを保持する。
type Renderer struct {
	pages map[PagePart]*html.Template
}

// New はテンプレートを2段階でコンパイルしたRendererを生成する。
// 第1段階の結果はプロセス起動中に変化しないため、起動時に一度だけ実行する。
func New(global GlobalContext, sanitizer security.ContentSanitizerService) (*Renderer, error) {
	parts, err := loadChrome(global)
	if err != nil {
		return nil, err
	}

	funcs := html.FuncMap{
		// richtext はユーザー由来の文字列から許可済みインラインタグ以外を
		// 取り除いた上でHTMLとして埋め込む。
		"richtext": func(s string) html.HTML {
			return html.HTML(sanitizer.Sanitize(s))
		},
	}

	pages := make(map[PagePart]*html.Template, len(pageParts))
	for _, part := range pageParts {
		raw, err := templateFS.ReadFile(fmt.Sprintf("templates/%s.html", part))
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", part, err)
		}

		// 第1段階: 共通部品と固定URLを埋め込む
		stageOne, err := text.New(string(part)).Delims("[[", "]]").Parse(string(raw))
		if err != nil {
			return nil, fmt.Errorf("failed to parse stage-one template %s: %w", part, err)
		}
		var buf bytes.Buffer
		if err := stageOne.Execute(&buf, parts); err != nil {
			return nil, fmt.Errorf("failed to execute stage-one template %s: %w", part, err)
		}

		// 第2段階: リクエストデータ用テンプレートとしてコンパイル
		page, err := html.New(string(part)).Funcs(funcs).Parse(buf.String())
		if err != nil {
			return nil, fmt.Errorf("failed to parse stage-two template %s: %w", part, err)
		}
		pages[part] = page
	}

	return &Renderer{pages: pages}, nil
}

// loadChrome は共通部品テンプレートを読み込み、固定URLを展開する。
// 部品自身も "[[" 区切りで固定URLを参照できる。
func loadChrome(global GlobalContext) (chrome, error) {
	c := chrome{
		BaseURL:   strings.TrimSuffix(global.BaseURL, "/"),
		StaticURL: strings.TrimSuffix(global.StaticURL, "/"),
		APIURL:    strings.TrimSuffix(global.APIBaseURL, "/"),
	}

	partials := []struct {
		name string
		dest *string
	}{
		{"_head", &c.Head},
		{"_header", &c.Header},
		{"_search", &c.Search},
		{"_footer", &c.Footer},
	}

	for _, p := range partials {
		raw, err := templateFS.ReadFile(fmt.Sprintf("templates/%s.html", p.name))
		if err != nil {
			return chrome{}, fmt.Errorf("failed to read partial %s: %w", p.name, err)
		}
		tmpl, err := text.New(p.name).Delims("[[", "]]").Parse(string(raw))
		if err != nil {
			return chrome{}, fmt.Errorf("failed to parse partial %s: %w", p.name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, c); err != nil {
			return chrome{}, fmt.Errorf("failed to execute partial %s: %w", p.name, err)
		}
		*p.dest = buf.String()
	}

	return c, nil
}

// Render は指定ページをリクエストデータで描画し、HTML文字列を返す。
func (r *Renderer) Render(part PagePart, data PageData, con PageContext) (string, error) {
	page, ok := r.pages[part]
	if !ok {
		return "", fmt.Errorf("unknown page part: %s", part)
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, renderInput{Page: data, Con: con}); err != nil {
		return "", fmt.Errorf("failed to render page %s: %w", part, err)
	}
	return buf.String(), nil
}
