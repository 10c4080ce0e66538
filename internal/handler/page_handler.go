package handler

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skindb/skinfront/internal/middleware"
	"github.com/skindb/skinfront/internal/model"
	"github.com/skindb/skinfront/internal/render"
	"github.com/skindb/skinfront/internal/skinapi"
)

// darkModeCookieName はダークテーマ設定を保持するCookieの名前。
const darkModeCookieName = "darkMode"

// maxSearchImageBytes は画像検索で受け付けるPNGの上限サイズ。
const maxSearchImageBytes = 3 << 20

// SkinAPI はページ描画に必要な外部スキンAPIの操作。
// skinapi.Clientの部分集合として定義する。
type SkinAPI interface {
	GetIndex(ctx context.Context) (*model.Index, error)
	GetAccount(ctx context.Context, uuid string) (*model.Account, error)
	GetSkin(ctx context.Context, skinID string, viewerID string) (*model.Skin, error)
	GetSkins(ctx context.Context, page int) (*model.SkinsPage, error)
	GetSearch(ctx context.Context, q string, page int) (*model.Search, error)
	GetSearchByImage(ctx context.Context, png []byte, page int) (*model.Search, error)
	SetTagVote(ctx context.Context, viewerID, skinID, tag string, vote skinapi.Vote) error
}

// PageHandler はHTMLページのハンドラー群。
type PageHandler struct {
	api      SkinAPI
	renderer *render.Renderer
	baseURL  string
}

// NewPageHandler はPageHandlerを生成する。
func NewPageHandler(api SkinAPI, renderer *render.Renderer, baseURL string) *PageHandler {
	return &PageHandler{
		api:      api,
		renderer: renderer,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
	}
}

// pageContext はリクエストから描画コンテキストを構築する。
func (h *PageHandler) pageContext(r *http.Request) render.PageContext {
	canonical := h.baseURL + r.URL.RequestURI()

	con := render.PageContext{
		Query:               r.URL.Query(),
		CanonicalURL:        canonical,
		CanonicalURLEncoded: url.QueryEscape(canonical),
	}

	if session := middleware.SessionFromContext(r.Context()); session != nil {
		con.IsLoggedIn = true
		con.ProfileName = session.ProfileName()
	}

	if cookie, err := r.Cookie(darkModeCookieName); err == nil && cookie.Value != "" {
		con.DarkMode = true
	}

	return con
}

// writeHTML は描画済みHTMLをレスポンスとして送信する。
func writeHTML(w http.ResponseWriter, html string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := io.WriteString(w, html)
	return err
}

// Index はトップページ（週間トップ10）を描画する。
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) error {
	index, err := h.api.GetIndex(r.Context())
	if err != nil {
		return err
	}

	html, err := h.renderer.Render(render.PartIndex, render.PageData{Index: index}, h.pageContext(r))
	if err != nil {
		return err
	}
	return writeHTML(w, html)
}

// Account はアカウントページを描画する。
// UUIDとして解釈できないパスパラメータは（上流に問い合わせる前に）404。
func (h *PageHandler) Account(w http.ResponseWriter, r *http.Request) error {
	rawUUID := chi.URLParam(r, "uuid")
	parsed, err := uuid.Parse(rawUUID)
	if err != nil {
		return model.NewNotFound("The requested account could not be found")
	}

	account, err := h.api.GetAccount(r.Context(), parsed.String())
	if err != nil {
		return err
	}

	html, err := h.renderer.Render(render.PartAccount, render.PageData{Account: account}, h.pageContext(r))
	if err != nil {
		return err
	}
	return writeHTML(w, html)
}

// Skin はスキン詳細ページを描画する。
// 数字以外を含むIDは（上流に問い合わせる前に）404。
func (h *PageHandler) Skin(w http.ResponseWriter, r *http.Request) error {
	skinID := chi.URLParam(r, "id")
	if !isNumericID(skinID) {
		return model.NewNotFound("The requested skin could not be found")
	}

	viewerID := ""
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		viewerID = session.AccountID
	}

	skin, err := h.api.GetSkin(r.Context(), skinID, viewerID)
	if err != nil {
		return err
	}

	html, err := h.renderer.Render(render.PartSkin, render.PageData{Skin: skin}, h.pageContext(r))
	if err != nil {
		return err
	}
	return writeHTML(w, html)
}

// Skins はスキン一覧ページを描画する。
func (h *PageHandler) Skins(w http.ResponseWriter, r *http.Request) error {
	page, err := parsePage(r)
	if err != nil {
		return err
	}

	skins, err := h.api.GetSkins(r.Context(), page)
	if err != nil {
		return err
	}

	html, err := h.renderer.Render(render.PartSkins, render.PageData{Skins: skins, Page: page}, h.pageContext(r))
	if err != nil {
		return err
	}
	return writeHTML(w, html)
}

// Cape はケープページを描画する。
func (h *PageHandler) Cape(w http.ResponseWriter, r *http.Request) error {
	html, err := h.renderer.Render(render.PartCape, render.PageData{}, h.pageContext(r))
	if err != nil {
		return err
	}
	return writeHTML(w, html)
}

// History は履歴ページを描画する。
func (h *PageHandler) History(w http.ResponseWriter, r *http.Request) error {
	html, err := h.renderer.Render(render.PartHistory, render.PageData{}, h.pageContext(r))
	if err != nil {
		return err
	}
	return writeHTML(w, html)
}

// Search は文字列クエリによる検索結果ページを描画する。
// qパラメータは必須で、欠落時は400。
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) error {
	q := r.URL.Query().Get("q")
	if q == "" {
		return model.NewInvalidParams("query", []model.ErrorDetail{
			{Param: "q", Condition: "Valid string"},
		})
	}

	page, err := parsePage(r)
	if err != nil {
		return err
	}

	result, err := h.api.GetSearch(r.Context(), q, page)
	if err != nil {
		return err
	}

	html, err := h.renderer.Render(render.PartSearch, render.PageData{Search: result, Page: page, Query: q}, h.pageContext(r))
	if err != nil {
		return err
	}
	return writeHTML(w, html)
}

// SearchByImage はPNG画像による検索結果ページを描画する。
// Content-Typeがimage/pngでないリクエストは400。
func (h *PageHandler) SearchByImage(w http.ResponseWriter, r *http.Request) error {
	mediaType, _, _ := strings.Cut(r.Header.Get("Content-Type"), ";")
	if strings.TrimSpace(strings.ToLower(mediaType)) != "image/png" {
		return model.NewInvalidBody([]model.ErrorDetail{
			{Param: "body", Condition: "A PNG image (Content-Type: image/png)"},
		})
	}

	page, err := parsePage(r)
	if err != nil {
		return err
	}

	png, err := io.ReadAll(io.LimitReader(r.Body, maxSearchImageBytes+1))
	if err != nil {
		return model.NewInvalidBody([]model.ErrorDetail{
			{Param: "body", Condition: "A readable request body"},
		})
	}
	if len(png) == 0 || len(png) > maxSearchImageBytes {
		return model.NewInvalidBody([]model.ErrorDetail{
			{Param: "body", Condition: "A PNG image between 1 byte and 3 MiB"},
		})
	}

	result, err := h.api.GetSearchByImage(r.Context(), png, page)
	if err != nil {
		return err
	}

	html, err := h.renderer.Render(render.PartSearch, render.PageData{Search: result, Page: page}, h.pageContext(r))
	if err != nil {
		return err
	}
	return writeHTML(w, html)
}

// parsePage はpageクエリパラメータを検証して返す。
// 欠落時は1、不正値（非数値または1未満）は400。
func parsePage(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, nil
	}

	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, model.NewInvalidParams("query", []model.ErrorDetail{
			{Param: "page", Condition: "A positive number"},
		})
	}
	return page, nil
}
