package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/skindb/skinfront/internal/auth"
	"github.com/skindb/skinfront/internal/middleware"
	"github.com/skindb/skinfront/internal/model"
)

// returnToCookieName はログイン後の戻り先URLを保持する一時Cookieの名前。
const returnToCookieName = "returnTo"

// returnToMaxAge は戻り先Cookieの有効期間（秒）。認可フローの往復に
// 必要な時間だけ保持できればよい。
const returnToMaxAge = 10 * 60

// CookieSettings はセッション関連Cookieの属性。
type CookieSettings struct {
	Secure bool
	Domain string
	MaxAge int // セッションCookieの有効期間（秒）
}

// AuthHandler はログイン・ログアウトのハンドラー群。
// serviceがnilの場合（セッションストアが無効な構成）、ログインは503を返す。
// ログアウトはセッションストアなしでもCookieの削除だけは行う。
type AuthHandler struct {
	service *auth.Service
	baseURL string
	cookies CookieSettings
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service *auth.Service, baseURL string, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{
		service: service,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		cookies: cookies,
	}
}

// Login はログインフローのエントリポイント。状態に応じて3通りに分岐する:
//   - errorパラメータ付き: IDプロバイダーが拒否した。エラーをそのまま返す。
//   - codeパラメータ付き: 認可コールバック。コードを交換してセッションを発行する。
//   - どちらもなし: 認可エンドポイントへリダイレクトする。
//
// ログイン済みの場合は何もせず戻り先へリダイレクトする。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) error {
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		http.Redirect(w, r, h.returnTarget(r), http.StatusFound)
		return nil
	}

	if h.service == nil {
		return model.NewServiceUnavailable("Logging in is currently not possible")
	}

	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		// IDプロバイダーからの拒否。codeがあってもerrorを優先する。
		message := errParam
		if desc := query.Get("error_description"); desc != "" {
			message = fmt.Sprintf("%s (%s)", errParam, desc)
		}
		return &model.APIError{
			Message:    "Login failed: " + message,
			HTTPStatus: http.StatusBadRequest,
		}
	}

	if code := query.Get("code"); code != "" {
		return h.handleCallback(w, r, code)
	}

	// 認可フロー開始。現在の戻り先を短命Cookieに保存する。
	if returnTo := query.Get("returnTo"); returnTo != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     returnToCookieName,
			Value:    returnTo,
			Path:     "/",
			MaxAge:   returnToMaxAge,
			HttpOnly: true,
			Secure:   h.cookies.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	http.Redirect(w, r, h.service.LoginURL(), http.StatusFound)
	return nil
}

// handleCallback は認可コードをセッションに交換し、Cookieを発行する。
func (h *AuthHandler) handleCallback(w http.ResponseWriter, r *http.Request, code string) error {
	session, err := h.service.HandleCallback(r.Context(), code)
	if err != nil {
		return fmt.Errorf("login callback failed: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    session.ID,
		Path:     "/",
		MaxAge:   h.cookies.MaxAge,
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.clearReturnToCookie(w)

	http.Redirect(w, r, h.returnTarget(r), http.StatusFound)
	return nil
}

// Logout はセッションを破棄し、Cookieを削除する。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) error {
	if h.service != nil {
		if cookie, err := r.Cookie(middleware.SessionCookieName); err == nil && cookie.Value != "" {
			if err := h.service.Logout(r.Context(), cookie.Value); err != nil {
				return fmt.Errorf("logout failed: %w", err)
			}
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Domain:   h.cookies.Domain,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.returnTarget(r), http.StatusFound)
	return nil
}

// returnTarget はリダイレクト先のURLを決定する。
// returnToクエリパラメータ、returnTo Cookie、トップページの順で採用する。
// オープンリダイレクト防止のため、自サイトのURLのみを許可する。
func (h *AuthHandler) returnTarget(r *http.Request) string {
	if returnTo := r.URL.Query().Get("returnTo"); h.isSafeReturnTarget(returnTo) {
		return returnTo
	}
	if cookie, err := r.Cookie(returnToCookieName); err == nil && h.isSafeReturnTarget(cookie.Value) {
		return cookie.Value
	}
	return h.baseURL + "/"
}

// isSafeReturnTarget は戻り先URLが自サイト内かを検証する。
// オープンリダイレクト防止のため、ベースURLへの前方一致のみ許可する。
// 相対パスやプロトコル相対URL（"//host"）はすべて拒否する。
func (h *AuthHandler) isSafeReturnTarget(target string) bool {
	if target == "" {
		return false
	}
	return strings.HasPrefix(target, h.baseURL+"/") || target == h.baseURL
}

// clearReturnToCookie は戻り先Cookieを削除する。
func (h *AuthHandler) clearReturnToCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     returnToCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
