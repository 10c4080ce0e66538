package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

const (
	defaultAuthorizePath = "/oAuth2/authorize"
	defaultTokenPath     = "/oAuth2/token"
)

// McAuthConfig はMc-Authプロバイダーの設定。
type McAuthConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// テスト用に差し替え可能なHTTPクライアント
	HTTPClient *http.Client
}

// McAuthProvider はMc-AuthによるMinecraftアカウント認証を提供する。
// OAuth 2.0の認可コードフローに準拠するが、トークンエンドポイントは
// フォームではなくJSONボディを受け取り、トークンと同時にプロファイルを返す。
type McAuthProvider struct {
	config     McAuthConfig
	httpClient *http.Client
}

// NewMcAuthProvider はMcAuthProviderを生成する。
func NewMcAuthProvider(config McAuthConfig) *McAuthProvider {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &McAuthProvider{config: config, httpClient: httpClient}
}

// LoginURL は認可エンドポイントのURLを生成する。
// スコープはprofileのみを要求する。
func (p *McAuthProvider) LoginURL() string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {p.config.ClientID},
		"scope":         {"profile"},
		"redirect_uri":  {p.config.RedirectURL},
	}
	return p.config.BaseURL + defaultAuthorizePath + "?" + params.Encode()
}

// tokenRequest はトークンエンドポイントへのJSONリクエストボディ。
type tokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Code         string `json:"code"`
	RedirectURI  string `json:"redirect_uri"`
	GrantType    string `json:"grant_type"`
}

// tokenResponse はトークンエンドポイントのレスポンス。
// プロファイルは構造に依存しないようそのまま保持する。
type tokenResponse struct {
	Data struct {
		Profile json.RawMessage `json:"profile"`
	} `json:"data"`
}

// profileID はプロファイルからアカウントIDを取り出すための最小構造。
type profileID struct {
	ID string `json:"id"`
}

// ExchangeCode は認可コードをプロファイルに交換する。
// 返り値はアカウントIDと外部プロファイル（そのままのJSON）。
func (p *McAuthProvider) ExchangeCode(ctx context.Context, code string) (string, json.RawMessage, error) {
	reqBody, err := json.Marshal(tokenRequest{
		ClientID:     p.config.ClientID,
		ClientSecret: p.config.ClientSecret,
		Code:         code,
		RedirectURI:  p.config.RedirectURL,
		GrantType:    "authorization_code",
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to build token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.BaseURL+defaultTokenPath, bytes.NewReader(reqBody))
	if err != nil {
		return "", nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if len(tokenResp.Data.Profile) == 0 {
		return "", nil, fmt.Errorf("empty profile in token response")
	}

	var id profileID
	if err := json.Unmarshal(tokenResp.Data.Profile, &id); err != nil {
		return "", nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if id.ID == "" {
		return "", nil, fmt.Errorf("profile without account id in token response")
	}

	return id.ID, tokenResp.Data.Profile, nil
}

// compile-time interface check
var _ Provider = (*McAuthProvider)(nil)
