// Package skinapi は外部スキンデータベースAPIの型付きクライアントを提供する。
// 1メソッド=1リソース=1リクエストの対応を守り、リトライは行わない。
package skinapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skindb/skinfront/internal/metrics"
	"github.com/skindb/skinfront/internal/model"
)

// pathPrefix はフロントエンド向けAPIの固定パスプレフィックス。
const pathPrefix = "/skindb/frontend"

// Vote はタグ投票の値。APIは賛成・反対をJSON真偽値で、
// 解除のみ文字列 "unset" で受け取る。
type Vote string

const (
	VoteYes   Vote = "true"
	VoteNo    Vote = "false"
	VoteUnset Vote = "unset"
)

// wireValue はAPIへ送信するJSON値を返す。
func (v Vote) wireValue() any {
	switch v {
	case VoteYes:
		return true
	case VoteNo:
		return false
	default:
		return string(v)
	}
}

// Client はスキンAPIのHTTPクライアント。
//
// 成功/失敗の判定はHTTPステータスだけでなくレスポンスボディにも依存する:
// ボディがerrorフィールドを持つ場合、ステータスが200でも失敗として扱う。
// これは上流APIの仕様（変更不可の外部コラボレーター）への意図的な追従であり、
// 純粋なHTTPセマンティクスからの逸脱である。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	recorder   metrics.UpstreamRecorder // nil可
}

// NewClient はClientの新しいインスタンスを生成する。
// recorderがnilの場合、メトリクスは記録されない。
func NewClient(httpClient *http.Client, logger *slog.Logger, baseURL string, recorder metrics.UpstreamRecorder) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		baseURL:    baseURL,
		recorder:   recorder,
	}
}

// GetIndex は週間トップ10を取得する。
func (c *Client) GetIndex(ctx context.Context) (*model.Index, error) {
	var out model.Index
	if err := c.get(ctx, "index", "index", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetAccount は指定UUIDのアカウント情報を取得する。
func (c *Client) GetAccount(ctx context.Context, uuid string) (*model.Account, error) {
	var out model.Account
	if err := c.get(ctx, "account", "account/"+url.PathEscape(uuid), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSkin は指定IDのスキン詳細を取得する。
// viewerIDが空でない場合、閲覧者自身のタグ投票が含まれる。
func (c *Client) GetSkin(ctx context.Context, skinID string, viewerID string) (*model.Skin, error) {
	var query url.Values
	if viewerID != "" {
		query = url.Values{"viewer": {viewerID}}
	}

	var out model.Skin
	if err := c.get(ctx, "skin", "skin/"+url.PathEscape(skinID), query, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSkins はスキン一覧の指定ページを取得する。
func (c *Client) GetSkins(ctx context.Context, page int) (*model.SkinsPage, error) {
	var out model.SkinsPage
	if err := c.get(ctx, "skins", "skins", pageQuery(page, nil), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSearch は文字列クエリによる検索結果を取得する。
func (c *Client) GetSearch(ctx context.Context, q string, page int) (*model.Search, error) {
	var out model.Search
	if err := c.get(ctx, "search", "search", pageQuery(page, url.Values{"q": {q}}), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetSearchByImage はPNG画像による検索結果を取得する。
func (c *Client) GetSearchByImage(ctx context.Context, png []byte, page int) (*model.Search, error) {
	var out model.Search
	if err := c.do(ctx, http.MethodPost, "search_by_image", "search", pageQuery(page, nil), png, "image/png", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// tagVoteRequest はタグ投票リクエストのボディ。
// voteは真偽値または文字列 "unset"（Vote.wireValue参照）。
type tagVoteRequest struct {
	Viewer string `json:"viewer"`
	Tag    string `json:"tag"`
	Vote   any    `json:"vote"`
}

// SetTagVote は閲覧者のタグ投票を登録・解除する。
func (c *Client) SetTagVote(ctx context.Context, viewerID, skinID, tag string, vote Vote) error {
	body, err := json.Marshal(tagVoteRequest{
		Viewer: viewerID,
		Tag:    tag,
		Vote:   vote.wireValue(),
	})
	if err != nil {
		return fmt.Errorf("failed to build tag vote request: %w", err)
	}

	var out json.RawMessage
	return c.do(ctx, http.MethodPost, "tag_vote", "skin/"+url.PathEscape(skinID)+"/vote", nil, body, "application/json", &out)
}

// get はGETリクエストのショートカット。
func (c *Client) get(ctx context.Context, resource, suffix string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, resource, suffix, query, nil, "", out)
}

// pageQuery は正のページ番号をクエリに追加する。0以下は1として扱う。
func pageQuery(page int, query url.Values) url.Values {
	if query == nil {
		query = url.Values{}
	}
	if page < 1 {
		page = 1
	}
	query.Set("page", strconv.Itoa(page))
	return query
}

// errorProbe はレスポンスボディのエラーマーカー検出用の最小構造。
type errorProbe struct {
	Error   json.RawMessage     `json:"error"`
	Message string              `json:"message"`
	Details []model.ErrorDetail `json:"details"`
}

// do は1回のアウトバウンドHTTPリクエストを実行し、レスポンスJSONをoutにデコードする。
// 失敗分類: 接続不可は503、2xx以外はそのステータスのAPIError、
// ステータス200かつerrorマーカー付きボディは内部エラーとして上位で正規化される。
func (c *Client) do(ctx context.Context, method, resource, suffix string, query url.Values, body []byte, contentType string, out any) error {
	reqURL := c.baseURL + pathPrefix + "/" + suffix
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return fmt.Errorf("failed to create skin API request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if c.recorder != nil {
		c.recorder.RecordUpstreamLatency(time.Since(start))
	}
	if err != nil {
		c.record(resource, "unreachable")
		c.logger.Error("skin API is unreachable",
			slog.String("resource", resource),
			slog.String("error", err.Error()),
		)
		return model.NewServiceUnavailable("The skin database is currently unavailable")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(resource, "error")
		return fmt.Errorf("failed to read skin API response: %w", err)
	}

	var probe errorProbe
	// ボディがJSONですらない場合はprobeは空のまま（ステータスで判定される）
	_ = json.Unmarshal(respBody, &probe)

	if resp.StatusCode != http.StatusOK {
		c.record(resource, "error")

		message := probe.Message
		if message == "" {
			message = model.StatusName(resp.StatusCode)
		}
		return &model.APIError{
			Message:    message,
			HTTPStatus: resp.StatusCode,
			Details:    probe.Details,
		}
	}

	if probe.Error != nil {
		c.record(resource, "error")
		return fmt.Errorf("skin API returned an error payload with status 200: %s", probe.Message)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		c.record(resource, "error")
		return fmt.Errorf("failed to parse skin API response: %w", err)
	}

	c.record(resource, "success")
	return nil
}

func (c *Client) record(resource, outcome string) {
	if c.recorder != nil {
		c.recorder.RecordUpstreamCall(resource, outcome)
	}
}
