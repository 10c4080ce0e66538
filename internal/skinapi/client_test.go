package skinapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/skindb/skinfront/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestClient(serverURL string) *Client {
	return NewClient(&http.Client{Timeout: 5 * time.Second}, discardLogger(), serverURL, nil)
}

// 正常系: 200かつerrorマーカーなしのボディがデコードされることを検証
func TestClient_GetIndex_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/skindb/frontend/index" {
			t.Errorf("path = %q, want /skindb/frontend/index", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"top_ten":[{"id":"1","count":9}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	index, err := client.GetIndex(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(index.TopTen) != 1 || index.TopTen[0].ID != "1" {
		t.Errorf("TopTen = %+v", index.TopTen)
	}
}

// ステータス200でもボディにerrorフィールドがあれば失敗扱いになることを検証
func TestClient_ErrorMarkerOn200_IsFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error":"Internal Server Error","message":"something broke"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetIndex(context.Background())
	if err == nil {
		t.Fatal("expected error for 200 response carrying an error marker")
	}

	// APIErrorではない素のエラーとして返り、上位の正規化で500になる
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("error marker on 200 should not produce an APIError, got %+v", apiErr)
	}
}

// 2xx以外のステータスは上流のステータスを保持したAPIErrorになることを検証
func TestClient_Non200_PropagatesUpstreamStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"Not Found","message":"Profile for given user"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetAccount(context.Background(), "069a79f4-44e9-4726-a5be-fca90e38aaf5")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.HTTPStatus != http.StatusNotFound {
		t.Errorf("HTTPStatus = %d, want 404", apiErr.HTTPStatus)
	}
	if apiErr.Message != "Profile for given user" {
		t.Errorf("Message = %q, want upstream message", apiErr.Message)
	}
}

// 上流がメッセージを返さない場合はステータス名にフォールバックすることを検証
func TestClient_Non200_WithoutMessage_UsesStatusName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.GetSkins(context.Background(), 1)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.Message != "Bad Gateway" {
		t.Errorf("Message = %q, want %q", apiErr.Message, "Bad Gateway")
	}
}

// 接続不可は503のAPIErrorに変換されることを検証
func TestClient_Unreachable_Returns503(t *testing.T) {
	// 既に閉じたサーバーのURLを使う
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := newTestClient(url)
	_, err := client.GetIndex(context.Background())

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected APIError, got %v", err)
	}
	if apiErr.HTTPStatus != http.StatusServiceUnavailable {
		t.Errorf("HTTPStatus = %d, want 503", apiErr.HTTPStatus)
	}
}

// viewerパラメータはログイン時のみ付与されることを検証
func TestClient_GetSkin_ViewerParam(t *testing.T) {
	var gotViewer []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotViewer = r.URL.Query()["viewer"]
		w.Write([]byte(`{"skin":{"id":"42"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	if _, err := client.GetSkin(context.Background(), "42", ""); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(gotViewer) != 0 {
		t.Errorf("viewer = %v, want absent for logged-out request", gotViewer)
	}

	if _, err := client.GetSkin(context.Background(), "42", "account-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(gotViewer) != 1 || gotViewer[0] != "account-1" {
		t.Errorf("viewer = %v, want [account-1]", gotViewer)
	}
}

// 画像検索はPOSTでPNGボディとContent-Typeを送ることを検証
func TestClient_GetSearchByImage(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("Content-Type = %q, want image/png", ct)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != string(png) {
			t.Error("request body should be the PNG bytes")
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page = %q, want 2", r.URL.Query().Get("page"))
		}
		w.Write([]byte(`{"profiles":{},"skins":{"hits":[],"page":2,"hasNextPage":false}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	result, err := client.GetSearchByImage(context.Background(), png, 2)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Skins.Page != 2 {
		t.Errorf("Page = %d, want 2", result.Skins.Page)
	}
}

// タグ投票はJSONボディで閲覧者・タグ・投票値を送ることを検証
func TestClient_SetTagVote(t *testing.T) {
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/skindb/frontend/skin/42/vote" {
			t.Errorf("path = %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if err := client.SetTagVote(context.Background(), "account-1", "42", "cool", VoteYes); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	want := `{"viewer":"account-1","tag":"cool","vote":true}`
	if gotBody != want {
		t.Errorf("body = %s, want %s", gotBody, want)
	}
}

// 投票値のJSON型: 賛成・反対は真偽値、解除のみ文字列であることを検証
func TestClient_SetTagVote_WireTypes(t *testing.T) {
	tests := []struct {
		vote Vote
		want any
	}{
		{VoteYes, true},
		{VoteNo, false},
		{VoteUnset, "unset"},
	}

	for _, tt := range tests {
		t.Run(string(tt.vote), func(t *testing.T) {
			var gotVote any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
					t.Fatalf("failed to decode request body: %v", err)
				}
				gotVote = body["vote"]
				w.Write([]byte(`{}`))
			}))
			defer server.Close()

			client := newTestClient(server.URL)
			if err := client.SetTagVote(context.Background(), "account-1", "42", "cool", tt.vote); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotVote != tt.want {
				t.Errorf("vote = %v (%T), want %v (%T)", gotVote, gotVote, tt.want, tt.want)
			}
		})
	}
}

// ページ番号が1未満の場合は1に丸められることを検証
func TestPageQuery_ClampsToOne(t *testing.T) {
	q := pageQuery(0, nil)
	if q.Get("page") != "1" {
		t.Errorf("page = %q, want 1", q.Get("page"))
	}
	q = pageQuery(-5, nil)
	if q.Get("page") != "1" {
		t.Errorf("page = %q, want 1", q.Get("page"))
	}
}
