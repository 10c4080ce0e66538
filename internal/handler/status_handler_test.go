package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type mockPinger struct {
	err error
}

func (m *mockPinger) PingContext(ctx context.Context) error {
	return m.err
}

// /statusは固定レスポンスをキャッシュ禁止ヘッダー付きで返すことを検証
func TestStatus_OKWithNoCache(t *testing.T) {
	router := newTestRouter(t, &mockSkinAPI{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache, no-store, must-revalidate" {
		t.Errorf("Cache-Control = %q", cc)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["api"] != "OK" {
		t.Errorf("api = %q, want OK", body["api"])
	}
}

func TestHealth_DatabaseOK(t *testing.T) {
	h := NewStatusHandler(&mockPinger{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	if err := h.Health(w, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["database"] != "ok" {
		t.Errorf("database = %q, want ok", body["database"])
	}
}

func TestHealth_DatabaseUnreachable_503(t *testing.T) {
	h := NewStatusHandler(&mockPinger{err: errors.New("connection refused")})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	if err := h.Health(w, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

// セッションレスモードではdatabase項目がdisabledになることを検証
func TestHealth_SessionlessMode_Disabled(t *testing.T) {
	h := NewStatusHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	if err := h.Health(w, req); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("expected JSON body: %v", err)
	}
	if body["database"] != "disabled" {
		t.Errorf("database = %q, want disabled", body["database"])
	}
}
