package model

import (
	"encoding/json"
	"time"
)

// Session はログインセッションを表す。
// ProfileはIDプロバイダーから取得した外部プロファイルをそのまま保持する
// （中身の構造には依存しない）。
type Session struct {
	ID        string
	AccountID string
	Profile   json.RawMessage
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired はセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// ProfileName は保持している外部プロファイルから表示名を取り出す。
// プロファイルが名前を含まない場合は空文字列を返す。
func (s *Session) ProfileName() string {
	var p struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(s.Profile, &p); err != nil {
		return ""
	}
	return p.Name
}
