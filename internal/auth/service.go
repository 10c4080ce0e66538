// Package auth はOAuth風認証フローとセッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/skindb/skinfront/internal/model"
	"github.com/skindb/skinfront/internal/repository"
)

// Provider はOAuth風IDプロバイダーのインターフェース。
// Mc-Auth以外のプロバイダーへの差し替えを可能にするための抽象化。
type Provider interface {
	// LoginURL は認可エンドポイントのURLを生成する。
	LoginURL() string
	// ExchangeCode は認可コードをアカウントIDとプロファイルに交換する。
	ExchangeCode(ctx context.Context, code string) (string, json.RawMessage, error)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
// セッションはレスポンス送信前に必ず永続化される（非同期書き込みはしない）。
type Service struct {
	provider    Provider
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(provider Provider, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		provider:    provider,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// LoginURL はIDプロバイダーの認可URLを返す。
func (s *Service) LoginURL() string {
	return s.provider.LoginURL()
}

// HandleCallback はOAuthコールバックを処理し、セッションを発行する。
// 認可コードをプロファイルに交換し、セッション行を作成してから返る。
func (s *Service) HandleCallback(ctx context.Context, code string) (*model.Session, error) {
	accountID, profile, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		AccountID: accountID,
		Profile:   profile,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	slog.Info("user logged in", slog.String("account_id", accountID))
	return session, nil
}

// Logout はセッションを破棄する。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out")
	return nil
}

// CurrentSession はセッションIDから有効なセッションを取得する。
// 見つからない・期限切れの場合はnilを返す（エラーにはしない）。
func (s *Service) CurrentSession(ctx context.Context, sessionID string) (*model.Session, error) {
	if sessionID == "" {
		return nil, nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
