// Package auth はOIDC認証フロー、セッション管理を提供する。
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/newsdesk/internal/model"
	"github.com/hitoshi/newsdesk/internal/repository"
)

// IdentityProvider はOIDC認証プロバイダーのインターフェース。
type IdentityProvider interface {
	// AuthCodeURL は認可エンドポイントへのリダイレクトURLを生成する。
	AuthCodeURL(ctx context.Context, state, nonce string) (string, error)
	// ExchangeCode は認可コードを交換し、IDトークンから本人情報を取り出す。
	ExchangeCode(ctx context.Context, code, nonce string) (*model.Identity, error)
}

// LoginRecorder はログイン結果を記録するインターフェース。
type LoginRecorder interface {
	RecordLogin(result string)
}

// ServiceConfig は認証サービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	idp         IdentityProvider
	sessionRepo repository.SessionRepository
	tokens      *SessionTokenCodec
	config      ServiceConfig
	recorder    LoginRecorder
	now         func() time.Time
}

// NewService はServiceを生成する。recorderはnilでもよい。
func NewService(
	idp IdentityProvider,
	sessionRepo repository.SessionRepository,
	tokens *SessionTokenCodec,
	config ServiceConfig,
	recorder LoginRecorder,
) *Service {
	return &Service{
		idp:         idp,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		config:      config,
		recorder:    recorder,
		now:         time.Now,
	}
}

// LoginURL はOIDC認可URLを生成する。
func (s *Service) LoginURL(ctx context.Context, state, nonce string) (string, error) {
	return s.idp.AuthCodeURL(ctx, state, nonce)
}

// HandleCallback は認可コードを交換してセッションを発行し、Cookieに載せるトークンを返す。
func (s *Service) HandleCallback(ctx context.Context, code, nonce string) (*model.Session, string, error) {
	identity, err := s.idp.ExchangeCode(ctx, code, nonce)
	if err != nil {
		s.recordLogin("failure")
		return nil, "", fmt.Errorf("failed to exchange oidc code: %w", err)
	}

	now := s.now().UTC()
	session := &model.Session{
		ID:        uuid.New().String(),
		Identity:  *identity,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		s.recordLogin("failure")
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}

	token, err := s.tokens.Encode(session)
	if err != nil {
		s.recordLogin("failure")
		return nil, "", err
	}

	s.recordLogin("success")
	slog.Info("user logged in",
		slog.String("session_id", session.ID),
		slog.String("email", identity.Email),
	)
	return session, token, nil
}

// Logout はトークンが指すセッションを破棄する。無効なトークンは何もしない。
func (s *Service) Logout(ctx context.Context, token string) error {
	sessionID, err := s.tokens.Decode(token)
	if err != nil {
		return nil
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentIdentity はトークンから現在の本人情報を取得する。
// 匿名の場合はnilを返す。参照の失敗はログに残して匿名として扱う。
func (s *Service) CurrentIdentity(ctx context.Context, token string) *model.Identity {
	if token == "" {
		return nil
	}

	sessionID, err := s.tokens.Decode(token)
	if err != nil {
		slog.Debug("rejected session token", slog.String("error", err.Error()))
		return nil
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		slog.Error("failed to find session",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if session == nil || session.Expired(s.now()) {
		return nil
	}

	identity := session.Identity
	return &identity
}

func (s *Service) recordLogin(result string) {
	if s.recorder != nil {
		s.recorder.RecordLogin(result)
	}
}

// GenerateRandomToken はstateやnonceに使う暗号的に安全なランダム値を生成する。
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
