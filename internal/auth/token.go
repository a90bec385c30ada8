package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/newsdesk/internal/model"
)

const sessionTokenIssuer = "newsdesk"

// MinSessionSecretLength はセッショントークン署名鍵の最小バイト数。
const MinSessionSecretLength = 32

// SessionTokenCodec はセッションIDをHS256署名付きトークンとしてCookieに載せる。
// トークン自体は本人情報を持たず、jtiでサーバー側のセッションを参照する。
type SessionTokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewSessionTokenCodec はSessionTokenCodecを生成する。
func NewSessionTokenCodec(secret string) (*SessionTokenCodec, error) {
	if len(secret) < MinSessionSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSessionSecretLength)
	}
	return &SessionTokenCodec{secret: []byte(secret), now: time.Now}, nil
}

// Encode はセッションを署名付きトークンにする。
func (c *SessionTokenCodec) Encode(session *model.Session) (string, error) {
	if session == nil || session.ID == "" {
		return "", errors.New("session ID is required")
	}

	claims := jwt.RegisteredClaims{
		ID:        session.ID,
		Issuer:    sessionTokenIssuer,
		IssuedAt:  jwt.NewNumericDate(c.now()),
		ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Decode はトークンを検証し、セッションIDを返す。
func (c *SessionTokenCodec) Decode(raw string) (string, error) {
	if raw == "" {
		return "", errors.New("empty session token")
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(token *jwt.Token) (interface{}, error) {
			return c.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionTokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("invalid session token: %w", err)
	}
	if claims.ID == "" {
		return "", errors.New("invalid session token: missing jti")
	}
	return claims.ID, nil
}
