package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/newsdesk/internal/model"
)

const (
	discoveryPath    = "/.well-known/openid-configuration"
	defaultRoleClaim = "username"
)

// OIDCConfig はOIDCプロバイダーの設定。
type OIDCConfig struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string

	// RoleClaim はIdentity.Usernameに読み込むIDトークンのクレーム名。
	RoleClaim string

	// ブラウザ向けとバックチャネル向けでURLが異なる場合のオーバーライド。
	// 空の場合はディスカバリドキュメントの値を使う。
	AuthURL  string
	TokenURL string
	JWKSURL  string

	HTTPClient *http.Client
}

// OIDCProvider はOpenID Connectの認可コードフローを提供する。
type OIDCProvider struct {
	config OIDCConfig
	client *http.Client
	now    func() time.Time

	mu        sync.Mutex
	endpoints *oidcEndpoints
	keys      map[string]*rsa.PublicKey
}

type oidcEndpoints struct {
	AuthURL  string
	TokenURL string
	JWKSURL  string
}

type discoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	JWKSURI               string `json:"jwks_uri"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	IDToken     string `json:"id_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// NewOIDCProvider はOIDCProviderを生成する。ディスカバリは初回利用時に行う。
func NewOIDCProvider(config OIDCConfig) *OIDCProvider {
	client := config.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if config.RoleClaim == "" {
		config.RoleClaim = defaultRoleClaim
	}
	return &OIDCProvider{
		config: config,
		client: client,
		now:    time.Now,
	}
}

// AuthCodeURL は認可エンドポイントへのリダイレクトURLを生成する。
func (p *OIDCProvider) AuthCodeURL(ctx context.Context, state, nonce string) (string, error) {
	if state == "" || nonce == "" {
		return "", errors.New("state and nonce are required")
	}

	endpoints, err := p.resolveEndpoints(ctx)
	if err != nil {
		return "", err
	}

	params := url.Values{
		"client_id":     {p.config.ClientID},
		"redirect_uri":  {p.config.RedirectURL},
		"response_type": {"code"},
		"scope":         {strings.Join(scopesOrDefault(p.config.Scopes), " ")},
		"state":         {state},
		"nonce":         {nonce},
	}

	sep := "?"
	if strings.Contains(endpoints.AuthURL, "?") {
		sep = "&"
	}
	return endpoints.AuthURL + sep + params.Encode(), nil
}

// ExchangeCode は認可コードをトークンに交換し、検証済みIDトークンからIdentityを取り出す。
func (p *OIDCProvider) ExchangeCode(ctx context.Context, code, nonce string) (*model.Identity, error) {
	if code == "" {
		return nil, errors.New("authorization code is required")
	}

	endpoints, err := p.resolveEndpoints(ctx)
	if err != nil {
		return nil, err
	}

	tokenResp, err := p.exchangeToken(ctx, endpoints.TokenURL, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	claims, err := p.verifyIDToken(ctx, endpoints.JWKSURL, tokenResp.IDToken)
	if err != nil {
		return nil, fmt.Errorf("failed to verify id_token: %w", err)
	}

	if nonce != "" && stringClaim(claims, "nonce") != nonce {
		return nil, errors.New("nonce mismatch")
	}

	identity := &model.Identity{
		Subject:  stringClaim(claims, "sub"),
		Email:    strings.TrimSpace(stringClaim(claims, "email")),
		Username: stringClaim(claims, p.config.RoleClaim),
	}
	if identity.Subject == "" {
		return nil, errors.New("id_token missing sub")
	}
	if identity.Email == "" {
		return nil, errors.New("id_token missing email")
	}

	return identity, nil
}

// resolveEndpoints は設定値を優先し、不足分をディスカバリで補う。
func (p *OIDCProvider) resolveEndpoints(ctx context.Context) (*oidcEndpoints, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.endpoints != nil {
		return p.endpoints, nil
	}

	ep := &oidcEndpoints{
		AuthURL:  p.config.AuthURL,
		TokenURL: p.config.TokenURL,
		JWKSURL:  p.config.JWKSURL,
	}

	if ep.AuthURL == "" || ep.TokenURL == "" || ep.JWKSURL == "" {
		doc, err := p.discover(ctx)
		if err != nil {
			return nil, err
		}
		if ep.AuthURL == "" {
			ep.AuthURL = doc.AuthorizationEndpoint
		}
		if ep.TokenURL == "" {
			ep.TokenURL = doc.TokenEndpoint
		}
		if ep.JWKSURL == "" {
			ep.JWKSURL = doc.JWKSURI
		}
	}

	if ep.AuthURL == "" || ep.TokenURL == "" || ep.JWKSURL == "" {
		return nil, errors.New("oidc endpoints are not fully configured")
	}

	p.endpoints = ep
	return ep, nil
}

// discover はIssuerのディスカバリドキュメントを取得する。
func (p *OIDCProvider) discover(ctx context.Context) (*discoveryDocument, error) {
	if p.config.Issuer == "" {
		return nil, errors.New("oidc issuer is required for discovery")
	}
	discoveryURL := strings.TrimRight(p.config.Issuer, "/") + discoveryPath

	body, err := p.get(ctx, discoveryURL)
	if err != nil {
		return nil, fmt.Errorf("oidc discovery failed: %w", err)
	}

	var doc discoveryDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}
	if doc.Issuer != "" && strings.TrimRight(doc.Issuer, "/") != strings.TrimRight(p.config.Issuer, "/") {
		return nil, fmt.Errorf("issuer mismatch: got %s, want %s", doc.Issuer, p.config.Issuer)
	}
	return &doc, nil
}

// exchangeToken は認可コードをトークンエンドポイントでトークンに交換する。
func (p *OIDCProvider) exchangeToken(ctx context.Context, tokenURL, code string) (*tokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
		"grant_type":    {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tokenResp tokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.IDToken == "" {
		return nil, errors.New("empty id_token in response")
	}

	return &tokenResp, nil
}

// verifyIDToken はIDトークンの署名、発行者、対象者、有効期限を検証する。
func (p *OIDCProvider) verifyIDToken(ctx context.Context, jwksURL, raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(token *jwt.Token) (interface{}, error) {
			kid, _ := token.Header["kid"].(string)
			return p.publicKey(ctx, jwksURL, kid)
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(p.config.Issuer),
		jwt.WithAudience(p.config.ClientID),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(30*time.Second),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// publicKey はkidに対応する公開鍵を返す。未知のkidの場合はJWKSを再取得する。
func (p *OIDCProvider) publicKey(ctx context.Context, jwksURL, kid string) (*rsa.PublicKey, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if key, ok := lookupKey(p.keys, kid); ok {
		return key, nil
	}

	body, err := p.get(ctx, jwksURL)
	if err != nil {
		return nil, fmt.Errorf("jwks fetch failed: %w", err)
	}
	keys, err := parseJWKS(body)
	if err != nil {
		return nil, err
	}
	p.keys = keys

	key, ok := lookupKey(keys, kid)
	if !ok {
		return nil, fmt.Errorf("unknown key id: %q", kid)
	}
	return key, nil
}

func (p *OIDCProvider) get(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func scopesOrDefault(scopes []string) []string {
	out := make([]string, 0, len(scopes))
	for _, s := range scopes {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return []string{"openid", "email", "profile"}
	}
	return out
}

// compile-time interface check
var _ IdentityProvider = (*OIDCProvider)(nil)
