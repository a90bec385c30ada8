// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"net/http"

	"github.com/hitoshi/newsdesk/internal/model"
)

// SessionCookieName はセッショントークンを載せるCookie名。
const SessionCookieName = "newsdesk_session"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// identityContextKey はリクエストコンテキストに本人情報を格納するためのキー。
var identityContextKey = contextKey("identity")

// IdentityResolver はセッショントークンから本人情報を解決するインターフェース。
// 匿名の場合はnilを返す。
type IdentityResolver interface {
	CurrentIdentity(ctx context.Context, token string) *model.Identity
}

// NewSessionMiddleware はCookieのセッショントークンから本人情報を解決し、
// リクエストコンテキストに注入するミドルウェアを返す。
// 匿名リクエストも拒否せずに通し、認可はハンドラー側で判断する。
func NewSessionMiddleware(resolver IdentityResolver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			identity := resolver.CurrentIdentity(r.Context(), cookie.Value)
			if identity == nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// IdentityFromContext はリクエストコンテキストから本人情報を取得する。
// 匿名の場合はnilを返す。
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, _ := ctx.Value(identityContextKey).(*model.Identity)
	return identity
}

// ContextWithIdentity はコンテキストに本人情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}
