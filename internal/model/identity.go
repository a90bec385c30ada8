// Package model はドメインモデルを定義する。
package model

import "time"

// Identity はOIDCログインで確立されたセッションの利用者情報を表す。
// IDトークンのクレームから生成され、セッションの存続期間中は変更しない。
type Identity struct {
	Subject  string // IDトークンの sub
	Email    string
	Username string // 権限判定に使うロール指標
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	Identity  Identity
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Expired はnow時点でセッションが期限切れかどうかを返す。
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
