// Package policy はモデレーション権限の判定を提供する。
package policy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/hitoshi/newsdesk/internal/model"
)

// DefaultModeratorRoles はモデレーション権限を持つロールの既定値。
var DefaultModeratorRoles = []string{"admin", "moderator"}

// Policy はIdentityが特権操作を行えるかを判定する。
type Policy interface {
	// IsPrivileged は特権操作を許可する場合にtrueを返す。nilは常にfalse。
	IsPrivileged(ctx context.Context, identity *model.Identity) bool
}

// AllowList はロール名の完全一致で判定するポリシー。
type AllowList struct {
	roles map[string]struct{}
}

// NewAllowList はAllowListを生成する。空白のみのロール名は無視する。
func NewAllowList(roles []string) *AllowList {
	set := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		if r = strings.TrimSpace(r); r != "" {
			set[r] = struct{}{}
		}
	}
	return &AllowList{roles: set}
}

// IsPrivileged はIdentityのロールが許可リストに含まれるかを返す。
func (a *AllowList) IsPrivileged(_ context.Context, identity *model.Identity) bool {
	if identity == nil || identity.Username == "" {
		return false
	}
	_, ok := a.roles[identity.Username]
	return ok
}

// New は設定からポリシーを生成する。policyFileが空の場合はAllowListを返す。
func New(ctx context.Context, policyFile string, roles []string) (Policy, error) {
	if len(roles) == 0 {
		roles = DefaultModeratorRoles
	}
	if policyFile == "" {
		return NewAllowList(roles), nil
	}

	content, err := os.ReadFile(policyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}
	return NewRegoPolicy(ctx, string(content), roles)
}

// compile-time interface check
var _ Policy = (*AllowList)(nil)
