package policy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/newsdesk/internal/model"
	"github.com/open-policy-agent/opa/rego"
)

const regoQuery = "data.moderation.allow"

// DefaultRegoModule は許可リストと同じ判定をするRegoモジュール。
// MODERATION_POLICY_FILEで置き換える場合もpackage moderationのallowを定義する。
const DefaultRegoModule = `
package moderation

default allow = false

allow {
	input.role != ""
	input.role == input.moderator_roles[_]
}
`

// RegoPolicy はOPAのRegoで判定するポリシー。
type RegoPolicy struct {
	query rego.PreparedEvalQuery
	roles []string
}

// NewRegoPolicy はRegoモジュールを準備してRegoPolicyを生成する。
func NewRegoPolicy(ctx context.Context, module string, roles []string) (*RegoPolicy, error) {
	r := rego.New(
		rego.Query(regoQuery),
		rego.Module("moderation.rego", module),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &RegoPolicy{query: query, roles: append([]string(nil), roles...)}, nil
}

// IsPrivileged はallowルールを評価する。評価エラーや真偽値以外の結果は拒否として扱う。
func (p *RegoPolicy) IsPrivileged(ctx context.Context, identity *model.Identity) bool {
	if identity == nil {
		return false
	}

	results, err := p.query.Eval(ctx, rego.EvalInput(p.input(identity)))
	if err != nil {
		slog.Error("failed to evaluate moderation policy",
			slog.String("email", identity.Email),
			slog.String("error", err.Error()),
		)
		return false
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false
	}

	allowed, ok := results[0].Expressions[0].Value.(bool)
	return ok && allowed
}

func (p *RegoPolicy) input(identity *model.Identity) map[string]interface{} {
	roles := make([]interface{}, len(p.roles))
	for i, r := range p.roles {
		roles[i] = r
	}
	return map[string]interface{}{
		"role":            identity.Username,
		"email":           identity.Email,
		"subject":         identity.Subject,
		"moderator_roles": roles,
	}
}

// compile-time interface check
var _ Policy = (*RegoPolicy)(nil)
