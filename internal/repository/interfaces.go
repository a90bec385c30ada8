// Package repository はデータ永続化のインターフェースと実装を提供する。
package repository

import (
	"context"

	"github.com/hitoshi/newsdesk/internal/model"
)

// CommentRepository はコメントデータの永続化インターフェース。
type CommentRepository interface {
	// Insert はコメントを追加し、採番したIDを返す。重複排除は行わない。
	Insert(ctx context.Context, comment *model.Comment) (string, error)

	// FindByArticle は記事タイトルに一致するコメントをストアの返す順序で取得する。
	// 呼び出しごとに問い合わせ直し、キャッシュしない。
	FindByArticle(ctx context.Context, articleTitle string) ([]*model.Comment, error)

	// SetFlag は(記事タイトル, 投稿者)に一致するコメントのフラグをtrueにする。
	// scopeがModerationScopeAllなら一致する全件、ModerationScopeFirstなら最も古い1件を更新する。
	// 一致した件数を返す。falseに戻す操作は提供しない。
	SetFlag(ctx context.Context, articleTitle, authorEmail string, flag model.CommentFlag, scope model.ModerationScope) (int64, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。存在しないか期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
}
