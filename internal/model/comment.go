package model

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// RemovedCommentText は削除済みコメントの代わりに表示する文言。
const RemovedCommentText = "COMMENT REMOVED BY MODERATOR"

// RedactionGlyph は墨消し表示で元の1文字を置き換える文字。
const RedactionGlyph = "█"

// Comment は記事に付くコメントを表す。
// Author、Content、CreatedAtは作成後に変更しない。
// DeletedとRedactedはtrueにのみ遷移するフラグ。
type Comment struct {
	ID           string
	ArticleTitle string
	Author       string // 投稿者のメールアドレス
	Content      string
	CreatedAt    time.Time
	Deleted      bool
	Redacted     bool
}

// CommentView は一覧表示用に描画済みのコメント。
type CommentView struct {
	User    string `json:"user"`
	Content string `json:"content"`
}

// Render は表示ポリシーに従ってコメントを描画する。
// 削除フラグは墨消しフラグより優先される。
func (c *Comment) Render() CommentView {
	return CommentView{
		User:    c.Author,
		Content: c.RenderedContent(),
	}
}

// RenderedContent は表示用の本文を返す。
func (c *Comment) RenderedContent() string {
	switch {
	case c.Deleted:
		return RemovedCommentText
	case c.Redacted:
		return strings.Repeat(RedactionGlyph, utf8.RuneCountInString(c.Content))
	default:
		return c.Content
	}
}

// CommentFlag はモデレーションで立てるフラグの種類。
type CommentFlag string

const (
	FlagDeleted  CommentFlag = "deleted"
	FlagRedacted CommentFlag = "redacted"
)

// Validate は既知のフラグかどうかを検証する。
func (f CommentFlag) Validate() error {
	switch f {
	case FlagDeleted, FlagRedacted:
		return nil
	default:
		return fmt.Errorf("unknown comment flag: %q", string(f))
	}
}

// ModerationScope はモデレーション操作が対象とするコメントの範囲。
// コメントは(記事タイトル, 投稿者)で指定されるため、同じ組に複数のコメントがありうる。
type ModerationScope string

const (
	// ModerationScopeAll は一致するすべてのコメントを対象にする。
	ModerationScopeAll ModerationScope = "all"
	// ModerationScopeFirst は一致するうち最も古い1件だけを対象にする。
	ModerationScopeFirst ModerationScope = "first"
)

// ParseModerationScope は設定値をModerationScopeに変換する。
func ParseModerationScope(s string) (ModerationScope, error) {
	switch ModerationScope(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModerationScopeAll:
		return ModerationScopeAll, nil
	case ModerationScopeFirst:
		return ModerationScopeFirst, nil
	default:
		return "", fmt.Errorf("invalid moderation scope: %q", s)
	}
}
