// Package comment は記事コメントの投稿、一覧、モデレーションのドメインロジックを提供する。
package comment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/newsdesk/internal/model"
	"github.com/hitoshi/newsdesk/internal/policy"
	"github.com/hitoshi/newsdesk/internal/repository"
)

const (
	actionDelete = "delete"
	actionRedact = "redact"
)

// MetricsRecorder はコメント操作のメトリクスを記録するインターフェース。
type MetricsRecorder interface {
	RecordCommentPosted()
	RecordModeration(action string, affected int64)
}

// Service はコメントのサービス層。
// 投稿にはセッション、削除と墨消しには特権ロールを要求する。
type Service struct {
	repo     repository.CommentRepository
	policy   policy.Policy
	scope    model.ModerationScope
	recorder MetricsRecorder
	now      func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。recorderはnilでもよい。
func NewService(
	repo repository.CommentRepository,
	pol policy.Policy,
	scope model.ModerationScope,
	recorder MetricsRecorder,
) *Service {
	if scope == "" {
		scope = model.ModerationScopeAll
	}
	return &Service{
		repo:     repo,
		policy:   pol,
		scope:    scope,
		recorder: recorder,
		now:      time.Now,
	}
}

// Post はログイン中のユーザーとしてコメントを投稿する。
// 投稿者はセッションのメールアドレスで、リクエストの内容からは決めない。
func (s *Service) Post(ctx context.Context, identity *model.Identity, articleTitle, content string) (*model.Comment, error) {
	if identity == nil {
		return nil, model.NewUnauthorizedError()
	}

	c := &model.Comment{
		ArticleTitle: articleTitle,
		Author:       identity.Email,
		Content:      content,
		CreatedAt:    s.now().UTC(),
	}

	id, err := s.repo.Insert(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to post comment: %w", err)
	}
	c.ID = id

	if s.recorder != nil {
		s.recorder.RecordCommentPosted()
	}
	slog.Info("comment posted",
		slog.String("comment_id", id),
		slog.String("article_title", articleTitle),
		slog.String("user", identity.Email),
	)
	return c, nil
}

// List は記事のコメントを描画済みの形で返す。認証は不要。
// コメントがない場合は空スライスを返す。
func (s *Service) List(ctx context.Context, articleTitle string) ([]model.CommentView, error) {
	comments, err := s.repo.FindByArticle(ctx, articleTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	views := make([]model.CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, c.Render())
	}
	return views, nil
}

// Delete は(記事タイトル, 投稿者)に一致するコメントを論理削除する。
// 一致するコメントがなくても成功として扱い、対象件数を返す。
func (s *Service) Delete(ctx context.Context, identity *model.Identity, articleTitle, authorEmail string) (int64, error) {
	return s.moderate(ctx, identity, articleTitle, authorEmail, model.FlagDeleted, actionDelete)
}

// Redact は(記事タイトル, 投稿者)に一致するコメントを墨消しする。
// 一致するコメントがなくても成功として扱い、対象件数を返す。
func (s *Service) Redact(ctx context.Context, identity *model.Identity, articleTitle, authorEmail string) (int64, error) {
	return s.moderate(ctx, identity, articleTitle, authorEmail, model.FlagRedacted, actionRedact)
}

func (s *Service) moderate(
	ctx context.Context,
	identity *model.Identity,
	articleTitle, authorEmail string,
	flag model.CommentFlag,
	action string,
) (int64, error) {
	if !s.policy.IsPrivileged(ctx, identity) {
		return 0, model.NewForbiddenError()
	}

	n, err := s.repo.SetFlag(ctx, articleTitle, authorEmail, flag, s.scope)
	if err != nil {
		return 0, fmt.Errorf("failed to %s comments: %w", action, err)
	}

	if s.recorder != nil {
		s.recorder.RecordModeration(action, n)
	}
	slog.Info("comments moderated",
		slog.String("action", action),
		slog.String("article_title", articleTitle),
		slog.String("target_user", authorEmail),
		slog.String("moderator", identity.Email),
		slog.Int64("affected", n),
		slog.String("scope", string(s.scope)),
	)
	return n, nil
}
