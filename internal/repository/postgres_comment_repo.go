package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/hitoshi/newsdesk/internal/model"
)

// PostgresCommentRepo はPostgreSQLを使用したコメントリポジトリ。
type PostgresCommentRepo struct {
	db *sql.DB
}

// NewPostgresCommentRepo はPostgresCommentRepoを生成する。
func NewPostgresCommentRepo(db *sql.DB) *PostgresCommentRepo {
	return &PostgresCommentRepo{db: db}
}

// Insert はコメントを追加する。IDが空の場合はUUIDを採番する。
func (r *PostgresCommentRepo) Insert(ctx context.Context, comment *model.Comment) (string, error) {
	if comment.ID == "" {
		comment.ID = uuid.New().String()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, article_title, author, content, created_at, deleted, redacted)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		comment.ID, comment.ArticleTitle, comment.Author, comment.Content,
		comment.CreatedAt, comment.Deleted, comment.Redacted,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert comment: %w", err)
	}
	return comment.ID, nil
}

// FindByArticle は記事タイトルに一致するコメントを取得する。
// 並び順は指定しない。
func (r *PostgresCommentRepo) FindByArticle(ctx context.Context, articleTitle string) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, article_title, author, content, created_at, deleted, redacted
		 FROM comments
		 WHERE article_title = $1`,
		articleTitle,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []*model.Comment{}
	for rows.Next() {
		c := &model.Comment{}
		if err := rows.Scan(&c.ID, &c.ArticleTitle, &c.Author, &c.Content, &c.CreatedAt, &c.Deleted, &c.Redacted); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// SetFlag は一致するコメントのフラグをtrueにする。
func (r *PostgresCommentRepo) SetFlag(ctx context.Context, articleTitle, authorEmail string, flag model.CommentFlag, scope model.ModerationScope) (int64, error) {
	query, err := buildSetFlagQuery(flag, scope)
	if err != nil {
		return 0, err
	}

	result, err := r.db.ExecContext(ctx, query, articleTitle, authorEmail)
	if err != nil {
		return 0, fmt.Errorf("failed to set comment flag %s: %w", flag, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// buildSetFlagQuery はフラグとスコープからUPDATE文を組み立てる。
// カラム名は既知のフラグからのみ決まる。
func buildSetFlagQuery(flag model.CommentFlag, scope model.ModerationScope) (string, error) {
	if err := flag.Validate(); err != nil {
		return "", err
	}
	column := string(flag)

	switch scope {
	case model.ModerationScopeAll, "":
		return fmt.Sprintf(
			`UPDATE comments SET %s = TRUE WHERE article_title = $1 AND author = $2`,
			column,
		), nil
	case model.ModerationScopeFirst:
		return fmt.Sprintf(
			`UPDATE comments SET %s = TRUE
			 WHERE id = (
			   SELECT id FROM comments
			   WHERE article_title = $1 AND author = $2
			   ORDER BY created_at, id
			   LIMIT 1
			 )`,
			column,
		), nil
	default:
		return "", fmt.Errorf("unknown moderation scope: %q", string(scope))
	}
}

// compile-time interface check
var _ CommentRepository = (*PostgresCommentRepo)(nil)
