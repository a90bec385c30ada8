package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hitoshi/newsdesk/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentsCollection はコメントを格納するMongoDBコレクション名。
const CommentsCollection = "comments"

// commentDocument はcommentsコレクションのドキュメント形式。
// フィールド名は既存のコレクションと互換にしている。
type commentDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	ArticleTitle string             `bson:"articleTitle"`
	User         string             `bson:"user"`
	Content      string             `bson:"content"`
	CreatedAt    time.Time          `bson:"createdAt"`
	Deleted      bool               `bson:"deleted"`
	Redacted     bool               `bson:"redacted"`
}

// MongoCommentRepo はMongoDBを使用したコメントリポジトリ。
type MongoCommentRepo struct {
	coll *mongo.Collection
}

// NewMongoCommentRepo はMongoCommentRepoを生成する。
func NewMongoCommentRepo(db *mongo.Database) *MongoCommentRepo {
	return &MongoCommentRepo{coll: db.Collection(CommentsCollection)}
}

// Insert はコメントドキュメントを追加し、ObjectIDの16進表現を返す。
func (r *MongoCommentRepo) Insert(ctx context.Context, comment *model.Comment) (string, error) {
	doc := toCommentDocument(comment)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", fmt.Errorf("failed to insert comment: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	comment.ID = oid.Hex()
	return comment.ID, nil
}

// FindByArticle は記事タイトルに一致するコメントをコレクションの自然順で取得する。
func (r *MongoCommentRepo) FindByArticle(ctx context.Context, articleTitle string) ([]*model.Comment, error) {
	cursor, err := r.coll.Find(ctx, bson.M{"articleTitle": articleTitle})
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer cursor.Close(ctx)

	comments := []*model.Comment{}
	for cursor.Next(ctx) {
		var doc commentDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode comment: %w", err)
		}
		comments = append(comments, doc.toModel())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate comments: %w", err)
	}

	return comments, nil
}

// SetFlag は一致するコメントのフラグを$setでtrueにする。
func (r *MongoCommentRepo) SetFlag(ctx context.Context, articleTitle, authorEmail string, flag model.CommentFlag, scope model.ModerationScope) (int64, error) {
	update, err := flagUpdate(flag)
	if err != nil {
		return 0, err
	}
	filter := moderationFilter(articleTitle, authorEmail)

	switch scope {
	case model.ModerationScopeAll, "":
		res, err := r.coll.UpdateMany(ctx, filter, update)
		if err != nil {
			return 0, fmt.Errorf("failed to set comment flag %s: %w", flag, err)
		}
		return res.MatchedCount, nil
	case model.ModerationScopeFirst:
		opts := options.FindOneAndUpdate().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
		err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Err()
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		if err != nil {
			return 0, fmt.Errorf("failed to set comment flag %s: %w", flag, err)
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("unknown moderation scope: %q", string(scope))
	}
}

// moderationFilter はモデレーション対象を指定するフィルタを返す。
func moderationFilter(articleTitle, authorEmail string) bson.M {
	return bson.M{"articleTitle": articleTitle, "user": authorEmail}
}

// flagUpdate はフラグをtrueにする更新ドキュメントを返す。
func flagUpdate(flag model.CommentFlag) (bson.M, error) {
	if err := flag.Validate(); err != nil {
		return nil, err
	}
	return bson.M{"$set": bson.M{string(flag): true}}, nil
}

func toCommentDocument(c *model.Comment) commentDocument {
	doc := commentDocument{
		ArticleTitle: c.ArticleTitle,
		User:         c.Author,
		Content:      c.Content,
		CreatedAt:    c.CreatedAt,
		Deleted:      c.Deleted,
		Redacted:     c.Redacted,
	}
	if oid, err := primitive.ObjectIDFromHex(c.ID); err == nil {
		doc.ID = oid
	}
	return doc
}

func (d commentDocument) toModel() *model.Comment {
	c := &model.Comment{
		ArticleTitle: d.ArticleTitle,
		Author:       d.User,
		Content:      d.Content,
		CreatedAt:    d.CreatedAt,
		Deleted:      d.Deleted,
		Redacted:     d.Redacted,
	}
	if !d.ID.IsZero() {
		c.ID = d.ID.Hex()
	}
	return c
}

// compile-time interface check
var _ CommentRepository = (*MongoCommentRepo)(nil)
