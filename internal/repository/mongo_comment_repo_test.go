package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/newsdesk/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMongoCommentRepo_ImplementsInterface(t *testing.T) {
	var _ CommentRepository = (*MongoCommentRepo)(nil)
}

func TestCommentDocument_RoundTripsThroughBSON(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	oid := primitive.NewObjectID()
	c := &model.Comment{
		ID:           oid.Hex(),
		ArticleTitle: "Climate News",
		Author:       "alice@example.com",
		Content:      "Great article!",
		CreatedAt:    created,
		Redacted:     true,
	}

	raw, err := bson.Marshal(toCommentDocument(c))
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}

	// 既存コレクションと同じフィールド名で保存されること
	var fields bson.M
	if err := bson.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("failed to unmarshal: %v", err)
	}
	for _, key := range []string{"_id", "articleTitle", "user", "content", "createdAt", "deleted", "redacted"} {
		if _, ok := fields[key]; !ok {
			t.Errorf("document is missing field %q", key)
		}
	}

	var doc commentDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("failed to decode document: %v", err)
	}
	got := doc.toModel()
	if got.ID != c.ID || got.ArticleTitle != c.ArticleTitle || got.Author != c.Author || got.Content != c.Content {
		t.Errorf("toModel() = %+v, want %+v", got, c)
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, created)
	}
	if got.Deleted || !got.Redacted {
		t.Errorf("flags = (%v, %v), want (false, true)", got.Deleted, got.Redacted)
	}
}

func TestToCommentDocument_EmptyID_LeavesIDUnset(t *testing.T) {
	doc := toCommentDocument(&model.Comment{ArticleTitle: "a"})
	if !doc.ID.IsZero() {
		t.Errorf("ID = %v, want zero so the server assigns one", doc.ID)
	}
}

func TestCommentDocument_MissingFlags_DecodeAsFalse(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"articleTitle": "a", "user": "u@example.com", "content": "c"})
	if err != nil {
		t.Fatalf("failed to marshal: %v", err)
	}
	var doc commentDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	got := doc.toModel()
	if got.Deleted || got.Redacted {
		t.Errorf("flags = (%v, %v), want (false, false)", got.Deleted, got.Redacted)
	}
	if got.ID != "" {
		t.Errorf("ID = %q, want empty", got.ID)
	}
}

func TestModerationFilter_UsesArticleAndUser(t *testing.T) {
	f := moderationFilter("Climate News", "alice@example.com")
	if f["articleTitle"] != "Climate News" || f["user"] != "alice@example.com" {
		t.Errorf("filter = %v", f)
	}
}

func TestFlagUpdate(t *testing.T) {
	u, err := flagUpdate(model.FlagRedacted)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	set, ok := u["$set"].(bson.M)
	if !ok {
		t.Fatalf("update = %v, want $set document", u)
	}
	if set["redacted"] != true {
		t.Errorf("$set = %v, want redacted: true", set)
	}

	if _, err := flagUpdate(model.CommentFlag("content")); err == nil {
		t.Error("expected error for unknown flag")
	}
}
