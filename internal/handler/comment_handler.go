package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/newsdesk/internal/middleware"
	"github.com/hitoshi/newsdesk/internal/model"
)

const maxCommentBodyBytes = 1 << 20

// CommentServiceInterface はコメントハンドラーが必要とするサービスインターフェース。
type CommentServiceInterface interface {
	Post(ctx context.Context, identity *model.Identity, articleTitle, content string) (*model.Comment, error)
	List(ctx context.Context, articleTitle string) ([]model.CommentView, error)
	Delete(ctx context.Context, identity *model.Identity, articleTitle, authorEmail string) (int64, error)
	Redact(ctx context.Context, identity *model.Identity, articleTitle, authorEmail string) (int64, error)
}

// CommentHandler はコメントAPIのHTTPハンドラー。
type CommentHandler struct {
	service CommentServiceInterface
}

// NewCommentHandler はCommentHandlerを生成する。
func NewCommentHandler(service CommentServiceInterface) *CommentHandler {
	return &CommentHandler{service: service}
}

// postCommentRequest はコメント投稿リクエストのボディ。
type postCommentRequest struct {
	ArticleTitle string `json:"articleTitle"`
	Content      string `json:"content"`
}

// messageResponse は成功時のメッセージレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// PostComment はコメントを投稿する。
// POST /api/comments
func (h *CommentHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if identity == nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req postCommentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCommentBodyBytes)).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("malformed JSON body"))
		return
	}

	if _, err := h.service.Post(r.Context(), identity, req.ArticleTitle, req.Content); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, messageResponse{Message: "Comment added"})
}

// ListComments は記事のコメントを描画済みの形で返す。
// GET /api/comments/{articleTitle}
func (h *CommentHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	views, err := h.service.List(r.Context(), pathParam(r, "articleTitle"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, views)
}

// DeleteComments は(記事タイトル, 投稿者)のコメントを論理削除する。
// DELETE /api/comments/{articleTitle}/{userEmail}
func (h *CommentHandler) DeleteComments(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if _, err := h.service.Delete(r.Context(), identity, pathParam(r, "articleTitle"), pathParam(r, "userEmail")); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Comment deleted"})
}

// RedactComments は(記事タイトル, 投稿者)のコメントを墨消しする。
// PATCH /api/comments/{articleTitle}/{userEmail}
func (h *CommentHandler) RedactComments(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if _, err := h.service.Redact(r.Context(), identity, pathParam(r, "articleTitle"), pathParam(r, "userEmail")); err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, messageResponse{Message: "Comment redacted"})
}

// pathParam はURLデコード済みのパスパラメータを返す。
// chiはRawPathがある場合にエスケープされたままの値を返すため、その場合のみデコードする。
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
