package handler

import (
	"net/http"

	"github.com/hitoshi/newsdesk/internal/middleware"
)

// keyResponse はフロントエンド用APIキーのレスポンス。未設定の場合はnull。
type keyResponse struct {
	APIKey *string `json:"apiKey"`
}

// NewKeyHandler は記事APIキーを返すハンドラーを生成する。
// GET /api/key
func NewKeyHandler(apiKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := keyResponse{}
		if apiKey != "" {
			key := apiKey
			resp.APIKey = &key
		}
		middleware.WriteJSON(w, http.StatusOK, resp)
	}
}
