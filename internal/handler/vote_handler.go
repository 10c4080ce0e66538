package handler

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/skindb/skinfront/internal/middleware"
	"github.com/skindb/skinfront/internal/model"
	"github.com/skindb/skinfront/internal/skinapi"
)

// maxTagLength はタグ名の最大文字数。
const maxTagLength = 64

// VoteHandler はタグ投票フォームのハンドラー。
type VoteHandler struct {
	api     SkinAPI
	baseURL string
}

// NewVoteHandler はVoteHandlerを生成する。
func NewVoteHandler(api SkinAPI, baseURL string) *VoteHandler {
	return &VoteHandler{
		api:     api,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}
}

// Vote はタグ投票フォームのPOSTを処理する。
// 未ログインは401、数字以外を含むスキンIDは404。
// 成功時はスキン詳細ページへ303でリダイレクトする（再送防止）。
func (h *VoteHandler) Vote(w http.ResponseWriter, r *http.Request) error {
	session := middleware.SessionFromContext(r.Context())
	if session == nil {
		return model.NewUnauthorized()
	}

	skinID := chi.URLParam(r, "id")
	if !isNumericID(skinID) {
		return model.NewNotFound("The requested skin could not be found")
	}

	if err := r.ParseForm(); err != nil {
		return model.NewInvalidBody([]model.ErrorDetail{
			{Param: "body", Condition: "A valid form body"},
		})
	}

	tag := r.PostFormValue("tag")
	if tag == "" || len(tag) > maxTagLength || strings.ContainsAny(tag, "\r\n") {
		return model.NewInvalidParams("query", []model.ErrorDetail{
			{Param: "tag", Condition: "A non-empty single-line string"},
		})
	}

	vote, err := parseVote(r.PostFormValue("vote"))
	if err != nil {
		return err
	}

	if err := h.api.SetTagVote(r.Context(), session.AccountID, skinID, tag, vote); err != nil {
		return err
	}

	http.Redirect(w, r, h.baseURL+"/skin/"+skinID, http.StatusSeeOther)
	return nil
}

// parseVote はフォーム値をAPIの投票値に変換する。
// on=賛成、off=反対、unset=取り消し。その他は400。
func parseVote(value string) (skinapi.Vote, error) {
	switch value {
	case "on":
		return skinapi.VoteYes, nil
	case "off":
		return skinapi.VoteNo, nil
	case "unset":
		return skinapi.VoteUnset, nil
	default:
		return "", model.NewInvalidParams("query", []model.ErrorDetail{
			{Param: "vote", Condition: "One of: on, off, unset"},
		})
	}
}
