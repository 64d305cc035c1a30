package chat

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/zhouzirui/z-research/backend/internal/middleware"
	"github.com/zhouzirui/z-research/backend/internal/model/chat"
	chatService "github.com/zhouzirui/z-research/backend/internal/service/chat"
	"github.com/zhouzirui/z-research/backend/pkg/utils"
)

const maxBodyBytes = 4 << 20

// Completer 执行一次研究补全
type Completer interface {
	Complete(ctx context.Context, messages []chat.Message) (*chatService.Result, error)
}

type completionRequest struct {
	Messages []chat.Message `json:"messages" validate:"dive"`
}

type completionResponse struct {
	Messages []chat.Message `json:"messages"`
}

// Handler 研究补全接口的HTTP处理器
type Handler struct {
	svc      Completer
	apiKey   string
	validate *validator.Validate
}

// New 创建处理器。svc 为 nil 时接口返回 503；apiKey 为空时不校验鉴权。
func New(svc Completer, apiKey string) *Handler {
	return &Handler{
		svc:      svc,
		apiKey:   apiKey,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes 注册补全路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat/completions", h.handleCompletions)
}

// handleCompletions 运行研究循环并返回追加后的消息列表。
// 返回的是给客户端的 messages（输入加上 tool、answer、related、followup 等消息），
// 不是发给模型的那份对话。
func (h *Handler) handleCompletions(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		utils.RespondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var payload completionRequest
	if err := utils.DecodeJSON(w, r, maxBodyBytes, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if len(payload.Messages) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "No messages provided")
		return
	}

	if err := h.validate.Struct(payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	if h.svc == nil {
		utils.RespondError(w, http.StatusServiceUnavailable, "research service unavailable")
		return
	}

	result, err := h.svc.Complete(r.Context(), payload.Messages)
	if err != nil {
		if errors.Is(err, chatService.ErrNoMessages) {
			utils.RespondError(w, http.StatusBadRequest, "No messages provided")
			return
		}
		log.Printf("[chat] completion failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "completion failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, completionResponse{Messages: result.Messages})
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.apiKey == "" {
		return true
	}
	token := middleware.BearerToken(r)
	return subtle.ConstantTimeCompare([]byte(token), []byte(h.apiKey)) == 1
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	return fmt.Sprintf("invalid message field %s: failed %q", fe.Namespace(), fe.Tag())
}
