package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/z-research/backend/internal/handler/chat"
	middlewarePkg "github.com/zhouzirui/z-research/backend/internal/middleware"
	chatService "github.com/zhouzirui/z-research/backend/internal/service/chat"
	"github.com/zhouzirui/z-research/backend/pkg/utils"
)

type healthResponse struct {
	Status string `json:"status"`
	Mode   string `json:"mode"`
}

// NewRouter wires HTTP routes to the research service. chatSvc may be nil when
// no model is configured; completions then answer 503.
func NewRouter(chatSvc *chatService.Service, apiKey string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	var completer chat.Completer
	if chatSvc != nil {
		completer = chatSvc
	}
	chatHandler := chat.New(completer, apiKey)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if chatSvc == nil {
			utils.RespondJSON(w, http.StatusOK, healthResponse{Status: "degraded", Mode: "unavailable"})
			return
		}
		utils.RespondJSON(w, http.StatusOK, healthResponse{Status: "ok", Mode: string(chatSvc.Mode())})
	})

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
	})

	return r
}
