package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/raushankrgupta/shopbot/logger"
	"github.com/raushankrgupta/shopbot/utils"
)

// NewRouter mounts the handlers. When jwtSecret is set every route except
// /health needs a bearer token.
func NewRouter(h *Handler, jwtSecret string, log *logger.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(utils.RequestIDMiddleware, utils.LatencyMiddleware(log), utils.CORSMiddleware)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	protected := r.NewRoute().Subrouter()
	if jwtSecret != "" {
		protected.Use(AuthMiddleware(jwtSecret, log))
	}
	protected.HandleFunc("/chat", h.Chat).Methods(http.MethodPost, http.MethodOptions)
	protected.HandleFunc("/sites", h.Sites).Methods(http.MethodGet, http.MethodOptions)
	protected.HandleFunc("/history", h.Recent).Methods(http.MethodGet, http.MethodOptions)

	return r
}
