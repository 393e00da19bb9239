package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nimbuschat/nimbus/internal/core/port"
	"github.com/nimbuschat/nimbus/internal/core/service"
)

type Handler struct {
	Hub        *service.Hub
	Verifier   port.TokenVerifier
	Users      port.UserDirectory
	SendBuffer int
}

func NewHandler(hub *service.Hub, verifier port.TokenVerifier, users port.UserDirectory, sendBuffer int) *Handler {
	return &Handler{
		Hub:        hub,
		Verifier:   verifier,
		Users:      users,
		SendBuffer: sendBuffer,
	}
}

func (h *Handler) NewRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Get("/ws", h.ServeWS)

	return r
}
