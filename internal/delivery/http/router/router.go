package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/user/domain-crawler/internal/delivery/http/handler"
	"github.com/user/domain-crawler/internal/delivery/http/middleware"
)

func New(h *handler.Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(chimiddleware.Recoverer)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", h.HandleHealthCheck)
		r.Get("/crawl/{domain}", h.HandleCrawl)
		r.Post("/crawl/{domain}", h.HandleCrawl)
		r.Get("/urls/{domain}", h.HandleGetURLs)
		r.Get("/url_count/{domain}", h.HandleGetURLCount)
	})

	return r
}
