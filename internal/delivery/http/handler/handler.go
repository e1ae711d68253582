package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/user/domain-crawler/internal/delivery/http/response"
	"github.com/user/domain-crawler/internal/usecase"
)

type Handler struct {
	crawler usecase.Crawler
	results usecase.ResultQuery
}

func NewHandler(crawler usecase.Crawler, results usecase.ResultQuery) *Handler {
	return &Handler{
		crawler: crawler,
		results: results,
	}
}

// HandleCrawl runs a full crawl before answering. The crawl is detached from
// the request context: a client that disconnects does not stop it.
func (h *Handler) HandleCrawl(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	report, err := h.crawler.Crawl(context.WithoutCancel(r.Context()), domain)
	if err != nil {
		slog.Error("Failed to crawl domain", "domain", domain, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "crawled %s in %dms!", domain, report.Elapsed.Milliseconds())
}

func (h *Handler) HandleGetURLs(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	urls, err := h.results.URLs(r.Context(), domain)
	if err != nil {
		slog.Error("Failed to get crawl result", "domain", domain, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, urls)
}

func (h *Handler) HandleGetURLCount(w http.ResponseWriter, r *http.Request) {
	domain := chi.URLParam(r, "domain")

	count, err := h.results.Count(r.Context(), domain)
	if err != nil {
		slog.Error("Failed to count crawl result", "domain", domain, "error", err)
		h.writeJSONError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeJSON(w, http.StatusOK, count)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.results.Healthy(r.Context()); err != nil {
		slog.Error("Health check failed", "error", err)
		h.writeJSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "unavailable"})
		return
	}
	h.writeJSON(w, http.StatusOK, response.HealthResponse{Status: "ok"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to write JSON response", "error", err)
	}
}

func (h *Handler) writeJSONError(w http.ResponseWriter, message string, status int) {
	h.writeJSON(w, status, response.ErrorResponse{Error: message})
}
