package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/Siddarth2230/url-mapping-service/internal/models"
	"github.com/Siddarth2230/url-mapping-service/internal/service"
)

// ErrorHeader carries the error message of every failed /api/url response.
const ErrorHeader = "X-Error-Message"

const healthMessage = "Application is running"

const (
	msgEmptyFullURL   = "Full URL must not be empty"
	msgBlankShortURL  = "Short URL must not be null or blank"
	msgInvalidPayload = "Invalid request payload"
	msgInvalidURL     = "Invalid URL format"
	msgNotFound       = "Short URL not found"
	msgInternal       = "Internal server error"
)

// Shortener is the core the handlers delegate to.
type Shortener interface {
	Shorten(ctx context.Context, fullURL string) (string, error)
	Expand(ctx context.Context, shortURL string) (string, error)
}

type URLHandler struct {
	service Shortener
	log     *zap.Logger
	baseURL string // optional; set to return absolute short links
}

func NewURLHandler(svc Shortener, log *zap.Logger, baseURL string) *URLHandler {
	return &URLHandler{service: svc, log: log, baseURL: strings.TrimRight(baseURL, "/")}
}

// Register mounts the API, health and redirect routes on r.
func (h *URLHandler) Register(r *mux.Router) {
	api := r.PathPrefix("/api/url").Subrouter()
	api.HandleFunc("/shorten", h.ShortenURL).Methods(http.MethodPost)
	api.HandleFunc("/expand/{shortUrl}", h.ExpandURL).Methods(http.MethodGet)
	api.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	r.HandleFunc("/{shortUrl}", h.RedirectURL).Methods(http.MethodGet)
}

// POST /api/url/shorten
func (h *URLHandler) ShortenURL(w http.ResponseWriter, r *http.Request) {
	var req models.ShortenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	if strings.TrimSpace(req.FullURL) == "" {
		h.writeError(w, http.StatusBadRequest, msgEmptyFullURL)
		return
	}

	shortURL, err := h.service.Shorten(r.Context(), req.FullURL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.response(req.FullURL, shortURL))
}

// GET /api/url/expand/{shortUrl}
func (h *URLHandler) ExpandURL(w http.ResponseWriter, r *http.Request) {
	shortURL := mux.Vars(r)["shortUrl"]
	if strings.TrimSpace(shortURL) == "" {
		h.writeError(w, http.StatusBadRequest, msgBlankShortURL)
		return
	}

	fullURL, err := h.service.Expand(r.Context(), shortURL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, h.response(fullURL, shortURL))
}

// GET /{shortUrl} - redirect to the full URL
func (h *URLHandler) RedirectURL(w http.ResponseWriter, r *http.Request) {
	shortURL := mux.Vars(r)["shortUrl"]
	if strings.TrimSpace(shortURL) == "" {
		h.writeError(w, http.StatusBadRequest, msgBlankShortURL)
		return
	}

	fullURL, err := h.service.Expand(r.Context(), shortURL)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	// Redirect (302 Found)
	http.Redirect(w, r, fullURL, http.StatusFound)
}

// GET /api/url/health
func (h *URLHandler) Health(w http.ResponseWriter, _ *http.Request) {
	h.log.Info("health check requested")
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(healthMessage))
}

func (h *URLHandler) response(fullURL, shortURL string) models.URLResponse {
	resp := models.URLResponse{FullURL: fullURL, ShortURL: shortURL}
	if h.baseURL != "" {
		resp.Link = h.baseURL + "/" + shortURL
	}
	return resp
}

func (h *URLHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidURL):
		h.writeError(w, http.StatusBadRequest, msgInvalidURL)
	case errors.Is(err, service.ErrNotFound):
		h.writeError(w, http.StatusNotFound, msgNotFound)
	default:
		h.log.Error("request failed", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, msgInternal)
	}
}

// writeError sends msg both in the JSON body and in ErrorHeader.
func (h *URLHandler) writeError(w http.ResponseWriter, status int, msg string) {
	if status < http.StatusInternalServerError {
		h.log.Info("rejected request", zap.Int("status", status), zap.String("error", msg))
	}
	w.Header().Set(ErrorHeader, msg)
	writeJSON(w, status, models.URLResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}
