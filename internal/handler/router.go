package handler

import (
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Siddarth2230/url-mapping-service/internal/logger"
	"github.com/Siddarth2230/url-mapping-service/internal/middleware"
)

// NewRouter wires the URL routes, /metrics, request logging, metrics, panic
// recovery and CORS for origins.
func NewRouter(h *URLHandler, log *zap.Logger, origins []string) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Metrics)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	h.Register(r)

	cors := handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
		handlers.ExposedHeaders([]string{ErrorHeader}),
	)
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(log)),
		handlers.PrintRecoveryStack(true),
	)

	return logger.Middleware(log)(recovery(cors(r)))
}
