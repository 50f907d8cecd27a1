package httpserver

import (
	"net"
	"net/http"
	"time"

	"susu-app-go/internal/config"
	"susu-app-go/pkg/logger"
)

const fallbackShutdownTimeout = 10 * time.Second

// New builds the API server. Zero timeouts in cfg.HTTP leave the net/http
// defaults in place, except ReadHeaderTimeout which is always bounded.
func New(cfg config.Config, handler http.Handler, log logger.Logger) *http.Server {
	readHeader := cfg.HTTP.ReadHeaderTimeout
	if readHeader <= 0 {
		readHeader = 5 * time.Second
	}
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: readHeader,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
		MaxHeaderBytes:    cfg.HTTP.MaxHeaderBytes,
		ErrorLog:          logger.StdLog(log.With("component", "http_server")),
	}
}

// ShutdownTimeout is how long in-flight requests get to finish on stop.
func ShutdownTimeout(cfg config.Config) time.Duration {
	if cfg.HTTP.ShutdownTimeout <= 0 {
		return fallbackShutdownTimeout
	}
	return cfg.HTTP.ShutdownTimeout
}
