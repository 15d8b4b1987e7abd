package server

import (
	"net/http"

	"icpep-backend/internal/config"
)

// NewHTTPServer builds the listener-side server. Request contexts are not tied
// to the process signal context, so Shutdown lets in-flight writes finish;
// onShutdown hooks end long-lived streams instead.
func NewHTTPServer(cfg config.ServerConfig, handler http.Handler, onShutdown ...func()) *http.Server {
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	for _, f := range onShutdown {
		srv.RegisterOnShutdown(f)
	}
	return srv
}
