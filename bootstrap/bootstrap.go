package bootstrap

import (
	"net/http"
	"os"
	"sync"

	"givehub-backend/internal/config"
	"givehub-backend/internal/interfaces/router"
	"givehub-backend/internal/pkg/logger"

	"github.com/rs/zerolog/log"
)

var (
	once    sync.Once
	handler http.Handler
	initErr error
)

// Handler builds the API on first use and returns it as a net/http handler for the
// serverless entry point. A failed build is not retried; every request is then
// answered 503.
func Handler() http.Handler {
	once.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			initErr = err
			return
		}
		logger.Setup("givehub-api", cfg.LogLevel, cfg.LogFormat, os.Stdout)
		app, _, _, err := router.CreateApp(cfg)
		if err != nil {
			initErr = err
			return
		}
		handler = router.Handler(app)
	})
	if initErr != nil {
		log.Error().Err(initErr).Msg("api init failed")
		return unavailable{}
	}
	return handler
}

type unavailable struct{}

func (unavailable) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte(`{"status":"error","error":{"message":"Service unavailable","statusCode":503}}`))
}
