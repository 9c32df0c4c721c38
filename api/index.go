// Package handler is the serverless entry point. The function host calls
// Handler once per request; the fiber app is built on the first call and
// reused while the instance stays warm.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/amirasaad/topup/infra/initializer"
	"github.com/amirasaad/topup/pkg/app"
	"github.com/amirasaad/topup/pkg/config"
	"github.com/amirasaad/topup/webapi"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var (
	once    sync.Once
	served  http.HandlerFunc
	initErr error
)

// Handler serves one request.
func Handler(w http.ResponseWriter, r *http.Request) {
	// fiber reads the path from RequestURI.
	r.RequestURI = r.URL.String()

	once.Do(func() { served, initErr = build(context.Background()) })
	if initErr != nil {
		slog.Error("❌ [ERROR] Application failed to start", "error", initErr)
		http.Error(w, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	served.ServeHTTP(w, r)
}

// build wires the application without a scheduler. Reconciliation in
// serverless deployments runs from the CLI on an external cron.
func build(ctx context.Context) (http.HandlerFunc, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	// Connections live as long as the instance does, so cleanup is never run.
	deps, _, err := initializer.InitializeDependencies(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a, err := app.New(deps, cfg)
	if err != nil {
		return nil, err
	}
	return adaptor.FiberApp(webapi.SetupApp(a)), nil
}
