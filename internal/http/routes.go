package httpx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/target/bullboard/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Board   *service.BoardService
	Actions *service.ActionService
	// Optional: readiness probe target; /readyz is not registered when nil.
	Backend  Pinger
	Limits   PageLimits
	Location *time.Location
	Logger   *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) (http.Handler, error) {
	mux := http.NewServeMux()

	board := &BoardHandlers{Board: services.Board, Limits: services.Limits}
	actions := &ActionHandlers{Actions: services.Actions}

	renderer, err := NewTemplateRenderer(TemplateRendererConfig{
		Location: services.Location,
		Logger:   services.Logger,
	})
	if err != nil {
		return nil, err
	}
	ui := &UIHandlers{Board: services.Board, Renderer: renderer, Limits: services.Limits}

	registerBoardRoutes(mux, board)
	registerActionRoutes(mux, actions)

	mux.HandleFunc("GET /jobs", ui.JobsList)
	mux.Handle("GET /{$}", http.RedirectHandler("/jobs", http.StatusFound))

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)
	if services.Backend != nil {
		mux.HandleFunc("GET /readyz", readyHandler(services.Backend))
	}
	return mux, nil
}

func registerBoardRoutes(mux *http.ServeMux, h *BoardHandlers) {
	mux.HandleFunc("GET /api/jobs", h.Jobs)
	mux.HandleFunc("GET /api/overview", h.Overview)
	mux.HandleFunc("GET /api/queues", h.Queues)
	mux.HandleFunc("GET /api/insights", h.Insights)
	mux.HandleFunc("POST /api/refresh", h.Refresh)
	mux.HandleFunc("GET /api/queues/{queue}/jobs/{id}", h.Detail)
}

func registerActionRoutes(mux *http.ServeMux, h *ActionHandlers) {
	mux.HandleFunc("GET /api/errors", h.Errors)
	mux.HandleFunc("GET /api/queues/{queue}/jobs/{id}/logs", h.Logs)
	mux.HandleFunc("POST /api/queues/{queue}/jobs/{id}/retry", h.Retry)
	mux.HandleFunc("DELETE /api/queues/{queue}/jobs/{id}", h.Delete)
	mux.HandleFunc("POST /api/queues/{queue}/jobs", h.AddJob)
	mux.HandleFunc("POST /api/queues/{queue}/pause", h.Pause)
	mux.HandleFunc("POST /api/queues/{queue}/resume", h.Resume)
	mux.HandleFunc("POST /api/queues/{queue}/clean", h.Clean)
}
