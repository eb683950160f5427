package httpx

import (
	"log/slog"
	"net/http"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Coordinator *service.Coordinator
	Queues      *service.QueueService
	Audit       AuditReader // optional; nil disables the audit endpoint
	Verifier    ActorVerifier
	Logger      *slog.Logger
}

// NewRouter creates and configures the HTTP router for the control plane.
// Every /api route resolves the acting identity before dispatch.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	migrationHandlers := &MigrationHandlers{Svc: services.Coordinator}
	queueHandlers := &QueueHandlers{Svc: services.Queues}

	registerMigrationRoutes(mux, migrationHandlers)
	registerQueueRoutes(mux, queueHandlers)
	if services.Audit != nil {
		auditHandlers := &AuditHandlers{Reader: services.Audit}
		mux.HandleFunc("GET /api/audit/events", auditHandlers.Recent)
	}

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	api := http.Handler(mux)
	if services.Verifier != nil {
		api = ResolveActor(services.Verifier)(api)
	}

	root := http.NewServeMux()
	root.Handle("/api/", api)
	root.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	root.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return Recover(logger)(Logging(logger)(root))
}

func registerMigrationRoutes(mux *http.ServeMux, h *MigrationHandlers) {
	mux.HandleFunc("POST /api/migrations", h.Create)
	mux.HandleFunc("POST /api/migrations/preview", h.Preview)
	mux.HandleFunc("GET /api/migrations", h.List)
	mux.HandleFunc("GET /api/migrations/{id}", h.Get)
	mux.HandleFunc("GET /api/migrations/{id}/progress", h.Progress)
	mux.HandleFunc("POST /api/migrations/{id}/control", h.Control)
}

func registerQueueRoutes(mux *http.ServeMux, h *QueueHandlers) {
	mux.HandleFunc("GET /api/queues", h.Stats)
	mux.HandleFunc("POST /api/queues/{name}/command", h.Command)
}
