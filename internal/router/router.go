package router

import (
	"log/slog"
	"net/http"
	"path/filepath"

	"printsite/internal/config"
	"printsite/internal/handlers"
	"printsite/internal/middleware"
	"printsite/internal/telemetry"

	"go.opentelemetry.io/otel/trace"
)

// RouterDependencies holds everything needed to register routes.
type RouterDependencies struct {
	Cfg             *config.Config
	Logger          *slog.Logger
	BlogHandler     *handlers.BlogHandler
	ServiceHandler  *handlers.ServiceHandler
	PrintingHandler *handlers.PrintingHandler
	BannerHandler   *handlers.BannerHandler
	ImageHandler    *handlers.ImageHandler
	UserHandler     *handlers.UserHandler
	Limiter         *middleware.IPRateLimiter
	Tracer          trace.Tracer
	Metrics         *telemetry.Metrics
}

func NewRouter(deps RouterDependencies) http.Handler {
	// routing
	appMux := http.NewServeMux()

	// uploaded files, when the local backend serves them directly; the local
	// store roots its keys at Uploads.LocalDir
	fs := http.FileServer(http.Dir(filepath.Join(deps.Cfg.Uploads.LocalDir, "static")))
	appMux.Handle("GET /static/", http.StripPrefix("/static/", fs))

	// blogs
	appMux.Handle("GET /api/blogs", deps.BlogHandler.HandleList())
	appMux.Handle("GET /api/blogs/{slug}", deps.BlogHandler.HandleGet())
	appMux.Handle("POST /api/blogs", deps.BlogHandler.HandleCreate())
	appMux.Handle("PUT /api/blogs/{slug}", deps.BlogHandler.HandleUpdate())
	appMux.Handle("DELETE /api/blogs/{slug}", deps.BlogHandler.HandleDelete())

	// services
	appMux.Handle("GET /api/services", deps.ServiceHandler.HandleList())
	appMux.Handle("GET /api/services/suggested", deps.ServiceHandler.HandleSuggested())
	appMux.Handle("GET /api/services/{id}", deps.ServiceHandler.HandleGet())
	appMux.Handle("POST /api/services", deps.ServiceHandler.HandleCreate())
	appMux.Handle("PUT /api/services/{id}", deps.ServiceHandler.HandleUpdate())
	appMux.Handle("DELETE /api/services/{id}", deps.ServiceHandler.HandleDelete())
	appMux.Handle("GET /api/services/{id}/reviews", deps.ServiceHandler.HandleListReviews())
	appMux.Handle("POST /api/services/{id}/reviews", deps.ServiceHandler.HandleCreateReview())

	// printings; the fixed segments must be registered before {slug}
	appMux.Handle("GET /api/printing", deps.PrintingHandler.HandleList())
	appMux.Handle("POST /api/printing", deps.PrintingHandler.HandleCreate())
	appMux.Handle("POST /api/printing/upload-content-image", deps.PrintingHandler.HandleUploadContentImage())
	appMux.Handle("POST /api/printing/paste-image", deps.PrintingHandler.HandlePasteImage())
	appMux.Handle("POST /api/printing/parse-content", deps.PrintingHandler.HandleParseContent())
	appMux.Handle("GET /api/printing/{slug}", deps.PrintingHandler.HandleGet())
	appMux.Handle("PUT /api/printing/{slug}", deps.PrintingHandler.HandleUpdate())
	appMux.Handle("DELETE /api/printing/{slug}", deps.PrintingHandler.HandleDelete())
	appMux.Handle("PATCH /api/printing/{slug}/visibility", deps.PrintingHandler.HandleVisibility())

	// banners
	appMux.Handle("GET /api/banners", deps.BannerHandler.HandleList())
	appMux.Handle("GET /api/banners/active", deps.BannerHandler.HandleActive())
	appMux.Handle("GET /api/banners/{id}", deps.BannerHandler.HandleGet())
	appMux.Handle("POST /api/banners", deps.BannerHandler.HandleCreate())
	appMux.Handle("POST /api/banners/upload-with-banner", deps.BannerHandler.HandleUploadWithBanner())
	appMux.Handle("PUT /api/banners/{id}", deps.BannerHandler.HandleUpdate())
	appMux.Handle("DELETE /api/banners/{id}", deps.BannerHandler.HandleDelete())
	appMux.Handle("PATCH /api/banners/{id}/toggle", deps.BannerHandler.HandleToggle())

	// images
	appMux.Handle("GET /api/images", deps.ImageHandler.HandleList())
	appMux.Handle("PATCH /api/images/{id}", deps.ImageHandler.HandlePatch())
	appMux.Handle("DELETE /api/images/{id}", deps.ImageHandler.HandleDelete())

	// users
	appMux.Handle("GET /api/users", deps.UserHandler.HandleList())
	appMux.Handle("POST /api/users", deps.UserHandler.HandleCreate())
	appMux.Handle("PUT /api/users/{id}", deps.UserHandler.HandleUpdate())
	appMux.Handle("DELETE /api/users/{id}", deps.UserHandler.HandleDelete())

	middlewareStack := []middleware.Middleware{
		middleware.Recover(deps.Logger),
	}

	if deps.Cfg.Metrics.EnableTelemetry {
		// order matters so don't append
		middlewareStack = append(middlewareStack, middleware.Observability(deps.Tracer, deps.Metrics, deps.Logger))
	}

	middlewareStack = append(middlewareStack,
		deps.Limiter.Middleware(deps.Logger),
		middleware.Logger(deps.Logger), // Inner logger (shows simple text logs)
	)

	appHandler := middleware.Chain(appMux, middlewareStack...)

	rootMux := http.NewServeMux()

	// lightweight for docker keepalive
	rootMux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	rootMux.Handle("/", appHandler)

	return rootMux
}
