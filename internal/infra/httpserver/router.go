package httpserver

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appscans "github.com/bryanwahyu/shelfsnap/internal/application/scans"
	domain "github.com/bryanwahyu/shelfsnap/internal/domain/scans"
	"github.com/bryanwahyu/shelfsnap/internal/middleware"
)

// maxMemory is the part of a multipart upload kept in memory; the rest spills to disk.
const maxMemory = 32 << 20

// Options configures the HTTP surface around the scan service.
type Options struct {
	AllowedOrigins []string
	APIKeys        []string

	RateLimitEnabled bool
	RateCapacity     int
	RateRefill       int

	// Readiness checkers served on /readyz.
	Readiness map[string]middleware.HealthChecker

	Logger *zap.Logger
}

type Router struct {
	scansSvc *appscans.Service
	log      *zap.Logger
}

func NewRouter(scansSvc *appscans.Service, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	r := &Router{scansSvc: scansSvc, log: log}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RequestID)
	mux.Use(chimw.RealIP)
	mux.Use(chimw.Recoverer)
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.Metrics)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	if opts.RateLimitEnabled {
		mux.Use(middleware.RateLimit(opts.RateCapacity, opts.RateRefill))
	}

	mux.Get("/", r.wrap(r.handleRoot))
	mux.Get("/healthz", middleware.HealthHandler(scansSvc.ToolAvailable))
	mux.Get("/livez", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.ReadinessHandler(opts.Readiness))
	mux.Handle("/metrics", promhttp.Handler())

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/scan/start", r.wrap(r.handleStart))
		rt.Post("/scan/upload", r.wrap(r.handleUpload))
		rt.Post("/scan/complete", r.wrap(r.handleComplete))
		rt.Get("/scan/{scan_id}", r.wrap(r.handleGet))
		rt.Get("/scans/latest", r.wrap(r.handleLatest))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidRequest):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, domain.ErrNotFound), errors.Is(err, sql.ErrNoRows):
				writeError(w, http.StatusNotFound, domain.ErrNotFound.Error())
			default:
				r.log.Error("request failed",
					zap.String("method", req.Method),
					zap.String("path", req.URL.Path),
					zap.String("request_id", chimw.GetReqID(req.Context())),
					zap.Error(err),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}
	}
}

// GET /
func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, map[string]string{"message": "ShelfSnap API is live!"})
}

// POST /v1/scan/start
func (r *Router) handleStart(w http.ResponseWriter, req *http.Request) error {
	id := r.scansSvc.Start(req.Context())
	return writeJSON(w, http.StatusOK, map[string]domain.ScanID{"scan_id": id})
}

// POST /v1/scan/upload (multipart: scan_id, files...)
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(maxMemory); err != nil {
		// body bukan multipart = sama saja dengan tidak ada file
		return fmt.Errorf("%w: no file provided (%v)", domain.ErrInvalidRequest, err)
	}
	defer req.MultipartForm.RemoveAll()

	scanID := req.FormValue("scan_id")
	if err := middleware.ValidateScanID(scanID); err != nil {
		return err
	}

	headers := req.MultipartForm.File["files"]
	openers := make([]appscans.Opener, 0, len(headers))
	for _, fh := range headers {
		fh := fh
		openers = append(openers, func() (io.ReadCloser, error) {
			return fh.Open()
		})
	}

	ack, err := r.scansSvc.Upload(req.Context(), domain.ScanID(scanID), openers)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, ack)
}

// POST /v1/scan/complete (form: scan_id)
func (r *Router) handleComplete(w http.ResponseWriter, req *http.Request) error {
	scanID := req.FormValue("scan_id")

	res, err := r.scansSvc.Complete(req.Context(), domain.ScanID(scanID))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /v1/scan/{scan_id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	scanID := chi.URLParam(req, "scan_id")

	rec, err := r.scansSvc.Get(req.Context(), domain.ScanID(scanID))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// GET /v1/scans/latest?limit=20
func (r *Router) handleLatest(w http.ResponseWriter, req *http.Request) error {
	limit, err := middleware.ParseLimit(req.URL.Query().Get("limit"))
	if err != nil {
		return err
	}

	list, err := r.scansSvc.Latest(req.Context(), limit)
	if err != nil {
		return err
	}
	if list == nil {
		list = []*domain.Record{}
	}
	return writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, code int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, detail string) {
	_ = writeJSON(w, code, map[string]string{"detail": detail})
}
