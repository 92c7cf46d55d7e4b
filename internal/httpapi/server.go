package httpapi

import (
	"errors"
	"net/http"

	"github.com/gnomonworks/sundial-forge/core"
	"github.com/gnomonworks/sundial-forge/ephemeris"
	"github.com/gnomonworks/sundial-forge/internal/logging"
	"github.com/gnomonworks/sundial-forge/internal/observability"
	"github.com/gnomonworks/sundial-forge/sites"
)

// Config carries a Server's dependencies and tunables.
type Config struct {
	Log     logging.Logger
	Metrics *observability.Collector
	Oracle  ephemeris.Source
	Catalog *sites.Catalog
	// DaySamples is the sample count for day-sweep validation;
	// core.DefaultDaySamples when zero or negative.
	DaySamples int
	// PathSamples is the sample count for sun paths;
	// ephemeris.DefaultPathSamples when zero or negative.
	PathSamples int
}

// Server implements the instrument API over the shared oracle and site
// catalog. Handlers hold no mutable state of their own.
type Server struct {
	log     logging.Logger
	metrics *observability.Collector
	oracle  ephemeris.Source
	catalog *sites.Catalog

	daySamples  int
	pathSamples int
}

// NewServer wires the API handlers to their dependencies.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Oracle == nil {
		return nil, errors.New("httpapi: oracle is required")
	}
	log := cfg.Log
	if log == nil {
		log = logging.Noop()
	}
	catalog := cfg.Catalog
	if catalog == nil {
		catalog = sites.NewCatalog()
	}
	daySamples := cfg.DaySamples
	if daySamples <= 0 {
		daySamples = core.DefaultDaySamples
	}
	pathSamples := cfg.PathSamples
	if pathSamples <= 0 {
		pathSamples = ephemeris.DefaultPathSamples
	}

	return &Server{
		log:         log,
		metrics:     cfg.Metrics,
		oracle:      cfg.Oracle,
		catalog:     catalog,
		daySamples:  daySamples,
		pathSamples: pathSamples,
	}, nil
}

// Routes assembles the route table and the middleware chain around it.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/generate", s.handleGenerate)
	mux.HandleFunc("POST /api/v1/validate", s.handleValidate)
	mux.HandleFunc("POST /api/v1/validate/location", s.handleValidateLocation)
	mux.HandleFunc("POST /api/v1/validate/suncheck", s.handleSuncheck)
	mux.HandleFunc("POST /api/v1/astronomy/sunpath", s.handleSunPath)
	mux.HandleFunc("POST /api/v1/astronomy/position", s.handleSunPosition)
	mux.HandleFunc("GET /api/v1/sites", s.handleListSites)
	mux.HandleFunc("GET /api/v1/sites/{name}", s.handleGetSite)
	mux.HandleFunc("POST /api/v1/export/{format}", s.handleExport)
	mux.HandleFunc("GET /healthz", s.handleHealthz)

	// Metrics and recovery sit directly on the mux so the matched route
	// pattern and panic-500s stay visible to the recorder.
	var h http.Handler = mux
	h = RecoverMiddleware()(h)
	h = MetricsMiddleware(s.metrics)(h)
	h = TracingMiddleware()(h)
	h = RequestIDMiddleware(s.log)(h)
	return h
}
