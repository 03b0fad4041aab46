package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"jiskefet/internal/ports"
	"jiskefet/internal/usecase/logbook"
)

// Services bundles the usecases exposed over HTTP.
type Services struct {
	Runs        *logbook.RunService
	Flps        *logbook.FlpRoleAggregator
	Detectors   *logbook.DetectorLinker
	Registry    *logbook.DetectorRegistry
	Logs        *logbook.LogService
	LogRuns     *logbook.LogRunLinker
	Attachments *logbook.AttachmentLinker
	Tokens      *logbook.TokenService
}

func (s Services) validate() error {
	if s.Runs == nil || s.Flps == nil || s.Detectors == nil || s.Registry == nil {
		return errors.New("run, flp and detector services are required")
	}
	if s.Logs == nil || s.LogRuns == nil || s.Attachments == nil || s.Tokens == nil {
		return errors.New("log, attachment and token services are required")
	}
	return nil
}

type Options struct {
	JWTSecret string
	// Ping reports store health for /healthz. Optional.
	Ping func(context.Context) error
}

// Server holds the HTTP handlers of the logbook API.
type Server struct {
	services  Services
	sink      ports.DiagnosticSink
	jwtSecret string
	ping      func(context.Context) error
}

func NewServer(services Services, sink ports.DiagnosticSink, opts Options) (*Server, error) {
	if err := services.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(opts.JWTSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}
	return &Server{
		services:  services,
		sink:      sink,
		jwtSecret: opts.JWTSecret,
		ping:      opts.Ping,
	}, nil
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(withRequestID)
	r.Use(accessLog)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	r.Get("/healthz", s.handleHealthz)
	r.Get("/users/{userID}/tokens", s.handleListTokens)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Post("/users/{userID}/tokens", s.handleIssueToken)

		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleCreateRun)
			r.Get("/", s.handleListRuns)
			r.Get("/{runNumber}", s.handleFindRun)
			r.Patch("/{runNumber}", s.handleEndRun)
			r.Get("/{runNumber}/logs", s.handleLogsByRun)
			r.Get("/{runNumber}/flps", s.handleFlpsByRun)
			r.Get("/{runNumber}/detectors", s.handleDetectorsByRun)
			r.Put("/{runNumber}/detectors/{detectorID}", s.handleLinkDetector)
		})

		r.Get("/detectors", s.handleListDetectors)
		r.Post("/detectors", s.handleRegisterDetector)

		r.Route("/logs", func(r chi.Router) {
			r.Post("/", s.handleCreateLog)
			r.Get("/", s.handleListLogs)
			r.Get("/{logID}", s.handleFindLog)
			r.Patch("/{logID}/runs", s.handleLinkRun)
			r.Get("/{logID}/runs", s.handleRunsByLog)
		})

		r.Post("/attachments", s.handleCreateAttachment)
		r.Get("/attachments/{logID}/logs", s.handleAttachmentsByLog)

		r.Post("/flp", s.handleCreateFlp)
		r.Get("/flp/{flpName}/runs/{runNumber}", s.handleFindFlp)
		r.Patch("/flp/{flpName}/runs/{runNumber}", s.handlePatchFlp)
	})

	return r
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		if err := s.ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "unavailable", "store is not reachable", nil)
			return
		}
	}
	writeData(w, http.StatusOK, map[string]string{"status": "ok"}, nil)
}
