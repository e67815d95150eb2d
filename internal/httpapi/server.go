// SPDX-License-Identifier: MIT

package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/castlib/strmorg/internal/classify"
	"github.com/castlib/strmorg/internal/jobs"
	"github.com/castlib/strmorg/internal/log"
	"github.com/castlib/strmorg/internal/materialize"
	"github.com/castlib/strmorg/internal/metadata"
	"github.com/castlib/strmorg/internal/orchestrator"
	"github.com/castlib/strmorg/internal/scanner"
	"github.com/castlib/strmorg/internal/session"
	"github.com/castlib/strmorg/internal/storage"
)

// Server is the HTTP front door over one Orchestrator.
type Server struct {
	orch            *orchestrator.Orchestrator
	rateLimitPerMin int

	// Enqueuer, if set, dispatches generate-strm/organize as asynq jobs
	// rather than running them inline on the request goroutine, so a run
	// survives the caller disconnecting.
	Enqueuer *jobs.Enqueuer
}

// NewServer returns a Server ready to be mounted via Handler.
func NewServer(orch *orchestrator.Orchestrator, rateLimitPerMin int) *Server {
	return &Server{orch: orch, rateLimitPerMin: rateLimitPerMin}
}

// Handler builds the chi router exposing the orchestrator's operations as JSON endpoints.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID, accessLog, rateLimit(s.rateLimitPerMin))

	r.Get("/healthz", s.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/sessions/{sessionID}", func(r chi.Router) {
		r.Post("/connect-source", s.handleConnectSource)
		r.Post("/connect-target", s.handleConnectTarget)
		r.Post("/user-config", s.handleSetUserConfig)
		r.Post("/scan", s.handleScan)
		r.Get("/files", s.handleListFiles)
		r.Post("/classify", s.handleClassify)
		r.Post("/organize", s.handleOrganize)
		r.Post("/generate-strm", s.handleGenerateStrm)
		r.Post("/retry-failed", s.handleRetryFailed)
	})

	r.Get("/metadata/search", s.handleLookupMetadata)
	r.Get("/metadata/series/{seriesID}", s.handleGetMetadataDetails)

	return otelhttp.NewHandler(r, "strmorg.httpapi")
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type connectRequest struct {
	BaseURL  string `json:"base_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type opResponse struct {
	Message string                 `json:"message"`
	Delta   session.FrontendDelta  `json:"delta"`
}

func (s *Server) handleConnectSource(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, delta, err := s.orch.ConnectSource(r.Context(), chi.URLParam(r, "sessionID"), req.BaseURL, req.Username, req.Password, storage.Options{})
	respondOp(w, r, msg, delta, err)
}

func (s *Server) handleConnectTarget(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, delta, err := s.orch.ConnectTarget(r.Context(), chi.URLParam(r, "sessionID"), req.BaseURL, req.Username, req.Password, storage.Options{})
	respondOp(w, r, msg, delta, err)
}

func (s *Server) handleSetUserConfig(w http.ResponseWriter, r *http.Request) {
	var cfg session.UserConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	msg, delta, err := s.orch.SetUserConfig(r.Context(), chi.URLParam(r, "sessionID"), cfg)
	respondOp(w, r, msg, delta, err)
}

type scanRequest struct {
	Path           string  `json:"path"`
	Recursive      bool    `json:"recursive"`
	MaxFiles       int     `json:"max_files"`
	MaxDepth       int     `json:"max_depth"`
	ScanDelaySecs  float64 `json:"scan_delay_s"`
}

func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opts := scanner.Options{
		Recursive: req.Recursive,
		MaxDepth:  req.MaxDepth,
		MaxFiles:  req.MaxFiles,
		ScanDelay: time.Duration(req.ScanDelaySecs * float64(time.Second)),
	}
	msg, delta, err := s.orch.Scan(r.Context(), chi.URLParam(r, "sessionID"), req.Path, opts)
	respondOp(w, r, msg, delta, err)
}

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := orchestrator.ListFilter(q.Get("filter"))
	if filter == "" {
		filter = orchestrator.ListAll
	}
	offset := atoiDefault(q.Get("offset"), 0)
	limit := atoiDefault(q.Get("limit"), 100)

	files, err := s.orch.ListFiles(r.Context(), chi.URLParam(r, "sessionID"), filter, offset, limit, q.Get("pattern"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, files)
}

type classifyRequest struct {
	Rules []classify.Rule `json:"rules"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	msg, delta, err := s.orch.Classify(r.Context(), chi.URLParam(r, "sessionID"), req.Rules)
	respondOp(w, r, msg, delta, err)
}

type materializeRequest struct {
	OutputRoot       string                    `json:"output_root"`
	NamingLanguage   string                    `json:"naming_language"`
	UploadDelaySecs  float64                   `json:"upload_delay_s"`
	Items            []materialize.VideoItem   `json:"items"`
}

func (s *Server) handleOrganize(w http.ResponseWriter, r *http.Request) {
	var req materializeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	if s.Enqueuer != nil {
		taskID, err := s.Enqueuer.EnqueueOrganize(r.Context(), jobs.OrganizePayload{
			SessionID: sessionID, OutputRoot: req.OutputRoot, Language: req.NamingLanguage, Items: req.Items,
		})
		respondOp(w, r, fmt.Sprintf("organize queued as task %s", taskID), session.FrontendDelta{}, err)
		return
	}

	msg, delta, err := s.orch.Organize(r.Context(), sessionID, req.OutputRoot, req.NamingLanguage, req.Items)
	respondOp(w, r, msg, delta, err)
}

func (s *Server) handleGenerateStrm(w http.ResponseWriter, r *http.Request) {
	var req materializeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	if s.Enqueuer != nil {
		taskID, err := s.Enqueuer.EnqueueGenerateStrm(r.Context(), jobs.GenerateStrmPayload{
			SessionID: sessionID, OutputRoot: req.OutputRoot, Language: req.NamingLanguage,
			UploadDelaySeconds: req.UploadDelaySecs, Items: req.Items,
		})
		respondOp(w, r, fmt.Sprintf("generate_strm queued as task %s", taskID), session.FrontendDelta{}, err)
		return
	}

	delay := time.Duration(req.UploadDelaySecs * float64(time.Second))
	msg, delta, err := s.orch.GenerateStrm(r.Context(), sessionID, req.OutputRoot, req.NamingLanguage, delay, req.Items)
	respondOp(w, r, msg, delta, err)
}

func (s *Server) handleRetryFailed(w http.ResponseWriter, r *http.Request) {
	msg, delta, err := s.orch.RetryFailed(r.Context(), chi.URLParam(r, "sessionID"))
	respondOp(w, r, msg, delta, err)
}

func (s *Server) handleLookupMetadata(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hits, err := s.orch.LookupMetadata(r.Context(), q.Get("query"), metadata.Kind(q.Get("kind")))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, hits)
}

func (s *Server) handleGetMetadataDetails(w http.ResponseWriter, r *http.Request) {
	meta, err := s.orch.GetMetadataDetails(r.Context(), chi.URLParam(r, "seriesID"))
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func respondOp(w http.ResponseWriter, r *http.Request, msg string, delta session.FrontendDelta, err error) {
	if err != nil {
		log.FromContext(r.Context()).Warn().Err(err).Msg("httpapi: operation failed")
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, opResponse{Message: msg, Delta: delta})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return def
		}
		n = n*10 + int(c-'0')
	}
	return n
}
