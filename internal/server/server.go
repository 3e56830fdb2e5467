package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/schema"

	"github.com/unkn0wn-root/apidash/internal/catalog"
	"github.com/unkn0wn-root/apidash/internal/config"
	"github.com/unkn0wn-root/apidash/internal/errdef"
	"github.com/unkn0wn-root/apidash/internal/runner"
	"github.com/unkn0wn-root/apidash/internal/store"
)

// Server exposes the dashboard JSON API the browser UI talks to. All
// state mutation goes through the store; the parsed document is the
// only in-process cache and is swapped whole on upload.
type Server struct {
	store    *store.Store
	runner   *runner.Runner
	settings config.Settings
	validate *validator.Validate
	decoder  *schema.Decoder
	logger   *log.Logger

	mu        sync.RWMutex
	doc       *catalog.Document
	docName   string
	docSource string
}

func New(st *store.Store, run *runner.Runner, settings config.Settings, logger *log.Logger) *Server {
	decoder := schema.NewDecoder()
	decoder.IgnoreUnknownKeys(true)
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		store:    st,
		runner:   run,
		settings: settings,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		decoder:  decoder,
		logger:   logger,
	}
}

// SetDocument installs the parsed document served to clients.
func (s *Server) SetDocument(doc *catalog.Document, name, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	s.docName = name
	s.docSource = source
}

func (s *Server) document() (*catalog.Document, string, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc, s.docName, s.docSource
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/doc", s.handleGetDoc)
	mux.HandleFunc("POST /api/doc", s.handleUploadDoc)
	mux.HandleFunc("POST /api/doc/openapi", s.handleImportOpenAPI)
	mux.HandleFunc("GET /api/endpoints", s.handleEndpoints)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("POST /api/execute", s.handleExecute)
	mux.HandleFunc("GET /api/environments", s.handleListEnvironments)
	mux.HandleFunc("POST /api/environments", s.handleSaveEnvironment)
	mux.HandleFunc("POST /api/environments/{id}/activate", s.handleActivateEnvironment)
	mux.HandleFunc("DELETE /api/environments/{id}", s.handleDeleteEnvironment)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/export/{format}", s.handleExport)
	return mux
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Printf("encode response: %v", err)
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps classified errors to HTTP statuses; every failure
// is reported inline, nothing is swallowed.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch errdef.CodeOf(err) {
	case errdef.CodeParse, errdef.CodeTemplate:
		status = http.StatusBadRequest
	case errdef.CodeHTTP:
		status = http.StatusBadGateway
	}
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		status = http.StatusBadRequest
	}
	s.writeJSON(w, status, errorResponse{
		Error:   string(errdef.CodeOf(err)),
		Message: err.Error(),
	})
}

func (s *Server) requireDocument(w http.ResponseWriter) (*catalog.Document, bool) {
	doc, _, _ := s.document()
	if doc == nil {
		s.writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "no API documentation loaded",
		})
		return nil, false
	}
	return doc, true
}
