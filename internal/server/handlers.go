package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/unkn0wn-root/apidash/internal/catalog"
	"github.com/unkn0wn-root/apidash/internal/envio"
	"github.com/unkn0wn-root/apidash/internal/errdef"
	"github.com/unkn0wn-root/apidash/internal/export"
	"github.com/unkn0wn-root/apidash/internal/openapi"
	"github.com/unkn0wn-root/apidash/internal/runner"
	"github.com/unkn0wn-root/apidash/internal/store"
	"github.com/unkn0wn-root/apidash/internal/vars"
)

// maxSpecBytes caps uploaded OpenAPI spec size.
const maxSpecBytes = 16 << 20

func (s *Server) handleGetDoc(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.requireDocument(w)
	if !ok {
		return
	}
	_, name, source := s.document()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":       name,
		"source":     source,
		"navigation": doc.Tree,
		"endpoints":  doc.Endpoints,
	})
}

type uploadDocRequest struct {
	Name     string          `json:"name" validate:"required"`
	Source   string          `json:"source"`
	Document json.RawMessage `json:"document" validate:"required"`
}

func (s *Server) handleUploadDoc(w http.ResponseWriter, r *http.Request) {
	var req uploadDocRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errdef.Wrap(errdef.CodeParse, err, "decode upload"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, err)
		return
	}

	doc, err := catalog.Parse(req.Document)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.store.SaveDocument(r.Context(), req.Name, req.Source, req.Document); err != nil {
		s.writeError(w, err)
		return
	}

	s.SetDocument(doc, req.Name, req.Source)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":            req.Name,
		"total_endpoints": len(doc.Endpoints),
		"categories":      doc.Categories(),
	})
}

// handleImportOpenAPI accepts a raw OpenAPI 3 spec (JSON or YAML) and
// converts it into the catalog shape before storing it. The optional
// name query parameter overrides the spec title.
func (s *Server) handleImportOpenAPI(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxSpecBytes))
	if err != nil {
		s.writeError(w, errdef.Wrap(errdef.CodeParse, err, "read spec body"))
		return
	}

	imported, err := openapi.Import(r.Context(), data, openapi.ImportOptions{})
	if err != nil {
		s.writeError(w, err)
		return
	}

	name := r.URL.Query().Get("name")
	if name == "" {
		name = imported.Title
	}
	if name == "" {
		name = "OpenAPI Import"
	}
	if _, err := s.store.SaveDocument(r.Context(), name, "openapi", imported.Raw); err != nil {
		s.writeError(w, err)
		return
	}

	s.SetDocument(imported.Document, name, "openapi")
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":            name,
		"version":         imported.Version,
		"total_endpoints": len(imported.Document.Endpoints),
		"categories":      imported.Document.Categories(),
	})
}

type endpointsQuery struct {
	Query    string `schema:"q"`
	Category string `schema:"category"`
}

func (s *Server) handleEndpoints(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.requireDocument(w)
	if !ok {
		return
	}

	var query endpointsQuery
	if err := s.decoder.Decode(&query, r.URL.Query()); err != nil {
		s.writeError(w, errdef.Wrap(errdef.CodeParse, err, "decode query"))
		return
	}

	endpoints := doc.Search(query.Query)
	if query.Category != "" {
		filtered := endpoints[:0:0]
		for _, ep := range endpoints {
			if ep.Category == query.Category {
				filtered = append(filtered, ep)
			}
		}
		endpoints = filtered
	}
	if endpoints == nil {
		endpoints = []catalog.Endpoint{}
	}
	s.writeJSON(w, http.StatusOK, endpoints)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.requireDocument(w)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, doc.Categories())
}

type executeRequest struct {
	Endpoint    string            `json:"endpoint"`
	Method      string            `json:"method" validate:"required,oneof=GET POST PUT DELETE PATCH HEAD OPTIONS"`
	URL         string            `json:"url" validate:"required"`
	Headers     map[string]string `json:"headers"`
	HeadersText string            `json:"headers_text"`
	Body        interface{}       `json:"body"`
	BodyText    string            `json:"body_text"`
	Query       map[string]string `json:"query"`
	QueryText   string            `json:"query_text"`
}

// handleExecute resolves the active environment, substitutes
// templates, performs the call and appends the flattened outcome to
// history. Template text fields are JSON and must parse before
// anything is sent.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errdef.Wrap(errdef.CodeParse, err, "decode execute request"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, err)
		return
	}

	headers := req.Headers
	if req.HeadersText != "" {
		parsed, err := runner.ParseHeaderTemplate(req.HeadersText)
		if err != nil {
			s.writeError(w, err)
			return
		}
		headers = parsed
	}
	body := req.Body
	if req.BodyText != "" {
		parsed, err := runner.ParseBodyTemplate(req.BodyText)
		if err != nil {
			s.writeError(w, err)
			return
		}
		body = parsed
	}
	query := req.Query
	if req.QueryText != "" {
		parsed, err := runner.ParseQueryTemplate(req.QueryText)
		if err != nil {
			s.writeError(w, err)
			return
		}
		query = parsed
	}

	activeEnv, err := s.store.ActiveEnvironment(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	var resolver *vars.Resolver
	var envID *int64
	if activeEnv != nil {
		resolver = vars.NewResolver(vars.NewMapProvider(activeEnv.Name, activeEnv.Variables))
		envID = &activeEnv.ID
	}

	request := runner.Request{
		Name:        req.Endpoint,
		Method:      req.Method,
		URL:         req.URL,
		Headers:     headers,
		Body:        body,
		QueryParams: query,
	}
	opts := runner.Options{Timeout: s.settings.Timeout(), FollowRedirects: true}
	result := s.runner.Execute(r.Context(), request, resolver, opts)

	entry := historyEntryFrom(req, headers, result, envID)
	if _, err := s.store.AppendHistory(r.Context(), entry); err != nil {
		// history failure must not mask the response, but it is not silent either
		s.logger.Printf("append history: %v", err)
	}

	s.writeJSON(w, http.StatusOK, result)
}

func historyEntryFrom(
	req executeRequest,
	headers map[string]string,
	result *runner.Result,
	envID *int64,
) store.HistoryEntry {
	endpoint := req.Endpoint
	if endpoint == "" {
		endpoint = req.URL
	}
	requestHeaders, _ := json.Marshal(headers)
	responseHeaders, _ := json.Marshal(result.Headers)

	var requestBody string
	switch v := req.Body.(type) {
	case nil:
		requestBody = req.BodyText
	case string:
		requestBody = v
	default:
		if data, err := json.Marshal(v); err == nil {
			requestBody = string(data)
		}
	}

	return store.HistoryEntry{
		Endpoint:        endpoint,
		Method:          req.Method,
		RequestHeaders:  string(requestHeaders),
		RequestBody:     requestBody,
		Status:          result.StatusCode,
		ResponseHeaders: string(responseHeaders),
		ResponseBody:    result.Body,
		ElapsedMS:       result.ElapsedMS,
		EnvironmentID:   envID,
	}
}

type environmentPayload struct {
	ID          int64             `json:"id,omitempty"`
	Name        string            `json:"name" validate:"required"`
	Description string            `json:"description"`
	Variables   map[string]string `json:"variables"`
	Activate    bool              `json:"activate"`
	IsActive    bool              `json:"is_active,omitempty"`
}

func (s *Server) handleListEnvironments(w http.ResponseWriter, r *http.Request) {
	envs, err := s.store.Environments(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	payload := make([]environmentPayload, 0, len(envs))
	for _, env := range envs {
		payload = append(payload, environmentPayload{
			ID:          env.ID,
			Name:        env.Name,
			Description: env.Description,
			Variables:   env.Variables,
			IsActive:    env.IsActive,
		})
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *Server) handleSaveEnvironment(w http.ResponseWriter, r *http.Request) {
	var req environmentPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errdef.Wrap(errdef.CodeParse, err, "decode environment"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.writeError(w, err)
		return
	}

	id, err := s.store.SaveEnvironment(r.Context(), store.Environment{
		Name:        req.Name,
		Description: req.Description,
		Variables:   req.Variables,
	}, req.Activate)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

func (s *Server) handleActivateEnvironment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, errdef.Wrap(errdef.CodeParse, err, "parse environment id"))
		return
	}
	activated, err := s.store.ActivateEnvironment(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !activated {
		s.writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "environment not found",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"active": true})
}

func (s *Server) handleDeleteEnvironment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		s.writeError(w, errdef.Wrap(errdef.CodeParse, err, "parse environment id"))
		return
	}
	deleted, err := s.store.DeleteEnvironment(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !deleted {
		s.writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "environment not found",
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

type historyQuery struct {
	Limit int `schema:"limit"`
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var query historyQuery
	if err := s.decoder.Decode(&query, r.URL.Query()); err != nil {
		s.writeError(w, errdef.Wrap(errdef.CodeParse, err, "decode query"))
		return
	}
	limit := query.Limit
	if limit <= 0 {
		limit = s.settings.HistoryLimit
	}
	entries, err := s.store.RecentHistory(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []store.HistoryEntry{}
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc, ok := s.requireDocument(w)
	if !ok {
		return
	}
	_, name, source := s.document()
	now := time.Now()

	var (
		data        []byte
		err         error
		contentType = "application/json"
	)
	switch format := r.PathValue("format"); format {
	case "json":
		data, err = export.JSONDump(doc, name, source, now)
	case "postman":
		data, err = export.Postman(doc, name, source, now)
	case "markdown":
		data = export.Markdown(doc, name, source, now)
		contentType = "text/markdown"
	case "report":
		data, err = export.Report(doc, now)
	case "environments":
		var envs []store.Environment
		envs, err = s.store.Environments(r.Context())
		if err == nil {
			data, err = envio.ExportReport(envs, now)
		}
	default:
		s.writeJSON(w, http.StatusNotFound, errorResponse{
			Error:   "not_found",
			Message: "unknown export format " + format,
		})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
