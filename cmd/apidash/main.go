package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/unkn0wn-root/apidash/internal/catalog"
	"github.com/unkn0wn-root/apidash/internal/config"
	"github.com/unkn0wn-root/apidash/internal/envio"
	"github.com/unkn0wn-root/apidash/internal/export"
	"github.com/unkn0wn-root/apidash/internal/fetch"
	"github.com/unkn0wn-root/apidash/internal/openapi"
	"github.com/unkn0wn-root/apidash/internal/runner"
	"github.com/unkn0wn-root/apidash/internal/server"
	"github.com/unkn0wn-root/apidash/internal/store"
	"github.com/unkn0wn-root/apidash/internal/telemetry"
	"github.com/unkn0wn-root/apidash/internal/vars"
	"github.com/unkn0wn-root/apidash/internal/watcher"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		docPath     string
		docURL      string
		openapiPath string
		docName     string
		listen      string
		searchQuery string
		categoryF   string
		execRaw     string
		headersText string
		bodyText    string
		queryText   string
		importEnv   string
		activateEnv string
		exportFmt   string
		exportOut   string
		historyN    int
		showVersion bool
	)

	flag.StringVar(&docPath, "doc", "", "Path to API documentation JSON file to load")
	flag.StringVar(&docURL, "doc-url", "", "URL to fetch API documentation JSON from")
	flag.StringVar(&openapiPath, "openapi", "", "Path to an OpenAPI 3 spec to import as documentation")
	flag.StringVar(&docName, "doc-name", "", "Name to store the documentation under")
	flag.StringVar(&listen, "listen", "", "Address to serve the dashboard API on")
	flag.StringVar(&searchQuery, "search", "", "Search endpoints and print matches")
	flag.StringVar(&categoryF, "category", "", "Filter endpoints by exact category")
	flag.StringVar(&execRaw, "exec", "", "Execute an endpoint (raw string or \"METHOD URL\")")
	flag.StringVar(&headersText, "headers", "", "Headers template JSON for -exec")
	flag.StringVar(&bodyText, "body", "", "Body template JSON for -exec")
	flag.StringVar(&queryText, "query", "", "Query params template JSON for -exec")
	flag.StringVar(&importEnv, "import-env", "", "Import an environment file (JSON or .env)")
	flag.StringVar(&activateEnv, "activate-env", "", "Activate the named environment")
	flag.StringVar(&exportFmt, "export", "", "Export documentation (json|postman|markdown|report)")
	flag.StringVar(&exportOut, "out", "", "Destination file for -export")
	flag.IntVar(&historyN, "history", 0, "Print the N most recent history entries")
	flag.BoolVar(&showVersion, "version", false, "Show apidash version")
	flag.Parse()

	if showVersion {
		fmt.Printf("apidash %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	logger := log.New(os.Stderr, "", log.LstdFlags)

	settings, _, err := config.LoadSettings()
	if err != nil {
		logger.Fatalf("load settings: %v", err)
	}

	st, err := store.Open(settings.DatabasePath)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	instr, err := telemetry.New(telemetry.ConfigFromEnv(os.Getenv))
	if err != nil {
		logger.Fatalf("init telemetry: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = instr.Shutdown(ctx)
	}()

	run := runner.New()
	run.SetTelemetry(instr)

	ctx := context.Background()

	if importEnv != "" {
		if err := importEnvironment(ctx, st, importEnv, logger); err != nil {
			logger.Fatalf("import environment: %v", err)
		}
	}
	if activateEnv != "" {
		if err := activateEnvironment(ctx, st, activateEnv); err != nil {
			logger.Fatalf("activate environment: %v", err)
		}
		logger.Printf("environment %q is now active", activateEnv)
	}

	doc, name, source, err := loadDocument(ctx, st, docPath, docURL, openapiPath, docName)
	if err != nil {
		logger.Fatalf("load documentation: %v", err)
	}

	if searchQuery != "" || categoryF != "" {
		requireDoc(doc, logger)
		printEndpoints(doc, searchQuery, categoryF)
		return
	}

	if exportFmt != "" {
		requireDoc(doc, logger)
		if err := exportDocument(doc, name, source, exportFmt, exportOut); err != nil {
			logger.Fatalf("export: %v", err)
		}
		return
	}

	if execRaw != "" {
		requireDoc(doc, logger)
		if err := execEndpoint(ctx, st, run, doc, settings, execRaw, headersText, bodyText, queryText); err != nil {
			logger.Fatalf("execute: %v", err)
		}
		return
	}

	if historyN > 0 {
		printHistory(ctx, st, historyN, logger)
		return
	}

	// no one-shot action requested: serve the dashboard API
	if listen == "" {
		listen = settings.Listen
	}
	srv := server.New(st, run, settings, logger)
	if doc != nil {
		srv.SetDocument(doc, name, source)
	}
	if docPath != "" {
		go watchDocument(ctx, st, srv, docPath, name, logger)
	}
	logger.Printf("apidash listening on %s", listen)
	if err := http.ListenAndServe(listen, srv.Handler()); err != nil {
		logger.Fatalf("serve: %v", err)
	}
}

// watchDocument re-parses and re-publishes the documentation file
// whenever it changes on disk.
func watchDocument(
	ctx context.Context,
	st *store.Store,
	srv *server.Server,
	path, name string,
	logger *log.Logger,
) {
	seed, err := os.ReadFile(path)
	if err != nil {
		logger.Printf("watch %s: %v", path, err)
		return
	}
	reloader := watcher.New(path, seed, func(data []byte) error {
		doc, err := catalog.Parse(data)
		if err != nil {
			return err
		}
		if _, err := st.SaveDocument(ctx, name, path, data); err != nil {
			return err
		}
		srv.SetDocument(doc, name, path)
		logger.Printf("reloaded documentation from %s (%d endpoints)", path, len(doc.Endpoints))
		return nil
	}, watcher.Options{OnError: func(err error) {
		logger.Printf("watch %s: %v", path, err)
	}})
	reloader.Run(ctx)
}

func requireDoc(doc *catalog.Document, logger *log.Logger) {
	if doc == nil {
		logger.Fatal("no documentation loaded: pass -doc or -doc-url, or upload one first")
	}
}

// loadDocument prefers an explicit file or URL; otherwise it falls
// back to the most recently stored document.
func loadDocument(
	ctx context.Context,
	st *store.Store,
	path, url, openapiPath, name string,
) (*catalog.Document, string, string, error) {
	var (
		data   []byte
		source string
		err    error
	)
	switch {
	case openapiPath != "":
		imported, importErr := openapi.ImportFile(ctx, openapiPath, openapi.ImportOptions{})
		if importErr != nil {
			return nil, "", "", importErr
		}
		if name == "" {
			name = imported.Title
		}
		if name == "" {
			name = "OpenAPI Import"
		}
		if _, err := st.SaveDocument(ctx, name, openapiPath, imported.Raw); err != nil {
			return nil, "", "", err
		}
		return imported.Document, name, openapiPath, nil
	case path != "":
		data, err = os.ReadFile(path)
		source = path
	case url != "":
		data, err = fetch.NewClient().Document(ctx, url)
		source = url
	default:
		docs, listErr := st.Documents(ctx)
		if listErr != nil {
			return nil, "", "", listErr
		}
		if len(docs) == 0 {
			return nil, "", "", nil
		}
		latest := docs[0]
		for _, candidate := range docs[1:] {
			if candidate.ModifiedAt.After(latest.ModifiedAt) {
				latest = candidate
			}
		}
		doc, parseErr := catalog.Parse(latest.Content)
		if parseErr != nil {
			return nil, "", "", parseErr
		}
		return doc, latest.Name, latest.Source, nil
	}
	if err != nil {
		return nil, "", "", err
	}

	doc, err := catalog.Parse(data)
	if err != nil {
		return nil, "", "", err
	}
	if name == "" {
		name = "API Documentation"
	}
	if _, err := st.SaveDocument(ctx, name, source, data); err != nil {
		return nil, "", "", err
	}
	return doc, name, source, nil
}

func printEndpoints(doc *catalog.Document, query, category string) {
	endpoints := doc.Search(query)
	for _, ep := range endpoints {
		if category != "" && ep.Category != category {
			continue
		}
		fmt.Printf("%-50s  %s\n", ep.DisplayLabel(), ep.Category)
	}
}

func exportDocument(doc *catalog.Document, name, source, format, out string) error {
	now := time.Now()
	var (
		data []byte
		err  error
		ext  string
	)
	switch format {
	case "json":
		data, err = export.JSONDump(doc, name, source, now)
		ext = "json"
	case "postman":
		data, err = export.Postman(doc, name, source, now)
		ext = "json"
	case "markdown":
		data = export.Markdown(doc, name, source, now)
		ext = "md"
	case "report":
		data, err = export.Report(doc, now)
		ext = "json"
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return err
	}
	if out == "" {
		out = fmt.Sprintf("apidash_export_%s.%s", now.Format("20060102_150405"), ext)
	}
	if err := export.WriteFile(out, data); err != nil {
		return err
	}
	fmt.Printf("exported %s to %s\n", format, out)
	return nil
}

func execEndpoint(
	ctx context.Context,
	st *store.Store,
	run *runner.Runner,
	doc *catalog.Document,
	settings config.Settings,
	raw, headersText, bodyText, queryText string,
) error {
	req := runner.Request{
		Method: catalog.MethodFromRaw(raw),
		URL:    catalog.URLFromRaw(raw),
	}
	if ep, ok := doc.EndpointByRaw(raw); ok {
		req.Name = ep.Raw
		req.Category = ep.Category
		req.Method = ep.Method
		req.URL = ep.URL
	}

	headers, err := runner.ParseHeaderTemplate(headersText)
	if err != nil {
		return err
	}
	body, err := runner.ParseBodyTemplate(bodyText)
	if err != nil {
		return err
	}
	query, err := runner.ParseQueryTemplate(queryText)
	if err != nil {
		return err
	}
	req.Headers = headers
	req.Body = body
	req.QueryParams = query

	activeEnv, err := st.ActiveEnvironment(ctx)
	if err != nil {
		return err
	}
	var resolver *vars.Resolver
	var envID *int64
	if activeEnv != nil {
		resolver = vars.NewResolver(vars.NewMapProvider(activeEnv.Name, activeEnv.Variables))
		envID = &activeEnv.ID
	}

	opts := runner.Options{Timeout: settings.Timeout(), FollowRedirects: true}
	result := run.Execute(ctx, req, resolver, opts)

	fmt.Printf("%s %s -> %d (%s) in %dms, %d bytes\n",
		req.Method, result.EffectiveURL, result.StatusCode,
		runner.StatusColor(result.StatusCode), result.ElapsedMS, result.Size)
	if result.Error != "" {
		fmt.Printf("error: %s\n", result.Error)
	}
	fmt.Println(result.Body)

	endpoint := req.Name
	if endpoint == "" {
		endpoint = req.URL
	}
	entry := store.HistoryEntry{
		Endpoint:     endpoint,
		Method:       req.Method,
		RequestBody:  bodyText,
		Status:       result.StatusCode,
		ResponseBody: result.Body,
		ElapsedMS:    result.ElapsedMS,
	}
	entry.EnvironmentID = envID
	if _, err := st.AppendHistory(ctx, entry); err != nil {
		return err
	}
	return nil
}

func importEnvironment(ctx context.Context, st *store.Store, path string, logger *log.Logger) error {
	imported, err := envio.LoadFile(path)
	if err != nil {
		return err
	}
	id, err := st.SaveEnvironment(ctx, store.Environment{
		Name:        imported.Name,
		Description: imported.Description,
		Variables:   imported.Variables,
	}, false)
	if err != nil {
		return err
	}
	logger.Printf("imported environment %q (%d variables, format %s, id %d)",
		imported.Name, len(imported.Variables), imported.Format, id)
	return nil
}

func activateEnvironment(ctx context.Context, st *store.Store, name string) error {
	envs, err := st.Environments(ctx)
	if err != nil {
		return err
	}
	for _, env := range envs {
		if strings.EqualFold(env.Name, name) {
			activated, err := st.ActivateEnvironment(ctx, env.ID)
			if err != nil {
				return err
			}
			if !activated {
				return fmt.Errorf("environment %q vanished during activation", name)
			}
			return nil
		}
	}
	return fmt.Errorf("environment %q not found", name)
}

func printHistory(ctx context.Context, st *store.Store, limit int, logger *log.Logger) {
	entries, err := st.RecentHistory(ctx, limit)
	if err != nil {
		logger.Fatalf("history: %v", err)
	}
	for _, entry := range entries {
		fmt.Printf("%s  %-7s %-40s %3d  %6dms\n",
			entry.ExecutedAt.Format(time.RFC3339), entry.Method,
			entry.Endpoint, entry.Status, entry.ElapsedMS)
	}
}
