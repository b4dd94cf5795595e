// Package main is the docsy CLI entry point.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hyperjump/docsy/internal/cli"
	"github.com/hyperjump/docsy/internal/config"
	"github.com/hyperjump/docsy/internal/embedding"
	"github.com/hyperjump/docsy/internal/fileid"
	"github.com/hyperjump/docsy/internal/indexer"
	"github.com/hyperjump/docsy/internal/models"
	"github.com/hyperjump/docsy/internal/search"
	"github.com/hyperjump/docsy/internal/server"
	"github.com/hyperjump/docsy/internal/storage"
	"github.com/hyperjump/docsy/internal/vector"
	"github.com/hyperjump/docsy/internal/watcher"
	"github.com/hyperjump/docsy/pkg/utils"
)

var version = "dev"

const defaultConfigPath = "/usr/local/etc/docsy/config.yaml"

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// When neither exists, defaults and the environment are used and the returned path
// is empty, so watch directory changes are not persisted.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			cfg := config.Default()
			if err := cfg.Validate(); err != nil {
				return nil, "", err
			}
			return cfg, "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	// A .env file in the working directory may carry API keys.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "context":
		runContext()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "watch":
		runWatch()
	case "status":
		runStatus()
	case "version", "--version", "-v":
		fmt.Printf("docsy version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads the config, builds a logger and initializes components. One-shot
// commands get a quiet logger so stdout carries only their output. It exits on failure.
func setup(configPath string, debug, oneShot bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debug
	newLogger := utils.NewLogger
	if oneShot {
		newLogger = utils.NewCLILogger
	}
	logger, err := newLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(context.Background(), cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging (directory changes, file indexing, etc.)")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug, false)
	defer logger.Sync()
	defer components.Close()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("embedding_provider", cfg.Embedding.Provider),
		zap.String("vector_index", cfg.Vector.Type),
		zap.Bool("retrieval", components.Unavailable == nil),
	)

	// Without an indexer there is nothing to do with inbox files.
	var watchSvc *watcher.Watcher
	var watch server.WatchService
	if components.Indexer != nil {
		watchSvc = newInboxWatcher(cfg, components.Indexer, logger)
		watch = watchSvc
	} else {
		logger.Warn("inbox watcher disabled while retrieval is unavailable")
	}
	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if watchSvc != nil {
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		go watchSvc.SyncExistingFiles()
	}

	srv := server.NewServer(
		components.Engine,
		components.Indexer,
		components.Status,
		components.VectorIndex,
		cfg,
		logger,
		watch,
		resolvedConfigPath,
	)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	if watchSvc != nil {
		watchSvc.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// newInboxWatcher indexes files dropped into <dir>/<notebook>/ and removes the
// chunks of deleted files.
func newInboxWatcher(cfg *config.Config, idx *indexer.Indexer, logger *zap.Logger) *watcher.Watcher {
	exts := cfg.Watch.Extensions
	return watcher.NewWatcher(
		cfg.Watch.Directories,
		exts,
		func(notebookID, path string) {
			res, err := idx.IndexFile(context.Background(), notebookID, path, exts)
			if err != nil {
				logger.Warn("watch index file failed", zap.String("path", path), zap.Error(err))
				return
			}
			if !res.Skipped {
				logger.Info("watch indexed file",
					zap.String("path", path),
					zap.String("notebook_id", notebookID),
					zap.Int("chunks", res.ChunksStored))
			}
		},
		func(path string) {
			if err := idx.DeleteFile(context.Background(), path); err != nil {
				logger.Warn("watch delete by path failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger),
	)
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return errors.New("empty value")
	}
	*s = append(*s, v)
	return nil
}

// printSearchUsage prints search subcommand usage.
func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: docsy %s --notebook <id> [flags] <query>\n\n", fs.Name())
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  docsy search --notebook nb-1 quarterly revenue
  docsy search --notebook nb-1 --doc doc-7 --doc doc-9 "termination clause"
  docsy search --notebook nb-1 --output json --limit 3 onboarding
  docsy context --notebook nb-1 what does the contract say about renewal
`)
}

// buildSearchQuery joins positional args into a single query string so multi-word
// queries work with or without quotes.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// searchArgsReorder moves flags that appear after the query to the front, so
// "docsy search my query --limit 3" parses the flag.
func searchArgsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

// queryFlags are shared by the search and context subcommands.
type queryFlags struct {
	fs         *flag.FlagSet
	configPath *string
	serverURL  *string
	notebook   *string
	docs       stringList
	limit      *int
	output     *string
}

func newQueryFlags(name string) *queryFlags {
	q := &queryFlags{fs: flag.NewFlagSet(name, flag.ExitOnError)}
	q.configPath = q.fs.String("config", defaultConfigPath, "config file path (direct mode)")
	q.serverURL = q.fs.String("server", "", "server URL, e.g. http://localhost:8080 (empty = direct mode)")
	q.notebook = q.fs.String("notebook", "", "notebook to search (required)")
	q.fs.Var(&q.docs, "doc", "restrict to a document id (repeatable)")
	q.limit = q.fs.Int("limit", 0, "number of results (0 = configured default)")
	q.output = q.fs.String("output", "text", "output format: text or json")
	q.fs.Usage = func() { printSearchUsage(q.fs) }
	return q
}

// parse parses args and returns the query text and output format. It exits on
// invalid input.
func (q *queryFlags) parse(args []string) (string, cli.OutputFormat) {
	_ = q.fs.Parse(searchArgsReorder(args))
	queryStr := buildSearchQuery(q.fs.Args())
	if queryStr == "" || strings.TrimSpace(*q.notebook) == "" {
		printSearchUsage(q.fs)
		os.Exit(1)
	}
	format, err := cli.ParseOutputFormat(*q.output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return queryStr, format
}

func runSearch() {
	q := newQueryFlags("search")
	queryStr, format := q.parse(os.Args[2:])

	searchQuery := &models.SearchQuery{
		Query:       queryStr,
		NotebookID:  strings.TrimSpace(*q.notebook),
		DocumentIDs: q.docs,
		Limit:       *q.limit,
	}

	var response *models.SearchResponse
	if *q.serverURL != "" {
		var err error
		response, err = searchViaHTTP(context.Background(), *q.serverURL, searchQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, _, logger, components := setup(*q.configPath, false, true)
		defer logger.Sync()
		defer components.Close()
		components.requireRetrieval()
		var err error
		response, err = components.Engine.Search(context.Background(), searchQuery)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	}
	if err := cli.WriteSearchResults(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runContext() {
	q := newQueryFlags("context")
	queryStr, format := q.parse(os.Args[2:])

	req := models.TurnRequest{
		Query:       queryStr,
		NotebookID:  strings.TrimSpace(*q.notebook),
		DocumentIDs: q.docs,
		Limit:       *q.limit,
	}

	var turn *search.TurnContext
	if *q.serverURL != "" {
		var err error
		turn, err = turnContextViaHTTP(context.Background(), *q.serverURL, req)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Context failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, _, logger, components := setup(*q.configPath, false, true)
		defer logger.Sync()
		defer components.Close()
		turn = components.Engine.BuildTurnContext(context.Background(), req)
	}
	if err := writeTurnContext(os.Stdout, turn, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// writeTurnContext prints the context block a chat turn would send to the
// model, followed by its citation list.
func writeTurnContext(w io.Writer, turn *search.TurnContext, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		return cli.WriteJSON(w, turn)
	}
	fmt.Fprintln(w, turn.Context)
	if !turn.UsedRAG {
		fmt.Fprintln(w, "\n(no retrieved chunks; document fallback used)")
		return nil
	}
	fmt.Fprintf(w, "\n%d citation(s)\n", len(turn.Citations))
	for _, c := range turn.Citations {
		fmt.Fprintf(w, "  [%d] %s  %s  chars %d-%d\n", c.ID, c.DocumentName, c.DocumentID, c.StartChar, c.EndChar)
	}
	return nil
}

func runStatus() {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path (direct mode)")
	serverURL := fs.String("server", "", "server URL (empty = direct mode)")
	notebook := fs.String("notebook", "", "list the document statuses of one notebook")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])

	format, err := cli.ParseOutputFormat(*outputFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	ctx := context.Background()

	if *serverURL != "" {
		if *notebook != "" {
			statuses, err := notebookStatusViaHTTP(ctx, *serverURL, *notebook)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
				os.Exit(1)
			}
			exitOnErr(cli.WriteStatuses(os.Stdout, statuses, format))
			return
		}
		summary, err := statusViaHTTP(ctx, *serverURL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		exitOnErr(cli.WriteSummary(os.Stdout, summary, format))
		return
	}

	cfg, _, logger, components := setup(*configPath, false, true)
	defer logger.Sync()
	defer components.Close()
	if *notebook != "" {
		statuses, err := components.Status.ListByNotebook(ctx, *notebook)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
		exitOnErr(cli.WriteStatuses(os.Stdout, statuses, format))
		return
	}
	summary, err := server.StatusSummary(ctx, components.VectorIndex, components.Status, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
		os.Exit(1)
	}
	exitOnErr(cli.WriteSummary(os.Stdout, summary, format))
}

func exitOnErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	notebook := fs.String("notebook", "", "notebook the document belongs to (required)")
	name := fs.String("name", "", "document name (default: file name)")
	docID := fs.String("id", "", "document id (default: derived from the absolute path)")
	_ = fs.Parse(searchArgsReorder(os.Args[2:]))

	if fs.NArg() < 1 || strings.TrimSpace(*notebook) == "" {
		fmt.Println("Usage: docsy index --notebook <id> [--name <name>] [--id <document-id>] <file-or-directory>")
		os.Exit(1)
	}

	cfg, _, logger, components := setup(*configPath, false, true)
	defer logger.Sync()
	defer components.Close()
	components.requireRetrieval()

	opts := indexOptions{
		NotebookID:   strings.TrimSpace(*notebook),
		DocumentName: *name,
		DocumentID:   *docID,
		Extensions:   cfg.Watch.Extensions,
	}
	if err := indexPath(context.Background(), components.Indexer, fs.Arg(0), opts, os.Stdout); err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
}

type indexOptions struct {
	NotebookID   string
	DocumentName string
	DocumentID   string
	Extensions   []string
}

// indexPath indexes a single file or every matching file below a directory.
// A file indexed with an explicit name or id bypasses the unchanged-file check.
func indexPath(ctx context.Context, idx *indexer.Indexer, path string, opts indexOptions, w io.Writer) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat path: %w", err)
	}
	if info.IsDir() {
		n, err := idx.IndexDirectory(ctx, opts.NotebookID, path, opts.Extensions)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "Indexed %d file(s) from %s into notebook %s\n", n, path, opts.NotebookID)
		return nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	if opts.DocumentName == "" && opts.DocumentID == "" {
		res, err := idx.IndexFile(ctx, opts.NotebookID, absPath, nil)
		if err != nil {
			return err
		}
		if res.Skipped {
			fmt.Fprintf(w, "Document unchanged since last index: %s\n", res.DocumentID)
			return nil
		}
		fmt.Fprintf(w, "Document indexed: %s (%d chunks)\n", res.DocumentID, res.ChunksStored)
		return nil
	}

	content, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	req := &models.IndexRequest{
		DocumentID:   opts.DocumentID,
		NotebookID:   opts.NotebookID,
		Content:      string(content),
		DocumentName: opts.DocumentName,
	}
	if req.DocumentID == "" {
		req.DocumentID = fileid.FileDocID(absPath)
	}
	if req.DocumentName == "" {
		req.DocumentName = filepath.Base(absPath)
	}
	res, err := idx.IndexDocument(ctx, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Document indexed: %s (%d chunks)\n", res.DocumentID, res.ChunksStored)
	return nil
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	notebook := fs.String("notebook", "", "delete every chunk of this notebook instead of one document")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 && *notebook == "" {
		fmt.Println("Usage: docsy delete [flags] <document-id>")
		fmt.Println("       docsy delete --notebook <id>")
		os.Exit(1)
	}

	_, _, logger, components := setup(*configPath, false, true)
	defer logger.Sync()
	defer components.Close()
	components.requireRetrieval()

	ctx := context.Background()
	if *notebook != "" {
		if err := components.Indexer.DeleteNotebook(ctx, *notebook); err != nil {
			fmt.Printf("Deletion failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Notebook embeddings deleted: %s\n", *notebook)
		return
	}
	docID := fs.Arg(0)
	if err := components.Indexer.DeleteDocument(ctx, docID); err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Document embeddings deleted: %s\n", docID)
}

// Components holds initialized services. When the embedding provider or the
// vector index lacks configuration, Unavailable holds the reason and Engine and
// Indexer are nil; chat-turn context then falls back to document text.
type Components struct {
	Status      *storage.SQLiteStatusStore
	Embedder    *embedding.Client
	VectorIndex vector.VectorIndex
	Engine      *search.Engine
	Indexer     *indexer.Indexer
	Unavailable error
}

// requireRetrieval exits when retrieval is unavailable. Commands that index,
// search or delete call it; context and status do not.
func (c *Components) requireRetrieval() {
	if c.Unavailable != nil {
		fmt.Fprintf(os.Stderr, "Retrieval unavailable: %v\n", c.Unavailable)
		os.Exit(1)
	}
}

// Close releases the components. The memory vector index writes its snapshot here.
func (c *Components) Close() {
	if c.Embedder != nil {
		_ = c.Embedder.Close()
	}
	if c.VectorIndex != nil {
		_ = c.VectorIndex.Close()
	}
	if c.Status != nil {
		_ = c.Status.Close()
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	c := &Components{}
	status, err := storage.NewSQLiteStatusStore(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize status store: %w", err)
	}
	c.Status = status

	c.Embedder, err = embedding.NewFromConfig(ctx, cfg.Embedding, logger)
	if err != nil {
		return c.degrade(fmt.Errorf("failed to initialize embedder: %w", err), logger)
	}

	c.VectorIndex, err = vector.NewVectorIndex(cfg.Vector, cfg.Storage.VectorSnapshotPath, cfg.Embedding.Dimensions, logger)
	if err != nil {
		return c.degrade(fmt.Errorf("failed to initialize vector index: %w", err), logger)
	}
	if err := c.VectorIndex.EnsureCollection(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to prepare vector collection: %w", err)
	}
	logger.Info("vector index initialized",
		zap.String("type", c.VectorIndex.Type()),
		zap.String("collection", cfg.Vector.Collection),
		zap.Int("dimensions", cfg.Embedding.Dimensions))

	chunker, err := indexer.NewChunker(cfg.Chunking.ChunkSize, cfg.Chunking.ChunkOverlap, cfg.Chunking.MinChunkChars)
	if err != nil {
		c.Close()
		return nil, err
	}

	c.Engine = search.NewEngine(c.Embedder, c.VectorIndex, cfg.Retrieval, search.WithLogger(logger))
	c.Indexer = indexer.NewIndexer(c.Embedder, c.VectorIndex, chunker,
		indexer.WithStatusRecorder(c.Status),
		indexer.WithLogger(logger),
	)
	return c, nil
}

// degrade keeps the status store running without retrieval when err is a
// missing-configuration error. Any other error closes the components.
func (c *Components) degrade(err error, logger *zap.Logger) (*Components, error) {
	if !errors.Is(err, models.ErrConfiguration) {
		c.Close()
		return nil, err
	}
	logger.Warn("retrieval unavailable, chat context falls back to document text", zap.Error(err))
	if c.Embedder != nil {
		_ = c.Embedder.Close()
		c.Embedder = nil
	}
	c.Unavailable = err
	return c, nil
}

func printUsage() {
	fmt.Println(`docsy - Retrieval core for notebook chat

Usage:
  docsy server [flags]                      Start the HTTP server
  docsy index --notebook <id> <path>        Index a text file or a directory of text files
  docsy search --notebook <id> <query>      Retrieve the chunks most similar to a query
  docsy context --notebook <id> <query>     Show the context block and citations for a chat turn
  docsy delete <document-id>                Delete a document's chunks
  docsy delete --notebook <id>              Delete every chunk of a notebook
  docsy status [flags]                      Show index and configuration status
  docsy watch <add|remove|list>             Manage watched inbox directories
  docsy version                             Show version
  docsy help                                Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/docsy/config.yaml, or ./config.yaml)
  --debug            Enable debug logging (directory changes, file indexing, etc.)

Search and Context Flags:
  --notebook string  Notebook to search (required)
  --doc string       Restrict to a document id (repeatable)
  --limit int        Number of results (default from config)
  --output string    Output format: text or json (default: text)
  --server string    Server URL. Empty (default) opens the index directly.
  --config string    Config file path (direct mode)

Index Flags:
  --notebook string  Notebook the document belongs to (required)
  --name string      Document name (default: file name)
  --id string        Document id (default: derived from the absolute path)

Status Flags:
  --notebook string  List document statuses of one notebook
  --server string    Server URL. Empty (default) opens the index directly.
  --output string    Output format: text or json (default: text)

Watch Flags:
  --server string    Server URL (default: http://localhost:8080)

Examples:
  docsy server
  docsy index --notebook nb-1 --name "Q3 Report" report.txt
  docsy index --notebook nb-1 ./extracted
  docsy search --notebook nb-1 "quarterly revenue"
  docsy search --notebook nb-1 --output json --server http://localhost:8080 revenue
  docsy delete --notebook nb-1
  docsy status --output json
  docsy watch add /srv/docsy/inbox`)
}
