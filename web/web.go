// Package web provides an HTTP backend for a custom model editor.
//
// The server exposes a JSON API for reading and writing one custom model
// document, validating unsaved text, computing completions and reading the
// vocabulary. Connected editors are told to reload over Server-Sent Events
// when the document or the vocabulary changes on disk.
//
// SECURITY WARNING: This server has no authentication and should only be
// bound to localhost (127.0.0.1). Do not expose it to untrusted networks.
// The only file it writes is the document it was started with.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/robinvdvleuten/custommodel/completion"
	"github.com/robinvdvleuten/custommodel/loader"
	"github.com/robinvdvleuten/custommodel/parser"
	"github.com/robinvdvleuten/custommodel/telemetry"
	"github.com/robinvdvleuten/custommodel/watch"
)

type Server struct {
	Port           int
	Host           string
	Version        string
	CommitSHA      string
	ReadOnly       bool
	WatchEnabled   bool
	FollowIncludes bool
	Logger         *slog.Logger

	mu         sync.RWMutex
	vocabulary *loader.Result
	engine     *completion.Engine

	documentFile   string // Absolute path of the served document
	vocabularyFile string

	// SSE clients for broadcasting reload events
	sseClients map[chan string]struct{}
	sseMu      sync.Mutex
}

func New(port int, documentFile, vocabularyFile string) *Server {
	return NewWithVersion(port, documentFile, vocabularyFile, "", "")
}

func NewWithVersion(port int, documentFile, vocabularyFile, version, commitSHA string) *Server {
	return &Server{
		Port:           port,
		Host:           "127.0.0.1",
		Version:        version,
		CommitSHA:      commitSHA,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		documentFile:   documentFile,
		vocabularyFile: vocabularyFile,
		engine:         must(completion.New()),
		sseClients:     make(map[chan string]struct{}),
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// Start loads the vocabulary and serves the API until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	timer := telemetry.Start(ctx, fmt.Sprintf("web.start %s:%d", s.Host, s.Port))
	defer timer.End()

	if s.documentFile == "" {
		return fmt.Errorf("document file is required")
	}
	if s.vocabularyFile == "" {
		return fmt.Errorf("vocabulary file is required")
	}
	abs, err := filepath.Abs(s.documentFile)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	s.documentFile = abs

	loadTimer := timer.Child(fmt.Sprintf("web.load_vocabulary %s", filepath.Base(s.vocabularyFile)))
	err = s.reloadVocabulary(ctx)
	loadTimer.End()
	if err != nil {
		return fmt.Errorf("failed to load vocabulary: %w", err)
	}

	if s.WatchEnabled {
		if err := s.startWatcher(ctx); err != nil {
			return err
		}
	}

	mux, err := s.setupRouter()
	if err != nil {
		return fmt.Errorf("failed to setup router: %w", err)
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(s.Host, strconv.Itoa(s.Port)),
		Handler:           s.logRequests(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.Logger.Info("serving custom model", "addr", srv.Addr, "document", s.documentFile, "read_only", s.ReadOnly)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) setupRouter() (*http.ServeMux, error) {
	if s.sseClients == nil {
		s.sseClients = make(map[chan string]struct{})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/document", s.handleGetDocument)
	mux.HandleFunc("PUT /api/document", s.requireWritable(s.handlePutDocument))
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("POST /api/complete", s.handleComplete)
	mux.HandleFunc("GET /api/vocabulary", s.handleGetVocabulary)
	mux.HandleFunc("GET /api/version", s.handleGetVersion)
	mux.HandleFunc("GET /api/events", s.handleSSE)
	return mux, nil
}

// requireWritable is middleware that rejects write requests in read-only mode.
func (s *Server) requireWritable(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.ReadOnly {
			http.Error(w, "Server is in read-only mode", http.StatusForbidden)
			return
		}
		next(w, r)
	}
}

// statusRecorder remembers the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// logRequests times every request and logs it at debug level.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		collector := telemetry.NewTimingCollector()
		ctx := telemetry.WithCollector(r.Context(), collector)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		timer := collector.Start(r.Method + " " + r.URL.Path)
		next.ServeHTTP(rec, r.WithContext(ctx))
		timer.End()

		s.Logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "timings", collector)
	})
}

// reloadVocabulary loads or reloads the vocabulary from disk. On failure the
// previous vocabulary stays in place.
func (s *Server) reloadVocabulary(ctx context.Context) error {
	var opts []loader.Option
	opts = append(opts, loader.WithLogger(s.Logger))
	if s.FollowIncludes {
		opts = append(opts, loader.WithFollowIncludes())
	}

	result, err := loader.New(opts...).Load(ctx, s.vocabularyFile)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.vocabulary = result
	s.mu.Unlock()
	return nil
}

// categories returns the current categories. Callers must not modify them.
func (s *Server) categories() []parser.Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.vocabulary == nil {
		return nil
	}
	return s.vocabulary.Vocabulary.Categories
}

// watchedFiles is the document plus every vocabulary file.
func (s *Server) watchedFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files := []string{s.documentFile}
	if s.vocabulary != nil {
		files = append(files, s.vocabulary.Files()...)
	}
	return files
}

// startWatcher reloads the vocabulary and tells editors to reload when any
// watched file changes.
func (s *Server) startWatcher(ctx context.Context) error {
	watcher, err := watch.New(s.watchedFiles()...)
	if err != nil {
		return err
	}
	watcher.Logger = s.Logger

	go func() {
		defer func() { _ = watcher.Close() }()
		_ = watcher.Run(ctx, s.handleFileChange)
	}()
	return nil
}

func (s *Server) handleFileChange(ctx context.Context) []string {
	if err := s.reloadVocabulary(ctx); err != nil {
		s.Logger.Warn("failed to reload vocabulary", "error", err)
	}
	s.broadcast("reload")
	return s.watchedFiles()
}
