package server

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hupe1980/agentgate/config"
	"github.com/hupe1980/agentgate/hook"
	"github.com/hupe1980/agentgate/logging"
	"github.com/hupe1980/agentgate/runner"
)

// DefaultBasePath is the mount point used when none is configured.
const DefaultBasePath = "/agents"

// Options holds configuration overrides passed to New().
type Options struct {
	// BasePath is the URL prefix for all agent routes. Defaults to /agents.
	BasePath string
	// AutoReload reloads the store at the start of every get-config and chat
	// request, trading throughput for always-fresh configuration.
	AutoReload bool
	// Logger records request handling diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// chatRoute describes one invokable agent endpoint in the dispatch table.
type chatRoute struct {
	path        string
	displayName string
	kind        config.Kind
}

// Server registers agent routes and dispatches requests through the hook
// registry and the runner. Construct with New; the route set is fixed from
// the agents loaded at that moment.
type Server struct {
	store      *config.Store
	hooks      *hook.Registry
	runner     *runner.Runner
	basePath   string
	autoReload bool
	logger     logging.Logger
	chatRoutes map[string]chatRoute
	router     chi.Router
}

// New builds the router for the agents currently present in the store.
func New(store *config.Store, hooks *hook.Registry, run *runner.Runner, optFns ...func(o *Options)) *Server {
	opts := Options{
		BasePath: DefaultBasePath,
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	s := &Server{
		store:      store,
		hooks:      hooks,
		runner:     run,
		basePath:   strings.TrimRight(opts.BasePath, "/"),
		autoReload: opts.AutoReload,
		logger:     opts.Logger,
		chatRoutes: make(map[string]chatRoute),
	}

	for _, path := range store.Paths() {
		cfg, ok := store.Get(path)
		if !ok {
			continue
		}
		s.chatRoutes[path] = chatRoute{
			path:        path,
			displayName: cfg.DisplayName(),
			kind:        cfg.Kind,
		}
		s.logger.Info("registered chat endpoint",
			"path", s.basePath+"/"+path+"/chat",
			"display_name", cfg.DisplayName(),
		)
	}

	r := chi.NewRouter()
	r.Use(s.requestLogger)
	r.Route(s.basePath, func(r chi.Router) {
		r.Get("/", s.handleList)
		r.Post("/*", s.handleChat)
		r.Get("/*", s.handleGetConfig)
	})
	s.router = r

	s.logger.Info("agent routes registered", "base_path", s.basePath, "chat_endpoints", len(s.chatRoutes))

	return s
}

// Handler returns the http.Handler serving all agent routes.
func (s *Server) Handler() http.Handler { return s.router }

// BasePath returns the configured mount point.
func (s *Server) BasePath() string { return s.basePath }

// ChatPaths returns the logical paths with a registered chat endpoint, sorted.
func (s *Server) ChatPaths() []string {
	paths := make([]string, 0, len(s.chatRoutes))
	for p := range s.chatRoutes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// requestLogger tags each request with an id and logs its outcome timing.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)

		s.logger.Debug("request handled",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// handleList serves GET {base}/ with the logical paths of the current
// snapshot. Hooks for this route are keyed by the literal path "list".
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	if err := s.hooks.RunBefore(r, "list"); err != nil {
		s.logger.Error("before-hook failed", "path", "list", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	paths := s.store.Paths()
	if paths == nil {
		paths = []string{}
	}
	response := &agentList{Agents: paths}

	if err := s.hooks.RunAfter(r, "list", response); err != nil {
		s.logger.Error("after-hook failed", "path", "list", "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, response)
}

// handleGetConfig serves GET {base}/{path} with the stored configuration record.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	if s.autoReload {
		if err := s.reload(); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	if err := s.hooks.RunBefore(r, path); err != nil {
		s.logger.Error("before-hook failed", "path", path, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	cfg, ok := s.store.Get(path)
	if !ok {
		respondNotFound(w, path)
		return
	}

	if err := s.hooks.RunAfter(r, path, cfg); err != nil {
		s.logger.Error("after-hook failed", "path", path, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, cfg)
}

// handleChat serves POST {base}/{path}/chat by dispatching through the frozen
// route table, then the hook registry, then the runner.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	wild := chi.URLParam(r, "*")

	path, ok := strings.CutSuffix(wild, "/chat")
	if !ok {
		respondNotFound(w, wild)
		return
	}

	route, ok := s.chatRoutes[path]
	if !ok {
		respondNotFound(w, path)
		return
	}

	if s.autoReload {
		if err := s.reload(); err != nil {
			respondError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "message is required")
		return
	}

	if err := s.hooks.RunBefore(r, path); err != nil {
		s.logger.Error("before-hook failed", "path", path, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	inst, ok := s.store.GetInstance(path)
	if !ok {
		respondNotFound(w, path)
		return
	}

	s.logger.Debug("invoking agent", "path", path, "display_name", route.displayName)

	result, err := s.runner.Invoke(r.Context(), inst, req.Message, req.Context)
	if err != nil {
		s.logger.Error("agent invocation failed", "path", path, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := s.hooks.RunAfter(r, path, result); err != nil {
		s.logger.Error("after-hook failed", "path", path, "error", err)
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (s *Server) reload() error {
	if err := s.store.Load(); err != nil {
		s.logger.Error("auto-reload failed", "error", err)
		return err
	}
	return nil
}
