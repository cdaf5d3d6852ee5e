// Package agentgate exposes a directory of JSON agent definitions as HTTP
// endpoints, with ordered before/after hooks around each endpoint and a
// pluggable conversational backend. Most applications interact with this
// package by:
//  1. Creating a Gateway via New() (pointing it at an agents directory)
//  2. Registering hooks for cross-cutting request handling (optional)
//  3. Mounting Handler() on an HTTP server
//
// The façade wires the config store, hook registry, runner and router
// together while keeping setup ergonomics concise. Defaults are safe for
// local development and testing; production deployments typically supply a
// model-backed collaborator and a structured logger. Gateways hold no global
// state, so multiple independent instances can coexist in one process.
package agentgate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/hupe1980/agentgate/config"
	"github.com/hupe1980/agentgate/hook"
	"github.com/hupe1980/agentgate/logging"
	"github.com/hupe1980/agentgate/model"
	"github.com/hupe1980/agentgate/runner"
	"github.com/hupe1980/agentgate/server"
)

// Options configures the Gateway instance.
type Options struct {
	// AgentsDir is the root directory scanned for *.json agent definitions.
	// Created if absent. Defaults to "agents".
	AgentsDir string

	// BasePath is the URL prefix for all agent routes. Defaults to /agents.
	BasePath string

	// AutoReload reloads the agents directory at the start of every
	// get-config and chat request. Fresh configuration over throughput; for
	// busy deployments prefer Watch.
	AutoReload bool

	// Collaborator is the conversational runtime invoked by chat requests.
	// Defaults to a deterministic mock model, suitable for tests and demos.
	Collaborator runner.Collaborator

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Gateway is the composition root aggregating the config store, hook
// registry, runner and HTTP router.
type Gateway struct {
	opts   Options
	store  *config.Store
	hooks  *hook.Registry
	runner *runner.Runner
	server *server.Server
}

// New creates a Gateway, loads the agents directory and registers routes for
// the agents found. The only fatal condition is an agents root that cannot be
// created; per-file definition problems are logged and skipped.
func New(optFns ...func(o *Options)) (*Gateway, error) {
	opts := Options{
		AgentsDir: "agents",
		BasePath:  server.DefaultBasePath,
		Logger:    logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Collaborator == nil {
		opts.Collaborator = runner.NewModelCollaborator(model.NewMockModel("echo", "mock"))
	}

	store, err := config.NewStore(opts.AgentsDir, func(o *config.StoreOptions) {
		o.Logger = opts.Logger
	})
	if err != nil {
		return nil, err
	}

	if err := store.Load(); err != nil {
		return nil, err
	}

	hooks := hook.NewRegistry()

	run := runner.New(opts.Collaborator, func(o *runner.Options) {
		o.Logger = opts.Logger
	})

	srv := server.New(store, hooks, run, func(o *server.Options) {
		o.BasePath = opts.BasePath
		o.AutoReload = opts.AutoReload
		o.Logger = opts.Logger
	})

	return &Gateway{
		opts:   opts,
		store:  store,
		hooks:  hooks,
		runner: run,
		server: srv,
	}, nil
}

// AddBeforeHook registers a hook to run before requests matching pattern.
// Pattern is an exact logical path or a trailing-wildcard prefix ("chat/*").
func (g *Gateway) AddBeforeHook(pattern string, h hook.BeforeHook) {
	g.hooks.AddBefore(pattern, h)
}

// AddAfterHook registers a hook to run after requests matching pattern.
func (g *Gateway) AddAfterHook(pattern string, h hook.AfterHook) {
	g.hooks.AddAfter(pattern, h)
}

// Handler returns the http.Handler serving all agent routes, ready to mount
// on any mux or to pass to http.Server directly.
func (g *Gateway) Handler() http.Handler { return g.server.Handler() }

// Store exposes the underlying agent store.
func (g *Gateway) Store() *config.Store { return g.store }

// GetAgent returns the typed config registered under a logical path, or an
// error wrapping config.ErrNotFound.
func (g *Gateway) GetAgent(path string) (*config.Config, error) {
	cfg, ok := g.store.Get(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", config.ErrNotFound, path)
	}
	return cfg, nil
}

// ListAgents returns the logical paths of the currently loaded agents.
func (g *Gateway) ListAgents() []string { return g.store.Paths() }

// Reload rescans the agents directory, fully replacing the agent set. Routes
// are not re-registered; agents at new logical paths become visible to the
// list and get-config endpoints but do not gain chat endpoints.
func (g *Gateway) Reload() error { return g.store.Load() }

// Watch blocks, reloading the agent set whenever definition files change,
// until ctx is cancelled. Run it in its own goroutine.
func (g *Gateway) Watch(ctx context.Context) error {
	w := config.NewWatcher(g.store, func(o *config.WatcherOptions) {
		o.Logger = g.opts.Logger
	})
	return w.Run(ctx)
}
