package hook

import (
	"net/http"
	"strings"
	"sync"
)

// BeforeHook runs before an agent endpoint's core handling. Returning an
// error aborts the request; the HTTP layer reports it.
type BeforeHook func(r *http.Request, path string) error

// AfterHook runs after an agent endpoint produced its response payload. The
// payload is passed by reference where applicable, so hooks may annotate it.
type AfterHook func(r *http.Request, path string, response any) error

// Registry stores ordered hook lists keyed by pattern. The zero value is not
// usable; create instances with NewRegistry. Registration and dispatch are
// safe for concurrent use.
type Registry struct {
	mu             sync.RWMutex
	before         map[string][]BeforeHook
	after          map[string][]AfterHook
	beforePatterns []string
	afterPatterns  []string
}

// NewRegistry creates an empty hook registry.
func NewRegistry() *Registry {
	return &Registry{
		before: make(map[string][]BeforeHook),
		after:  make(map[string][]AfterHook),
	}
}

// AddBefore appends a before-hook to the list for pattern.
func (g *Registry) AddBefore(pattern string, h BeforeHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, seen := g.before[pattern]; !seen {
		g.beforePatterns = append(g.beforePatterns, pattern)
	}
	g.before[pattern] = append(g.before[pattern], h)
}

// AddAfter appends an after-hook to the list for pattern.
func (g *Registry) AddAfter(pattern string, h AfterHook) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, seen := g.after[pattern]; !seen {
		g.afterPatterns = append(g.afterPatterns, pattern)
	}
	g.after[pattern] = append(g.after[pattern], h)
}

// RunBefore executes all before-hooks matching path. The first error stops
// dispatch and is returned.
func (g *Registry) RunBefore(r *http.Request, path string) error {
	g.mu.RLock()
	hooks := collectMatches(path, g.before, g.beforePatterns)
	g.mu.RUnlock()

	for _, h := range hooks {
		if err := h(r, path); err != nil {
			return err
		}
	}
	return nil
}

// RunAfter executes all after-hooks matching path with the produced response.
// The first error stops dispatch and is returned.
func (g *Registry) RunAfter(r *http.Request, path string, response any) error {
	g.mu.RLock()
	hooks := collectMatches(path, g.after, g.afterPatterns)
	g.mu.RUnlock()

	for _, h := range hooks {
		if err := h(r, path, response); err != nil {
			return err
		}
	}
	return nil
}

// collectMatches snapshots the matching hooks under the read lock so dispatch
// runs without holding it: exact pattern first, then wildcard patterns in
// first-registration order.
func collectMatches[H any](path string, byPattern map[string][]H, order []string) []H {
	var out []H

	out = append(out, byPattern[path]...)

	for _, pattern := range order {
		prefix, ok := strings.CutSuffix(pattern, "*")
		if !ok {
			continue
		}
		if strings.HasPrefix(path, prefix) {
			out = append(out, byPattern[pattern]...)
		}
	}

	return out
}
