package hook

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequest() *http.Request {
	return httptest.NewRequest(http.MethodGet, "/agents/chat/assistant", nil)
}

func TestRegistry_ExactAndWildcardBothFire(t *testing.T) {
	g := NewRegistry()

	var calls []string
	g.AddBefore("chat/assistant", func(r *http.Request, path string) error {
		calls = append(calls, "exact")
		return nil
	})
	g.AddBefore("chat/*", func(r *http.Request, path string) error {
		calls = append(calls, "chat-wildcard")
		return nil
	})
	g.AddBefore("*", func(r *http.Request, path string) error {
		calls = append(calls, "all-wildcard")
		return nil
	})

	require.NoError(t, g.RunBefore(newRequest(), "chat/assistant"))

	// Exact first, then wildcard patterns in registration order.
	assert.Equal(t, []string{"exact", "chat-wildcard", "all-wildcard"}, calls)
}

func TestRegistry_WildcardPatternOrderIsRegistrationOrder(t *testing.T) {
	g := NewRegistry()

	var calls []string
	g.AddBefore("*", func(r *http.Request, path string) error {
		calls = append(calls, "first")
		return nil
	})
	g.AddBefore("chat/*", func(r *http.Request, path string) error {
		calls = append(calls, "second")
		return nil
	})

	require.NoError(t, g.RunBefore(newRequest(), "chat/assistant"))

	// "*" was registered before "chat/*", so it runs first even though
	// "chat/*" is the more specific match. Hook authors relying on effect
	// ordering (e.g. timing state read by a later hook) must register in
	// dependency order.
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestRegistry_HooksWithinPatternRunInOrder(t *testing.T) {
	g := NewRegistry()

	var calls []int
	for i := 1; i <= 3; i++ {
		n := i
		g.AddBefore("chat/*", func(r *http.Request, path string) error {
			calls = append(calls, n)
			return nil
		})
	}

	require.NoError(t, g.RunBefore(newRequest(), "chat/assistant"))
	assert.Equal(t, []int{1, 2, 3}, calls)
}

func TestRegistry_NonMatchingPathsDoNotFire(t *testing.T) {
	g := NewRegistry()

	calls := 0
	g.AddBefore("chat/*", func(r *http.Request, path string) error {
		calls++
		return nil
	})

	require.NoError(t, g.RunBefore(newRequest(), "tasks/planner"))
	assert.Zero(t, calls)

	require.NoError(t, g.RunBefore(newRequest(), "chat/assistant"))
	assert.Equal(t, 1, calls, "matching request fires the hook exactly once")
}

func TestRegistry_ErrorShortCircuits(t *testing.T) {
	g := NewRegistry()

	boom := errors.New("boom")
	var calls []string
	g.AddBefore("chat/*", func(r *http.Request, path string) error {
		calls = append(calls, "first")
		return boom
	})
	g.AddBefore("chat/*", func(r *http.Request, path string) error {
		calls = append(calls, "second")
		return nil
	})

	err := g.RunBefore(newRequest(), "chat/assistant")
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first"}, calls, "dispatch stops at the first error")
}

func TestRegistry_AfterHooksReceiveResponse(t *testing.T) {
	g := NewRegistry()

	type payload struct{ Value string }

	var seen any
	g.AddAfter("chat/*", func(r *http.Request, path string, response any) error {
		seen = response
		return nil
	})

	resp := &payload{Value: "hi"}
	require.NoError(t, g.RunAfter(newRequest(), "chat/assistant", resp))
	assert.Same(t, resp, seen)
}

func TestRegistry_AfterHooksCanAnnotateResponse(t *testing.T) {
	g := NewRegistry()

	g.AddAfter("*", func(r *http.Request, path string, response any) error {
		if m, ok := response.(map[string]any); ok {
			m["_metadata"] = "annotated"
		}
		return nil
	})

	resp := map[string]any{"response": "hello"}
	require.NoError(t, g.RunAfter(newRequest(), "chat/assistant", resp))
	assert.Equal(t, "annotated", resp["_metadata"])
}

func TestRegistry_BeforeAndAfterAreIndependent(t *testing.T) {
	g := NewRegistry()

	var calls []string
	g.AddBefore("chat/*", func(r *http.Request, path string) error {
		calls = append(calls, "before")
		return nil
	})
	g.AddAfter("chat/*", func(r *http.Request, path string, response any) error {
		calls = append(calls, "after")
		return nil
	})

	require.NoError(t, g.RunAfter(newRequest(), "chat/assistant", nil))
	assert.Equal(t, []string{"after"}, calls)
}
