// Package hook implements ordered before/after callbacks around agent
// endpoint handling.
//
// Hooks are registered under a pattern: either an exact logical path
// ("chat/assistant") or a trailing-wildcard prefix ("chat/*", "*"). For a
// concrete path, dispatch runs the exact-pattern hooks first, then the hooks
// of every matching wildcard pattern. Exact and wildcard registrations are not
// mutually exclusive; both fire for the same request.
//
// Ordering guarantees, which hook authors may rely on:
//
//   - hooks under one pattern run in registration order
//   - matching wildcard patterns run in the order the patterns were first
//     registered
//
// No ordering beyond that is promised across different wildcard patterns, so
// a hook that records state for a later hook to read (a timing hook paired
// with a logging hook, say) must be registered first.
//
// Hook errors are not swallowed: dispatch stops at the first error and
// returns it to the HTTP handler, which converts it into an error response.
// Hook misbehavior is meant to be visible.
package hook
