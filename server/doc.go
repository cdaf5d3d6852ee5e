// Package server exposes a loaded agent store as HTTP endpoints on a chi
// router.
//
// Relative to a configurable base path (default /agents) it serves:
//
//	GET  {base}/              list of logical agent paths
//	GET  {base}/{path}        the agent's configuration record
//	POST {base}/{path}/chat   invoke the agent with {"message", "context"}
//
// Before/after hooks run around each endpoint, keyed by the logical path (the
// literal key "list" for the collection route). Hook and runner errors are
// not absorbed; they surface as 500 responses with a detail message.
//
// Chat dispatch goes through a route table built once at construction from
// the agent snapshot loaded at that moment. Definitions added on disk later
// never gain a chat endpoint, even with auto-reload enabled; auto-reload only
// refreshes the configuration content behind existing routes. The table makes
// the registered route set introspectable (ChatPaths) and testable as data.
package server
