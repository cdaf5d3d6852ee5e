// Package config loads agent definitions from a directory tree of JSON files
// and exposes them keyed by logical path.
//
// A logical path is the file's location relative to the agents root with the
// .json extension stripped and OS path separators normalized to '/'; a file at
// chat/assistant.json becomes the logical path "chat/assistant". Logical paths
// double as HTTP route segments and hook keys elsewhere in agentgate.
//
// Two definition shapes are supported and detected by which required field set
// a file satisfies:
//
//   - simple: a conversational agent described directly by prompt fields
//     (name, description, version required; system_message, capabilities and
//     author optional)
//   - complex: a component style agent assembled by a provider
//     (provider, component_type, version, description, label required)
//
// Files that parse but match neither shape are skipped with a logged list of
// missing fields; malformed JSON is likewise skipped. Per-file problems never
// abort a load.
//
// Store.Load is total: it builds a complete new snapshot off to the side and
// publishes it atomically, so concurrent readers always observe either the
// previous or the new agent set, never a partial one. The optional Watcher
// triggers reloads from filesystem notifications.
package config
