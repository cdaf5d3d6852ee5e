// Package model defines the minimal chat model contract agentgate needs from
// a conversational backend, plus a deterministic mock for tests and examples.
//
// Providers stream responses over a channel even in non-streaming mode; the
// runner drains the channel and keeps the final chunk. Concrete adapters for
// Anthropic and OpenAI live in the subpackages.
package model
