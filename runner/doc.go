// Package runner translates inbound chat requests into calls against a
// conversational collaborator and extracts the final textual reply.
//
// The Collaborator interface is the seam to the external agent runtime: given
// an agent instance (raw definition plus source file path), a message and an
// optional context mapping, it returns the conversation turns it produced.
// The Runner keeps only the last turn's text; an empty turn sequence yields
// the NoResponseText placeholder. Collaborator errors are wrapped with
// ErrInvocation and otherwise propagated unchanged.
//
// ModelCollaborator is the built-in implementation backed by a model.Model
// (Anthropic, OpenAI or a mock), using the simple shape's system_message as
// the instruction prompt.
package runner
