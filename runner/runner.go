package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentgate/config"
	"github.com/hupe1980/agentgate/logging"
)

// NoResponseText is returned as the reply when the collaborator produced no turns.
const NoResponseText = "No response from agent"

// ErrInvocation wraps collaborator failures so callers can detect them with errors.Is.
var ErrInvocation = fmt.Errorf("agent invocation failed")

// Turn is one record of the conversation a collaborator produced.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Collaborator is the external conversational runtime seam. Implementations
// may block or suspend; they must honor ctx cancellation.
type Collaborator interface {
	Run(ctx context.Context, inst config.Instance, message string, contextData map[string]any) ([]Turn, error)
}

// CollaboratorFunc adapts a plain function to the Collaborator interface.
type CollaboratorFunc func(ctx context.Context, inst config.Instance, message string, contextData map[string]any) ([]Turn, error)

// Run implements Collaborator.
func (f CollaboratorFunc) Run(ctx context.Context, inst config.Instance, message string, contextData map[string]any) ([]Turn, error) {
	return f(ctx, inst, message, contextData)
}

// Result is the outcome of one agent invocation. Context echoes the request's
// context mapping back to the caller.
type Result struct {
	Response string         `json:"response"`
	Context  map[string]any `json:"context"`
}

// Options holds configuration overrides passed to New().
type Options struct {
	// Logger records invocation outcomes. Defaults to NoOp.
	Logger logging.Logger
}

// Runner invokes a collaborator for an agent instance and reduces its turn
// sequence to a single textual reply.
type Runner struct {
	collaborator Collaborator
	logger       logging.Logger
}

// New constructs a Runner delegating to the given collaborator.
func New(collaborator Collaborator, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Runner{
		collaborator: collaborator,
		logger:       opts.Logger,
	}
}

// Invoke runs the collaborator and extracts the last turn's text. An empty
// turn sequence yields NoResponseText. Collaborator errors are returned
// wrapped with ErrInvocation; nothing is retried or suppressed here.
func (r *Runner) Invoke(ctx context.Context, inst config.Instance, message string, contextData map[string]any) (*Result, error) {
	start := time.Now()

	turns, err := r.collaborator.Run(ctx, inst, message, contextData)
	if err != nil {
		r.logger.Error("agent invocation failed",
			"file", inst.FilePath,
			"duration", time.Since(start),
			"error", err,
		)
		return nil, fmt.Errorf("%w: %w", ErrInvocation, err)
	}

	reply := NoResponseText
	if len(turns) > 0 {
		reply = turns[len(turns)-1].Content
	}

	r.logger.Debug("agent invocation completed",
		"file", inst.FilePath,
		"turns", len(turns),
		"duration", time.Since(start),
	)

	return &Result{Response: reply, Context: contextData}, nil
}
