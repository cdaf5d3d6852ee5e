package runner

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hupe1980/agentgate/config"
	"github.com/hupe1980/agentgate/internal/util"
	"github.com/hupe1980/agentgate/logging"
	"github.com/hupe1980/agentgate/model"
)

// ModelCollaboratorOptions holds configuration overrides passed to NewModelCollaborator().
type ModelCollaboratorOptions struct {
	// Logger records model call diagnostics. Defaults to NoOp.
	Logger logging.Logger
}

// ModelCollaborator drives a chat model with the agent definition's system
// message and the user's message, collecting the generated turns.
type ModelCollaborator struct {
	model  model.Model
	logger logging.Logger
}

// NewModelCollaborator constructs a Collaborator backed by the given model.
func NewModelCollaborator(m model.Model, optFns ...func(o *ModelCollaboratorOptions)) *ModelCollaborator {
	opts := ModelCollaboratorOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelCollaborator{
		model:  m,
		logger: opts.Logger,
	}
}

// Run implements Collaborator. The returned sequence holds the user turn
// followed by every final (non-partial) assistant response the model emitted.
func (c *ModelCollaborator) Run(ctx context.Context, inst config.Instance, message string, contextData map[string]any) ([]Turn, error) {
	req := model.Request{
		Instructions: c.instructions(inst, contextData),
		Messages:     []model.Message{{Role: "user", Content: message}},
	}

	info := c.model.Info()
	c.logger.Debug("dispatching to model", "model", info.Name, "provider", info.Provider, "file", inst.FilePath)

	respCh, errCh := c.model.Generate(ctx, req)

	turns := []Turn{{Role: "user", Content: message}}

	for respCh != nil || errCh != nil {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if resp.Partial {
				continue
			}
			turns = append(turns, Turn{Role: "assistant", Content: resp.Content})

		case err, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	return turns, nil
}

// instructions assembles the system prompt from the definition's
// system_message and, when present, the request's context mapping. The system
// message may contain Go template markers resolved against the context.
func (c *ModelCollaborator) instructions(inst config.Instance, contextData map[string]any) string {
	instructions, _ := inst.Raw["system_message"].(string)

	if rendered, err := util.RenderPrompt(instructions, contextData); err != nil {
		c.logger.Warn("system message template failed, using raw text", "error", err)
	} else {
		instructions = rendered
	}

	if len(contextData) > 0 {
		if data, err := json.Marshal(contextData); err == nil {
			if instructions != "" {
				instructions += "\n\n"
			}
			instructions += fmt.Sprintf("Conversation context: %s", data)
		}
	}

	return instructions
}
