package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentgate"
	"github.com/hupe1980/agentgate/logging"
	"github.com/hupe1980/agentgate/model"
	"github.com/hupe1980/agentgate/model/anthropic"
	"github.com/hupe1980/agentgate/model/openai"
	"github.com/hupe1980/agentgate/runner"
)

// Settings are read from AGENTGATE_* environment variables and can be
// overridden by flags.
type Settings struct {
	Addr       string `envconfig:"ADDR" default:":8000"`
	AgentsDir  string `envconfig:"AGENTS_DIR" default:"agents"`
	BasePath   string `envconfig:"BASE_PATH" default:"/agents"`
	AutoReload bool   `envconfig:"AUTO_RELOAD"`
	Watch      bool   `envconfig:"WATCH"`
	Provider   string `envconfig:"PROVIDER" default:"mock"`
	Model      string `envconfig:"MODEL"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"color"`
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the agentgate HTTP server",
	Long: `Start the agentgate HTTP server.

The server will:
- Load every *.json agent definition under the agents directory
- Register list, config and chat endpoints for each agent
- Route chat requests to the configured model provider

Press Ctrl+C to gracefully shutdown.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides AGENTGATE_ADDR)")
	serveCmd.Flags().String("agents-dir", "", "agents directory (overrides AGENTGATE_AGENTS_DIR)")
	serveCmd.Flags().String("base-path", "", "base URL path (overrides AGENTGATE_BASE_PATH)")
	serveCmd.Flags().Bool("auto-reload", false, "reload agents on every request")
	serveCmd.Flags().Bool("watch", false, "reload agents on filesystem changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	var settings Settings
	if err := envconfig.Process("agentgate", &settings); err != nil {
		return fmt.Errorf("failed to read environment settings: %w", err)
	}
	applyFlags(cmd, &settings)

	logger := logging.NewSlogLogger(logging.ParseLevel(settings.LogLevel), settings.LogFormat, false)

	collaborator, err := buildCollaborator(settings, logger)
	if err != nil {
		return err
	}

	gateway, err := agentgate.New(func(o *agentgate.Options) {
		o.AgentsDir = settings.AgentsDir
		o.BasePath = settings.BasePath
		o.AutoReload = settings.AutoReload
		o.Collaborator = collaborator
		o.Logger = logger
	})
	if err != nil {
		return fmt.Errorf("failed to initialize gateway: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if settings.Watch {
		go func() {
			if err := gateway.Watch(ctx); err != nil {
				logger.Error("agents watcher stopped", "error", err)
			}
		}()
	}

	mux := http.NewServeMux()
	mux.Handle("/", landing(settings))
	mux.Handle(settings.BasePath+"/", gateway.Handler())

	srv := &http.Server{
		Addr:              settings.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("agentgate listening",
			"addr", settings.Addr,
			"agents_dir", settings.AgentsDir,
			"base_path", settings.BasePath,
			"agents", len(gateway.ListAgents()),
			"provider", settings.Provider,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

func applyFlags(cmd *cobra.Command, settings *Settings) {
	if v, _ := cmd.Flags().GetString("addr"); v != "" {
		settings.Addr = v
	}
	if v, _ := cmd.Flags().GetString("agents-dir"); v != "" {
		settings.AgentsDir = v
	}
	if v, _ := cmd.Flags().GetString("base-path"); v != "" {
		settings.BasePath = v
	}
	if cmd.Flags().Changed("auto-reload") {
		settings.AutoReload, _ = cmd.Flags().GetBool("auto-reload")
	}
	if cmd.Flags().Changed("watch") {
		settings.Watch, _ = cmd.Flags().GetBool("watch")
	}
}

// buildCollaborator selects the conversational backend by provider name.
func buildCollaborator(settings Settings, logger logging.Logger) (runner.Collaborator, error) {
	var m model.Model

	switch settings.Provider {
	case "anthropic":
		m = anthropic.NewModel(func(o *anthropic.Options) {
			if settings.Model != "" {
				o.Model = anthropicsdk.Model(settings.Model)
			}
		})
	case "openai":
		m = openai.NewModel(func(o *openai.Options) {
			if settings.Model != "" {
				o.Model = settings.Model
			}
		})
	case "mock", "":
		m = model.NewMockModel("echo", "mock")
	default:
		return nil, fmt.Errorf("unknown provider %q (expected anthropic, openai or mock)", settings.Provider)
	}

	return runner.NewModelCollaborator(m, func(o *runner.ModelCollaboratorOptions) {
		o.Logger = logger
	}), nil
}

// landing serves a small index describing the mounted endpoints, handy when
// poking the server with curl for the first time.
func landing(settings Settings) http.HandlerFunc {
	base := settings.BasePath
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		respond := map[string]any{
			"message": "agentgate is running",
			"endpoints": map[string]string{
				"list_agents":     base + "/",
				"get_agent":       base + "/{agent_path}",
				"chat_with_agent": base + "/{agent_path}/chat",
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respond)
	}
}
