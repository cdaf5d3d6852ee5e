package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/hupe1980/agentgate/logging"
)

// Instance pairs a definition's raw parsed JSON with its absolute source file
// path. It is what the runner hands to the conversational collaborator, which
// may need fields the typed Config does not model.
type Instance struct {
	Raw      map[string]any
	FilePath string
}

// snapshot is one immutable load result. Load builds a fresh snapshot and
// publishes it in a single pointer swap, so readers never see a half filled map.
type snapshot struct {
	configs   map[string]*Config
	instances map[string]Instance
	paths     []string
}

func emptySnapshot() *snapshot {
	return &snapshot{
		configs:   map[string]*Config{},
		instances: map[string]Instance{},
	}
}

// StoreOptions holds configuration overrides passed to NewStore().
type StoreOptions struct {
	// Logger receives per-file diagnostics during loads. Defaults to NoOp.
	Logger logging.Logger
}

// Store owns the agent map. All reads go through the current snapshot; the
// only mutation path is Load, which replaces the snapshot wholesale.
type Store struct {
	dir    string
	logger logging.Logger
	snap   atomic.Pointer[snapshot]
}

// NewStore creates a Store rooted at dir, creating the directory if needed.
// A root that cannot be created is the one fatal configuration condition.
func NewStore(dir string, optFns ...func(o *StoreOptions)) (*Store, error) {
	opts := StoreOptions{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve agents directory %q: %w", dir, err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create agents directory %q: %w", abs, err)
	}

	s := &Store{dir: abs, logger: opts.Logger}
	s.snap.Store(emptySnapshot())

	s.logger.Info("initialized agent store", "agents_dir", abs)

	return s, nil
}

// Dir returns the absolute agents root directory.
func (s *Store) Dir() string { return s.dir }

// Load scans the agents root for *.json files and fully replaces the agent
// set. Malformed or incomplete files are logged and skipped; a load that finds
// no valid agents logs a warning but is not an error. The new set becomes
// visible to readers atomically.
func (s *Store) Load() error {
	start := time.Now()
	next := emptySnapshot()

	found := 0
	skipped := 0

	err := filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		found++

		if !s.loadFile(next, path) {
			skipped++
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan agents directory %q: %w", s.dir, err)
	}

	if len(next.configs) == 0 {
		s.logger.Warn("no agents were loaded successfully", "agents_dir", s.dir)
	}

	s.snap.Store(next)

	s.logger.Info("agent load completed",
		"agents_dir", s.dir,
		"files_found", found,
		"agents_loaded", len(next.paths),
		"files_skipped", skipped,
		"duration", time.Since(start),
	)

	return nil
}

// loadFile parses, validates and stores a single definition file into the
// pending snapshot. Returns false when the file was skipped.
func (s *Store) loadFile(next *snapshot, path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Error("failed to read agent file", "file", path, "error", err)
		return false
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Error("invalid JSON in agent file", "file", path, "error", err)
		return false
	}

	cfg, missing, err := Classify(raw)
	if err != nil {
		s.logger.Error("failed to decode agent file", "file", path, "error", err)
		return false
	}
	if cfg == nil {
		s.logger.Error("agent file is missing required fields",
			"file", path,
			"missing_fields", strings.Join(missing, ", "),
		)
		return false
	}

	logical := s.logicalPath(path)

	// Last writer wins on duplicate logical paths; the path list keeps the
	// first insertion position.
	if _, exists := next.configs[logical]; !exists {
		next.paths = append(next.paths, logical)
	}
	next.configs[logical] = cfg
	next.instances[logical] = Instance{Raw: raw, FilePath: path}

	s.logger.Debug("loaded agent", "path", logical, "kind", string(cfg.Kind), "display_name", cfg.DisplayName())

	return true
}

// logicalPath derives the map key for a definition file: the path relative to
// the agents root, extension stripped, separators normalized to '/'.
func (s *Store) logicalPath(file string) string {
	rel, err := filepath.Rel(s.dir, file)
	if err != nil {
		rel = filepath.Base(file)
	}
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	return filepath.ToSlash(rel)
}

// Get returns the typed config for a logical path.
func (s *Store) Get(path string) (*Config, bool) {
	cfg, ok := s.snap.Load().configs[path]
	return cfg, ok
}

// GetInstance returns the raw definition payload for a logical path.
func (s *Store) GetInstance(path string) (Instance, bool) {
	inst, ok := s.snap.Load().instances[path]
	return inst, ok
}

// Paths returns the logical paths of the current snapshot in load order.
func (s *Store) Paths() []string {
	snap := s.snap.Load()
	out := make([]string, len(snap.paths))
	copy(out, snap.paths)
	return out
}

// Len returns the number of agents in the current snapshot.
func (s *Store) Len() int {
	return len(s.snap.Load().paths)
}
