package config

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Kind discriminates the two supported agent definition shapes.
type Kind string

const (
	// KindSimple marks a conversational agent defined directly by prompt fields.
	KindSimple Kind = "simple"
	// KindComplex marks a component style agent assembled by a provider.
	KindComplex Kind = "complex"
)

// DefaultDisplayName is used when a definition carries neither a name nor a label.
const DefaultDisplayName = "Unnamed Agent"

// Required field sets per shape. A file must satisfy one of them completely.
var (
	simpleRequired  = []string{"name", "description", "version"}
	complexRequired = []string{"provider", "component_type", "version", "description", "label"}
)

// SimpleConfig describes a conversational agent: a prompt, a description and
// optional capability metadata.
type SimpleConfig struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	SystemMessage string   `json:"system_message,omitempty"`
	Capabilities  []string `json:"capabilities,omitempty"`
	Version       string   `json:"version"`
	Author        string   `json:"author,omitempty"`
}

// ComplexConfig describes a component style agent whose behavior is driven by
// an opaque provider specific config mapping.
type ComplexConfig struct {
	Provider         string         `json:"provider"`
	ComponentType    string         `json:"component_type"`
	Version          int            `json:"version"`
	ComponentVersion int            `json:"component_version,omitempty"`
	Description      string         `json:"description"`
	Label            string         `json:"label"`
	Config           map[string]any `json:"config,omitempty"`
}

// Config is a tagged union over the two definition shapes. Exactly one of
// Simple or Complex is non-nil, selected by which required field set the
// source file validated against.
type Config struct {
	Kind    Kind
	Simple  *SimpleConfig
	Complex *ComplexConfig
}

// DisplayName returns the agent's human readable name: the simple name, else
// the complex label, else DefaultDisplayName.
func (c *Config) DisplayName() string {
	switch {
	case c.Simple != nil && c.Simple.Name != "":
		return c.Simple.Name
	case c.Complex != nil && c.Complex.Label != "":
		return c.Complex.Label
	default:
		return DefaultDisplayName
	}
}

// Description returns the description field of whichever shape is active.
func (c *Config) Description() string {
	switch {
	case c.Simple != nil:
		return c.Simple.Description
	case c.Complex != nil:
		return c.Complex.Description
	default:
		return ""
	}
}

// SystemMessage returns the simple shape's system message, or "" for complex agents.
func (c *Config) SystemMessage() string {
	if c.Simple != nil {
		return c.Simple.SystemMessage
	}
	return ""
}

// MarshalJSON emits the active payload's natural record shape, so serving a
// Config over HTTP returns the same structure the definition file used.
func (c *Config) MarshalJSON() ([]byte, error) {
	switch {
	case c.Simple != nil:
		return json.Marshal(c.Simple)
	case c.Complex != nil:
		return json.Marshal(c.Complex)
	default:
		return nil, fmt.Errorf("config has no payload")
	}
}

// Classify validates a parsed definition against the two supported shapes and
// returns the typed Config. When neither shape's required fields are all
// present, the sorted union of missing fields from both shapes is returned so
// callers can log a useful diagnostic.
func Classify(raw map[string]any) (*Config, []string, error) {
	if missing := missingFields(raw, simpleRequired); len(missing) == 0 {
		sc, err := decodeSimple(raw)
		if err != nil {
			return nil, nil, err
		}
		return &Config{Kind: KindSimple, Simple: sc}, nil, nil
	}

	if missing := missingFields(raw, complexRequired); len(missing) == 0 {
		cc, err := decodeComplex(raw)
		if err != nil {
			return nil, nil, err
		}
		return &Config{Kind: KindComplex, Complex: cc}, nil, nil
	}

	missing := map[string]struct{}{}
	for _, f := range missingFields(raw, simpleRequired) {
		missing[f] = struct{}{}
	}
	for _, f := range missingFields(raw, complexRequired) {
		missing[f] = struct{}{}
	}

	fields := make([]string, 0, len(missing))
	for f := range missing {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	return nil, fields, nil
}

// missingFields returns the subset of required not present as keys in raw.
func missingFields(raw map[string]any, required []string) []string {
	var missing []string
	for _, f := range required {
		if _, ok := raw[f]; !ok {
			missing = append(missing, f)
		}
	}
	return missing
}

func decodeSimple(raw map[string]any) (*SimpleConfig, error) {
	norm := make(map[string]any, len(raw))
	for k, v := range raw {
		norm[k] = v
	}
	// Definitions in the wild use both "1.0.0" and bare numeric versions.
	if n, ok := norm["version"].(float64); ok {
		norm["version"] = formatNumber(n)
	}

	data, err := json.Marshal(norm)
	if err != nil {
		return nil, err
	}

	var sc SimpleConfig
	if err := json.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("invalid simple agent definition: %w", err)
	}

	return &sc, nil
}

func decodeComplex(raw map[string]any) (*ComplexConfig, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, err
	}

	var cc ComplexConfig
	if err := json.Unmarshal(data, &cc); err != nil {
		return nil, fmt.Errorf("invalid complex agent definition: %w", err)
	}

	return &cc, nil
}

func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
