// Package plan loads, validates, and holds the declarative chaos plan:
// the targets, scenarios, and classifier rule packs that drive the rest
// of the pipeline.
package plan

import "regexp"

// TargetType enumerates what a Target's pattern is matched against.
type TargetType string

const (
	TargetHTTPEndpoint TargetType = "http_endpoint"
	TargetLLMInput     TargetType = "llm_input"
	TargetToolCall     TargetType = "tool_call"
	TargetAgentRole    TargetType = "agent_role"
	TargetCustom       TargetType = "custom"
)

// Target names a pattern describing which flows a strategy applies to.
type Target struct {
	Name        string     `yaml:"name" json:"name"`
	Type        TargetType `yaml:"type" json:"type"`
	Pattern     string     `yaml:"pattern" json:"pattern"`
	Description string     `yaml:"description,omitempty" json:"description,omitempty"`

	compiled *regexp.Regexp
}

// Compiled returns the pattern compiled by ValidatePlan/LoadPlan. Calling
// this before the plan has been validated returns nil.
func (t *Target) Compiled() *regexp.Regexp { return t.compiled }

// Scenario is one configured strategy instance.
type Scenario struct {
	Name          string                 `yaml:"name" json:"name"`
	Type          string                 `yaml:"type" json:"type"`
	TargetRef     string                 `yaml:"target_ref" json:"target_ref"`
	TargetSubtype string                 `yaml:"target_subtype,omitempty" json:"target_subtype,omitempty"`
	Enabled       bool                   `yaml:"enabled" json:"enabled"`
	Probability   float64                `yaml:"probability" json:"probability"`
	Params        map[string]interface{} `yaml:"params,omitempty" json:"params,omitempty"`

	// resolvedTarget is filled in at load time once target_ref has been
	// checked against the targets list, so matching never repeats the
	// lookup per-flow.
	resolvedTarget *Target
}

// ResolvedTarget returns the Target this scenario's target_ref resolved
// to. Only valid after a successful LoadPlan/ValidatePlan.
func (s *Scenario) ResolvedTarget() *Target { return s.resolvedTarget }

// RulePack is an optional override/addition to the built-in classifier
// heuristics' URL match stage.
type RulePack struct {
	Name          string   `yaml:"name" json:"name"`
	AgentPatterns []string `yaml:"agent_patterns,omitempty" json:"agent_patterns,omitempty"`
	LLMPatterns   []string `yaml:"llm_patterns,omitempty" json:"llm_patterns,omitempty"`
	ToolPatterns  []string `yaml:"tool_patterns,omitempty" json:"tool_patterns,omitempty"`

	compiledAgent []*regexp.Regexp
	compiledLLM   []*regexp.Regexp
	compiledTool  []*regexp.Regexp
}

func (r *RulePack) CompiledAgent() []*regexp.Regexp { return r.compiledAgent }
func (r *RulePack) CompiledLLM() []*regexp.Regexp   { return r.compiledLLM }
func (r *RulePack) CompiledTool() []*regexp.Regexp  { return r.compiledTool }

// ReplayConfig governs fingerprint normalization.
type ReplayConfig struct {
	IgnorePaths  []string `yaml:"ignore_paths,omitempty" json:"ignore_paths,omitempty"`
	IgnoreParams []string `yaml:"ignore_params,omitempty" json:"ignore_params,omitempty"`
}

// Metadata is free-form plan identification.
type Metadata struct {
	Name         string `yaml:"name" json:"name"`
	ExperimentID string `yaml:"experiment_id" json:"experiment_id"`
	Description  string `yaml:"description,omitempty" json:"description,omitempty"`
}

// ChaosPlan is the immutable, versioned configuration driving one run.
type ChaosPlan struct {
	Version             int            `yaml:"version" json:"version"`
	Revision            int            `yaml:"revision" json:"revision"`
	Metadata            Metadata       `yaml:"metadata" json:"metadata"`
	Targets             []Target       `yaml:"targets" json:"targets"`
	Scenarios           []Scenario     `yaml:"scenarios" json:"scenarios"`
	ClassifierRules     *RulePack      `yaml:"classifier_rules,omitempty" json:"classifier_rules,omitempty"`
	ClassifierRulePacks []RulePack     `yaml:"classifier_rule_packs,omitempty" json:"classifier_rule_packs,omitempty"`
	ReplayConfig        ReplayConfig   `yaml:"replay_config,omitempty" json:"replay_config,omitempty"`

	targetByName map[string]*Target
}

// TargetByName looks up a Target by name in O(1). Only populated after a
// successful load/validate.
func (p *ChaosPlan) TargetByName(name string) (*Target, bool) {
	t, ok := p.targetByName[name]
	return t, ok
}

// LogConfig is the process-level logging configuration. It lives here
// because plan loading and process startup are the only two things that
// need it, and this package already owns process-wide config concerns.
type LogConfig struct {
	Level      string `yaml:"level" json:"level"`
	LogDir     string `yaml:"log_dir,omitempty" json:"log_dir,omitempty"`
	EnableFile bool   `yaml:"enable_file" json:"enable_file"`
	JSONFormat bool   `yaml:"json_format" json:"json_format"`
	MaxSizeMB  int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" json:"max_age_days"`
}

// DefaultLogConfig returns sane defaults for file-backed logging.
func DefaultLogConfig() *LogConfig {
	return &LogConfig{
		Level:      "info",
		EnableFile: false,
		JSONFormat: false,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}
