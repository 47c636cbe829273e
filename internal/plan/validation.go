package plan

import (
	"fmt"
	"regexp"
)

// FieldError names one offending path in a plan document, following the
// teacher's "enumerate every violation" validator discipline rather than
// failing on the first problem found.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) String() string { return fmt.Sprintf("%s: %s", e.Path, e.Message) }

// PlanLoadError aggregates every FieldError found while loading or
// validating a plan document.
type PlanLoadError struct {
	Kind   string // "parse", "validation"
	Path   string // source file path, empty for in-memory validation
	Errors []FieldError
}

func (e *PlanLoadError) Error() string {
	msg := fmt.Sprintf("plan %s failed (%d error(s))", e.Kind, len(e.Errors))
	for _, fe := range e.Errors {
		msg += "\n  - " + fe.String()
	}
	return msg
}

// StrictMode controls the optional stricter validation checks.
type StrictMode struct {
	ClassifierStrict bool // CHAOS_CLASSIFIER_STRICT
}

// validate runs every structural check against plan and, on success,
// compiles regexes and resolves target_ref into the plan's internal
// lookup structures. It never short-circuits: every violation is
// collected before returning.
func validate(p *ChaosPlan, strict StrictMode) []FieldError {
	var errs []FieldError

	if p.Version <= 0 {
		errs = append(errs, FieldError{"version", "must be a positive integer"})
	}
	if p.Revision < 0 {
		errs = append(errs, FieldError{"revision", "must not be negative"})
	}
	if p.Metadata.Name == "" {
		errs = append(errs, FieldError{"metadata.name", "must not be empty"})
	}
	if p.Metadata.ExperimentID == "" {
		errs = append(errs, FieldError{"metadata.experiment_id", "must not be empty"})
	}

	targetNames := make(map[string]bool, len(p.Targets))
	p.targetByName = make(map[string]*Target, len(p.Targets))
	for i := range p.Targets {
		t := &p.Targets[i]
		path := fmt.Sprintf("targets[%d]", i)

		if t.Name == "" {
			errs = append(errs, FieldError{path + ".name", "must not be empty"})
		} else if targetNames[t.Name] {
			errs = append(errs, FieldError{path + ".name", fmt.Sprintf("duplicate target name %q", t.Name)})
		} else {
			targetNames[t.Name] = true
		}

		switch t.Type {
		case TargetHTTPEndpoint, TargetLLMInput, TargetToolCall, TargetAgentRole, TargetCustom:
		default:
			errs = append(errs, FieldError{path + ".type", fmt.Sprintf("unknown target type %q", t.Type)})
		}

		compiled, err := regexp.Compile(t.Pattern)
		if err != nil {
			errs = append(errs, FieldError{path + ".pattern", fmt.Sprintf("invalid regex: %v", err)})
		} else {
			t.compiled = compiled
		}

		if t.Name != "" {
			p.targetByName[t.Name] = t
		}
	}

	scenarioNames := make(map[string]bool, len(p.Scenarios))
	for i := range p.Scenarios {
		s := &p.Scenarios[i]
		path := fmt.Sprintf("scenarios[%d]", i)

		if s.Name == "" {
			errs = append(errs, FieldError{path + ".name", "must not be empty"})
		} else if scenarioNames[s.Name] {
			errs = append(errs, FieldError{path + ".name", fmt.Sprintf("duplicate scenario name %q", s.Name)})
		} else {
			scenarioNames[s.Name] = true
		}

		if s.Type == "" {
			errs = append(errs, FieldError{path + ".type", "must not be empty"})
		}

		if s.Probability < 0 || s.Probability > 1 {
			errs = append(errs, FieldError{path + ".probability", fmt.Sprintf("must be in [0,1], got %v", s.Probability)})
		}

		if s.TargetRef == "" {
			errs = append(errs, FieldError{path + ".target_ref", "must not be empty"})
		} else if target, ok := p.targetByName[s.TargetRef]; ok {
			s.resolvedTarget = target
		} else {
			errs = append(errs, FieldError{path + ".target_ref", fmt.Sprintf("does not resolve to any target name %q", s.TargetRef)})
		}
	}

	if strict.ClassifierStrict && len(p.ClassifierRulePacks) == 0 {
		errs = append(errs, FieldError{"classifier_rule_packs", "required when CHAOS_CLASSIFIER_STRICT is set"})
	}

	for i := range p.ClassifierRulePacks {
		compileRulePack(&p.ClassifierRulePacks[i], fmt.Sprintf("classifier_rule_packs[%d]", i), &errs)
	}
	if p.ClassifierRules != nil {
		compileRulePack(p.ClassifierRules, "classifier_rules", &errs)
	}

	return errs
}

func compileRulePack(rp *RulePack, path string, errs *[]FieldError) {
	compileInto := func(field string, patterns []string, dst *[]*regexp.Regexp) {
		for i, pat := range patterns {
			compiled, err := regexp.Compile(pat)
			if err != nil {
				*errs = append(*errs, FieldError{
					fmt.Sprintf("%s.%s[%d]", path, field, i),
					fmt.Sprintf("invalid regex: %v", err),
				})
				continue
			}
			*dst = append(*dst, compiled)
		}
	}
	compileInto("agent_patterns", rp.AgentPatterns, &rp.compiledAgent)
	compileInto("llm_patterns", rp.LLMPatterns, &rp.compiledLLM)
	compileInto("tool_patterns", rp.ToolPatterns, &rp.compiledTool)
}
