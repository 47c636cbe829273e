package plan

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/agentchaos/chaosproxy/internal/secret"
)

// LoadPlan reads, parses, and validates a plan file, expanding any
// ${env:...}/${keyring:...} references embedded in scenario params.
func LoadPlan(ctx context.Context, path string, strict StrictMode, resolver *secret.Resolver) (*ChaosPlan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &PlanLoadError{Kind: "parse", Path: path, Errors: []FieldError{
			{Path: path, Message: err.Error()},
		}}
	}

	p, errs := parseAndValidate(data, strict)
	if len(errs) > 0 {
		return nil, &PlanLoadError{Kind: "validation", Path: path, Errors: errs}
	}

	if resolver != nil {
		if err := expandSecrets(ctx, p, resolver); err != nil {
			return nil, &PlanLoadError{Kind: "validation", Path: path, Errors: []FieldError{
				{Path: "scenarios[*].params", Message: err.Error()},
			}}
		}
	}

	return p, nil
}

// ValidatePlan parses and validates plan bytes without resolving secrets
// or requiring a file on disk, used by the control plane's POST /plan and
// the validate-plan CLI subcommand.
func ValidatePlan(data []byte, strict StrictMode) (*ChaosPlan, error) {
	p, errs := parseAndValidate(data, strict)
	if len(errs) > 0 {
		return nil, &PlanLoadError{Kind: "validation", Errors: errs}
	}
	return p, nil
}

func parseAndValidate(data []byte, strict StrictMode) (*ChaosPlan, []FieldError) {
	var p ChaosPlan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, []FieldError{{Path: "$", Message: fmt.Sprintf("yaml parse error: %v", err)}}
	}

	errs := validate(&p, strict)
	if len(errs) > 0 {
		return nil, errs
	}
	return &p, nil
}

// expandSecrets walks every scenario's params map and replaces any string
// value containing a secret reference with its resolved form. Non-string
// values and params without references are left untouched.
func expandSecrets(ctx context.Context, p *ChaosPlan, resolver *secret.Resolver) error {
	for i := range p.Scenarios {
		for k, v := range p.Scenarios[i].Params {
			s, ok := v.(string)
			if !ok || !secret.IsRef(s) {
				continue
			}
			expanded, err := resolver.ExpandString(ctx, s)
			if err != nil {
				return fmt.Errorf("scenario %q param %q: %w", p.Scenarios[i].Name, k, err)
			}
			p.Scenarios[i].Params[k] = expanded
		}
	}
	return nil
}
