// Package policy evaluates user-defined CEL rules against masked records.
package policy

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/cel-go/cel"
	"gopkg.in/yaml.v3"

	"github.com/DrSkyle/datasift/pkg/pii"
	"github.com/DrSkyle/datasift/pkg/record"
)

// Action is what the engine does with a matching record.
type Action string

const (
	// ActionDrop removes the record from the output.
	ActionDrop Action = "drop"
	// ActionFlag only counts the match in the summary.
	ActionFlag Action = "flag"
)

// DynamicRule represents a user-defined rule (e.g. from YAML).
type DynamicRule struct {
	ID        string `json:"id" yaml:"id"`
	Condition string `json:"condition" yaml:"condition"` // CEL expression: "pii_types.emails > 0 && record.source == 'Reddit'"
	Action    Action `json:"action" yaml:"action"`
}

// RuleFile is the on-disk layout of a rules file.
type RuleFile struct {
	Rules []DynamicRule `yaml:"rules"`
}

// EvaluationContext is the data a rule sees.
type EvaluationContext struct {
	Record   record.Record
	PIIFound bool
	PIITypes map[pii.Category]int
}

// Match is one rule that evaluated to true.
type Match struct {
	ID     string
	Action Action
}

type compiledRule struct {
	rule DynamicRule
	prg  cel.Program
}

// CELEngine manages the compilation and execution of dynamic rules.
type CELEngine struct {
	env   *cel.Env
	rules []compiledRule
}

// NewCELEngine initializes the CEL environment with the record variables.
func NewCELEngine() (*CELEngine, error) {
	env, err := cel.NewEnv(
		cel.Variable("record", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("pii_found", cel.BoolType),
		cel.Variable("pii_types", cel.MapType(cel.StringType, cel.IntType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}
	return &CELEngine{env: env}, nil
}

// Compile compiles rules into executable programs. Rules are evaluated in
// the order given.
func (e *CELEngine) Compile(rules []DynamicRule) error {
	seen := make(map[string]bool, len(rules))
	for _, r := range rules {
		if r.ID == "" {
			return fmt.Errorf("rule with condition %q has no id", r.Condition)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate rule id %s", r.ID)
		}
		seen[r.ID] = true

		switch r.Action {
		case ActionDrop, ActionFlag:
		case "":
			r.Action = ActionFlag
		default:
			return fmt.Errorf("rule %s: unknown action %q", r.ID, r.Action)
		}

		ast, issues := e.env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return fmt.Errorf("rule %s compilation error: %w", r.ID, issues.Err())
		}
		out := ast.OutputType()
		if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
			return fmt.Errorf("rule %s must return bool, got %s", r.ID, out)
		}

		prg, err := e.env.Program(ast)
		if err != nil {
			return fmt.Errorf("rule %s program creation error: %w", r.ID, err)
		}

		e.rules = append(e.rules, compiledRule{rule: r, prg: prg})
	}
	return nil
}

// Len reports the number of compiled rules.
func (e *CELEngine) Len() int {
	return len(e.rules)
}

// Evaluate returns the rules that match, in rule order. A rule that fails to
// evaluate (missing key, wrong type) is logged and treated as no match.
func (e *CELEngine) Evaluate(ctx context.Context, data EvaluationContext) ([]Match, error) {
	types := make(map[string]any, len(data.PIITypes))
	for c, n := range data.PIITypes {
		types[string(c)] = int64(n)
	}
	vars := map[string]any{
		"record":    map[string]any(data.Record),
		"pii_found": data.PIIFound,
		"pii_types": types,
	}

	var matches []Match
	for _, cr := range e.rules {
		if err := ctx.Err(); err != nil {
			return matches, err
		}

		out, _, err := cr.prg.Eval(vars)
		if err != nil {
			slog.Debug("Rule evaluation failed", "rule_id", cr.rule.ID, "error", err)
			continue
		}

		// Rules return a boolean (true = match).
		if match, ok := out.Value().(bool); ok && match {
			matches = append(matches, Match{ID: cr.rule.ID, Action: cr.rule.Action})
		}
	}
	return matches, nil
}

// ParseRules decodes a YAML rules document.
func ParseRules(data []byte) ([]DynamicRule, error) {
	var f RuleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	return f.Rules, nil
}

// LoadRules reads a YAML rules file.
func LoadRules(path string) ([]DynamicRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return ParseRules(data)
}

// Drops reports whether any match asks for the record to be removed.
func Drops(matches []Match) bool {
	for _, m := range matches {
		if m.Action == ActionDrop {
			return true
		}
	}
	return false
}
