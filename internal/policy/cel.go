// Package policy evaluates operator-defined rules against verified
// provenance before it is accepted: which publishers may attest, which
// predicate types a project expects, constraints over verified claims.
//
// Rules are CEL expressions over a single `input` variable; the input shape
// is documented on Input.
package policy

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// Rule is a single named CEL expression. The expression must evaluate to a
// boolean; false is a violation reported with Message.
type Rule struct {
	Name    string `yaml:"name" json:"name"`
	Expr    string `yaml:"expr" json:"expr"`
	Message string `yaml:"message" json:"message"`
}

// Evaluator evaluates compiled rules against provenance input.
type Evaluator struct {
	env      *cel.Env
	programs map[string]cel.Program
}

// NewEvaluator compiles the given rules into an Evaluator.
func NewEvaluator(rules []Rule) (*Evaluator, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("no policy rules provided")
	}

	env, err := cel.NewEnv(
		cel.Variable("input", cel.DynType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	programs := make(map[string]cel.Program)
	for _, rule := range rules {
		if rule.Name == "" {
			return nil, fmt.Errorf("policy rule missing name")
		}
		if rule.Expr == "" {
			return nil, fmt.Errorf("policy rule '%s' missing expr", rule.Name)
		}

		ast, issues := env.Compile(rule.Expr)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile policy rule '%s': %w", rule.Name, issues.Err())
		}

		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("policy rule '%s' must return boolean, got %v", rule.Name, ast.OutputType())
		}

		prg, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create program for policy rule '%s': %w", rule.Name, err)
		}

		programs[rule.Name] = prg
	}

	return &Evaluator{
		env:      env,
		programs: programs,
	}, nil
}

// Evaluate runs every rule against the input and returns a map of rule name
// to outcome. Evaluation errors abort the run.
func (e *Evaluator) Evaluate(ctx context.Context, input map[string]interface{}) (map[string]bool, error) {
	if e.programs == nil {
		return nil, fmt.Errorf("policy evaluator not initialized")
	}

	results := make(map[string]bool)

	for name, prg := range e.programs {
		out, _, err := prg.Eval(map[string]interface{}{
			"input": input,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate policy rule '%s': %w", name, err)
		}

		boolVal, err := extractBool(out)
		if err != nil {
			return nil, fmt.Errorf("policy rule '%s' did not return boolean: %w", name, err)
		}

		results[name] = boolVal
	}

	return results, nil
}

// extractBool extracts a boolean value from a CEL ref.Val.
func extractBool(val ref.Val) (bool, error) {
	if types.IsBool(val) {
		return val.Value().(bool), nil
	}
	return false, fmt.Errorf("expected boolean, got %v", val.Type())
}
