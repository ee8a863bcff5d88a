package policy

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/open-verix/integrity/internal/providers/verifier"
	"github.com/open-verix/integrity/internal/publisher"
)

// Config is the operator-side policy document, loaded from YAML.
type Config struct {
	// Version is the config schema version.
	Version string `yaml:"version"`

	// Rules are the CEL rules evaluated against each verified upload.
	Rules []Rule `yaml:"rules"`
}

// LoadConfig reads and parses a policy file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse policy file: %w", err)
	}
	if len(cfg.Rules) == 0 {
		return nil, fmt.Errorf("policy file %s defines no rules", path)
	}
	return &cfg, nil
}

// Input is the CEL input built from one verified upload:
//
//	input.publisher.kind     publisher kind name
//	input.publisher.subject  expected signer subject
//	input.publisher.issuer   expected OIDC issuer
//	input.predicate_types    list of verified predicate type URIs
//	input.claims             predicate type → decoded claims
func Input(identity publisher.Identity, verifications []*verifier.Verification) map[string]interface{} {
	predicateTypes := make([]string, 0, len(verifications))
	claims := make(map[string]interface{}, len(verifications))
	for _, v := range verifications {
		predicateTypes = append(predicateTypes, v.PredicateType)
		if v.Claims != nil {
			claims[v.PredicateType] = v.Claims
		}
	}

	return map[string]interface{}{
		"publisher": map[string]interface{}{
			"kind":    identity.Kind().String(),
			"subject": identity.Subject(),
			"issuer":  identity.Issuer(),
		},
		"predicate_types": predicateTypes,
		"claims":          claims,
	}
}

// Violation is one failed rule.
type Violation struct {
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// Engine evaluates a policy config against verified uploads.
type Engine struct {
	config    *Config
	evaluator *Evaluator
	messages  map[string]string
}

// NewEngine compiles the config's rules into an Engine.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		return nil, fmt.Errorf("policy config is required")
	}

	evaluator, err := NewEvaluator(config.Rules)
	if err != nil {
		return nil, err
	}

	messages := make(map[string]string, len(config.Rules))
	for _, rule := range config.Rules {
		messages[rule.Name] = rule.Message
	}

	return &Engine{
		config:    config,
		evaluator: evaluator,
		messages:  messages,
	}, nil
}

// Check evaluates every rule and returns the violations. An empty slice
// means the upload passes policy.
func (e *Engine) Check(ctx context.Context, input map[string]interface{}) ([]Violation, error) {
	results, err := e.evaluator.Evaluate(ctx, input)
	if err != nil {
		return nil, err
	}

	var violations []Violation
	for name, passed := range results {
		if passed {
			continue
		}
		msg := e.messages[name]
		if msg == "" {
			msg = fmt.Sprintf("policy rule %s failed", name)
		}
		violations = append(violations, Violation{Rule: name, Message: msg})
	}
	return violations, nil
}
