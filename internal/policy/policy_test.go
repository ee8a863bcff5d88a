package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/open-verix/integrity/internal/attestations"
	"github.com/open-verix/integrity/internal/providers/verifier"
	"github.com/open-verix/integrity/internal/publisher"
)

func testInput() map[string]interface{} {
	identity := publisher.GitHubIdentity{Repository: "acme/pkg", Workflow: "release.yml"}
	return Input(identity, []*verifier.Verification{
		{
			PredicateType: attestations.PredicateTypeSLSAProvenance,
			Claims:        map[string]interface{}{"buildType": "github-actions"},
		},
	})
}

func TestNewEvaluator(t *testing.T) {
	tests := []struct {
		name    string
		rules   []Rule
		wantErr bool
	}{
		{
			name: "valid rules",
			rules: []Rule{
				{Name: "github-only", Expr: `input.publisher.kind == "GitHub"`},
			},
		},
		{
			name:    "no rules",
			rules:   nil,
			wantErr: true,
		},
		{
			name: "missing name",
			rules: []Rule{
				{Expr: "true"},
			},
			wantErr: true,
		},
		{
			name: "missing expr",
			rules: []Rule{
				{Name: "empty"},
			},
			wantErr: true,
		},
		{
			name: "syntax error",
			rules: []Rule{
				{Name: "broken", Expr: "input..publisher"},
			},
			wantErr: true,
		},
		{
			name: "non-boolean expression",
			rules: []Rule{
				{Name: "string-result", Expr: `"hello"`},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvaluator(tt.rules)
			if tt.wantErr && err == nil {
				t.Errorf("NewEvaluator() succeeded, want error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("NewEvaluator() error = %v", err)
			}
		})
	}
}

func TestEvaluate(t *testing.T) {
	eval, err := NewEvaluator([]Rule{
		{Name: "github-only", Expr: `input.publisher.kind == "GitHub"`},
		{Name: "expects-slsa", Expr: `"https://slsa.dev/provenance/v1" in input.predicate_types`},
		{Name: "from-gitlab", Expr: `input.publisher.kind == "GitLab"`},
	})
	if err != nil {
		t.Fatalf("NewEvaluator() error = %v", err)
	}

	results, err := eval.Evaluate(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}

	if !results["github-only"] {
		t.Errorf("rule github-only = false, want true")
	}
	if !results["expects-slsa"] {
		t.Errorf("rule expects-slsa = false, want true")
	}
	if results["from-gitlab"] {
		t.Errorf("rule from-gitlab = true, want false")
	}
}

func TestEngineCheck(t *testing.T) {
	engine, err := NewEngine(&Config{
		Version: "1",
		Rules: []Rule{
			{
				Name:    "github-only",
				Expr:    `input.publisher.kind == "GitHub"`,
				Message: "only GitHub publishers are permitted",
			},
			{
				Name:    "from-gitlab",
				Expr:    `input.publisher.kind == "GitLab"`,
				Message: "uploads must come from GitLab",
			},
		},
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	violations, err := engine.Check(context.Background(), testInput())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}

	if len(violations) != 1 {
		t.Fatalf("Check() returned %d violations, want 1", len(violations))
	}
	if violations[0].Rule != "from-gitlab" {
		t.Errorf("violation rule = %q, want %q", violations[0].Rule, "from-gitlab")
	}
	if violations[0].Message != "uploads must come from GitLab" {
		t.Errorf("violation message = %q, want the rule message", violations[0].Message)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	content := `
version: "1"
rules:
  - name: github-only
    expr: input.publisher.kind == "GitHub"
    message: only GitHub publishers are permitted
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if len(cfg.Rules) != 1 || cfg.Rules[0].Name != "github-only" {
		t.Errorf("LoadConfig() rules = %#v, want the single named rule", cfg.Rules)
	}
}

func TestLoadConfigEmptyRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")
	if err := os.WriteFile(path, []byte(`version: "1"`), 0o644); err != nil {
		t.Fatalf("failed to write policy file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Errorf("LoadConfig() with no rules succeeded, want error")
	}
}

func TestInputShape(t *testing.T) {
	input := testInput()

	pub, ok := input["publisher"].(map[string]interface{})
	if !ok {
		t.Fatalf("input.publisher is %T, want map", input["publisher"])
	}
	if pub["kind"] != "GitHub" {
		t.Errorf("input.publisher.kind = %v, want GitHub", pub["kind"])
	}
	if pub["subject"] != "https://github.com/acme/pkg/.github/workflows/release.yml" {
		t.Errorf("input.publisher.subject = %v, want the workflow URL", pub["subject"])
	}

	claims, ok := input["claims"].(map[string]interface{})
	if !ok {
		t.Fatalf("input.claims is %T, want map", input["claims"])
	}
	if _, ok := claims[attestations.PredicateTypeSLSAProvenance]; !ok {
		t.Errorf("input.claims missing the verified predicate type")
	}
}
