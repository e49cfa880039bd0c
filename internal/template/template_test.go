package template

import (
	"os"
	"path/filepath"
	"testing"
)

func setupEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(filepath.Join(t.TempDir(), "templates"))
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func sampleTemplate() *Template {
	return &Template{
		ID:          "deploy",
		Name:        "Deploy",
		Description: "Deploy a service to an environment",
		Command:     "deploy {service} --env {env}",
		Category:    "ops",
		Variables: []Variable{
			{Name: "service"},
			{Name: "env", Required: boolPtr(false), Default: strPtr("dev")},
		},
	}
}

func TestSaveAndLoad(t *testing.T) {
	e := setupEngine(t)
	if err := e.Save(sampleTemplate()); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := e.Load("deploy")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Command != "deploy {service} --env {env}" {
		t.Errorf("command = %q", got.Command)
	}
	if len(got.Variables) != 2 {
		t.Fatalf("variables = %d, want 2", len(got.Variables))
	}
	if !got.Variables[0].IsRequired() {
		t.Error("service should default to required")
	}
	if got.Variables[1].IsRequired() {
		t.Error("env is declared optional")
	}
}

func TestLoad_NotFound(t *testing.T) {
	e := setupEngine(t)
	if _, err := e.Load("missing"); err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestResolve_ProvidedOverridesDefault(t *testing.T) {
	e := setupEngine(t)
	if err := e.Save(sampleTemplate()); err != nil {
		t.Fatal(err)
	}

	got, err := e.Resolve("deploy", map[string]string{"service": "api", "env": "prod"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "deploy api --env prod" {
		t.Errorf("resolved = %q", got)
	}
}

func TestResolve_UsesVariableDefault(t *testing.T) {
	e := setupEngine(t)
	if err := e.Save(sampleTemplate()); err != nil {
		t.Fatal(err)
	}

	got, err := e.Resolve("deploy", map[string]string{"service": "api"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got != "deploy api --env dev" {
		t.Errorf("resolved = %q", got)
	}
}

func TestResolve_MissingRequiredVariable(t *testing.T) {
	e := setupEngine(t)
	if err := e.Save(sampleTemplate()); err != nil {
		t.Fatal(err)
	}

	if _, err := e.Resolve("deploy", nil); err == nil {
		t.Fatal("expected error for missing required variable")
	}
}

func TestValidate_UndeclaredVariable(t *testing.T) {
	tpl := sampleTemplate()
	tpl.Command = "deploy {service} --region {region}"
	if err := Validate(tpl); err == nil {
		t.Fatal("expected error for undeclared {region}")
	}
}

func TestValidate_EmptyFields(t *testing.T) {
	for _, mutate := range []func(*Template){
		func(t *Template) { t.ID = "" },
		func(t *Template) { t.Name = " " },
		func(t *Template) { t.Command = "" },
	} {
		tpl := sampleTemplate()
		mutate(tpl)
		if err := Validate(tpl); err == nil {
			t.Error("expected validation error")
		}
	}
}

func TestExtractVariables(t *testing.T) {
	names, err := ExtractVariables("run {a} then {b} then {a}")
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("names = %v, want [a b]", names)
	}

	if _, err := ExtractVariables("broken {oops"); err == nil {
		t.Error("expected error for unclosed brace")
	}
	if _, err := ExtractVariables("bad {1x}"); err == nil {
		t.Error("expected error for invalid variable name")
	}
}

func TestList_SkipsUnparseableFiles(t *testing.T) {
	e := setupEngine(t)
	if err := e.Save(sampleTemplate()); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(e.Dir(), "junk.toml"), []byte("not [valid"), 0o644); err != nil {
		t.Fatal(err)
	}

	templates, err := e.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(templates) != 1 || templates[0].ID != "deploy" {
		t.Errorf("templates = %v, want only deploy", templates)
	}
}

func TestDelete(t *testing.T) {
	e := setupEngine(t)
	if err := e.Save(sampleTemplate()); err != nil {
		t.Fatal(err)
	}
	if err := e.Delete("deploy"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := e.Delete("deploy"); err == nil {
		t.Fatal("expected error deleting twice")
	}
}

func TestSubstitute(t *testing.T) {
	got, err := Substitute("echo {msg}", map[string]string{"msg": "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if got != "echo hi" {
		t.Errorf("substituted = %q", got)
	}

	if _, err := Substitute("echo {msg}", nil); err == nil {
		t.Error("expected error for unvalued variable")
	}
}
