// Package template implements reusable command templates: TOML files with
// {variable} placeholders resolved against defaults and user-supplied
// values.
package template

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Template is one command template, stored as <id>.toml.
type Template struct {
	ID          string            `toml:"id"`
	Name        string            `toml:"name"`
	Description string            `toml:"description,omitempty"`
	Command     string            `toml:"command"`
	Category    string            `toml:"category,omitempty"`
	Variables   []Variable        `toml:"variables"`
	Defaults    map[string]string `toml:"defaults,omitempty"`
}

// Variable declares one {name} placeholder.
type Variable struct {
	Name        string  `toml:"name"`
	Description string  `toml:"description,omitempty"`
	Required    *bool   `toml:"required,omitempty"` // nil means required
	Default     *string `toml:"default,omitempty"`
}

// IsRequired reports whether the variable must be supplied; unset means yes.
func (v Variable) IsRequired() bool {
	return v.Required == nil || *v.Required
}

// Engine loads, saves, and resolves templates under one directory.
type Engine struct {
	dir string
}

// NewEngine returns an engine rooted at dir, creating it if needed.
func NewEngine(dir string) (*Engine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create templates dir: %w", err)
	}
	return &Engine{dir: dir}, nil
}

// Dir returns the templates directory.
func (e *Engine) Dir() string { return e.dir }

// Load reads and validates the template with the given id.
func (e *Engine) Load(id string) (*Template, error) {
	path := filepath.Join(e.dir, id+".toml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("template %q not found", id)
		}
		return nil, fmt.Errorf("read template %q: %w", id, err)
	}

	var t Template
	if err := toml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse template %q: %w", id, err)
	}
	if err := Validate(&t); err != nil {
		return nil, fmt.Errorf("template %q: %w", id, err)
	}
	return &t, nil
}

// List returns every valid template in the directory, sorted by id.
// Unparseable files are skipped rather than failing the listing.
func (e *Engine) List() ([]*Template, error) {
	names, err := filepath.Glob(filepath.Join(e.dir, "*.toml"))
	if err != nil {
		return nil, fmt.Errorf("scan templates dir: %w", err)
	}

	var out []*Template
	for _, name := range names {
		id := strings.TrimSuffix(filepath.Base(name), ".toml")
		t, err := e.Load(id)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Save validates and writes the template as <id>.toml.
func (e *Engine) Save(t *Template) error {
	if err := Validate(t); err != nil {
		return err
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(t); err != nil {
		return fmt.Errorf("encode template %q: %w", t.ID, err)
	}
	path := filepath.Join(e.dir, t.ID+".toml")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write template %q: %w", t.ID, err)
	}
	return nil
}

// Delete removes the template with the given id.
func (e *Engine) Delete(id string) error {
	path := filepath.Join(e.dir, id+".toml")
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("template %q not found", id)
		}
		return fmt.Errorf("delete template %q: %w", id, err)
	}
	return nil
}

// Resolve loads a template and substitutes variables: provided values win,
// then per-variable defaults, then the template's defaults table. Missing
// required variables are an error.
func (e *Engine) Resolve(id string, provided map[string]string) (string, error) {
	t, err := e.Load(id)
	if err != nil {
		return "", err
	}

	values := map[string]string{}
	for k, v := range t.Defaults {
		values[k] = v
	}
	for _, v := range t.Variables {
		if v.Default != nil {
			if _, ok := values[v.Name]; !ok {
				values[v.Name] = *v.Default
			}
		}
	}
	for k, v := range provided {
		values[k] = v
	}

	for _, v := range t.Variables {
		if _, ok := values[v.Name]; !ok && v.IsRequired() {
			return "", fmt.Errorf("template %q: missing required variable %q", id, v.Name)
		}
	}

	return Substitute(t.Command, values)
}

// Validate checks structural invariants: non-empty id/name/command, valid
// variable names, and no undeclared placeholders.
func Validate(t *Template) error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("template id must not be empty")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name must not be empty")
	}
	if strings.TrimSpace(t.Command) == "" {
		return fmt.Errorf("template command must not be empty")
	}

	declared := map[string]bool{}
	for _, v := range t.Variables {
		if !validVariableName(v.Name) {
			return fmt.Errorf("invalid variable name %q", v.Name)
		}
		declared[v.Name] = true
	}

	used, err := ExtractVariables(t.Command)
	if err != nil {
		return err
	}
	for _, name := range used {
		if !declared[name] {
			return fmt.Errorf("command references undeclared variable %q", name)
		}
	}
	return nil
}

// ExtractVariables returns the placeholder names used in a command, in
// order of first appearance.
func ExtractVariables(command string) ([]string, error) {
	var names []string
	seen := map[string]bool{}

	rest := command
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			return names, nil
		}
		end := strings.IndexByte(rest[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unclosed '{' in command %q", command)
		}
		name := rest[open+1 : open+end]
		if !validVariableName(name) {
			return nil, fmt.Errorf("invalid variable name %q in command", name)
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		rest = rest[open+end+1:]
	}
}

// Substitute replaces every {name} placeholder with its value. Every
// placeholder must have a value.
func Substitute(command string, values map[string]string) (string, error) {
	names, err := ExtractVariables(command)
	if err != nil {
		return "", err
	}
	out := command
	for _, name := range names {
		v, ok := values[name]
		if !ok {
			return "", fmt.Errorf("no value for variable %q", name)
		}
		out = strings.ReplaceAll(out, "{"+name+"}", v)
	}
	return out, nil
}

func validVariableName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
