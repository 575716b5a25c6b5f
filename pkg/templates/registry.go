package templates

import (
	"bytes"
	"embed"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	"finassist/pkg/errors"
)

//go:embed assets/**/*.tmpl
var embeddedFS embed.FS

// funcs are available to every prompt template.
var funcs = template.FuncMap{
	"join":  strings.Join,
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
}

// Registry resolves prompt templates by ID, e.g. "agents/market_analyst".
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewRegistry loads every *.tmpl below dir. Used to override the embedded
// prompts from disk.
func NewRegistry(dir string) (*Registry, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrapf(err, "template dir %s", dir)
	}
	return NewRegistryFromFS(os.DirFS(dir))
}

// NewRegistryFromFS loads every *.tmpl in filesystem. IDs are slash paths
// without the extension.
func NewRegistryFromFS(filesystem fs.FS) (*Registry, error) {
	r := &Registry{templates: make(map[string]*template.Template)}

	err := fs.WalkDir(filesystem, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".tmpl" {
			return nil
		}
		content, err := fs.ReadFile(filesystem, p)
		if err != nil {
			return errors.Wrapf(err, "read template %s", p)
		}
		return r.Add(strings.TrimSuffix(p, ".tmpl"), string(content))
	})
	if err != nil {
		return nil, err
	}

	return r, nil
}

// Add parses and registers a template, replacing any previous one with the same ID.
func (r *Registry) Add(id, content string) error {
	parsed, err := template.New(id).Funcs(funcs).Option("missingkey=error").Parse(content)
	if err != nil {
		return errors.Wrapf(err, "parse template %s", id)
	}

	r.mu.Lock()
	r.templates[id] = parsed
	r.mu.Unlock()
	return nil
}

// Has reports whether a template with the given ID is registered.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.templates[id]
	return ok
}

// Render executes a template by ID. The output is trimmed of surrounding whitespace.
func (r *Registry) Render(id string, data any) (string, error) {
	r.mu.RLock()
	tmpl, ok := r.templates[id]
	r.mu.RUnlock()
	if !ok {
		return "", errors.Wrapf(errors.ErrNotFound, "template %s", id)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", errors.Wrapf(err, "render template %s", id)
	}
	return strings.TrimSpace(buf.String()), nil
}

// IDs returns all registered template IDs in sorted order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.templates))
	for id := range r.templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
	defaultErr      error
)

// Get returns the registry over the embedded prompt assets.
// A broken embedded template is a build defect, so Get panics on it.
func Get() *Registry {
	defaultOnce.Do(func() {
		sub, err := fs.Sub(embeddedFS, "assets")
		if err != nil {
			defaultErr = errors.Wrap(err, "prepare embedded templates")
			return
		}
		defaultRegistry, defaultErr = NewRegistryFromFS(sub)
	})

	if defaultErr != nil {
		panic(defaultErr)
	}
	return defaultRegistry
}
