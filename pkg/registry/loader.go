package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"
)

type cachedSpec struct {
	spec    *Spec
	modTime time.Time
	loadErr *InvalidSpecError // nil if the spec passed basic validation
}

// Registry discovers, caches, and serves component specs (§4.3). It
// is safe for concurrent use: readers take an RLock, and Get/List
// re-stat specs and reload a stale one inline, in the caller's
// goroutine, holding the write lock only while the entry is replaced.
type Registry struct {
	root  string
	mu    sync.RWMutex
	specs map[string]*cachedSpec
}

// Load walks <root>/<component_name>/spec.yaml, parses every file it
// finds, runs basic validation, and returns a ready Registry. A spec
// that fails basic validation is still cached (so validate() can
// report its errors later) but is excluded from Get/List.
func Load(root string) (*Registry, error) {
	r := &Registry{root: root, specs: make(map[string]*cachedSpec)}

	matches, err := doublestar.Glob(os.DirFS(root), "*/spec.yaml")
	if err != nil {
		return nil, fmt.Errorf("registry: walking %s: %w", root, err)
	}
	sort.Strings(matches)

	for _, rel := range matches {
		path := filepath.Join(root, rel)
		if err := r.loadOne(path); err != nil {
			return nil, err
		}
	}
	return r, nil
}

type duplicateError struct {
	name string
}

func (e *duplicateError) Error() string {
	return fmt.Sprintf("%s: %q", ErrDuplicateComponent, e.name)
}
func (e *duplicateError) Unwrap() error { return ErrDuplicateComponent }

func (r *Registry) loadOne(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("registry: stat %s: %w", path, err)
	}

	spec, parseErr := parseSpecFile(path)

	r.mu.Lock()
	defer r.mu.Unlock()

	if parseErr == nil {
		if existing, ok := r.specs[spec.Name]; ok && existing.spec != nil && existing.spec.sourcePath != path {
			return &duplicateError{name: spec.Name}
		}
	}

	entry := &cachedSpec{modTime: info.ModTime()}
	if parseErr != nil {
		entry.loadErr = &InvalidSpecError{Name: filepath.Dir(path), Level: LevelBasic, Errors: []error{parseErr}}
		// Key unparseable specs by their directory name since we have
		// no declared Name to key by.
		r.specs[filepath.Base(filepath.Dir(path))] = entry
		return nil
	}

	if errs := validateBasic(spec); len(errs) > 0 {
		entry.loadErr = &InvalidSpecError{Name: spec.Name, Level: LevelBasic, Errors: errs}
	}
	entry.spec = spec
	r.specs[spec.Name] = entry
	return nil
}

func parseSpecFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec Spec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	spec.sourcePath = path
	return &spec, nil
}

// refresh re-stats the entry's source file and reparses it if the
// mtime changed (§4.3 caching: "stat each spec file on read; reload
// when mtime changes").
func (r *Registry) refresh(name string) {
	r.mu.RLock()
	entry, ok := r.specs[name]
	r.mu.RUnlock()
	if !ok || entry.spec == nil {
		return
	}

	info, err := os.Stat(entry.spec.sourcePath)
	if err != nil || !info.ModTime().After(entry.modTime) {
		return
	}

	_ = r.loadOne(entry.spec.sourcePath)
}

// Get returns the named spec if it exists and passed basic validation.
func (r *Registry) Get(name string) (*Spec, error) {
	r.refresh(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.specs[name]
	if !ok || entry.spec == nil || entry.loadErr != nil {
		return nil, fmt.Errorf("%w: %s", ErrSpecNotFound, name)
	}
	return entry.spec, nil
}

// List returns every valid spec, optionally filtered to those
// supporting at least one of modes. A nil/empty modes list returns
// everything.
func (r *Registry) List(modes ...Mode) []*Spec {
	r.mu.RLock()
	names := make([]string, 0, len(r.specs))
	for name := range r.specs {
		names = append(names, name)
	}
	r.mu.RUnlock()

	for _, name := range names {
		r.refresh(name)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Spec, 0, len(r.specs))
	for _, name := range names {
		entry, ok := r.specs[name]
		if !ok || entry.spec == nil || entry.loadErr != nil {
			continue
		}
		if len(modes) == 0 || anyModeSupported(entry.spec, modes) {
			out = append(out, entry.spec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func anyModeSupported(spec *Spec, modes []Mode) bool {
	for _, m := range modes {
		if spec.SupportsMode(m) {
			return true
		}
	}
	return false
}

// LoadErrors returns the validation errors recorded for every spec
// that failed to load or failed basic validation, keyed by registry
// entry name. Used by `osiris components validate` to report problems
// even for specs excluded from Get/List.
func (r *Registry) LoadErrors() map[string]*InvalidSpecError {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*InvalidSpecError)
	for name, entry := range r.specs {
		if entry.loadErr != nil {
			out[name] = entry.loadErr
		}
	}
	return out
}

// SecretMap returns the secret/redaction-extras JSON pointers for the
// named component (§4.3).
func (r *Registry) SecretMap(name string) (SecretMap, error) {
	spec, err := r.Get(name)
	if err != nil {
		return SecretMap{}, err
	}
	return SecretMap{Secrets: spec.Secrets, RedactionExtras: spec.Redaction.Extras}, nil
}
