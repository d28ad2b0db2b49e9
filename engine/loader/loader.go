package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var (
	// ErrInvalidStage is returned when a stage list is empty or a stage fails validation.
	ErrInvalidStage = errors.New("invalid stage")

	// ErrUnsupportedFormat is returned when a stage file extension has no backend.
	ErrUnsupportedFormat = errors.New("unsupported stage list format")
)

// LoaderBackendType identifies the stage list format backend to use.
type LoaderBackendType int

const (
	// BackendTypeJSON selects the JSON backend.
	BackendTypeJSON LoaderBackendType = iota
	// BackendTypeYAML selects the YAML backend.
	BackendTypeYAML
)

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	fsys fs.FS

	stageCache map[string][]Stage

	backends map[LoaderBackendType]loaderBackend
}

// Loader defines the public-facing interface for loading and caching stage lists.
// It abstracts the file format (JSON, YAML) behind a backend chosen by extension and
// keeps a cache of previously loaded lists.
type Loader interface {
	// Load reads a stage list file, validates it and caches the result.
	// If the list is already cached (by path), the cached version is returned.
	// The backend is selected based on the file extension (.json, .yaml/.yml).
	//
	// Parameters:
	//   - path: the file path to the stage list
	//
	// Returns:
	//   - []Stage: the loaded stages
	//   - error: error wrapping ErrUnsupportedFormat or ErrInvalidStage, or a read error
	Load(path string) ([]Stage, error)

	// LoadReader decodes a stage list from a reader and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded list
	//   - r: the reader providing the document
	//   - backendType: the format of the document
	//
	// Returns:
	//   - []Stage: the loaded stages
	//   - error: error if decoding or validation fails
	LoadReader(name string, r io.Reader, backendType LoaderBackendType) ([]Stage, error)

	// Get retrieves a cached stage list by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - []Stage: the cached stages or nil
	Get(name string) []Stage

	// Stages returns a copy of the full stage cache.
	//
	// Returns:
	//   - map[string][]Stage: all cached lists keyed by name
	Stages() map[string][]Stage
}

var _ Loader = &loader{}

// NewLoader creates a new Loader with the JSON and YAML backends registered.
//
// Parameters:
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader
func NewLoader(options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:         sync.RWMutex{},
		stageCache: make(map[string][]Stage),
		backends: map[LoaderBackendType]loaderBackend{
			BackendTypeJSON: newJSONLoaderBackend(),
			BackendTypeYAML: newYAMLLoaderBackend(),
		},
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) ([]Stage, error) {
	l.mu.RLock()
	if cached, ok := l.stageCache[path]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	backendType, err := resolveBackend(path)
	if err != nil {
		return nil, err
	}

	f, err := l.open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return l.LoadReader(path, f, backendType)
}

func (l *loader) LoadReader(name string, r io.Reader, backendType LoaderBackendType) ([]Stage, error) {
	l.mu.RLock()
	if cached, ok := l.stageCache[name]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	backend, ok := l.backends[backendType]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("backend %d: %w", backendType, ErrUnsupportedFormat)
	}

	stages, err := backend.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", name, err)
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("failed to load %s: no stages: %w", name, ErrInvalidStage)
	}
	for _, s := range stages {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
	}

	l.mu.Lock()
	l.stageCache[name] = stages
	l.mu.Unlock()

	return stages, nil
}

func (l *loader) Get(name string) []Stage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stageCache[name]
}

func (l *loader) Stages() map[string][]Stage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make(map[string][]Stage, len(l.stageCache))
	for k, v := range l.stageCache {
		result[k] = v
	}
	return result
}

// open reads from the configured file system, or the OS when none is set.
func (l *loader) open(path string) (io.ReadCloser, error) {
	if l.fsys != nil {
		return l.fsys.Open(filepath.ToSlash(path))
	}
	return os.Open(path)
}

// resolveBackend selects a loader backend based on the file extension.
func resolveBackend(path string) (LoaderBackendType, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return BackendTypeJSON, nil
	case ".yaml", ".yml":
		return BackendTypeYAML, nil
	default:
		return 0, fmt.Errorf("%q: %w", ext, ErrUnsupportedFormat)
	}
}
