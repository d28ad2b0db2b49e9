package loader

import "io/fs"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithFS is an option builder that makes Load read stage files from fsys instead of the OS.
//
// Parameters:
//   - fsys: the file system to read from
//
// Returns:
//   - LoaderBuilderOption: a function that applies the file system option to a loader
func WithFS(fsys fs.FS) LoaderBuilderOption {
	return func(l *loader) {
		l.fsys = fsys
	}
}

// WithStages is an option builder that pre-populates the stage cache.
//
// Parameters:
//   - key: the cache key for the list
//   - stages: the stages to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the stages option to a loader
func WithStages(key string, stages []Stage) LoaderBuilderOption {
	return func(l *loader) {
		l.stageCache[key] = stages
	}
}
