package loader

import "io"

// loaderBackend defines the generic interface for decoding stage lists from a stream.
// Concrete implementations (jsonLoaderBackend, yamlLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// Decode reads a stage list, either wrapped as {"stages": [...]} or as a bare list.
	//
	// Parameters:
	//   - r: the reader providing the document
	//
	// Returns:
	//   - []Stage: the decoded stages, not yet validated
	//   - error: error if the document cannot be decoded
	Decode(r io.Reader) ([]Stage, error)
}
