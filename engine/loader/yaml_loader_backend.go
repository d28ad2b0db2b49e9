package loader

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// yamlLoaderBackend decodes stage lists from YAML.
type yamlLoaderBackend struct{}

var _ loaderBackend = &yamlLoaderBackend{}

func newYAMLLoaderBackend() loaderBackend {
	return &yamlLoaderBackend{}
}

func (b *yamlLoaderBackend) Decode(r io.Reader) ([]Stage, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", ErrInvalidStage)
		}
		return nil, fmt.Errorf("decode yaml stage document: %w", err)
	}

	node := &root
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		node = node.Content[0]
	}

	if node.Kind == yaml.SequenceNode {
		var stages []Stage
		if err := node.Decode(&stages); err != nil {
			return nil, fmt.Errorf("decode yaml stage list: %w", err)
		}
		return stages, nil
	}

	var doc stageList
	if err := node.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode yaml stage document: %w", err)
	}
	return doc.Stages, nil
}
