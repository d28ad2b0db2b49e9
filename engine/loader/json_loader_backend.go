package loader

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// jsonLoaderBackend decodes stage lists from JSON.
type jsonLoaderBackend struct{}

var _ loaderBackend = &jsonLoaderBackend{}

func newJSONLoaderBackend() loaderBackend {
	return &jsonLoaderBackend{}
}

func (b *jsonLoaderBackend) Decode(r io.Reader) ([]Stage, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty document: %w", ErrInvalidStage)
	}

	if data[0] == '[' {
		var stages []Stage
		if err := json.Unmarshal(data, &stages); err != nil {
			return nil, fmt.Errorf("decode json stage list: %w", err)
		}
		return stages, nil
	}

	var doc stageList
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json stage document: %w", err)
	}
	return doc.Stages, nil
}
