package manifest

import (
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/customeros/dmarc-summaries/dto"
)

// decode parses a manifest document. Files ending in .yaml or .yml are read
// as YAML, everything else as JSON.
func decode(name string, content []byte) (dto.Manifest, error) {
	var manifest dto.Manifest

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(content, &manifest); err != nil {
			return nil, errors.Wrapf(err, "decode yaml manifest %s", name)
		}
	default:
		if err := json.Unmarshal(content, &manifest); err != nil {
			return nil, errors.Wrapf(err, "decode json manifest %s", name)
		}
	}
	return manifest, nil
}
