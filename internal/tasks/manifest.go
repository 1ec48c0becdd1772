// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tasks

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"go.yaml.in/yaml/v3"

	"github.com/Maman08/Docklet/pkg/types"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Manifest is a batch of tasks read from YAML:
//
//	tasks:
//	  - id: sales
//	    type: csv-analyze
//	    input: data/sales.csv
//	    output: outputs/sales
//	    parameters:
//	      delimiter: ";"
type Manifest struct {
	Tasks []Entry `yaml:"tasks" validate:"required,min=1,unique=ID,dive"`
}

// Entry is one manifest task. ID labels the entry in status lines; the
// ledger assigns its own UUID.
type Entry struct {
	ID         string            `yaml:"id" validate:"required"`
	Type       types.TaskType    `yaml:"type" validate:"required,oneof=csv-analyze image-convert pdf-extract"`
	Input      string            `yaml:"input" validate:"required"`
	Output     string            `yaml:"output" validate:"required"`
	Parameters map[string]string `yaml:"parameters,omitempty"`
}

// ParseManifest decodes and validates a YAML manifest.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := validate.Struct(m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}

// LoadManifest reads and parses the manifest at path.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}
	return ParseManifest(data)
}
