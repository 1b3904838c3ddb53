package seed

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultSeed []byte

// Loader reads seed books from a YAML file, or from the built-in sample
// shelf when no path is configured.
type Loader struct {
	filePath string
}

// NewLoader creates a seed loader. An empty filePath selects the built-in seed.
func NewLoader(filePath string) *Loader {
	return &Loader{
		filePath: filePath,
	}
}

// Source describes where seeds are read from, for logging.
func (l *Loader) Source() string {
	if l.filePath == "" {
		return "built-in"
	}
	return l.filePath
}

// Load reads and parses the seed file.
func (l *Loader) Load() (File, error) {
	data := defaultSeed
	if l.filePath != "" {
		raw, err := os.ReadFile(l.filePath)
		if err != nil {
			return File{}, fmt.Errorf("failed to read seed file: %w", err)
		}
		data = raw
	}
	return Parse(data)
}

// Parse decodes seed YAML. ${VAR} references are expanded from the
// environment before decoding; unset variables expand to nothing.
func Parse(data []byte) (File, error) {
	data = []byte(os.ExpandEnv(string(data)))

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse seed yaml: %w", err)
	}
	return f, nil
}
