package prompts

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// overrides is the shape of a catalog override file:
//
//	tones:
//	  strict: "Be blunt."
//
// or the TOML equivalent with a [tones] table.
type overrides struct {
	Tones map[string]string `yaml:"tones" toml:"tones"`
}

// LoadCatalog builds a catalog and applies tone overrides from path. The
// format is picked by extension (.yaml, .yml or .toml). An empty path
// returns the built-in catalog.
func LoadCatalog(fs afero.Fs, path string) (*Catalog, error) {
	c := NewCatalog()
	if path == "" {
		return c, nil
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("read prompt catalog %s: %w", path, err)
	}

	var o overrides
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &o)
	case ".toml":
		err = toml.Unmarshal(data, &o)
	default:
		return nil, fmt.Errorf("prompt catalog %s: unsupported format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse prompt catalog %s: %w", path, err)
	}

	for name, tone := range o.Tones {
		m := Mode(strings.TrimSpace(name))
		if !m.IsValid() {
			return nil, fmt.Errorf("prompt catalog %s: %w: %s", path, ErrUnknownMode, name)
		}
		if tone = strings.TrimSpace(tone); tone != "" {
			c.tones[m] = tone
		}
	}
	return c, nil
}
