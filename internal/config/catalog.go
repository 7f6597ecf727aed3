package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/couchcryptid/climate-atlas/internal/domain"
)

//go:embed catalog.toml
var defaultCatalog []byte

// Catalog is the list of maps generated by a maps run.
type Catalog struct {
	Maps []domain.MapSpec `toml:"maps"`
}

// LoadCatalog reads the TOML catalog at path, or the embedded default when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read map catalog: %w", err)
		}
		data = b
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates a TOML catalog.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode map catalog: %w", err)
	}
	if len(c.Maps) == 0 {
		return nil, fmt.Errorf("map catalog: no maps")
	}
	seen := make(map[string]bool, len(c.Maps))
	for i, m := range c.Maps {
		switch {
		case m.ID == "":
			return nil, fmt.Errorf("map catalog: entry %d has no id", i)
		case seen[m.ID]:
			return nil, fmt.Errorf("map catalog: duplicate id %q", m.ID)
		case m.Metric == "":
			return nil, fmt.Errorf("map catalog: %s has no metric", m.ID)
		case len(m.Categories) == 0:
			return nil, fmt.Errorf("map catalog: %s has no categories", m.ID)
		}
		seen[m.ID] = true
	}
	return &c, nil
}
