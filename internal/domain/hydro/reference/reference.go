// Package reference holds the versioned static tables used by resolution:
// station aliases per kind, dam capacities and real-estate region codes.
package reference

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yanqian/hydro-agent/internal/domain/station"
)

//go:embed reference.yaml
var embedded []byte

// DamCapacityInfo is static capacity data for one dam. Capacity is a single
// nominal figure; storage ratios derived from it are directional only.
type DamCapacityInfo struct {
	Name                   string  `yaml:"name" json:"name"`
	TotalCapacityMillionM3 float64 `yaml:"totalCapacityMillionM3" json:"total_capacity_million_m3"`
	Watershed              string  `yaml:"watershed" json:"watershed"`
}

// Data is one version of the reference tables.
type Data struct {
	Version string                               `yaml:"version"`
	Aliases map[station.Kind]map[string][]string `yaml:"aliases"`
	Dams    map[string]DamCapacityInfo           `yaml:"dams"`
	Regions map[string]string                    `yaml:"regions"`
}

// Load reads reference data from path, or the embedded copy when path is empty.
func Load(path string) (*Data, error) {
	raw := embedded
	if strings.TrimSpace(path) != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read reference data: %w", err)
		}
		raw = content
	}
	return Parse(raw)
}

// Parse decodes and validates reference data.
func Parse(raw []byte) (*Data, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode reference data: %w", err)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}
	return &data, nil
}

// Validate rejects unknown kinds, empty codes and non-positive capacities.
func (d *Data) Validate() error {
	if strings.TrimSpace(d.Version) == "" {
		return fmt.Errorf("reference data: version is required")
	}
	for kind, table := range d.Aliases {
		if !kind.Valid() {
			return fmt.Errorf("reference data: unknown alias kind %q", kind)
		}
		for name, codes := range table {
			if len(codes) == 0 {
				return fmt.Errorf("reference data: alias %q (%s) has no codes", name, kind)
			}
			for _, code := range codes {
				if strings.TrimSpace(code) == "" {
					return fmt.Errorf("reference data: alias %q (%s) has an empty code", name, kind)
				}
			}
		}
	}
	for code, info := range d.Dams {
		if info.TotalCapacityMillionM3 <= 0 {
			return fmt.Errorf("reference data: dam %s has non-positive capacity", code)
		}
	}
	for name, code := range d.Regions {
		if len(code) != 5 {
			return fmt.Errorf("reference data: region %q has malformed code %q", name, code)
		}
	}
	return nil
}

// Dam returns capacity data for a dam code.
func (d *Data) Dam(code string) (DamCapacityInfo, bool) {
	if d == nil {
		return DamCapacityInfo{}, false
	}
	info, ok := d.Dams[strings.TrimSpace(code)]
	return info, ok
}

// DamsInWatershed lists other dams sharing the watershed, ordered by code.
func (d *Data) DamsInWatershed(watershed, exclude string) []string {
	if d == nil || watershed == "" {
		return nil
	}
	var codes []string
	for code, info := range d.Dams {
		if info.Watershed == watershed && code != exclude {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	return codes
}

// RegionCode maps a district name to its five-digit LAWD code.
func (d *Data) RegionCode(name string) (string, bool) {
	if d == nil {
		return "", false
	}
	name = strings.TrimSpace(name)
	if code, ok := d.Regions[name]; ok {
		return code, true
	}
	compact := station.Compact(name)
	for key, code := range d.Regions {
		if station.Compact(key) == compact {
			return code, true
		}
	}
	return "", false
}
