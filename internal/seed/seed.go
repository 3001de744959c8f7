// Package seed provides the embedded Chicago sample recommendations.
package seed

import (
	"embed"
	"fmt"

	"gopkg.in/yaml.v3"

	recuc "github.com/windycity/chirecs/internal/usecase/recommendation"
)

//go:embed data/*.yaml
var files embed.FS

// Dataset names.
const (
	Basic    = "basic"
	Expanded = "expanded"
)

type entry struct {
	PlaceType    string  `yaml:"place_type"`
	LocationName string  `yaml:"location_name"`
	Lat          float64 `yaml:"lat"`
	Lng          float64 `yaml:"lng"`
	PlaceName    string  `yaml:"place_name"`
}

type document struct {
	Recommendations []entry `yaml:"recommendations"`
}

// Source implements usecase/recommendation.SeedSource over one dataset.
type Source struct {
	data []byte
}

// Embedded returns the named built-in dataset.
func Embedded(name string) (*Source, error) {
	if name == "" {
		name = Expanded
	}
	data, err := files.ReadFile("data/" + name + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("unknown seed dataset %q", name)
	}
	return &Source{data: data}, nil
}

// FromBytes wraps caller-supplied YAML in the same format as the embedded files.
func FromBytes(data []byte) *Source {
	return &Source{data: data}
}

// Entries parses the dataset. Entries are returned unvalidated.
func (s *Source) Entries() ([]recuc.Input, error) {
	var doc document
	if err := yaml.Unmarshal(s.data, &doc); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	out := make([]recuc.Input, len(doc.Recommendations))
	for i, e := range doc.Recommendations {
		out[i] = recuc.Input{
			PlaceType:    e.PlaceType,
			LocationName: e.LocationName,
			Lat:          e.Lat,
			Lng:          e.Lng,
			PlaceName:    e.PlaceName,
		}
	}
	return out, nil
}
