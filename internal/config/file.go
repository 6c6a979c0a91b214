package config

import (
	"errors"
	"fmt"
	"os"
	"route-optimizer/internal/domain"
	"route-optimizer/internal/services"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML settings file: the named location registry,
// the fixed end point and engine tunables.
type File struct {
	End       string                        `yaml:"end"`
	Locations map[string]domain.Coordinates `yaml:"locations"`
	Engine    Engine                        `yaml:"engine"`
}

// Engine holds tunables for the optimization engine. Zero values mean "use the default".
type Engine struct {
	Attempts         int     `yaml:"attempts"`
	Parallelism      int     `yaml:"parallelism"`
	Seed             int64   `yaml:"seed"`
	MaxIterations    int     `yaml:"max_iterations"`
	MaxStall         int     `yaml:"max_stall"`
	RestartThreshold float64 `yaml:"restart_threshold"`
}

const DefaultEnd = "bodega"

// Load reads and validates the settings file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config: read %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes settings from YAML. Location names are normalized and their
// coordinates validated.
func Parse(data []byte) (*File, error) {
	var raw File
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("load config: parse yaml: %w", err)
	}

	f := &File{
		End:       strings.TrimSpace(raw.End),
		Locations: make(map[string]domain.Coordinates, len(raw.Locations)),
		Engine:    raw.Engine,
	}
	if f.End == "" {
		f.End = DefaultEnd
	}

	for name, c := range raw.Locations {
		key := NormalizeName(name)
		if key == "" {
			return nil, errors.New("load config: location with empty name")
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("load config: location %q: %w", name, err)
		}
		f.Locations[key] = c
	}

	if f.Engine.RestartThreshold < 0 {
		return nil, fmt.Errorf("load config: restart_threshold must be >= 0, got %v", f.Engine.RestartThreshold)
	}

	return f, nil
}

// NormalizeName collapses whitespace and case so lookups are forgiving.
func NormalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// EngineOptions translates the engine settings into engine options.
// Zero values keep the engine defaults.
func (e Engine) EngineOptions() []services.EngineOption {
	threshold := e.RestartThreshold
	if threshold == 0 {
		threshold = services.DefaultTwoOptConfig().RestartThreshold
	}

	return []services.EngineOption{
		services.WithSeed(e.Seed),
		services.WithParallelism(e.Parallelism),
		services.WithTwoOptConfig(services.TwoOptConfig{
			MaxIterations:    e.MaxIterations,
			MaxStall:         e.MaxStall,
			RestartThreshold: threshold,
		}),
	}
}
