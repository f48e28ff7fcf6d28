// Package config loads the settings of a simulated cluster from a YAML file,
// the environment, an optional .env file and command-line flags.
package config

import (
	"fmt"
	"strings"

	"github.com/sarchlab/korfield/core"
	"github.com/sarchlab/korfield/field"
)

// Cluster configures one simulation run.
type Cluster struct {
	Modules    int     `yaml:"modules" mapstructure:"modules"`
	GridWidth  int     `yaml:"grid_width" mapstructure:"grid_width"`
	Seed       int64   `yaml:"seed" mapstructure:"seed"`
	DurationUs uint64  `yaml:"duration_us" mapstructure:"duration_us"`
	TickHz     float64 `yaml:"tick_hz" mapstructure:"tick_hz"`
	Parallel   bool    `yaml:"parallel" mapstructure:"parallel"`
	LogLevel   string  `yaml:"log_level" mapstructure:"log_level"`

	GC       GC               `yaml:"gc" mapstructure:"gc"`
	Decay    map[string]Decay `yaml:"decay" mapstructure:"decay"`
	Workload Workload         `yaml:"workload" mapstructure:"workload"`
	Failures []Failure        `yaml:"failures" mapstructure:"failures"`
	Record   Record           `yaml:"record" mapstructure:"record"`
	Monitor  Monitor          `yaml:"monitor" mapstructure:"monitor"`
}

// GC configures the collector that reclaims stale region slots.
type GC struct {
	PeriodUs uint64 `yaml:"period_us" mapstructure:"period_us"`
	MaxAgeUs uint64 `yaml:"max_age_us" mapstructure:"max_age_us"`
}

// Decay configures the decay of one field component.
type Decay struct {
	TauUs uint64 `yaml:"tau_us" mapstructure:"tau_us"`
	Model string `yaml:"model" mapstructure:"model"`
}

// Workload configures the synthetic work each module serves.
type Workload struct {
	ArrivalRate float64 `yaml:"arrival_rate" mapstructure:"arrival_rate"`
	ServiceRate float64 `yaml:"service_rate" mapstructure:"service_rate"`
	Capacity    float64 `yaml:"capacity" mapstructure:"capacity"`
	Hotspots    []int   `yaml:"hotspots" mapstructure:"hotspots"`
	HotspotGain float64 `yaml:"hotspot_gain" mapstructure:"hotspot_gain"`
}

// Failure takes a module down at a point in virtual time. With a zero
// duration the module is stopped for good. Otherwise it hangs for the
// duration and then resumes.
type Failure struct {
	Module     int    `yaml:"module" mapstructure:"module"`
	AtUs       uint64 `yaml:"at_us" mapstructure:"at_us"`
	DurationUs uint64 `yaml:"duration_us" mapstructure:"duration_us"`
}

// Record configures the SQLite recorder.
type Record struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// Monitor configures the monitoring web server.
type Monitor struct {
	Enabled     bool `yaml:"enabled" mapstructure:"enabled"`
	Port        int  `yaml:"port" mapstructure:"port"`
	OpenBrowser bool `yaml:"open_browser" mapstructure:"open_browser"`
}

// Default returns the settings used when nothing else is given.
func Default() Cluster {
	return Cluster{
		Modules:    16,
		GridWidth:  4,
		Seed:       1,
		DurationUs: 2_000_000,
		TickHz:     float64(core.TimeUs(1_000_000) / core.HeartbeatPeriod),
		LogLevel:   "info",
		GC: GC{
			PeriodUs: core.DefaultDecayTau,
			MaxAgeUs: field.HorizonFactor * core.DefaultDecayTau,
		},
		Workload: Workload{
			ArrivalRate: 0.4,
			ServiceRate: 0.5,
			Capacity:    10,
			HotspotGain: 3,
		},
	}
}

// Validate checks that the settings can build a cluster.
func (c Cluster) Validate() error {
	switch {
	case c.Modules < 1 || c.Modules >= core.MaxModules:
		return invalid("modules must be in [1, %d), got %d",
			core.MaxModules, c.Modules)
	case c.GridWidth < 1:
		return invalid("grid_width must be positive, got %d", c.GridWidth)
	case c.TickHz <= 0 || c.TickHz > 1e6:
		return invalid("tick_hz must be in (0, 1e6], got %g", c.TickHz)
	case c.DurationUs == 0:
		return invalid("duration_us must be positive")
	case c.GC.PeriodUs == 0:
		return invalid("gc.period_us must be positive")
	case c.GC.MaxAgeUs == 0:
		return invalid("gc.max_age_us must be positive")
	case c.Workload.Capacity <= 0:
		return invalid("workload.capacity must be positive, got %g",
			c.Workload.Capacity)
	case c.Workload.ArrivalRate < 0 || c.Workload.ServiceRate < 0:
		return invalid("workload rates must not be negative")
	case c.Monitor.Enabled && (c.Monitor.Port < 0 || c.Monitor.Port > 65535):
		return invalid("monitor.port out of range: %d", c.Monitor.Port)
	}

	for _, h := range c.Workload.Hotspots {
		if h < 0 || h >= c.Modules {
			return invalid("hotspot %d is not a module index", h)
		}
	}

	for _, f := range c.Failures {
		if f.Module < 0 || f.Module >= c.Modules {
			return invalid("failure of %d is not a module index", f.Module)
		}
	}

	_, err := c.ComponentConfigs()

	return err
}

// ComponentConfigs converts the decay section to field engine settings.
// Components that are not listed keep the default.
func (c Cluster) ComponentConfigs() (map[field.Component]field.ComponentConfig, error) {
	configs := make(map[field.Component]field.ComponentConfig)

	for name, d := range c.Decay {
		comp, ok := componentByName(name)
		if !ok {
			return nil, invalid("unknown field component %q", name)
		}

		model, ok := modelByName(d.Model)
		if !ok {
			return nil, invalid("unknown decay model %q", d.Model)
		}

		if d.TauUs == 0 || d.TauUs > field.MaxTau {
			return nil, invalid("decay tau of %s out of range: %d", name, d.TauUs)
		}

		configs[comp] = field.ComponentConfig{Tau: d.TauUs, Model: model}
	}

	return configs, nil
}

func componentByName(name string) (field.Component, bool) {
	for _, c := range field.AllComponents {
		if strings.EqualFold(c.String(), name) {
			return c, true
		}
	}

	return 0, false
}

func modelByName(name string) (field.DecayModel, bool) {
	for _, m := range []field.DecayModel{
		field.DecayPiecewise, field.DecayLinear, field.DecayStep,
	} {
		if name == "" || strings.EqualFold(m.String(), name) {
			return m, true
		}
	}

	return 0, false
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), core.ErrInvalidArg)
}
