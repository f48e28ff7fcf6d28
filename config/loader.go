package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// A Loader layers the settings of a run. Later layers win: defaults, a YAML
// file, KORFIELD_* environment variables, then bound command-line flags that
// were set.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader that knows every key of Default.
func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	return &Loader{v: v}
}

func setDefaults(v *viper.Viper, d Cluster) {
	v.SetDefault("modules", d.Modules)
	v.SetDefault("grid_width", d.GridWidth)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("duration_us", d.DurationUs)
	v.SetDefault("tick_hz", d.TickHz)
	v.SetDefault("parallel", d.Parallel)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("gc.period_us", d.GC.PeriodUs)
	v.SetDefault("gc.max_age_us", d.GC.MaxAgeUs)
	v.SetDefault("workload.arrival_rate", d.Workload.ArrivalRate)
	v.SetDefault("workload.service_rate", d.Workload.ServiceRate)
	v.SetDefault("workload.capacity", d.Workload.Capacity)
	v.SetDefault("workload.hotspot_gain", d.Workload.HotspotGain)
	v.SetDefault("record.enabled", d.Record.Enabled)
	v.SetDefault("record.path", d.Record.Path)
	v.SetDefault("monitor.enabled", d.Monitor.Enabled)
	v.SetDefault("monitor.port", d.Monitor.Port)
	v.SetDefault("monitor.open_browser", d.Monitor.OpenBrowser)
}

// ReadFile merges a YAML file into the settings. An empty path does nothing.
func (l *Loader) ReadFile(path string) error {
	if path == "" {
		return nil
	}

	l.v.SetConfigFile(path)

	if err := l.v.MergeInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	return nil
}

// BindFlag makes a flag override key when the flag is set on the command
// line.
func (l *Loader) BindFlag(key string, flag *pflag.Flag) error {
	if flag == nil {
		return fmt.Errorf("no flag for %s", key)
	}

	return l.v.BindPFlag(key, flag)
}

// Load resolves every layer into a Cluster. Unknown keys are rejected.
func (l *Loader) Load() (Cluster, error) {
	c := Default()

	if err := l.v.UnmarshalExact(&c); err != nil {
		return c, fmt.Errorf("decode settings: %w", err)
	}

	return c, nil
}

// Load reads the settings from a YAML file and the environment on top of
// the defaults. An empty path skips the file.
func Load(path string) (Cluster, error) {
	l := NewLoader()

	if err := l.ReadFile(path); err != nil {
		return Default(), err
	}

	return l.Load()
}
