package model

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Well-known log destinations, any other value is a file path.
const (
	LogStderr  = "stderr"
	LogStdout  = "stdout"
	LogDiscard = "discard"
)

type Config struct {
	Version int      `yaml:"version"` // fixed 0 for now
	Servers []Server `yaml:"servers,omitempty"`
	Service Service  `yaml:"service"`
}

// Server is one scan-API endpoint the client talks to.
type Server struct {
	Name string `yaml:"name,omitempty"` // optional alias usable as --server value
	URL  URL    `yaml:"url"`
}

// Service holds client-wide settings.
type Service struct {
	Verbose  bool           `yaml:"verbose,omitempty"`
	Log      string         `yaml:"log,omitempty"`      // "stderr"|"stdout"|"discard"|path
	Store    string         `yaml:"store,omitempty"`    // sqlite task snapshot path, empty means the default under the user config dir
	Schedule *TimerSchedule `yaml:"schedule,omitempty"` // run mode reconciliation schedule
}

// TimerSchedule configures the run mode. Exactly one of Cron or Duration
// is expected.
type TimerSchedule struct {
	Cron     string   `yaml:"cron,omitempty"`
	Duration Duration `yaml:"duration,omitempty"`
}

// LoadConfig decodes and validates YAML from r.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Version != 0 {
		return Config{}, fmt.Errorf("config version %d is not supported, expected 0", cfg.Version)
	}

	seen := make(map[string]bool, len(cfg.Servers))
	for i, srv := range cfg.Servers {
		u := srv.URL.AsURL()
		if u == nil || u.Scheme == "" || u.Host == "" {
			return Config{}, fmt.Errorf("servers[%d]: url must be absolute with a scheme, e.g. `http://127.0.0.1:8775`", i)
		}
		if srv.Name != "" {
			if seen[srv.Name] {
				return Config{}, fmt.Errorf("servers[%d]: duplicate name %q", i, srv.Name)
			}
			seen[srv.Name] = true
		}
	}

	if s := cfg.Service.Schedule; s != nil && s.Cron != "" && s.Duration != 0 {
		return Config{}, errors.New("service.schedule: cron and duration are mutually exclusive")
	}

	return cfg, nil
}

func DefaultConfig() Config {
	return Config{
		Version: 0,
		Service: Service{
			Log: LogStderr,
		},
	}
}
