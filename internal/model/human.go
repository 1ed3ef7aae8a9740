// human readable and writable stdlib types
// which can be used inside config file
package model

import (
	"errors"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// URL wraps url.URL so it can be written as a plain string in YAML.
// Environment variables inside the string are expanded on load.
type URL struct {
	*url.URL
}

func (u URL) AsURL() *url.URL {
	return u.URL
}

func (u *URL) UnmarshalYAML(node *yaml.Node) error {
	if u == nil {
		return errors.New("can't unmarshal to nil")
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := url.Parse(os.ExpandEnv(s))
	if err != nil {
		return err
	}
	u.URL = parsed
	return nil
}

func (u URL) MarshalYAML() (any, error) {
	if u.URL == nil {
		return "", nil
	}
	return u.String(), nil
}

// Duration accepts the time.ParseDuration syntax, e.g. "90s" or "5m".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if d == nil {
		return errors.New("can't unmarshal to nil")
	}
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	if s == "" {
		return errors.New("can't be empty")
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) AsDuration() time.Duration {
	return time.Duration(d)
}
