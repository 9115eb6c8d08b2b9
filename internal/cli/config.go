package cli

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mbates/cdpconn/internal/cdp"
)

// settings is the resolved tool configuration: the endpoint plus the client
// config.
type settings struct {
	URL    string
	Config cdp.Config
}

// fileConfig maps config.toml keys onto client settings. Durations are
// Go duration strings ("30s", "500ms").
type fileConfig struct {
	URL               string `toml:"url"`
	ConnectTimeout    string `toml:"connect_timeout"`
	CommandTimeout    string `toml:"command_timeout"`
	HeartbeatInterval string `toml:"heartbeat_interval"`
	EventBuffer       int    `toml:"event_buffer"`

	Reconnect struct {
		MaxAttempts  int    `toml:"max_attempts"`
		InitialDelay string `toml:"initial_delay"`
		MaxDelay     string `toml:"max_delay"`
	} `toml:"reconnect"`
}

// loadSettings returns defaults overlaid with whatever the config file
// defines. An empty path means defaults only.
func loadSettings(path string) (settings, error) {
	s := settings{Config: cdp.DefaultConfig()}
	if path == "" {
		return s, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return settings{}, fmt.Errorf("load config: %w", err)
	}

	if meta.IsDefined("url") {
		s.URL = raw.URL
	}
	if meta.IsDefined("connect_timeout") {
		if s.Config.ConnectTimeout, err = parseDuration("connect_timeout", raw.ConnectTimeout); err != nil {
			return settings{}, err
		}
	}
	if meta.IsDefined("command_timeout") {
		if s.Config.CommandTimeout, err = parseDuration("command_timeout", raw.CommandTimeout); err != nil {
			return settings{}, err
		}
	}
	if meta.IsDefined("heartbeat_interval") {
		if s.Config.HeartbeatInterval, err = parseDuration("heartbeat_interval", raw.HeartbeatInterval); err != nil {
			return settings{}, err
		}
	}
	if meta.IsDefined("event_buffer") {
		s.Config.EventBuffer = raw.EventBuffer
	}
	if meta.IsDefined("reconnect", "max_attempts") {
		s.Config.Reconnect.MaxAttempts = raw.Reconnect.MaxAttempts
	}
	if meta.IsDefined("reconnect", "initial_delay") {
		if s.Config.Reconnect.InitialDelay, err = parseDuration("reconnect.initial_delay", raw.Reconnect.InitialDelay); err != nil {
			return settings{}, err
		}
	}
	if meta.IsDefined("reconnect", "max_delay") {
		if s.Config.Reconnect.MaxDelay, err = parseDuration("reconnect.max_delay", raw.Reconnect.MaxDelay); err != nil {
			return settings{}, err
		}
	}

	return s, nil
}

func parseDuration(key, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config key %s: %w", key, err)
	}
	return d, nil
}
