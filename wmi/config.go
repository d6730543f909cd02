// (c) Copyright 2019 Hewlett Packard Enterprise Development LP

package wmi

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	log "github.com/hpe-storage/wmiclient/logger"
	"github.com/mitchellh/mapstructure"
)

// Authentication Level Constants
const (
	RPC_C_AUTHN_LEVEL_DEFAULT       = 0
	RPC_C_AUTHN_LEVEL_NONE          = 1
	RPC_C_AUTHN_LEVEL_CONNECT       = 2
	RPC_C_AUTHN_LEVEL_CALL          = 3
	RPC_C_AUTHN_LEVEL_PKT           = 4
	RPC_C_AUTHN_LEVEL_PKT_INTEGRITY = 5
	RPC_C_AUTHN_LEVEL_PKT_PRIVACY   = 6
)

// Impersonation Level Constants
const (
	RPC_C_IMP_LEVEL_DEFAULT     = 0
	RPC_C_IMP_LEVEL_ANONYMOUS   = 1
	RPC_C_IMP_LEVEL_IDENTIFY    = 2
	RPC_C_IMP_LEVEL_IMPERSONATE = 3
	RPC_C_IMP_LEVEL_DELEGATE    = 4
)

const (
	DefaultNamespace    = RootCIMV2
	DefaultPollInterval = time.Second
)

// Config holds the settings of a WMI session
type Config struct {
	// Namespace to connect to, e.g. ROOT\CIMV2
	Namespace string `mapstructure:"namespace"`
	// Server is empty (or ".") for the local host
	Server    string `mapstructure:"server"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	Authority string `mapstructure:"authority"`
	Locale    string `mapstructure:"locale"`

	// AuthLevel and ImpersonationLevel are applied to the session proxy when non-zero
	AuthLevel          uint32 `mapstructure:"auth_level"`
	ImpersonationLevel uint32 `mapstructure:"impersonation_level"`

	// PollInterval bounds each wait for the next event of a notification subscription
	PollInterval time.Duration `mapstructure:"poll_interval"`

	// Context values are passed to the providers with every query, object and method call
	Context Context `mapstructure:"context"`
}

// DefaultConfig returns the local ROOT\CIMV2 settings
func DefaultConfig() *Config {
	return &Config{
		Namespace:          DefaultNamespace,
		ImpersonationLevel: RPC_C_IMP_LEVEL_IMPERSONATE,
		PollInterval:       DefaultPollInterval,
	}
}

// ConfigFromMap decodes settings over the defaults.  Durations may be given as strings ("2s").
func ConfigFromMap(m map[string]interface{}) (*Config, error) {
	config := DefaultConfig()
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           config,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(m); err != nil {
		return nil, fmt.Errorf("invalid WMI configuration: %w", err)
	}
	if _, err := config.Context.Variants(); err != nil {
		return nil, fmt.Errorf("invalid WMI configuration: %w", err)
	}
	return config, nil
}

// LoadConfig reads a TOML file (if path is not empty) and applies WMI_* environment overrides
func LoadConfig(path string) (*Config, error) {
	log.Tracef(">>>>> LoadConfig, path=%v", path)
	defer log.Trace("<<<<< LoadConfig")

	settings := make(map[string]interface{})
	if path != "" {
		if _, err := toml.DecodeFile(path, &settings); err != nil {
			log.Errorf("Unable to read WMI configuration file, path=%v, err=%v", path, err)
			return nil, err
		}
	}
	config, err := ConfigFromMap(settings)
	if err != nil {
		return nil, err
	}
	config.updateFromEnv()

	log.WithFields(log.Fields{"config": log.MapScrubber(config.fields())}).Debug("Loaded WMI configuration")
	return config, nil
}

func (c *Config) updateFromEnv() {
	if namespace := os.Getenv("WMI_NAMESPACE"); namespace != "" {
		c.Namespace = namespace
	}
	if server := os.Getenv("WMI_SERVER"); server != "" {
		c.Server = server
	}
	if user := os.Getenv("WMI_USER"); user != "" {
		c.User = user
	}
	if password := os.Getenv("WMI_PASSWORD"); password != "" {
		c.Password = password
	}
	if authority := os.Getenv("WMI_AUTHORITY"); authority != "" {
		c.Authority = authority
	}
	if level := os.Getenv("WMI_AUTH_LEVEL"); level != "" {
		if n, err := strconv.ParseUint(level, 0, 32); err == nil {
			c.AuthLevel = uint32(n)
		}
	}
	if interval := os.Getenv("WMI_POLL_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			c.PollInterval = d
		}
	}
}

// fields returns the settings as text, for logging
func (c *Config) fields() map[string]string {
	return map[string]string{
		"namespace":           c.Namespace,
		"server":              c.Server,
		"user":                c.User,
		"password":            c.Password,
		"authority":           c.Authority,
		"locale":              c.Locale,
		"auth_level":          strconv.FormatUint(uint64(c.AuthLevel), 10),
		"impersonation_level": strconv.FormatUint(uint64(c.ImpersonationLevel), 10),
		"poll_interval":       c.PollInterval.String(),
		"context":             fmt.Sprint(c.Context.Names()),
	}
}

// isLocal returns true when no remote server is configured
func (c *Config) isLocal() bool {
	return c.Server == "" || c.Server == "." || c.Server == "localhost"
}

// resource returns the \\server\namespace path given to ConnectServer
func (c *Config) resource() string {
	namespace := c.Namespace
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if c.isLocal() {
		return namespace
	}
	return `\\` + c.Server + `\` + namespace
}
