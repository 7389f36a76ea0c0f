/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package resourceserver

import (
	"fmt"
	"net/url"
	"time"

	"github.com/acronis/go-appkit/config"

	"github.com/acronis/go-resourceserver/internal/apiutil"
)

const cfgDefaultKeyPrefix = "resourceServer"

const (
	cfgKeyServerAddress            = "server.address"
	cfgKeyHTTPClientRequestTimeout = "httpClient.requestTimeout"
	cfgKeyAPIBaseURL               = "api.baseUrl"
	cfgKeyAPIServiceAPIKey         = "api.serviceApiKey"
	cfgKeyAPIServiceAPISecret      = "api.serviceApiSecret" // nolint:gosec // it's a config key, not a credential
)

// DefaultServerAddress is the address the resource server listens on unless configured otherwise.
const DefaultServerAddress = ":8081"

// Config represents a set of configuration parameters for the resource server.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server" json:"server"`
	HTTPClient HTTPClientConfig `mapstructure:"httpClient" yaml:"httpClient" json:"httpClient"`
	API        APIConfig        `mapstructure:"api" yaml:"api" json:"api"`

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

// ConfigOption is a type for functional options for the Config.
type ConfigOption func(*configOptions)

type configOptions struct {
	keyPrefix string
}

// WithKeyPrefix returns a ConfigOption that sets a key prefix for parsing configuration parameters.
// This prefix will be used by config.Loader.
func WithKeyPrefix(keyPrefix string) ConfigOption {
	return func(o *configOptions) {
		o.keyPrefix = keyPrefix
	}
}

// NewConfig creates a new instance of the Config.
func NewConfig(options ...ConfigOption) *Config {
	var opts = configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{keyPrefix: opts.keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig(options ...ConfigOption) *Config {
	opts := configOptions{keyPrefix: cfgDefaultKeyPrefix}
	for _, opt := range options {
		opt(&opts)
	}
	return &Config{
		keyPrefix: opts.keyPrefix,
		Server: ServerConfig{
			Address: DefaultServerAddress,
		},
		HTTPClient: HTTPClientConfig{
			RequestTimeout: config.TimeDuration(apiutil.DefaultHTTPRequestTimeout),
		},
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
// Implements config.KeyPrefixProvider interface.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for the resource server in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyServerAddress, DefaultServerAddress)
	dp.SetDefault(cfgKeyHTTPClientRequestTimeout, apiutil.DefaultHTTPRequestTimeout.String())
}

// ServerConfig is a configuration of the listening HTTP server.
type ServerConfig struct {
	Address string `mapstructure:"address" yaml:"address" json:"address"`
}

// HTTPClientConfig is a configuration of the HTTP client used for calling the authorization service API.
type HTTPClientConfig struct {
	RequestTimeout config.TimeDuration `mapstructure:"requestTimeout" yaml:"requestTimeout" json:"requestTimeout"`
}

// APIConfig is a configuration of how the remote authorization service is reached.
type APIConfig struct {
	BaseURL          string `mapstructure:"baseUrl" yaml:"baseUrl" json:"baseUrl"`
	ServiceAPIKey    string `mapstructure:"serviceApiKey" yaml:"serviceApiKey" json:"serviceApiKey"`
	ServiceAPISecret string `mapstructure:"serviceApiSecret" yaml:"serviceApiSecret" json:"serviceApiSecret"`
}

// Set sets resource server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Server.Address, err = dp.GetString(cfgKeyServerAddress); err != nil {
		return err
	}

	var reqDuration time.Duration
	if reqDuration, err = dp.GetDuration(cfgKeyHTTPClientRequestTimeout); err != nil {
		return err
	}
	c.HTTPClient.RequestTimeout = config.TimeDuration(reqDuration)

	if c.API.BaseURL, err = dp.GetString(cfgKeyAPIBaseURL); err != nil {
		return err
	}
	if c.API.BaseURL == "" {
		return dp.WrapKeyErr(cfgKeyAPIBaseURL, fmt.Errorf("authorization service base URL is required"))
	}
	if _, err = url.Parse(c.API.BaseURL); err != nil {
		return dp.WrapKeyErr(cfgKeyAPIBaseURL, err)
	}
	if c.API.ServiceAPIKey, err = dp.GetString(cfgKeyAPIServiceAPIKey); err != nil {
		return err
	}
	if c.API.ServiceAPISecret, err = dp.GetString(cfgKeyAPIServiceAPISecret); err != nil {
		return err
	}

	return nil
}
