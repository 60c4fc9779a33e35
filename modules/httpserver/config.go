// Package httpserver serves HTTP for a modkit module tree on a chi router.
//
// Sibling modules contribute routes by implementing RouteProvider or by calling
// Router before the server runs:
//
//	srv, err := modkit.ModuleAs[*httpserver.Module](ctx, app, "httpserver", modkit.WithoutRun())
//	srv.Mount(billingModule)
package httpserver

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// DefaultTimeout applies to every unset timeout.
const DefaultTimeout = 15 * time.Second

// Config defines the configuration for the HTTP server module.
type Config struct {
	// Host is the hostname or IP address to bind to.
	Host string `yaml:"host" json:"host" toml:"host"`

	// Port is the port number to listen on. Zero picks a free port.
	Port int `yaml:"port" json:"port" toml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `yaml:"read_timeout" json:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `yaml:"idle_timeout" json:"idle_timeout" toml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout" toml:"shutdown_timeout"`

	// TLS configuration if HTTPS is enabled
	TLS *TLSConfig `yaml:"tls" json:"tls" toml:"tls"`
}

// TLSConfig holds the TLS configuration for HTTPS support
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled" toml:"enabled"`
	CertFile string `yaml:"cert_file" json:"cert_file" toml:"cert_file"`
	KeyFile  string `yaml:"key_file" json:"key_file" toml:"key_file"`
}

// Validate checks if the configuration is valid and sets default values
// where appropriate.
func (c *Config) Validate() error {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Port)
	}

	for _, d := range []*time.Duration{&c.ReadTimeout, &c.WriteTimeout, &c.IdleTimeout, &c.ShutdownTimeout} {
		if *d <= 0 {
			*d = DefaultTimeout
		}
	}

	if c.TLS != nil && c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return ErrTLSFilesMissing
	}
	return nil
}

// Address returns host:port.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
