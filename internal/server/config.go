// Package server implements the CORS-enabled static file HTTPS server.
package server

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
)

// Config holds the configuration for the server. It is built once at
// process start and not modified afterwards.
type Config struct {
	// BindAddr is the IP address to listen on. Example: "0.0.0.0"
	BindAddr string

	// Port is the TCP port for HTTPS. 0 picks an ephemeral port.
	Port int

	// RootDir is the directory whose contents are served. It is never
	// written to.
	RootDir string

	// CertFile and KeyFile are PEM files holding the certificate chain
	// and its private key.
	CertFile string
	KeyFile  string

	// ExamplePath is the file named in the startup banner's example URL.
	ExamplePath string

	// MetricsAddr, when non-empty, is a plain-HTTP listen address serving
	// Prometheus metrics on /metrics. Example: "127.0.0.1:9090"
	MetricsAddr string

	// RateLimit is the sustained number of requests per second allowed
	// per client IP. 0 disables rate limiting.
	RateLimit float64

	// RateBurst is the number of requests a client may make at once
	// before RateLimit applies.
	RateBurst int

	// TrustProxy makes client identification honour X-Forwarded-For and
	// Forwarded headers.
	TrustProxy bool

	// LogLevel is the minimum level of the stderr logger.
	LogLevel slog.Level

	// Stdout receives the startup banner. nil means os.Stdout.
	Stdout io.Writer

	// Logger overrides the default stderr text logger.
	Logger *slog.Logger
}

// DefaultConfig returns the stock configuration: every interface on
// port 8443, serving the working directory with certs/cert.pem and
// certs/key.pem.
func DefaultConfig() Config {
	return Config{
		BindAddr:    "0.0.0.0",
		Port:        8443,
		RootDir:     ".",
		CertFile:    "certs/cert.pem",
		KeyFile:     "certs/key.pem",
		ExamplePath: "NewNaAI-Windows-Fixed.zip",
		RateBurst:   20,
		LogLevel:    slog.LevelInfo,
	}
}

// ListenAddr returns the host:port the HTTPS listener binds to.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.BindAddr, strconv.Itoa(c.Port))
}

// Validate checks the configuration for values that can never work.
func (c Config) Validate() error {
	var errs []error
	if c.BindAddr != "" && net.ParseIP(c.BindAddr) == nil {
		errs = append(errs, fmt.Errorf("bind address %q is not an IP address", c.BindAddr))
	}
	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.RootDir == "" {
		errs = append(errs, errors.New("root directory is required"))
	}
	if c.CertFile == "" {
		errs = append(errs, errors.New("certificate file is required"))
	}
	if c.KeyFile == "" {
		errs = append(errs, errors.New("key file is required"))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit %v must not be negative", c.RateLimit))
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		errs = append(errs, fmt.Errorf("rate burst %d must be at least 1", c.RateBurst))
	}
	return errors.Join(errs...)
}
