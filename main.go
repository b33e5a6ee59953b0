package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"securefiles/internal/server"
	"securefiles/internal/version"
)

func main() {
	def := server.DefaultConfig()
	var (
		bindAddr    = flag.String("addr", def.BindAddr, "IP address to listen on")
		port        = flag.Int("port", def.Port, "HTTPS port")
		rootDir     = flag.String("root", def.RootDir, "directory to serve (read-only)")
		certFile    = flag.String("cert", def.CertFile, "PEM certificate chain file")
		keyFile     = flag.String("key", def.KeyFile, "PEM private key file")
		examplePath = flag.String("example-path", def.ExamplePath, "file named in the startup example URL")
		metricsAddr = flag.String("metrics-addr", "", "plain-HTTP address for Prometheus /metrics (disabled when empty)")
		rateLimit   = flag.Float64("rate-limit", 0, "requests per second allowed per client IP (0 disables)")
		rateBurst   = flag.Int("rate-burst", def.RateBurst, "request burst allowed per client IP")
		trustProxy  = flag.Bool("trust-proxy", false, "trust X-Forwarded-For / Forwarded headers for client IPs")
		logLevel    = flag.String("log-level", "info", "log level: debug, info, warn or error")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid -log-level %q: %v\n", *logLevel, err)
		os.Exit(2)
	}

	cfg := server.Config{
		BindAddr:    *bindAddr,
		Port:        *port,
		RootDir:     *rootDir,
		CertFile:    *certFile,
		KeyFile:     *keyFile,
		ExamplePath: *examplePath,
		MetricsAddr: *metricsAddr,
		RateLimit:   *rateLimit,
		RateBurst:   *rateBurst,
		TrustProxy:  *trustProxy,
		LogLevel:    level,
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg server.Config) error {
	srv, err := server.New(cfg)
	if err != nil {
		return err
	}
	return srv.Run(context.Background())
}
