package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"securefiles/internal/certs"
	"securefiles/internal/content"
	"securefiles/internal/cors"
	"securefiles/internal/httpx"
	"securefiles/internal/metrics"
	"securefiles/internal/ratelimit"
	"securefiles/internal/request"
	"securefiles/internal/version"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 5 * time.Second
)

// Server serves one directory over HTTPS with CORS headers on every
// response.
type Server struct {
	config  Config
	tls     *tls.Config
	root    *content.Root
	metrics *metrics.Metrics
	limiter *ratelimit.Limiter
	logger  *slog.Logger
	stdout  io.Writer
}

// New validates cfg, loads the TLS key pair and opens the root directory.
// Any failure is returned as a *StartupError.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &StartupError{Op: "validate config", Err: err}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: cfg.LogLevel,
		}))
	}
	stdout := cfg.Stdout
	if stdout == nil {
		stdout = os.Stdout
	}

	tlsConfig, err := certs.Load(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return nil, &StartupError{Op: "load TLS certificate", Err: err}
	}

	root, err := content.Open(cfg.RootDir)
	if err != nil {
		return nil, &StartupError{Op: "open root directory", Err: err}
	}

	s := &Server{
		config:  cfg,
		tls:     tlsConfig,
		root:    root,
		metrics: metrics.New(version.Version),
		logger:  logger,
		stdout:  stdout,
	}
	if cfg.RateLimit > 0 {
		s.limiter = ratelimit.New(cfg.RateLimit, cfg.RateBurst, ratelimit.DefaultIdleTTL)
		s.limiter.OnReject = s.metrics.RateLimited
		s.metrics.TrackClients(s.limiter.Len)
	}
	return s, nil
}

// Handler builds the request pipeline, outermost first: metrics, access
// log, CORS decoration, optional rate limit, static files. CORS sits
// outside the rate limit so 429 answers are decorated too.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.root.Handler()
	if s.limiter != nil {
		h = s.limiter.Middleware(func(r *http.Request) string {
			return request.ClientIP(r, s.config.TrustProxy)
		}, h)
	}
	h = cors.Handler(h)
	h = httpx.AccessLog(s.logger, s.config.TrustProxy, h)
	return s.metrics.Instrument(h)
}

// Run binds the listeners, prints the startup banner and serves until ctx
// is cancelled or the process receives SIGINT or SIGTERM. A bind failure
// is returned as a *StartupError.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddr())
	if err != nil {
		return &StartupError{Op: "listen", Err: err}
	}

	var metricsLn net.Listener
	if s.config.MetricsAddr != "" {
		metricsLn, err = net.Listen("tcp", s.config.MetricsAddr)
		if err != nil {
			ln.Close()
			return &StartupError{Op: "listen metrics", Err: err}
		}
	}

	port := ln.Addr().(*net.TCPAddr).Port
	fmt.Fprintf(s.stdout, "HTTPS Server running on port %d\n", port)
	fmt.Fprintf(s.stdout, "Access the file at: https://<your-ip>:%d/%s\n",
		port, strings.TrimPrefix(s.config.ExamplePath, "/"))

	info := certs.Summary(s.tls)
	s.logger.Info("serving HTTPS",
		"addr", ln.Addr().String(),
		"root", s.root.Dir(),
		"certSubject", info.Subject,
		"certDNSNames", info.DNSNames,
		"certNotAfter", info.NotAfter.UTC().Format(time.RFC3339),
		"rateLimit", s.config.RateLimit,
		"version", version.String(),
	)

	if info.Expired(time.Now()) {
		s.logger.Warn("serving an expired certificate",
			"certFile", s.config.CertFile,
			"certNotAfter", info.NotAfter.UTC().Format(time.RFC3339),
		)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		TLSConfig:         s.tls,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	servers := []*http.Server{srv}

	var metricsSrv *http.Server
	if metricsLn != nil {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", s.metrics.Handler())
		metricsSrv = &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: readHeaderTimeout,
		}
		servers = append(servers, metricsSrv)
		s.logger.Info("serving metrics", "addr", metricsLn.Addr().String())
	}

	return s.listenAndShutdown(ctx, servers, func(gctx context.Context, g *errgroup.Group) {
		g.Go(func() error {
			// TLSConfig is pre-configured on the server, so pass empty strings.
			return serveErr("https", srv.ServeTLS(ln, "", ""))
		})
		if metricsSrv != nil {
			g.Go(func() error {
				return serveErr("metrics", metricsSrv.Serve(metricsLn))
			})
		}
		if s.limiter != nil {
			g.Go(func() error { return s.limiter.Run(gctx) })
		}
	})
}

// listenAndShutdown runs the goroutines started by start and shuts every
// server down gracefully once ctx is cancelled, a signal arrives or one of
// the goroutines fails.
func (s *Server) listenAndShutdown(ctx context.Context, servers []*http.Server, start func(context.Context, *errgroup.Group)) error {
	// Merge the parent context with OS signals for shutdown.
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	start(gctx, g)

	g.Go(func() error {
		<-gctx.Done()
		if ctx.Err() != nil {
			s.logger.Info("shutting down gracefully...")
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("shutdown error: %w", err))
			}
		}
		if len(errs) == 0 && ctx.Err() != nil {
			s.logger.Info("shutdown complete")
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func serveErr(name string, err error) error {
	if err == nil || errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("%s server error: %w", name, err)
}
