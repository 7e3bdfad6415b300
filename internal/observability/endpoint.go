package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/tphakala/soundpool/internal/conf"
	"github.com/tphakala/soundpool/internal/logging"
	metricspkg "github.com/tphakala/soundpool/internal/observability/metrics"
)

// Endpoint serves the Prometheus /metrics endpoint.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	metrics       *Metrics
	logger        *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// NewEndpoint creates a new metrics Endpoint.
//
// It returns an error if metrics are not enabled in the settings. The
// provided Metrics instance must already be initialized.
func NewEndpoint(settings *conf.MetricsSettings, metrics *Metrics) (*Endpoint, error) {
	if !settings.Enabled {
		return nil, fmt.Errorf("metrics not enabled in settings")
	}

	return &Endpoint{
		listenAddress: settings.Listen,
		metrics:       metrics,
		logger:        logging.ForServiceOrDefault("observability"),
	}, nil
}

// Start binds the listen address and serves requests until quitChan is closed.
//
// Binding happens synchronously so address errors are returned to the caller.
// The serving goroutine is tracked by wg.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) error {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)

	ln, err := net.Listen("tcp", e.listenAddress)
	if err != nil {
		return fmt.Errorf("metrics endpoint listen on %s: %w", e.listenAddress, err)
	}

	e.mu.Lock()
	e.listener = ln
	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	e.mu.Unlock()

	wg.Go(func() {
		e.logger.Info("metrics endpoint starting", "address", ln.Addr().String())
		if err := e.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			e.logger.Error("metrics HTTP server error", "error", err)
		}
	})

	wg.Go(func() {
		e.gracefulShutdown(quitChan)
	})

	return nil
}

// Addr returns the bound address once Start has succeeded.
func (e *Endpoint) Addr() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.listener == nil {
		return e.listenAddress
	}
	return e.listener.Addr().String()
}

// gracefulShutdown waits for the quit signal and shuts down the server gracefully.
func (e *Endpoint) gracefulShutdown(quitChan <-chan struct{}) {
	<-quitChan
	e.logger.Info("stopping metrics endpoint")
	ctx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		e.logger.Error("metrics server shutdown error", "error", err)
	}
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
