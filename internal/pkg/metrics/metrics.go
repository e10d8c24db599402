package metrics

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"dhcp-leasewatch/internal/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LeaseEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasewatch_events_total",
			Help: "Total number of lease notifications by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	TrackedLeases = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "leasewatch_tracked_leases",
			Help: "Number of leases currently held in the lease database",
		},
	)

	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "leasewatch_check_duration_seconds",
			Help:    "Time spent in lease presence/absence checks",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"check", "result"},
	)

	ServerStarts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leasewatch_server_starts_total",
			Help: "Number of DHCP server start attempts by result",
		},
		[]string{"result"},
	)
)

// StartMetricsServer serves /metrics on listenAddr until ctx is cancelled.
// The listener is bound before returning so address errors are reported.
func StartMetricsServer(ctx context.Context, listenAddr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.WithComponent("metrics").WithError(err).Error("Metrics server error")
		}
	}()
	return ln.Addr(), nil
}
