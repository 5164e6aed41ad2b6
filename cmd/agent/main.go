package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/justin-oleary/mlperf-sysconf/pkg/configs/catalog"
	"github.com/justin-oleary/mlperf-sysconf/pkg/k8s"
	_ "github.com/justin-oleary/mlperf-sysconf/pkg/metrics" // register collectors
	"github.com/justin-oleary/mlperf-sysconf/pkg/systems"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/watch"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

// metricsAddr is the listen address of the /metrics endpoint.
// Override with METRICS_ADDR.
var metricsAddr = func() string {
	if s := os.Getenv("METRICS_ADDR"); s != "" {
		return s
	}
	return ":9090"
}()

// relabelInterval re-runs identification periodically so labels recover
// from manual edits and hot-plugged devices. Zero disables it.
// Override with RELABEL_INTERVAL_SECONDS (integer seconds).
var relabelInterval = func() time.Duration {
	if s := os.Getenv("RELABEL_INTERVAL_SECONDS"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			return time.Duration(v) * time.Second
		}
	}
	return time.Hour
}()

// nodeLocks ensures ReconcileNode never runs concurrently for the same node.
// Values are *sync.Mutex; TryLock discards duplicate Ready events that fire
// while a probe is already in flight.
var nodeLocks sync.Map

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	nodeName := os.Getenv("NODE_NAME")
	if nodeName == "" {
		slog.Error("NODE_NAME not set; mount the node name via the downward API")
		os.Exit(1)
	}

	table, err := systems.LoadTable(systems.CustomSystemsPath())
	if err != nil {
		slog.Error("failed to load system table", "path", systems.CustomSystemsPath(), "err", err)
		os.Exit(1)
	}
	reg := catalog.Default()

	cfg, err := rest.InClusterConfig()
	if err != nil {
		slog.Error("failed to load in-cluster config", "err", err)
		os.Exit(1)
	}
	clientset, err := kubernetes.NewForConfig(cfg)
	if err != nil {
		slog.Error("failed to create clientset", "err", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	labeler := k8s.NewLabeler(clientset, table)

	go serveMetrics(ctx)
	if relabelInterval > 0 {
		go relabelLoop(ctx, labeler, nodeName)
	}

	slog.Info("mlperf-sysconf agent starting",
		"node", nodeName,
		"systems", table.Len(),
		"configs", reg.Len(),
		"relabel_interval", relabelInterval,
	)
	run(ctx, labeler, clientset, nodeName)
}

// serveMetrics runs the Prometheus /metrics endpoint until ctx is cancelled.
// Exits cleanly on SIGINT/SIGTERM via srv.Shutdown.
func serveMetrics(ctx context.Context) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			slog.Error("metrics server shutdown error", "err", err)
		}
	}()

	slog.Info("metrics server listening", "addr", metricsAddr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("metrics server failed", "err", err)
	}
}

// relabelLoop reconciles on a fixed interval until ctx is cancelled.
func relabelLoop(ctx context.Context, labeler *k8s.Labeler, nodeName string) {
	ticker := time.NewTicker(relabelInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tryReconcile(ctx, labeler, nodeName)
		}
	}
}

// run watches the node's Ready condition indefinitely, reconnecting with
// exponential backoff whenever the API server closes the watch channel.
// The API server closes watch streams every few minutes; that is not an error.
func run(ctx context.Context, labeler *k8s.Labeler, clientset kubernetes.Interface, nodeName string) {
	const maxBackoff = 30 * time.Second
	backoff := time.Second

	for {
		if err := watchOnce(ctx, labeler, clientset, nodeName); err != nil {
			if ctx.Err() != nil {
				return // context cancelled, clean shutdown
			}
			slog.Warn("watch ended, reconnecting", "node", nodeName, "err", err, "backoff", backoff)
		}
		if ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

// watchOnce opens a single watch stream and reconciles on every transition
// to Ready until the stream closes or the context is cancelled. A closed
// channel is returned as nil so run() reconnects without logging an error.
func watchOnce(ctx context.Context, labeler *k8s.Labeler, clientset kubernetes.Interface, nodeName string) error {
	w, err := clientset.CoreV1().Nodes().Watch(ctx, metav1.ListOptions{
		FieldSelector: "metadata.name=" + nodeName,
	})
	if err != nil {
		return fmt.Errorf("watch node %s: %w", nodeName, err)
	}
	defer w.Stop()

	var wasReady bool

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.ResultChan():
			if !ok {
				return nil // server closed, caller reconnects
			}
			if ev.Type != watch.Modified && ev.Type != watch.Added {
				continue
			}
			node, ok := ev.Object.(*corev1.Node)
			if !ok {
				continue
			}

			ready := k8s.IsNodeReady(node)
			if ready && !wasReady {
				go tryReconcile(ctx, labeler, nodeName)
			}
			wasReady = ready
		}
	}
}

// tryReconcile acquires a per-node TryLock before calling ReconcileNode.
// If a reconciliation is already running for this node the event is dropped;
// the in-flight probe observes the same hardware.
func tryReconcile(ctx context.Context, labeler *k8s.Labeler, nodeName string) {
	v, _ := nodeLocks.LoadOrStore(nodeName, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	if !mu.TryLock() {
		slog.Info("reconcile already in progress, discarding duplicate event", "node", nodeName)
		return
	}
	defer mu.Unlock()

	if err := labeler.ReconcileNode(ctx, nodeName); err != nil {
		slog.Error("reconcile failed", "node", nodeName, "err", err)
	}
}
