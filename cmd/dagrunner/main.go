// Command dagrunner starts the workflow engine's HTTP API: storing and
// deleting workflow definitions, executing and cancelling runs, and
// inspecting executions and history, backed by the pkg/runner Executor.
//
// Usage:
//
//	dagrunner [flags]
//
// Flags:
//
//	-addr string
//	    Server address (default ":8080")
//	-max-workers int
//	    Bounded async worker pool size (default 4)
//	-log-level string
//	    Minimum log level: debug, info, warning, error, critical (default "info")
//	-max-node-executions int
//	    Maximum total node executions per run, 0 = unlimited (default 0)
//
// The server exposes:
//
//	GET    /workflows                     - list saved workflows
//	POST   /workflows                     - save a workflow (canonical JSON of §6)
//	GET    /workflows/{id}                - load a workflow
//	DELETE /workflows/{id}                - delete a workflow
//	POST   /workflows/{id}/execute        - execute a workflow
//	GET    /workflows/{id}/history        - execution history
//	GET    /executions/{id}               - inspect one execution
//	POST   /executions/{id}/cancel        - request cancellation
//	GET    /metrics                       - Prometheus metrics
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/flowcraft/dagrunner/pkg/config"
	"github.com/flowcraft/dagrunner/pkg/execution"
	"github.com/flowcraft/dagrunner/pkg/httpapi"
	"github.com/flowcraft/dagrunner/pkg/logging"
	"github.com/flowcraft/dagrunner/pkg/node"
	"github.com/flowcraft/dagrunner/pkg/runner"
	"github.com/flowcraft/dagrunner/pkg/telemetry"
)

func main() {
	addr := flag.String("addr", ":8080", "Server address")
	maxWorkers := flag.Int("max-workers", 4, "Bounded async worker pool size")
	logLevel := flag.String("log-level", "info", "Minimum log level: debug, info, warning, error, critical")
	maxNodeExecutions := flag.Int("max-node-executions", 0, "Maximum total node executions per run, 0 = unlimited")
	shutdownTimeout := flag.Duration("shutdown-timeout", 10*time.Second, "Graceful shutdown timeout")
	flag.Parse()

	cfg := config.Default()
	cfg.MaxWorkers = *maxWorkers
	cfg.LogLevel = *logLevel
	cfg.MaxNodeExecutions = *maxNodeExecutions
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.LogLevel
	logger := logging.New(logCfg)

	registry := node.NewRegistry(false)
	if err := node.RegisterBuiltins(registry); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register built-in node kinds: %v\n", err)
		os.Exit(1)
	}
	if err := node.RegisterControlFlow(registry); err != nil {
		fmt.Fprintf(os.Stderr, "failed to register control-flow node kinds: %v\n", err)
		os.Exit(1)
	}

	states := execution.NewMemoryStore()
	logger = logger.WithStateStore(states)

	ctx, cancelTelemetry := context.WithCancel(context.Background())
	defer cancelTelemetry()
	provider, err := telemetry.NewProvider(ctx, telemetry.DefaultConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start telemetry: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	runnerCfg := runner.Config{MaxWorkers: cfg.MaxWorkers, MaxNodeExecutions: cfg.MaxNodeExecutions}
	rn := runner.New(runnerCfg, registry, states, logger)
	rn.RegisterObserver(telemetry.NewObserver(provider))

	svc := httpapi.NewService(rn, execution.NewMemoryDefinitionStore(), states, logger)

	router := mux.NewRouter()
	svc.LoadRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	wrapped := handlers.CombinedLoggingHandler(os.Stdout, router)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      wrapped,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		fmt.Printf("Starting dagrunner on %s\n", *addr)
		fmt.Printf("Workflows:     http://localhost%s/workflows\n", *addr)
		fmt.Printf("Metrics:       http://localhost%s/metrics\n", *addr)
		fmt.Println("Press Ctrl+C to shutdown")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	case sig := <-sigChan:
		fmt.Printf("\nreceived signal: %v, shutting down\n", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), *shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "shutdown error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("server stopped")
	}
}
