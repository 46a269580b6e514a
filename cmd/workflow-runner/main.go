// Command workflow-runner is the standalone composition root for the
// workflow engine: it loads a workflow definition from JSON and runs,
// validates, or introspects it against a PocketBase-backed record
// store, following the teacher's pattern of a thin binary wired
// directly to pocketbase.NewWithConfig rather than a hand-rolled HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/fatih/color"
	"github.com/pocketbase/pocketbase"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shashank-sharma/workflow-engine/internal/config"
	"github.com/shashank-sharma/workflow-engine/internal/logger"
	"github.com/shashank-sharma/workflow-engine/internal/store"
	"github.com/shashank-sharma/workflow-engine/internal/util"
	"github.com/shashank-sharma/workflow-engine/internal/workflow"
	"github.com/shashank-sharma/workflow-engine/internal/workflow/connectors"
)

var (
	flagDev         bool
	flagMetrics     bool
	flagMetricsAddr string
	flagUserID      string
	flagTimeout     int
	flagParallel    int
)

func main() {
	root := &cobra.Command{
		Use:   "workflow-runner",
		Short: "Run, validate, and introspect workflow graphs",
	}
	root.PersistentFlags().BoolVar(&flagDev, "dev", false, "run PocketBase in dev mode")
	root.PersistentFlags().BoolVar(&flagMetrics, "metrics", false, "expose a Prometheus /metrics endpoint")
	root.PersistentFlags().StringVar(&flagMetricsAddr, "metrics-addr", "", "address for the metrics endpoint (default :9091)")

	runCmd := &cobra.Command{
		Use:   "run <workflow.json>",
		Short: "Execute a workflow definition to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runWorkflow,
	}
	runCmd.Flags().StringVar(&flagUserID, "user", "", "user id to scope record-store connectors to")
	runCmd.Flags().IntVar(&flagTimeout, "timeout", 0, "run timeout in seconds (0 = no deadline)")
	runCmd.Flags().IntVar(&flagParallel, "parallel", 0, "max concurrent nodes (0 = sequential, per-topological-order)")

	validateCmd := &cobra.Command{
		Use:   "validate <workflow.json>",
		Short: "Validate a workflow definition without executing it",
		Args:  cobra.ExactArgs(1),
		RunE:  validateWorkflow,
	}

	listCmd := &cobra.Command{
		Use:   "list-connectors",
		Short: "List every registered connector and its config schema",
		RunE:  listConnectors,
	}

	root.AddCommand(runCmd, validateCmd, listCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

// bootstrap loads configuration, wires a PocketBase instance into the
// store package, registers every connector, and optionally starts the
// metrics endpoint. Every subcommand shares this composition path.
func bootstrap() (*workflow.WorkflowEngine, func(), error) {
	cfg, err := config.Load(config.Flags{
		Dev:            flagDev,
		MetricsEnabled: flagMetrics,
		MetricsAddr:    flagMetricsAddr,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	pb := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: cfg.DataDir,
		DefaultDev:     cfg.Dev,
	})
	store.SetApp(pb)
	store.SetConfig(cfg)

	if err := os.MkdirAll(cfg.ResultsDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create results directory: %w", err)
	}

	registry := workflow.NewConnectorRegistry()
	connectors.RegisterAllConnectors(registry)

	opts := []workflow.EngineOption{
		workflow.WithRecorder(workflow.NewRecordExecutionRecorder("", "")),
	}
	if flagParallel > 0 {
		opts = append(opts, workflow.WithScheduler(flagParallel))
	}
	engine := workflow.NewWorkflowEngine(registry, opts...)

	var stopMetrics func()
	if cfg.MetricsEnabled {
		collector := workflow.NewPrometheusCollector(engine.Metrics(), engine.SchemaCache())
		reg := prometheus.NewRegistry()
		reg.MustRegister(collector)

		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		server := &http.Server{Addr: cfg.MetricsAddr, Handler: mux}

		go func() {
			logger.LogInfo("metrics endpoint listening on " + cfg.MetricsAddr)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.LogError("metrics server stopped", "error", err)
			}
		}()
		stopMetrics = func() { _ = server.Close() }
	}

	cleanup := func() {
		if stopMetrics != nil {
			stopMetrics()
		}
	}
	return engine, cleanup, nil
}

func loadWorkflowDefinition(path string) (*workflow.WorkflowGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow definition: %w", err)
	}
	var def workflow.WorkflowGraph
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse workflow definition: %w", err)
	}
	return &def, nil
}

func runWorkflow(cmd *cobra.Command, args []string) error {
	def, err := loadWorkflowDefinition(args[0])
	if err != nil {
		return err
	}

	engine, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	runID := util.GenerateRandomId()
	results, outcome, runErr := engine.Execute(context.Background(), def, runID, flagUserID, flagTimeout)

	switch outcome {
	case workflow.OutcomeCompleted:
		color.Green("run %s completed (%d node result(s))", runID, len(results))
		for nodeID, env := range results {
			fmt.Printf("  %s: %d record(s)\n", nodeID, env.Metadata.RecordCount)
		}
		return nil
	case workflow.OutcomeCancelled:
		color.Yellow("run %s cancelled", runID)
		return runErr
	default:
		color.Red("run %s failed: %v", runID, runErr)
		return runErr
	}
}

func validateWorkflow(cmd *cobra.Command, args []string) error {
	def, err := loadWorkflowDefinition(args[0])
	if err != nil {
		return err
	}

	registry := workflow.NewConnectorRegistry()
	connectors.RegisterAllConnectors(registry)

	graph, err := workflow.BuildGraph(def)
	if err != nil {
		color.Red("invalid graph: %v", err)
		return err
	}

	result := workflow.ValidateGraph(graph, registry)
	if _, err := workflow.TopologicalSort(graph); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
	}

	if result.Valid {
		color.Green("workflow %s is valid", def.WorkflowID)
	} else {
		color.Red("workflow %s is invalid:", def.WorkflowID)
		for _, e := range result.Errors {
			fmt.Printf("  - %s\n", e)
		}
	}
	for _, w := range result.Warnings {
		color.Yellow("  warning: %s", w)
	}

	if !result.Valid {
		return fmt.Errorf("workflow validation failed")
	}
	return nil
}

func listConnectors(cmd *cobra.Command, args []string) error {
	registry := workflow.NewConnectorRegistry()
	connectors.RegisterAllConnectors(registry)

	for _, info := range registry.List() {
		color.Cyan("%s", info.ID)
		fmt.Printf("  name: %s\n  type: %s\n", info.Name, info.Type)
		if schema, err := json.MarshalIndent(info.Config, "  ", "  "); err == nil {
			fmt.Printf("  config schema: %s\n", schema)
		}
	}
	return nil
}
