// Package config loads process configuration from the environment,
// following the .env-then-os.Getenv convention used throughout this
// codebase rather than a dedicated flags/viper layer.
package config

import (
	"os"

	"github.com/joho/godotenv"

	"github.com/shashank-sharma/workflow-engine/internal/logger"
)

// Flags mirrors the process-level switches a composition root (CLI or
// server) accepts on top of whatever is in the environment.
type Flags struct {
	Dev            bool
	MetricsEnabled bool
	MetricsAddr    string
}

// Config is the resolved, process-wide configuration used by the engine
// and its ambient collaborators.
type Config struct {
	DataDir        string
	ResultsDir     string
	MetricsEnabled bool
	MetricsAddr    string
	Dev            bool
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads .env (if present) and the environment, merges in the
// given flags, and returns the resolved configuration.
func Load(flags Flags) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.LogWarning("no .env file loaded, using environment variables directly:", err)
	}

	dataDir := getEnv("DATA_DIR", "./data")
	resultsDir := getEnv("RESULTS_DIR", dataDir+"/storage/workflow_results")

	metricsAddr := flags.MetricsAddr
	if metricsAddr == "" {
		metricsAddr = getEnv("METRICS_ADDR", ":9091")
	}

	return &Config{
		DataDir:        dataDir,
		ResultsDir:     resultsDir,
		MetricsEnabled: flags.MetricsEnabled,
		MetricsAddr:    metricsAddr,
		Dev:            flags.Dev,
	}, nil
}
