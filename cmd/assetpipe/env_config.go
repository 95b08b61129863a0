package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-assetpipe/internal/config"
)

// envPrefix is shared by every variable the CLI reads.
const envPrefix = "ASSETPIPE_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath string // ASSETPIPE_CONFIG: config file name or path
	Mode       string // ASSETPIPE_MODE: development, production, none
	OutputDir  string // ASSETPIPE_OUTPUT_DIR: output directory
	PublicPath string // ASSETPIPE_PUBLIC_PATH: URL prefix of emitted files
	Workers    int    // ASSETPIPE_WORKERS: parallel entry builds
}

// knownEnvVars lists valid ASSETPIPE_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"ASSETPIPE_CONFIG":      true,
	"ASSETPIPE_MODE":        true,
	"ASSETPIPE_OUTPUT_DIR":  true,
	"ASSETPIPE_PUBLIC_PATH": true,
	"ASSETPIPE_WORKERS":     true,
}

// loadEnvConfig reads configuration from environment variables.
// An unparsable or non-positive ASSETPIPE_WORKERS is ignored.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath: getenv("ASSETPIPE_CONFIG"),
		Mode:       getenv("ASSETPIPE_MODE"),
		OutputDir:  getenv("ASSETPIPE_OUTPUT_DIR"),
		PublicPath: getenv("ASSETPIPE_PUBLIC_PATH"),
	}

	if workers := getenv("ASSETPIPE_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars writes a warning for each unrecognized ASSETPIPE_*
// variable. Helps catch typos like ASSETPIPE_OUTPUT instead of
// ASSETPIPE_OUTPUT_DIR.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overrides config file values with the environment.
// Precedence: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via applyFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.Mode != "" {
		cfg.Mode = env.Mode
	}
	if env.OutputDir != "" {
		cfg.Output.Path = env.OutputDir
	}
	if env.PublicPath != "" {
		cfg.Output.PublicPath = env.PublicPath
	}
}
