package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	assetpipe "github.com/alnah/go-assetpipe"
	"github.com/alnah/go-assetpipe/internal/config"
	"github.com/alnah/go-assetpipe/internal/logging"
)

// runBuildCmd parses build flags, assembles the descriptor and runs it.
func runBuildCmd(ctx context.Context, args []string, env *Environment) error {
	flags, err := parseBuildFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	d, cfg, err := resolveDescriptor(flags.common.config, envCfg)
	if err != nil {
		return err
	}
	if err := applyFlags(&d, flags, len(cfg.Pages) > 0); err != nil {
		return err
	}

	workers := flags.workers
	if workers == 0 {
		workers = envCfg.Workers
	}

	logger := logging.New(env.Stderr, logging.Config{
		Level: logging.LevelFor(flags.common.quiet, flags.common.verbose),
	})
	defer func() { _ = logger.Sync() }()

	opts := []assetpipe.Option{
		assetpipe.WithLogger(logger),
		assetpipe.WithWorkers(workers),
	}
	if len(flags.only) > 0 {
		opts = append(opts, assetpipe.WithOnly(flags.only...))
	}

	result, err := assetpipe.NewBuilder(d, opts...).Build(ctx)
	if err != nil {
		return withExtensions(err, d.Resolve.Extensions)
	}

	if !flags.common.quiet {
		printResult(env.Stdout, result, flags.common.verbose)
	}
	return nil
}

// resolveDescriptor loads the config, applies the environment to it and
// returns the descriptor along with the config it came from.
func resolveDescriptor(flagConfig string, envCfg *envConfig) (assetpipe.Descriptor, *config.Config, error) {
	cfg, err := loadConfig(flagConfig, envCfg)
	if err != nil {
		return assetpipe.Descriptor{}, nil, err
	}
	applyEnvConfig(envCfg, cfg)
	return descriptorFromConfig(cfg), cfg, nil
}

// printResult lists the written files relative to the working directory
// when possible, followed by a summary line.
func printResult(w io.Writer, r *assetpipe.Result, verbose bool) {
	out := displayPath(r.OutputDir)

	for _, b := range r.Bundles {
		fmt.Fprintf(w, "  %-10s %s (%s)\n", b.Entry, filepath.Join(out, b.Filename), formatSize(b.Size))
		if verbose {
			for _, m := range b.Modules {
				fmt.Fprintf(w, "             %s\n", m)
			}
		}
	}
	for _, a := range r.Assets {
		fmt.Fprintf(w, "  %-10s %s (%s)\n", "asset", filepath.Join(out, a.Filename), formatSize(a.Size))
	}
	for _, p := range r.Pages {
		fmt.Fprintf(w, "  %-10s %s\n", "page", filepath.Join(out, p.Filename))
	}
	if r.Manifest != "" {
		fmt.Fprintf(w, "  %-10s %s\n", "manifest", filepath.Join(out, r.Manifest))
	}

	fmt.Fprintf(w, "Built %d %s, %d %s, %d %s in %v\n",
		len(r.Bundles), plural(len(r.Bundles), "bundle"),
		len(r.Assets), plural(len(r.Assets), "asset"),
		len(r.Pages), plural(len(r.Pages), "page"),
		r.Duration.Round(time.Millisecond))
}

// displayPath shortens an absolute path under the working directory.
func displayPath(abs string) string {
	wd, err := filepath.Abs(".")
	if err != nil {
		return abs
	}
	rel, err := filepath.Rel(wd, abs)
	if err != nil || !filepath.IsLocal(rel) {
		return abs
	}
	return rel
}

func formatSize(n int) string {
	const unit = 1024
	switch {
	case n < unit:
		return fmt.Sprintf("%d B", n)
	case n < unit*unit:
		return fmt.Sprintf("%.1f KiB", float64(n)/unit)
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(unit*unit))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
