package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// defaultManifestName is written when --manifest is given without a value.
const defaultManifestName = "manifest.json"

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// buildFlags holds all flags for the build command.
type buildFlags struct {
	common     commonFlags
	mode       string
	output     string
	publicPath string
	entries    []string // name=path
	only       []string
	workers    int
	manifest   string
	clean      bool
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show every module and asset")
}

// addBuildFlags adds the build command flags to a FlagSet.
func addBuildFlags(fs *flag.FlagSet, f *buildFlags) {
	fs.StringVarP(&f.mode, "mode", "m", "", "build mode: development, production, none")
	fs.StringVarP(&f.output, "output", "o", "", "output directory")
	fs.StringVar(&f.publicPath, "public-path", "", "URL prefix of emitted files")
	fs.StringArrayVar(&f.entries, "entry", nil, "entry as name=path (repeatable, replaces configured entries)")
	fs.StringSliceVar(&f.only, "only", nil, "build only the named entries (repeatable)")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel entry builds (0 = auto)")
	fs.StringVar(&f.manifest, "manifest", "", "write a manifest with this filename")
	fs.Lookup("manifest").NoOptDefVal = defaultManifestName
	fs.BoolVar(&f.clean, "clean", false, "empty the output directory first")
	addCommonFlags(fs, &f.common)
}

// newBuildFlagSet creates the build FlagSet bound to f.
func newBuildFlagSet(f *buildFlags, usage io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	addBuildFlags(fs, f)
	fs.SetOutput(usage)
	fs.Usage = func() { printBuildUsage(usage) }
	return fs
}

// parseBuildFlags parses build command flags. Positional arguments are
// rejected: everything the build reads is named by the config.
func parseBuildFlags(args []string, usage io.Writer) (*buildFlags, error) {
	f := &buildFlags{}
	fs := newBuildFlagSet(f, usage)
	if err := fs.Parse(args); err != nil {
		return nil, parseError(err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	if f.workers < 0 {
		return nil, fmt.Errorf("%w: --workers must not be negative, got %d", ErrUsage, f.workers)
	}
	return f, nil
}

// parseValidateFlags parses validate command flags.
func parseValidateFlags(args []string, usage io.Writer) (*commonFlags, error) {
	f := &commonFlags{}
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	addCommonFlags(fs, f)
	fs.SetOutput(usage)
	fs.Usage = func() { printValidateUsage(usage) }
	if err := fs.Parse(args); err != nil {
		return nil, parseError(err)
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("%w: unexpected argument %q", ErrUsage, fs.Arg(0))
	}
	return f, nil
}

// parseEntryFlag splits a --entry value of the form name=path.
func parseEntryFlag(value string) (name, path string, err error) {
	name, path, ok := strings.Cut(value, "=")
	name, path = strings.TrimSpace(name), strings.TrimSpace(path)
	if !ok || name == "" || path == "" {
		return "", "", fmt.Errorf("%w: --entry %q: want name=path", ErrUsage, value)
	}
	return name, path, nil
}

// parseError marks a flag parsing failure as a usage error. ErrHelp is
// returned unchanged: -h is a request, not a mistake.
func parseError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrUsage, err)
}
