package main

import (
	"errors"
	"fmt"

	flag "github.com/spf13/pflag"
)

// runValidateCmd checks the config and the descriptor it produces without
// reading any source file.
func runValidateCmd(args []string, env *Environment) error {
	flags, err := parseValidateFlags(args, env.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	d, _, err := resolveDescriptor(flags.config, envCfg)
	if err != nil {
		return err
	}
	if err := d.Validate(); err != nil {
		return err
	}

	if !flags.quiet {
		fmt.Fprintf(env.Stdout, "Configuration OK: %d %s, %d %s, %d %s (mode %s)\n",
			len(d.Entries), plural(len(d.Entries), "entry"),
			len(d.Rules), plural(len(d.Rules), "rule"),
			len(d.Pages), plural(len(d.Pages), "page"),
			d.EffectiveMode())
	}
	if flags.verbose {
		for _, e := range d.Entries {
			fmt.Fprintf(env.Stdout, "  entry %-10s %s\n", e.Name, e.Path)
		}
		for _, p := range d.Pages {
			fmt.Fprintf(env.Stdout, "  page  %-10s chunks %v\n", p.Filename, p.Chunks)
		}
	}
	return nil
}
