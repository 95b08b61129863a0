package main

import (
	"errors"
	"fmt"
	"path/filepath"

	assetpipe "github.com/alnah/go-assetpipe"
	"github.com/alnah/go-assetpipe/internal/config"
)

// loadConfig loads the config named by --config, then ASSETPIPE_CONFIG.
// With neither set, DefaultName is searched and may be absent: the build
// then runs the default descriptor in the current directory.
func loadConfig(flagConfig string, env *envConfig) (*config.Config, error) {
	name := flagConfig
	if name == "" {
		name = env.ConfigPath
	}
	if name != "" {
		cfg, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfig(config.DefaultName)
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// descriptorFromConfig overlays cfg on the default descriptor. Each config
// section replaces its default counterpart only when set.
func descriptorFromConfig(cfg *config.Config) assetpipe.Descriptor {
	d := assetpipe.DefaultDescriptor()

	if cfg.Mode != "" {
		d.Mode = cfg.Mode
	}
	d.Context = resolveContext(cfg)

	if len(cfg.Entry) > 0 {
		entries := make([]assetpipe.Entry, 0, len(cfg.Entry))
		for _, name := range cfg.EntryNames() {
			entries = append(entries, assetpipe.Entry{Name: name, Path: cfg.Entry[name]})
		}
		setEntries(&d, entries, len(cfg.Pages) > 0)
	}

	applyOutputConfig(&d.Output, cfg.Output)

	if len(cfg.Module.Rules) > 0 {
		d.Rules = make([]assetpipe.Rule, 0, len(cfg.Module.Rules))
		for _, r := range cfg.Module.Rules {
			rule := assetpipe.Rule{Test: r.Test, Exclude: r.Exclude}
			for _, u := range r.Use {
				rule.Use = append(rule.Use, assetpipe.Stage{
					Name:     u.Loader,
					Limit:    u.Options.Limit,
					Filename: u.Options.Name,
				})
			}
			d.Rules = append(d.Rules, rule)
		}
	}

	if len(cfg.Pages) > 0 {
		d.Pages = make([]assetpipe.Page, 0, len(cfg.Pages))
		for _, p := range cfg.Pages {
			d.Pages = append(d.Pages, assetpipe.Page{
				Template: p.Template,
				Filename: p.Filename,
				Title:    p.Title,
				Chunks:   p.Chunks,
				Hash:     p.Hash,
			})
		}
	}

	if len(cfg.Resolve.Extensions) > 0 {
		d.Resolve.Extensions = cfg.Resolve.Extensions
	}
	if len(cfg.Resolve.Alias) > 0 {
		d.Resolve.Alias = cfg.Resolve.Alias
	}
	if len(cfg.Resolve.Modules) > 0 {
		d.Resolve.Modules = cfg.Resolve.Modules
	}

	if cfg.DevServer.Port != 0 {
		d.DevServer.Port = cfg.DevServer.Port
	}
	d.DevServer.Compress = cfg.DevServer.Compress

	return d
}

// resolveContext returns the project directory. A relative context is
// taken from the config file's directory, not the working directory.
func resolveContext(cfg *config.Config) string {
	base := cfg.Dir
	if base == "" {
		base = "."
	}
	if cfg.Context == "" {
		return base
	}
	if filepath.IsAbs(cfg.Context) {
		return cfg.Context
	}
	return filepath.Join(base, cfg.Context)
}

func applyOutputConfig(o *assetpipe.Output, c config.OutputConfig) {
	if c.Path != "" {
		o.Path = c.Path
	}
	if c.Filename != "" {
		o.Filename = c.Filename
	}
	if c.AssetFilename != "" {
		o.AssetFilename = c.AssetFilename
	}
	if c.PublicPath != "" {
		o.PublicPath = c.PublicPath
	}
	if c.HashFunction != "" {
		o.HashFunction = c.HashFunction
	}
	if c.HashLength != 0 {
		o.HashLength = c.HashLength
	}
	if c.Manifest != "" {
		o.Manifest = c.Manifest
	}
	o.Clean = o.Clean || c.Clean
}

// setEntries replaces the descriptor's entries. Unless keepPages is set,
// pages are replaced too, since the default pages load the default
// entries: one page per entry, named after it and rendered from the
// built-in template. Kept pages still name their own chunks, so Validate
// reports those the new entries no longer provide.
func setEntries(d *assetpipe.Descriptor, entries []assetpipe.Entry, keepPages bool) {
	d.Entries = entries
	if keepPages {
		return
	}
	d.Pages = make([]assetpipe.Page, 0, len(entries))
	for _, e := range entries {
		d.Pages = append(d.Pages, assetpipe.Page{
			Filename: e.Name + ".html",
			Title:    e.Name,
			Chunks:   []string{e.Name},
		})
	}
}

// applyFlags applies build flags on top of the descriptor. Flags win over
// the environment and the config file. A relative --output is taken from
// the working directory. keepPages is set when the config declares pages,
// which --entry then leaves in place.
func applyFlags(d *assetpipe.Descriptor, f *buildFlags, keepPages bool) error {
	if f.mode != "" {
		d.Mode = f.mode
	}
	if f.output != "" {
		out, err := filepath.Abs(f.output)
		if err != nil {
			return fmt.Errorf("%w: --output %q: %v", ErrUsage, f.output, err)
		}
		d.Output.Path = out
	}
	if f.publicPath != "" {
		d.Output.PublicPath = f.publicPath
	}
	if f.manifest != "" {
		d.Output.Manifest = f.manifest
	}
	if f.clean {
		d.Output.Clean = true
	}

	if len(f.entries) > 0 {
		entries := make([]assetpipe.Entry, 0, len(f.entries))
		for _, value := range f.entries {
			name, path, err := parseEntryFlag(value)
			if err != nil {
				return err
			}
			entries = append(entries, assetpipe.Entry{Name: name, Path: path})
		}
		setEntries(d, entries, keepPages)
	}
	return nil
}
