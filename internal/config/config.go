package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alnah/go-assetpipe/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidField    = errors.New("invalid config field")
)

// DefaultName is the config name searched for when none is given.
const DefaultName = "assetpipe"

// Field limits. They bound what a config file can make the build allocate.
const (
	MaxNameLength    = 100  // entry names, loader names
	MaxPathLength    = 4096 // file and directory paths
	MaxPatternLength = 256  // output name patterns
	MaxTitleLength   = 200  // page titles
	MaxEntries       = 256
	MaxRules         = 128
	MaxPages         = 256
)

// Config mirrors the YAML config file.
type Config struct {
	Mode      string            `yaml:"mode"`    // "development", "production", "none"
	Context   string            `yaml:"context"` // relative to the config file
	Entry     map[string]string `yaml:"entry"`   // name -> source path
	Output    OutputConfig      `yaml:"output"`
	Module    ModuleConfig      `yaml:"module"`
	Pages     []PageConfig      `yaml:"pages"`
	Resolve   ResolveConfig     `yaml:"resolve"`
	DevServer DevServerConfig   `yaml:"devServer"`

	// Dir is the directory of the loaded file; empty for DefaultConfig.
	Dir string `yaml:"-"`
}

// OutputConfig defines output naming and location.
type OutputConfig struct {
	Path          string `yaml:"path"`
	Filename      string `yaml:"filename"`      // e.g. "[name].[hash:6].js"
	AssetFilename string `yaml:"assetFilename"` // e.g. "[name].[hash:8].[ext]"
	PublicPath    string `yaml:"publicPath"`
	HashFunction  string `yaml:"hashFunction"` // "sha256" or "xxhash64"
	HashLength    int    `yaml:"hashLength"`
	Clean         bool   `yaml:"clean"`
	Manifest      string `yaml:"manifest"` // filename, empty = no manifest
}

// ModuleConfig holds the transformation rules.
type ModuleConfig struct {
	Rules []RuleConfig `yaml:"rules"`
}

// RuleConfig applies loaders to files by extension.
type RuleConfig struct {
	Test    []string    `yaml:"test"`
	Exclude []string    `yaml:"exclude"`
	Use     []UseConfig `yaml:"use"`
}

// UseConfig names a loader. In YAML it is either a bare loader name or a
// mapping with loader and options.
type UseConfig struct {
	Loader  string        `yaml:"loader"`
	Options LoaderOptions `yaml:"options"`
}

// LoaderOptions are the per-loader settings.
type LoaderOptions struct {
	Limit int64  `yaml:"limit"` // url: inline threshold in bytes, 0 = 10240
	Name  string `yaml:"name"`  // url, file: emitted name pattern
}

// UnmarshalYAML accepts "url" as shorthand for {loader: url}.
func (u *UseConfig) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	if name, ok := raw.(string); ok {
		*u = UseConfig{Loader: name}
		return nil
	}
	type plain UseConfig
	return unmarshal((*plain)(u))
}

// PageConfig defines a generated HTML page.
type PageConfig struct {
	Template string   `yaml:"template"` // built-in name or project-relative path
	Filename string   `yaml:"filename"`
	Title    string   `yaml:"title"`
	Chunks   []string `yaml:"chunks"`
	Hash     bool     `yaml:"hash"`
}

// ResolveConfig defines module resolution.
type ResolveConfig struct {
	Extensions []string          `yaml:"extensions"`
	Alias      map[string]string `yaml:"alias"` // "vue$" = exact match
	Modules    []string          `yaml:"modules"`
}

// DevServerConfig holds development server options.
type DevServerConfig struct {
	Port     int  `yaml:"port"`
	Compress bool `yaml:"compress"`
}

// EntryNames returns the entry names sorted, the order entries are built
// and reported in.
func (c *Config) EntryNames() []string {
	names := make([]string, 0, len(c.Entry))
	for name := range c.Entry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks field shapes and lengths. Semantic checks (rule
// conflicts, unknown chunks) belong to the build descriptor.
// Called automatically by LoadConfig.
func (c *Config) Validate() error {
	if err := validateFieldLength("mode", c.Mode, MaxNameLength); err != nil {
		return err
	}
	if err := validateFieldLength("context", c.Context, MaxPathLength); err != nil {
		return err
	}

	if len(c.Entry) > MaxEntries {
		return fmt.Errorf("%w: entry: %d entries (max %d)", ErrInvalidField, len(c.Entry), MaxEntries)
	}
	for _, name := range c.EntryNames() {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: entry: empty name", ErrInvalidField)
		}
		if err := validateFieldLength("entry name", name, MaxNameLength); err != nil {
			return err
		}
		if err := validateFieldLength(fmt.Sprintf("entry.%s", name), c.Entry[name], MaxPathLength); err != nil {
			return err
		}
	}

	if err := c.Output.validate(); err != nil {
		return err
	}

	if len(c.Module.Rules) > MaxRules {
		return fmt.Errorf("%w: module.rules: %d rules (max %d)", ErrInvalidField, len(c.Module.Rules), MaxRules)
	}
	for i, r := range c.Module.Rules {
		if err := r.validate(fmt.Sprintf("module.rules[%d]", i)); err != nil {
			return err
		}
	}

	if len(c.Pages) > MaxPages {
		return fmt.Errorf("%w: pages: %d pages (max %d)", ErrInvalidField, len(c.Pages), MaxPages)
	}
	for i, p := range c.Pages {
		field := fmt.Sprintf("pages[%d]", i)
		if err := validateFieldLength(field+".template", p.Template, MaxPathLength); err != nil {
			return err
		}
		if err := validateFieldLength(field+".filename", p.Filename, MaxPathLength); err != nil {
			return err
		}
		if err := validateFieldLength(field+".title", p.Title, MaxTitleLength); err != nil {
			return err
		}
	}

	for i, dir := range c.Resolve.Modules {
		if err := validateFieldLength(fmt.Sprintf("resolve.modules[%d]", i), dir, MaxPathLength); err != nil {
			return err
		}
	}

	return nil
}

func (o *OutputConfig) validate() error {
	if err := validateFieldLength("output.path", o.Path, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.filename", o.Filename, MaxPatternLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.assetFilename", o.AssetFilename, MaxPatternLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.publicPath", o.PublicPath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("output.manifest", o.Manifest, MaxPathLength); err != nil {
		return err
	}
	if o.HashLength < 0 {
		return fmt.Errorf("%w: output.hashLength: must not be negative, got %d", ErrInvalidField, o.HashLength)
	}
	return nil
}

func (r *RuleConfig) validate(field string) error {
	if len(r.Test) == 0 {
		return fmt.Errorf("%w: %s.test: at least one extension required", ErrInvalidField, field)
	}
	if len(r.Use) == 0 {
		return fmt.Errorf("%w: %s.use: at least one loader required", ErrInvalidField, field)
	}
	for j, u := range r.Use {
		useField := fmt.Sprintf("%s.use[%d]", field, j)
		if strings.TrimSpace(u.Loader) == "" {
			return fmt.Errorf("%w: %s: loader name required", ErrInvalidField, useField)
		}
		if err := validateFieldLength(useField+".loader", u.Loader, MaxNameLength); err != nil {
			return err
		}
		if err := validateFieldLength(useField+".options.name", u.Options.Name, MaxPatternLength); err != nil {
			return err
		}
		if u.Options.Limit < 0 {
			return fmt.Errorf("%w: %s.options.limit: must not be negative, got %d", ErrInvalidField, useField, u.Options.Limit)
		}
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// DefaultConfig returns an empty configuration. Every unset field falls
// back to the build defaults.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator or a YAML extension, it's treated
// as a file path. Otherwise, it's treated as a config name and searched in
// standard locations. Returns error if the file is not found (no silent
// fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrConfigParse, configPath, yamlutil.FormatError(err))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	cfg.Dir = filepath.Dir(absPath)

	return &cfg, nil
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	if strings.ContainsAny(s, "/\\") {
		return true
	}
	ext := strings.ToLower(filepath.Ext(s))
	return ext == ".yaml" || ext == ".yml"
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-assetpipe/
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}

// SearchPaths returns the files LoadConfig tries for a config name, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2) // 2 locations

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-assetpipe", name+ext))
		}
	}
	return paths
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
