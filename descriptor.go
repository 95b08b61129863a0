package assetpipe

import (
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/alnah/go-assetpipe/internal/assets"
	"github.com/alnah/go-assetpipe/internal/pipeline"
)

// Mode constants. The mode is exposed to bundles as process.env.NODE_ENV.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
	ModeNone        = "none"
)

// Stage names accepted in Rule.Use.
const (
	StageScript   = pipeline.StageScript
	StageLess     = pipeline.StageLess
	StageCSS      = pipeline.StageCSS
	StageStyle    = pipeline.StageStyle
	StageURL      = pipeline.StageURL
	StageFile     = pipeline.StageFile
	StageVue      = pipeline.StageVue
	StageMarkdown = pipeline.StageMarkdown
	StageYAML     = pipeline.StageYAML
	StageJSON     = pipeline.StageJSON
	StageRaw      = pipeline.StageRaw
)

// Hash functions accepted in Output.HashFunction.
const (
	HashSHA256   = pipeline.HashSHA256
	HashXXHash64 = pipeline.HashXXHash64
)

// Defaults applied by DefaultDescriptor and by Validate for empty fields.
const (
	DefaultOutputPath    = "dist"
	DefaultFilename      = "[name].[hash:6].js"
	DefaultAssetFilename = "[name].[hash:8].[ext]"
	DefaultImageFilename = "image/[name].[hash:8].[ext]"
	DefaultPublicPath    = "./"
	DefaultDevServerPort = 3000
	DefaultInlineLimit   = pipeline.DefaultInlineLimit
	MaxPort              = 65535
)

// Descriptor declares a whole build: what to read, how to transform it and
// what to write. It is validated once and not modified by the build.
type Descriptor struct {
	Mode      string // "development", "production" (default) or "none"
	Context   string // project directory; relative paths resolve against it
	Entries   []Entry
	Output    Output
	Rules     []Rule
	Pages     []Page
	Resolve   Resolve
	DevServer DevServer
}

// Entry names a source file that produces one bundle.
type Entry struct {
	Name string
	Path string // relative to Context
}

// Output configures where and under which names files are written.
type Output struct {
	Path          string // output directory, relative to Context unless absolute
	Filename      string // bundle name pattern
	AssetFilename string // name pattern for emitted assets whose stage names none
	PublicPath    string // URL prefix of every emitted file
	HashFunction  string // "sha256" (default) or "xxhash64"
	HashLength    int    // length of [hash] without an explicit length
	Clean         bool   // empty the output directory before writing
	Manifest      string // manifest filename, empty to skip it
}

// Rule applies an ordered chain of stages to files by extension.
type Rule struct {
	Test    []string // extensions ("js", ".vue")
	Exclude []string // path segments that opt a file out ("node_modules")
	Use     []Stage  // executed first to last
}

// Stage names a transformation step and its options. A url stage with a
// zero Limit uses DefaultInlineLimit; to never inline, use the file stage
// alone.
type Stage struct {
	Name     string
	Limit    int64  // url: inline files smaller than this many bytes (0 = DefaultInlineLimit)
	Filename string // url, file: emitted name pattern
}

// Page is an HTML document generated around a set of bundles.
type Page struct {
	Template string   // built-in template name, or path relative to Context; empty = default
	Filename string   // output filename, relative to Output.Path
	Title    string   // passed to the template as .Title
	Chunks   []string // entries whose bundles the page loads, in order
	Hash     bool     // append ?<bundle hash> to script URLs
}

// Resolve configures module resolution.
type Resolve struct {
	Extensions []string          // tried in order when a request omits one
	Alias      map[string]string // "key$" matches the exact request only
	Modules    []string          // bare module directories, default node_modules
}

// DevServer holds development server settings. The build validates them
// but does not serve anything.
type DevServer struct {
	Port     int
	Compress bool
}

// DefaultDescriptor returns the descriptor of a two-page application:
// entries index and login, each loaded by its own page.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Mode:    ModeDevelopment,
		Context: ".",
		Entries: []Entry{
			{Name: "index", Path: "src/index.js"},
			{Name: "login", Path: "src/login.js"},
		},
		Output: Output{
			Path:          DefaultOutputPath,
			Filename:      DefaultFilename,
			AssetFilename: DefaultAssetFilename,
			PublicPath:    DefaultPublicPath,
			HashFunction:  HashSHA256,
		},
		Rules: []Rule{
			{Test: []string{".js", ".jsx"}, Exclude: []string{"node_modules"}, Use: []Stage{{Name: StageScript}}},
			{Test: []string{".css"}, Use: []Stage{{Name: StageCSS}, {Name: StageStyle}}},
			{Test: []string{".less"}, Use: []Stage{{Name: StageLess}, {Name: StageCSS}, {Name: StageStyle}}},
			{
				Test: []string{".png", ".jpg", ".gif", ".jpeg", ".webp", ".svg", ".eot", ".ttf", ".woff", ".woff2"},
				Use: []Stage{
					{Name: StageURL, Limit: DefaultInlineLimit, Filename: DefaultImageFilename},
					{Name: StageFile, Filename: DefaultImageFilename},
				},
			},
			{Test: []string{".vue"}, Use: []Stage{{Name: StageVue}}},
		},
		Pages: []Page{
			{Template: "public/index.html", Filename: "index.html", Chunks: []string{"index"}},
			{Template: "public/login.html", Filename: "login.html", Chunks: []string{"login"}},
		},
		Resolve: Resolve{
			Extensions: []string{".js", ".css", ".vue"},
			Alias:      map[string]string{"vue$": "vue/dist/vue.esm.js"},
		},
		DevServer: DevServer{Port: DefaultDevServerPort},
	}
}

// Validate checks the descriptor without reading any source file.
// Conflicting rules, unknown stages and malformed name patterns are
// reported here, before any transformation runs.
func (d *Descriptor) Validate() error {
	_, err := d.compile(pipeline.DefaultRegistry())
	return err
}

// StageNames returns the stage names Rule.Use accepts, sorted.
func StageNames() []string {
	return pipeline.DefaultRegistry().Names()
}

// EffectiveMode returns the mode, defaulting to production.
func (d *Descriptor) EffectiveMode() string {
	if d.Mode == "" {
		return ModeProduction
	}
	return d.Mode
}

// Entry returns the entry with the given name.
func (d *Descriptor) Entry(name string) (Entry, bool) {
	for _, e := range d.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// compiled holds the validated, pipeline-ready parts of a Descriptor.
type compiled struct {
	filename      *pipeline.NamePattern
	assetFilename *pipeline.NamePattern
	hasher        pipeline.Hasher
	rules         *pipeline.RuleSet
}

func (d *Descriptor) compile(registry *pipeline.Registry) (*compiled, error) {
	if err := d.validateMode(); err != nil {
		return nil, err
	}
	if err := d.validateEntries(); err != nil {
		return nil, err
	}
	c, err := d.Output.compile(len(d.Entries))
	if err != nil {
		return nil, err
	}
	if err := d.validatePages(); err != nil {
		return nil, err
	}
	if err := d.Resolve.validate(); err != nil {
		return nil, err
	}
	if d.DevServer.Port < 0 || d.DevServer.Port > MaxPort {
		return nil, fmt.Errorf("%w: %d (must be between 0 and %d)", ErrInvalidPort, d.DevServer.Port, MaxPort)
	}

	specs, err := ruleSpecs(d.Rules)
	if err != nil {
		return nil, err
	}
	c.rules, err = pipeline.CompileRules(specs, registry)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *Descriptor) validateMode() error {
	switch d.Mode {
	case "", ModeDevelopment, ModeProduction, ModeNone:
		return nil
	default:
		return fmt.Errorf("%w: %q (must be %s, %s or %s)", ErrInvalidMode, d.Mode, ModeDevelopment, ModeProduction, ModeNone)
	}
}

func (d *Descriptor) validateEntries() error {
	if len(d.Entries) == 0 {
		return ErrNoEntries
	}
	seen := make(map[string]bool, len(d.Entries))
	for _, e := range d.Entries {
		if e.Name == "" || strings.ContainsAny(e.Name, `/\`) || strings.TrimSpace(e.Name) != e.Name {
			return fmt.Errorf("%w: name %q", ErrInvalidEntry, e.Name)
		}
		if strings.TrimSpace(e.Path) == "" {
			return fmt.Errorf("%w: %q has no path", ErrInvalidEntry, e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateEntry, e.Name)
		}
		seen[e.Name] = true
	}
	return nil
}

func (d *Descriptor) validatePages() error {
	filenames := make(map[string]bool, len(d.Pages))
	consumer := make(map[string]string)

	for i, p := range d.Pages {
		if err := validateOutputName(p.Filename); err != nil {
			return fmt.Errorf("%w: pages[%d]: filename %q %v", ErrInvalidPage, i, p.Filename, err)
		}
		name := path.Clean(p.Filename)
		if filenames[name] {
			return fmt.Errorf("%w: %q", ErrDuplicatePage, p.Filename)
		}
		filenames[name] = true

		if !assets.IsBuiltinRef(p.Template) {
			if err := assets.ValidateTemplatePath(p.Template); err != nil {
				return fmt.Errorf("%w: pages[%d]: %v", ErrInvalidPage, i, err)
			}
		}

		for _, chunk := range p.Chunks {
			if _, ok := d.Entry(chunk); !ok {
				return fmt.Errorf("%w: page %q lists %q", ErrUnknownChunk, p.Filename, chunk)
			}
			if prev, ok := consumer[chunk]; ok && prev != p.Filename {
				return fmt.Errorf("%w: %q is loaded by %q and %q", ErrSharedChunk, chunk, prev, p.Filename)
			}
			consumer[chunk] = p.Filename
		}
	}
	return nil
}

func (o *Output) compile(entries int) (*compiled, error) {
	if strings.TrimSpace(o.Path) == "" {
		return nil, fmt.Errorf("%w: path is empty", ErrInvalidOutput)
	}

	filename, err := pipeline.ParseNamePattern(o.Filename)
	if err != nil {
		return nil, fmt.Errorf("output.filename: %w", err)
	}
	if entries > 1 && !filename.UsesName() {
		return nil, fmt.Errorf("%w: filename %q must contain [name] when building %d entries", ErrInvalidOutput, o.Filename, entries)
	}

	assetPattern := o.AssetFilename
	if assetPattern == "" {
		assetPattern = DefaultAssetFilename
	}
	assetFilename, err := pipeline.ParseNamePattern(assetPattern)
	if err != nil {
		return nil, fmt.Errorf("output.assetFilename: %w", err)
	}

	hasher, err := pipeline.NewHasher(o.HashFunction)
	if err != nil {
		return nil, err
	}
	if o.HashLength < 0 || o.HashLength > pipeline.MaxHashLength {
		return nil, fmt.Errorf("%w: hashLength %d (must be between 1 and %d)", ErrInvalidOutput, o.HashLength, pipeline.MaxHashLength)
	}

	if o.Manifest != "" {
		if err := validateOutputName(o.Manifest); err != nil {
			return nil, fmt.Errorf("%w: manifest %q %v", ErrInvalidOutput, o.Manifest, err)
		}
	}

	return &compiled{filename: filename, assetFilename: assetFilename, hasher: hasher}, nil
}

func (r *Resolve) validate() error {
	for _, ext := range r.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("%w: extension %q must start with a dot", ErrInvalidResolve, ext)
		}
	}
	for key, target := range r.Alias {
		if strings.TrimSuffix(key, "$") == "" || target == "" {
			return fmt.Errorf("%w: alias %q -> %q", ErrInvalidResolve, key, target)
		}
	}
	if slices.Contains(r.Modules, "") {
		return fmt.Errorf("%w: empty module directory", ErrInvalidResolve)
	}
	return nil
}

func ruleSpecs(rules []Rule) ([]pipeline.RuleSpec, error) {
	specs := make([]pipeline.RuleSpec, len(rules))
	for i, r := range rules {
		use := make([]pipeline.StageSpec, len(r.Use))
		for j, s := range r.Use {
			if s.Limit < 0 {
				return nil, fmt.Errorf("%w: rules[%d].use[%d]: negative limit", pipeline.ErrInvalidRule, i, j)
			}
			if s.Filename != "" {
				if _, err := pipeline.ParseNamePattern(s.Filename); err != nil {
					return nil, fmt.Errorf("rules[%d].use[%d]: %w", i, j, err)
				}
			}
			use[j] = pipeline.StageSpec{
				Stage:   s.Name,
				Options: pipeline.StageOptions{Limit: s.Limit, Name: s.Filename},
			}
		}
		specs[i] = pipeline.RuleSpec{Test: r.Test, Exclude: r.Exclude, Use: use}
	}
	return specs, nil
}

// validateOutputName checks that name is a relative slash path that stays
// inside the output directory.
func validateOutputName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return fmt.Errorf("is empty")
	case strings.Contains(name, `\`), path.IsAbs(name):
		return fmt.Errorf("must be a relative slash-separated path")
	}
	if clean := path.Clean(name); clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return fmt.Errorf("leaves the output directory")
	}
	return nil
}
