package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/alnah/go-assetpipe/internal/fileutil"
)

// Options configures a Compiler.
type Options struct {
	Context       string       // absolute project directory; module IDs are relative to it
	Mode          string       // "development", "production" or "none"
	PublicPath    string       // prefix of every emitted URL
	Filename      *NamePattern // bundle filenames
	AssetFilename *NamePattern // emitted asset filenames when a stage names none
	HashLength    int          // [hash] length when a placeholder sets none
	Hasher        Hasher
	Rules         *RuleSet
	Registry      *Registry
	Resolve       ResolveOptions
}

// Output is a file scheduled for writing under the output directory.
type Output struct {
	Filename string // slash-separated, relative to the output directory
	Source   string // module ID of the file it was produced from
	Data     []byte
}

// AssetRef describes an asset reachable from a bundle.
type AssetRef struct {
	ID       string
	URL      string
	Filename string // empty when inlined
	Inlined  bool
	Size     int
}

// Bundle is the linked output of one entry.
type Bundle struct {
	Name     string
	Filename string
	Hash     string // full content fingerprint
	Code     []byte
	Modules  []string   // module IDs, sorted
	Assets   []AssetRef // sorted by ID
}

// Compiler transforms source files and links them into bundles. Transformed
// files are cached, so entries sharing a module transform it once. A
// Compiler is safe for concurrent use by several Bundle calls.
type Compiler struct {
	opts     Options
	resolver *Resolver

	mu      sync.Mutex
	units   map[string]*Unit   // by absolute path
	ids     map[string]string  // module ID -> absolute path
	outputs map[string]*Output // by filename
}

// NewCompiler creates a Compiler. Options are assumed validated.
func NewCompiler(opts Options) *Compiler {
	if opts.Hasher == nil {
		opts.Hasher = sha256Hasher{}
	}
	if opts.HashLength == 0 {
		opts.HashLength = DefaultHashLength
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	return &Compiler{
		opts:     opts,
		resolver: NewResolver(opts.Context, opts.Resolve),
		units:    make(map[string]*Unit),
		ids:      make(map[string]string),
		outputs:  make(map[string]*Output),
	}
}

// Bundle transforms everything reachable from the entry file and links it
// under the entry name.
func (c *Compiler) Bundle(ctx context.Context, name, entryPath string) (*Bundle, error) {
	if !fileutil.FileExists(entryPath) {
		return nil, pathErrorf(c.moduleID(entryPath), ErrUnresolved, "entry %q does not exist", name)
	}
	entryID := c.register(entryPath)

	var (
		modules []linkedModule
		units   []*Unit
		seen    = map[string]bool{entryID: true}
		queue   = []string{entryID}
	)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		u, err := c.unit(ctx, c.pathOf(id))
		if err != nil {
			return nil, err
		}
		units = append(units, u)
		modules = append(modules, linkedModule{ID: u.ID, Code: u.Content})
		for _, dep := range u.Deps {
			if !seen[dep] {
				seen[dep] = true
				queue = append(queue, dep)
			}
		}
	}

	code := link(entryID, modules)
	hash := c.opts.Hasher.Sum(code)
	b := &Bundle{
		Name:     name,
		Filename: c.opts.Filename.Render(NameVars{Name: name, Hash: hash, Ext: "js"}, c.opts.HashLength),
		Hash:     hash,
		Code:     code,
		Assets:   c.assetsOf(units),
	}
	for _, u := range units {
		b.Modules = append(b.Modules, u.ID)
	}
	sort.Strings(b.Modules)
	return b, nil
}

// Outputs returns the emitted asset files, sorted by filename.
func (c *Compiler) Outputs() []*Output {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Output, 0, len(c.outputs))
	for _, o := range c.outputs {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Filename < out[j].Filename })
	return out
}

// Resolve implements Host.
func (c *Compiler) Resolve(fromDir, request string) (string, error) {
	return c.resolver.Resolve(fromDir, request)
}

// Require implements Host.
func (c *Compiler) Require(fromDir, request string) (string, error) {
	p, err := c.resolver.Resolve(fromDir, request)
	if err != nil {
		return "", err
	}
	return c.register(p), nil
}

// Reference implements Host.
func (c *Compiler) Reference(ctx context.Context, u *Unit, fromDir, ref string) (string, error) {
	p, err := c.resolver.Resolve(fromDir, ref)
	if err != nil {
		return "", err
	}
	c.register(p)
	asset, err := c.unit(ctx, p)
	if err != nil {
		return "", err
	}
	if asset.URL == "" {
		return "", fmt.Errorf("%w: %s is used as a URL but its rule does not produce one", ErrStageFailed, asset.ID)
	}
	u.addRef(asset.ID)
	return asset.URL, nil
}

// Emit implements Host.
func (c *Compiler) Emit(u *Unit, pattern *NamePattern) (string, error) {
	if pattern == nil {
		pattern = c.opts.AssetFilename
	}
	ext := filepath.Ext(u.Path)
	filename := pattern.Render(NameVars{
		Name: strings.TrimSuffix(filepath.Base(u.Path), ext),
		Hash: c.opts.Hasher.Sum(u.Source),
		Ext:  strings.TrimPrefix(ext, "."),
	}, c.opts.HashLength)

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.outputs[filename]; ok && prev.Source != u.ID {
		return "", fmt.Errorf("%w: %s and %s both produce %s", ErrEmitCollision, prev.Source, u.ID, filename)
	}
	c.outputs[filename] = &Output{Filename: filename, Source: u.ID, Data: u.Source}
	u.Emitted = filename
	return PublicURL(c.opts.PublicPath, filename), nil
}

// Mode implements Host.
func (c *Compiler) Mode() string { return c.opts.Mode }

// PublicURL joins the public path and an output filename the way the
// browser will request it.
func PublicURL(publicPath, filename string) string {
	if publicPath == "" {
		return filename
	}
	if !strings.HasSuffix(publicPath, "/") {
		publicPath += "/"
	}
	return publicPath + filename
}

type stackKey struct{}

// unit returns the transformed unit for path, transforming it on first use.
// Two goroutines may transform the same file concurrently; stages are
// deterministic, so the first stored result wins.
func (c *Compiler) unit(ctx context.Context, path string) (*Unit, error) {
	c.mu.Lock()
	u, ok := c.units[path]
	c.mu.Unlock()
	if ok {
		return u, nil
	}

	stack, _ := ctx.Value(stackKey{}).([]string)
	for _, open := range stack {
		if open == path {
			return nil, pathErrorf(c.moduleID(path), ErrImportCycle, "asset references itself through %s", strings.Join(c.idsOf(stack), " -> "))
		}
	}
	ctx = context.WithValue(ctx, stackKey{}, append(stack[:len(stack):len(stack)], path))

	u, err := c.load(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.units[path]; ok {
		return prev, nil
	}
	c.units[path] = u
	return u, nil
}

func (c *Compiler) load(ctx context.Context, path string) (*Unit, error) {
	id := c.moduleID(path)
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the resolver
	if err != nil {
		return nil, pathErrorf(id, ErrUnresolved, "reading source: %v", err)
	}

	rule := c.opts.Rules.Match(path)
	if rule == nil {
		return nil, pathErrorf(id, ErrNoRule, "no rule handles %q files", filepath.Ext(path))
	}

	u := &Unit{
		Path:    path,
		ID:      id,
		Source:  data,
		Content: data,
		Kind:    KindRaw,
		host:    c,
	}
	if err := c.opts.Registry.runChain(ctx, u, rule.Use); err != nil {
		return nil, withPath(id, classify(err))
	}
	return u, nil
}

// classify wraps errors that carry no kind as stage failures.
func classify(err error) error {
	if errors.Is(err, ErrConfig) || errors.Is(err, ErrResolve) || errors.Is(err, ErrTransform) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStageFailed, err)
}

// assetsOf collects the assets reachable from units: modules that are
// assets themselves and everything referenced by URL, transitively.
func (c *Compiler) assetsOf(units []*Unit) []AssetRef {
	seen := make(map[string]bool)
	var refs []AssetRef
	var visit func(u *Unit)
	visit = func(u *Unit) {
		if seen[u.ID] {
			return
		}
		seen[u.ID] = true
		if u.URL != "" {
			refs = append(refs, AssetRef{
				ID:       u.ID,
				URL:      u.URL,
				Filename: u.Emitted,
				Inlined:  u.Inlined,
				Size:     len(u.Source),
			})
		}
		for _, id := range u.Refs {
			c.mu.Lock()
			ref, ok := c.units[c.ids[id]]
			c.mu.Unlock()
			if ok {
				visit(ref)
			}
		}
	}
	for _, u := range units {
		visit(u)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs
}

func (c *Compiler) register(path string) string {
	id := c.moduleID(path)
	c.mu.Lock()
	c.ids[id] = path
	c.mu.Unlock()
	return id
}

func (c *Compiler) pathOf(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ids[id]
}

func (c *Compiler) idsOf(paths []string) []string {
	ids := make([]string, len(paths))
	for i, p := range paths {
		ids[i] = c.moduleID(p)
	}
	return ids
}

// moduleID names path relative to the project directory: "./src/index.js".
func (c *Compiler) moduleID(path string) string {
	rel := fileutil.Rel(c.opts.Context, path)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return rel
	}
	return "./" + rel
}
