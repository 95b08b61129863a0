package assetpipe

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-assetpipe/internal/assets"
	"github.com/alnah/go-assetpipe/internal/fileutil"
	"github.com/alnah/go-assetpipe/internal/pipeline"
)

// TemplateLoader loads page templates by reference: a built-in template
// name, or a path relative to the project directory.
type TemplateLoader interface {
	LoadTemplate(ref string) (string, error)
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger sets the logger build progress is reported to.
// Panics if l is nil (programmer error).
func WithLogger(l *zap.Logger) Option {
	if l == nil {
		panic("assetpipe: WithLogger logger must not be nil")
	}
	return func(b *Builder) {
		b.logger = l
	}
}

// WithWorkers sets how many entries are built in parallel.
// Zero selects ResolveWorkers(0). Panics if n < 0.
func WithWorkers(n int) Option {
	if n < 0 {
		panic("assetpipe: WithWorkers count must not be negative")
	}
	return func(b *Builder) {
		b.workers = n
	}
}

// WithOnly restricts the build to the named entries. Pages whose chunks
// are all excluded are skipped.
func WithOnly(entries ...string) Option {
	return func(b *Builder) {
		b.only = append(b.only, entries...)
	}
}

// WithTemplateLoader replaces the loader page templates are read with.
func WithTemplateLoader(l TemplateLoader) Option {
	return func(b *Builder) {
		b.templates = l
	}
}

// Builder runs the build a Descriptor declares.
// A Builder may be used for several sequential or concurrent builds.
type Builder struct {
	desc      Descriptor
	logger    *zap.Logger
	workers   int
	only      []string
	templates TemplateLoader
	registry  *pipeline.Registry
}

// NewBuilder creates a Builder for d. The descriptor is validated by Build.
func NewBuilder(d Descriptor, opts ...Option) *Builder {
	b := &Builder{
		desc:     d,
		logger:   zap.NewNop(),
		registry: pipeline.DefaultRegistry(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// page is a selected page with its parsed template.
type page struct {
	Page
	renderer *pipeline.PageRenderer
}

// file is a generated file waiting to be written.
type file struct {
	name   string
	source string
	data   []byte
}

// Build validates the descriptor, transforms every selected entry and
// writes bundles, emitted assets, pages and the optional manifest under
// the output directory. Nothing is written when any step fails.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	start := time.Now()

	plan, err := b.desc.compile(b.registry)
	if err != nil {
		return nil, wrapBuildError(err)
	}

	projectDir, err := filepath.Abs(b.desc.Context)
	if err != nil {
		return nil, wrapBuildError(fmt.Errorf("%w: context %q: %v", ErrInvalidOutput, b.desc.Context, err))
	}
	outDir := b.desc.Output.Path
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(projectDir, outDir)
	}

	entries, err := b.selectEntries()
	if err != nil {
		return nil, wrapBuildError(err)
	}
	pages, err := b.loadPages(projectDir, entries)
	if err != nil {
		return nil, wrapBuildError(err)
	}

	compiler := pipeline.NewCompiler(pipeline.Options{
		Context:       projectDir,
		Mode:          b.desc.EffectiveMode(),
		PublicPath:    b.desc.Output.PublicPath,
		Filename:      plan.filename,
		AssetFilename: plan.assetFilename,
		HashLength:    b.hashLength(),
		Hasher:        plan.hasher,
		Rules:         plan.rules,
		Registry:      b.registry,
		Resolve: pipeline.ResolveOptions{
			Extensions: b.desc.Resolve.Extensions,
			Alias:      b.desc.Resolve.Alias,
			Modules:    b.desc.Resolve.Modules,
		},
	})

	bundles, err := b.buildEntries(ctx, compiler, projectDir, entries)
	if err != nil {
		return nil, wrapBuildError(err)
	}

	result := &Result{OutputDir: outDir}
	var files []file
	byEntry := make(map[string]*pipeline.Bundle, len(bundles))
	for _, bundle := range bundles {
		byEntry[bundle.Name] = bundle
		result.Bundles = append(result.Bundles, bundleInfo(bundle))
		files = append(files, file{name: bundle.Filename, source: bundle.Name, data: bundle.Code})
	}
	for _, out := range compiler.Outputs() {
		result.Assets = append(result.Assets, AssetInfo{Source: out.Source, Filename: out.Filename, Size: len(out.Data)})
		files = append(files, file{name: out.Filename, source: out.Source, data: out.Data})
	}

	for _, p := range pages {
		scripts := b.scriptURLs(p.Page, byEntry)
		data, err := p.renderer.Render(ctx, pipeline.PageData{
			Title:      p.Title,
			Mode:       b.desc.EffectiveMode(),
			PublicPath: b.desc.Output.PublicPath,
		}, scripts)
		if err != nil {
			return nil, wrapBuildError(err)
		}
		result.Pages = append(result.Pages, PageInfo{Filename: p.Filename, Template: templateName(p.Page), Scripts: scripts})
		files = append(files, file{name: p.Filename, source: templateName(p.Page), data: data})
	}

	if name := b.desc.Output.Manifest; name != "" {
		data, err := NewManifest(b.desc.EffectiveMode(), b.desc.Output.PublicPath, result).Marshal()
		if err != nil {
			return nil, wrapBuildError(fmt.Errorf("%w: encoding manifest: %v", ErrOutput, err))
		}
		result.Manifest = name
		files = append(files, file{name: name, source: "manifest", data: data})
	}

	if err := checkCollisions(files); err != nil {
		return nil, wrapBuildError(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := b.write(projectDir, outDir, files); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	b.logger.Info("build complete",
		zap.String("output", outDir),
		zap.Int("bundles", len(result.Bundles)),
		zap.Int("assets", len(result.Assets)),
		zap.Int("pages", len(result.Pages)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// selectEntries returns the entries to build, in declaration order.
func (b *Builder) selectEntries() ([]Entry, error) {
	if len(b.only) == 0 {
		return b.desc.Entries, nil
	}
	for _, name := range b.only {
		if _, ok := b.desc.Entry(name); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, name)
		}
	}
	var selected []Entry
	for _, e := range b.desc.Entries {
		if slices.Contains(b.only, e.Name) {
			selected = append(selected, e)
		}
	}
	return selected, nil
}

// loadPages loads and parses the templates of pages that load at least one
// selected entry. Pages without chunks are always generated.
func (b *Builder) loadPages(projectDir string, entries []Entry) ([]page, error) {
	loader := b.templates
	if loader == nil {
		resolver, err := assets.NewAssetResolver(projectDir)
		if err != nil {
			return nil, fmt.Errorf("%w: context: %v", ErrInvalidOutput, err)
		}
		loader = resolver
	}

	var pages []page
	for _, p := range b.desc.Pages {
		if !pageSelected(p, entries) {
			b.logger.Debug("page skipped", zap.String("page", p.Filename))
			continue
		}

		name := templateName(p)
		content, err := loader.LoadTemplate(p.Template)
		if err != nil {
			return nil, templateError(name, err)
		}
		renderer, err := pipeline.NewPageRenderer(name, content)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page{Page: p, renderer: renderer})
	}
	return pages, nil
}

func pageSelected(p Page, entries []Entry) bool {
	if len(p.Chunks) == 0 {
		return true
	}
	for _, e := range entries {
		if slices.Contains(p.Chunks, e.Name) {
			return true
		}
	}
	return false
}

func templateName(p Page) string {
	if p.Template == "" {
		return assets.DefaultTemplateName
	}
	return p.Template
}

func templateError(name string, err error) error {
	switch {
	case errors.Is(err, assets.ErrTemplateNotFound), errors.Is(err, assets.ErrAssetRead):
		return &BuildError{Kind: ErrResolve, Path: name, Err: fmt.Errorf("%w: %v", ErrTemplateNotFound, err)}
	default:
		return &BuildError{Kind: ErrConfig, Path: name, Err: fmt.Errorf("%w: %v", ErrInvalidPage, err)}
	}
}

// buildEntries bundles entries in parallel. Results keep the entry order.
func (b *Builder) buildEntries(ctx context.Context, compiler *pipeline.Compiler, projectDir string, entries []Entry) ([]*pipeline.Bundle, error) {
	workers := ResolveWorkers(b.workers)
	b.logger.Debug("building entries", zap.Int("entries", len(entries)), zap.Int("workers", workers))

	bundles := make([]*pipeline.Bundle, len(entries))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, e := range entries {
		g.Go(func() error {
			entryPath := e.Path
			if !filepath.IsAbs(entryPath) {
				entryPath = filepath.Join(projectDir, filepath.FromSlash(entryPath))
			}
			bundle, err := compiler.Bundle(ctx, e.Name, entryPath)
			if err != nil {
				return err
			}
			b.logger.Debug("entry built",
				zap.String("entry", e.Name),
				zap.String("file", bundle.Filename),
				zap.Int("modules", len(bundle.Modules)),
				zap.Int("size", len(bundle.Code)),
			)
			bundles[i] = bundle
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return bundles, nil
}

// scriptURLs returns the URLs of the bundles a page loads, in chunk order.
func (b *Builder) scriptURLs(p Page, bundles map[string]*pipeline.Bundle) []string {
	var urls []string
	for _, chunk := range p.Chunks {
		bundle, ok := bundles[chunk]
		if !ok {
			continue
		}
		url := pipeline.PublicURL(b.desc.Output.PublicPath, bundle.Filename)
		if p.Hash {
			url += "?" + truncateHash(bundle.Hash, b.hashLength())
		}
		urls = append(urls, url)
	}
	return urls
}

func (b *Builder) hashLength() int {
	if b.desc.Output.HashLength > 0 {
		return b.desc.Output.HashLength
	}
	return pipeline.DefaultHashLength
}

func truncateHash(hash string, n int) string {
	if n >= len(hash) {
		return hash
	}
	return hash[:n]
}

func bundleInfo(bundle *pipeline.Bundle) BundleInfo {
	info := BundleInfo{
		Entry:    bundle.Name,
		Filename: bundle.Filename,
		Hash:     bundle.Hash,
		Size:     len(bundle.Code),
		Modules:  bundle.Modules,
	}
	for _, a := range bundle.Assets {
		if a.Inlined {
			info.Inlined = append(info.Inlined, a.ID)
		}
	}
	return info
}

// checkCollisions rejects two generated files sharing a filename.
func checkCollisions(files []file) error {
	owners := make(map[string]string, len(files))
	for _, f := range files {
		name := filepath.ToSlash(filepath.Clean(f.name))
		if prev, ok := owners[name]; ok {
			return &BuildError{
				Kind: ErrTransform,
				Path: name,
				Err:  fmt.Errorf("%w: written by %s and %s", ErrOutputCollision, prev, f.source),
			}
		}
		owners[name] = f.source
	}
	return nil
}

// write stores files under outDir, cleaning it first when configured.
func (b *Builder) write(projectDir, outDir string, files []file) error {
	if b.desc.Output.Clean {
		if err := fileutil.CleanDir(outDir, projectDir); err != nil {
			return outputErrorf(fileutil.Rel(projectDir, outDir), err)
		}
		b.logger.Debug("output cleaned", zap.String("dir", outDir))
	}

	sort.Slice(files, func(i, j int) bool { return files[i].name < files[j].name })
	for _, f := range files {
		target := filepath.Join(outDir, filepath.FromSlash(f.name))
		if !fileutil.IsWithin(target, outDir) {
			return outputErrorf(f.name, fmt.Errorf("path escapes the output directory"))
		}
		if err := fileutil.WriteFile(target, f.data); err != nil {
			return outputErrorf(fileutil.Rel(projectDir, target), err)
		}
		b.logger.Debug("file written", zap.String("file", f.name), zap.Int("size", len(f.data)))
	}
	return nil
}
