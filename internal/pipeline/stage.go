package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
)

// Kind describes what a unit's content currently holds as it moves
// through a stage chain.
type Kind int

const (
	KindRaw    Kind = iota // untouched source bytes
	KindCSS                // plain stylesheet text
	KindModule             // module body ready for the linker
)

func (k Kind) String() string {
	switch k {
	case KindRaw:
		return "raw"
	case KindCSS:
		return "css"
	case KindModule:
		return "module"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Stage names registered by DefaultRegistry.
const (
	StageScript   = "script"
	StageLess     = "less"
	StageCSS      = "css"
	StageStyle    = "style"
	StageURL      = "url"
	StageFile     = "file"
	StageVue      = "vue"
	StageMarkdown = "markdown"
	StageYAML     = "yaml"
	StageJSON     = "json"
	StageRaw      = "raw"
)

// DefaultInlineLimit is the url stage size threshold in bytes: smaller
// assets are embedded as data URIs, others are emitted as files.
const DefaultInlineLimit = 10240

// StageOptions are per-stage settings declared next to the stage name.
type StageOptions struct {
	Limit int64  // url: inline threshold in bytes (0 = DefaultInlineLimit)
	Name  string // url/file: output name pattern (empty = asset default)
}

// StageSpec names a stage and its options inside a rule.
type StageSpec struct {
	Stage   string
	Options StageOptions
}

// Host is what stages may ask of the compiler running them.
type Host interface {
	// Resolve maps request, made from a file in fromDir, to an absolute path.
	Resolve(fromDir, request string) (string, error)
	// Require resolves request like Resolve and returns the module ID the
	// linker will register the file under.
	Require(fromDir, request string) (string, error)
	// Reference runs the asset ref points at through its own rule and
	// returns the URL to embed in its place. The asset is recorded on u.
	Reference(ctx context.Context, u *Unit, fromDir, ref string) (string, error)
	// Emit schedules u's source for writing under the output directory and
	// returns the public URL it will be served from.
	Emit(u *Unit, pattern *NamePattern) (string, error)
	// Mode returns the build mode ("development", "production" or "none").
	Mode() string
}

// Unit is a single source file moving through its rule's stage chain.
type Unit struct {
	Path    string // absolute source path
	ID      string // module ID ("./src/index.js")
	Source  []byte // original bytes
	Content []byte // current content
	Kind    Kind
	Deps    []string // module IDs required by Content
	Refs    []string // module IDs of assets referenced by URL
	URL     string   // set by url/file stages: inline data URI or public URL
	Inlined bool     // url stage embedded the asset
	Emitted string   // output-relative filename when written as a file

	host        Host
	stopped     bool
	remaining   int    // stages left after the running one
	fallbackFor string // name pattern handed over by a url stage that did not inline
}

// Dir returns the directory of the unit's source file.
func (u *Unit) Dir() string { return filepath.Dir(u.Path) }

// Stop ends the chain after the current stage.
func (u *Unit) Stop() { u.stopped = true }

func (u *Unit) addDep(id string) {
	u.Deps = appendUnique(u.Deps, id)
}

func (u *Unit) addRef(id string) {
	u.Refs = appendUnique(u.Refs, id)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// Stage transforms a unit from one Kind to another.
type Stage interface {
	Accepts(k Kind) bool
	Output() Kind
	Run(ctx context.Context, u *Unit, opts StageOptions) error
}

// fallbackStage is implemented by stages that may hand the unit, still raw,
// to the next stage in the chain instead of producing their output.
type fallbackStage interface {
	Stage
	fallsThrough()
}

// Registry maps stage names to implementations.
type Registry struct {
	stages map[string]Stage
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{stages: make(map[string]Stage)}
}

// DefaultRegistry returns a registry holding every built-in stage.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(StageScript, &ScriptStage{})
	r.Register(StageLess, &LessStage{})
	r.Register(StageCSS, &CSSStage{})
	r.Register(StageStyle, &StyleStage{})
	r.Register(StageURL, &URLStage{})
	r.Register(StageFile, &FileStage{})
	r.Register(StageVue, &VueStage{})
	r.Register(StageMarkdown, NewMarkdownStage())
	r.Register(StageYAML, &YAMLStage{})
	r.Register(StageJSON, &JSONStage{})
	r.Register(StageRaw, &RawStage{})
	return r
}

// Register adds or replaces a stage.
func (r *Registry) Register(name string, s Stage) {
	r.stages[name] = s
}

// Lookup returns the stage registered under name.
func (r *Registry) Lookup(name string) (Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// Names returns the registered stage names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.stages))
	for n := range r.stages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// checkChain verifies that each stage accepts what the previous one
// produces and that the chain ends with a module.
func (r *Registry) checkChain(chain []StageSpec) error {
	if len(chain) == 0 {
		return fmt.Errorf("%w: empty chain", ErrInvalidChain)
	}
	kind := KindRaw
	for i, spec := range chain {
		st, ok := r.Lookup(spec.Stage)
		if !ok {
			return fmt.Errorf("%w: %q (known: %v)", ErrUnknownStage, spec.Stage, r.Names())
		}
		if !st.Accepts(kind) {
			return fmt.Errorf("%w: stage %q cannot take %s input", ErrInvalidChain, spec.Stage, kind)
		}
		if spec.Options.Limit < 0 {
			return fmt.Errorf("%w: stage %q: negative limit %d", ErrInvalidChain, spec.Stage, spec.Options.Limit)
		}
		if spec.Options.Name != "" {
			if _, err := ParseNamePattern(spec.Options.Name); err != nil {
				return err
			}
		}
		if _, ok := st.(fallbackStage); ok && i < len(chain)-1 {
			// kind stays: the next stage receives the raw asset
			continue
		}
		kind = st.Output()
	}
	if kind != KindModule {
		return fmt.Errorf("%w: chain ends with %s output, want module", ErrInvalidChain, kind)
	}
	return nil
}

// runChain runs the stages of chain over u in declared order.
func (r *Registry) runChain(ctx context.Context, u *Unit, chain []StageSpec) error {
	for i, spec := range chain {
		if err := ctx.Err(); err != nil {
			return err
		}
		st, ok := r.Lookup(spec.Stage)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownStage, spec.Stage)
		}
		u.remaining = len(chain) - i - 1
		if err := st.Run(ctx, u, spec.Options); err != nil {
			return err
		}
		if u.stopped {
			break
		}
	}
	if u.Kind != KindModule {
		return fmt.Errorf("%w: chain left %s content", ErrStageFailed, u.Kind)
	}
	return nil
}
