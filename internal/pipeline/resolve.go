package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/alnah/go-assetpipe/internal/fileutil"
)

// ResolveOptions configures module resolution.
type ResolveOptions struct {
	// Extensions are tried in order when a request omits one.
	Extensions []string
	// Alias substitutes import prefixes. A key ending in "$" only matches
	// the exact request ("vue$" matches "vue" but not "vue/dist/x").
	Alias map[string]string
	// Modules are directory names searched upward for bare requests, or
	// absolute directories searched as-is. Defaults to node_modules.
	Modules []string
}

type aliasEntry struct {
	key    string
	target string
	exact  bool
}

// Resolver maps import requests to absolute file paths.
type Resolver struct {
	root       string
	extensions []string
	aliases    []aliasEntry
	modules    []string
}

// NewResolver creates a Resolver rooted at the absolute project directory.
func NewResolver(root string, opts ResolveOptions) *Resolver {
	r := &Resolver{
		root:       root,
		extensions: opts.Extensions,
		modules:    opts.Modules,
	}
	if len(r.modules) == 0 {
		r.modules = []string{"node_modules"}
	}
	for key, target := range opts.Alias {
		e := aliasEntry{key: key, target: target}
		if strings.HasSuffix(key, "$") {
			e.key = strings.TrimSuffix(key, "$")
			e.exact = true
		}
		r.aliases = append(r.aliases, e)
	}
	// Longest key first so "vue/dist" wins over "vue".
	sort.Slice(r.aliases, func(i, j int) bool {
		if len(r.aliases[i].key) != len(r.aliases[j].key) {
			return len(r.aliases[i].key) > len(r.aliases[j].key)
		}
		return r.aliases[i].key < r.aliases[j].key
	})
	return r
}

// Resolve returns the absolute path request refers to when imported from
// a file in fromDir.
func (r *Resolver) Resolve(fromDir, request string) (string, error) {
	if request == "" {
		return "", fmt.Errorf("%w: empty request", ErrUnresolved)
	}
	req := r.applyAlias(request)

	if isPathRequest(req) {
		base := req
		if !filepath.IsAbs(base) {
			base = filepath.Join(fromDir, filepath.FromSlash(req))
		}
		if p, ok := r.tryPath(base); ok {
			return p, nil
		}
	} else {
		for _, dir := range r.moduleDirs(fromDir) {
			if p, ok := r.tryPath(filepath.Join(dir, filepath.FromSlash(req))); ok {
				return p, nil
			}
		}
	}

	if req != request {
		return "", fmt.Errorf("%w: %q (aliased to %q)", ErrUnresolved, request, req)
	}
	return "", fmt.Errorf("%w: %q from %s (tried extensions %v)", ErrUnresolved, request, fileutil.Rel(r.root, fromDir), r.extensions)
}

// applyAlias rewrites request through the first matching alias. Relative
// alias targets are taken from the project root.
func (r *Resolver) applyAlias(request string) string {
	for _, a := range r.aliases {
		var rest string
		switch {
		case request == a.key:
		case !a.exact && strings.HasPrefix(request, a.key+"/"):
			rest = request[len(a.key):]
		default:
			continue
		}
		target := a.target
		if strings.HasPrefix(target, "./") || strings.HasPrefix(target, "../") {
			target = filepath.Join(r.root, filepath.FromSlash(target))
		}
		return target + rest
	}
	return request
}

// moduleDirs lists the directories searched for a bare request, nearest first.
func (r *Resolver) moduleDirs(fromDir string) []string {
	var dirs []string
	for _, m := range r.modules {
		if filepath.IsAbs(m) {
			dirs = append(dirs, m)
			continue
		}
		for dir := fromDir; ; dir = filepath.Dir(dir) {
			dirs = append(dirs, filepath.Join(dir, m))
			if dir == filepath.Dir(dir) {
				break
			}
		}
	}
	return dirs
}

// tryPath checks base as a file, base plus each extension, then base as a
// package or index directory.
func (r *Resolver) tryPath(base string) (string, bool) {
	if p, ok := r.tryFile(base); ok {
		return p, true
	}
	if !fileutil.DirExists(base) {
		return "", false
	}
	if main := packageMain(base); main != "" {
		if p, ok := r.tryFile(filepath.Join(base, filepath.FromSlash(main))); ok {
			return p, true
		}
	}
	return r.tryFile(filepath.Join(base, "index"))
}

func (r *Resolver) tryFile(base string) (string, bool) {
	if fileutil.FileExists(base) {
		return base, true
	}
	for _, ext := range r.extensions {
		candidate := base + ext
		if fileutil.FileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// packageMain reads the "main" field of dir/package.json, if any.
func packageMain(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "package.json")) // #nosec G304 -- resolved module directory
	if err != nil {
		return ""
	}
	var pkg struct {
		Main string `json:"main"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return ""
	}
	return pkg.Main
}

func isPathRequest(req string) bool {
	return strings.HasPrefix(req, "./") ||
		strings.HasPrefix(req, "../") ||
		req == "." || req == ".." ||
		filepath.IsAbs(req)
}
