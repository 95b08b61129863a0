package pipeline

import (
	"errors"
	"path/filepath"
	"testing"
)

// ---------------------------------------------------------------------------
// TestResolver_Resolve - Extensions, aliases, packages and module dirs
// ---------------------------------------------------------------------------

func TestResolver_Resolve(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/index.js":                         "",
		"src/App.vue":                          "",
		"src/components/index.js":              "",
		"src/util.js":                          "",
		"src/util.css":                         "",
		"node_modules/vue/package.json":        `{"main": "dist/vue.runtime.js"}`,
		"node_modules/vue/dist/vue.runtime.js": "",
		"node_modules/vue/dist/vue.esm.js":     "",
		"node_modules/lodash/index.js":         "",
	})
	r := NewResolver(root, ResolveOptions{
		Extensions: []string{".js", ".css", ".vue"},
		Alias: map[string]string{
			"vue$": "vue/dist/vue.esm.js",
			"@":    "./src",
		},
	})
	src := filepath.Join(root, "src")

	tests := []struct {
		name    string
		request string
		want    string
	}{
		{"exact file", "./util.js", "src/util.js"},
		{"first extension wins", "./util", "src/util.js"},
		{"vue extension", "./App", "src/App.vue"},
		{"directory index", "./components", "src/components/index.js"},
		{"exact alias", "vue", "node_modules/vue/dist/vue.esm.js"},
		{"exact alias does not match subpath", "vue/dist/vue.runtime.js", "node_modules/vue/dist/vue.runtime.js"},
		{"prefix alias", "@/util", "src/util.js"},
		{"package index", "lodash", "node_modules/lodash/index.js"},
		{"parent directory", "../src/util.css", "src/util.css"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Resolve(src, tt.request)
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.request, err)
			}
			want := filepath.Join(root, filepath.FromSlash(tt.want))
			if got != want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.request, got, want)
			}
		})
	}
}

func TestResolver_PackageMain(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"node_modules/vue/package.json":        `{"main": "dist/vue.runtime.js"}`,
		"node_modules/vue/dist/vue.runtime.js": "",
	})
	r := NewResolver(root, ResolveOptions{Extensions: []string{".js"}})

	got, err := r.Resolve(root, "vue")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "node_modules", "vue", "dist", "vue.runtime.js")
	if got != want {
		t.Errorf("Resolve = %q, want %q", got, want)
	}
}

func TestResolver_Unresolved(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"src/index.js": ""})
	r := NewResolver(root, ResolveOptions{
		Extensions: []string{".js"},
		Alias:      map[string]string{"gone$": "./nowhere"},
	})

	for _, request := range []string{"./missing", "left-pad", "gone", ""} {
		_, err := r.Resolve(filepath.Join(root, "src"), request)
		if !errors.Is(err, ErrUnresolved) {
			t.Errorf("Resolve(%q) error = %v, want ErrUnresolved", request, err)
		}
		if !errors.Is(err, ErrResolve) {
			t.Errorf("Resolve(%q) error = %v, want ErrResolve kind", request, err)
		}
	}
}
