package pipeline

// Notes:
// - Bundles are only checked for the module map and markers the runtime
//   relies on; executing them would need a JavaScript engine.
// - Concurrency is exercised by building two entries sharing modules at once.

import (
	"context"
	"errors"
	"os"
	"regexp"
	"slices"
	"strings"
	"sync"
	"testing"
)

func appTree() map[string]string {
	return map[string]string{
		"src/index.js": "import Vue from 'vue'\n" +
			"import App from './App'\n" +
			"import './index.less'\n" +
			"import logo from './img/logo.png'\n" +
			"import banner from './img/banner.png'\n" +
			"if (process.env.NODE_ENV !== 'production') { console.log(logo, banner) }\n" +
			"new Vue({ render: function (h) { return h(App) } })\n",
		"src/login.js": "import { greet } from './shared'\n" +
			"greet('login')\n",
		"src/shared.js": "export function greet(who) { return 'hi ' + who }\n",
		"src/App.vue": "<template>\n  <div id=\"app\"><img src=\"./img/logo.png\"></div>\n</template>\n" +
			"<script>\nexport default { name: 'app' }\n</script>\n" +
			"<style lang=\"less\">\n@c: #333;\n#app { color: @c; }\n</style>\n",
		"src/index.less":                   "@import './base.css';\n@bg: #fff;\nbody { background: @bg url(./img/banner.png); }\n",
		"src/base.css":                     "html { margin: 0; }\n",
		"src/img/logo.png":                 strings.Repeat("s", 100),
		"src/img/banner.png":               strings.Repeat("b", 20000),
		"node_modules/vue/dist/vue.esm.js": "export default function Vue(opts) { this.opts = opts }\n",
	}
}

// ---------------------------------------------------------------------------
// TestCompiler_Bundle - Module graph, assets and naming
// ---------------------------------------------------------------------------

func TestCompiler_Bundle(t *testing.T) {
	t.Parallel()

	root := writeTree(t, appTree())
	c := newTestCompiler(t, root, "production")

	b, err := c.Bundle(context.Background(), "index", entryPath(root, "src/index.js"))
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	wantModules := []string{
		"./node_modules/vue/dist/vue.esm.js",
		"./src/App.vue",
		"./src/img/banner.png",
		"./src/img/logo.png",
		"./src/index.js",
		"./src/index.less",
	}
	if !slices.Equal(b.Modules, wantModules) {
		t.Errorf("Modules = %v, want %v", b.Modules, wantModules)
	}
	if !regexp.MustCompile(`^index\.[0-9a-f]{6}\.js$`).MatchString(b.Filename) {
		t.Errorf("Filename = %q, want index.<6 hex>.js", b.Filename)
	}
	if !strings.HasPrefix(b.Hash, b.Filename[len("index."):len("index.")+6]) {
		t.Errorf("Filename %q does not carry hash %q", b.Filename, b.Hash)
	}

	code := string(b.Code)
	for _, want := range []string{
		`"./src/index.js": function (module, exports, __require) {`,
		`}, "./src/index.js");`,
		"data:image/png;base64,",
		`if ("production" !== 'production')`,
		"html { margin: 0; }",
		"background: #fff url(./image/banner.",
	} {
		if !strings.Contains(code, want) {
			t.Errorf("bundle missing %q", want)
		}
	}
	if strings.Contains(code, "process.env.NODE_ENV") {
		t.Error("NODE_ENV should be replaced with the mode")
	}
}

func TestCompiler_InlineThreshold(t *testing.T) {
	t.Parallel()

	root := writeTree(t, appTree())
	c := newTestCompiler(t, root, "development")

	b, err := c.Bundle(context.Background(), "index", entryPath(root, "src/index.js"))
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}

	byID := make(map[string]AssetRef)
	for _, a := range b.Assets {
		byID[a.ID] = a
	}
	logo, banner := byID["./src/img/logo.png"], byID["./src/img/banner.png"]
	if !logo.Inlined || logo.Filename != "" {
		t.Errorf("logo (100 bytes) = %+v, want inlined", logo)
	}
	if banner.Inlined || !regexp.MustCompile(`^image/banner\.[0-9a-f]{8}\.png$`).MatchString(banner.Filename) {
		t.Errorf("banner (20000 bytes) = %+v, want image/banner.<8 hex>.png", banner)
	}

	outputs := c.Outputs()
	if len(outputs) != 1 || outputs[0].Filename != banner.Filename {
		t.Fatalf("Outputs = %v, want only the banner", outputs)
	}
	if len(outputs[0].Data) != 20000 {
		t.Errorf("emitted %d bytes, want 20000", len(outputs[0].Data))
	}
}

func TestCompiler_ThresholdBoundary(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/index.js": "import a from './a.png'\nimport b from './b.png'\n",
		"src/a.png":    strings.Repeat("a", DefaultInlineLimit-1),
		"src/b.png":    strings.Repeat("b", DefaultInlineLimit),
	})
	c := newTestCompiler(t, root, "production")

	b, err := c.Bundle(context.Background(), "index", entryPath(root, "src/index.js"))
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	for _, a := range b.Assets {
		switch a.ID {
		case "./src/a.png":
			if !a.Inlined {
				t.Error("asset one byte under the limit should be inlined")
			}
		case "./src/b.png":
			if a.Inlined {
				t.Error("asset at the limit should be emitted")
			}
		}
	}
}

func TestCompiler_DeterministicAndIsolated(t *testing.T) {
	t.Parallel()

	root := writeTree(t, appTree())
	build := func() map[string]*Bundle {
		c := newTestCompiler(t, root, "production")
		out := make(map[string]*Bundle)
		for _, name := range []string{"index", "login"} {
			b, err := c.Bundle(context.Background(), name, entryPath(root, "src/"+name+".js"))
			if err != nil {
				t.Fatalf("Bundle(%s): %v", name, err)
			}
			out[name] = b
		}
		return out
	}

	first, second := build(), build()
	for name := range first {
		if first[name].Filename != second[name].Filename {
			t.Errorf("%s: %q then %q, want stable names", name, first[name].Filename, second[name].Filename)
		}
	}
	if slices.Contains(first["login"].Modules, "./src/index.js") {
		t.Error("login bundle must not contain index modules")
	}
	if strings.Contains(string(first["index"].Code), "./src/shared.js") {
		t.Error("index bundle must not contain login modules")
	}

	if err := os.WriteFile(entryPath(root, "src/index.js"), []byte("console.log('changed')\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	third := build()
	if third["index"].Hash == first["index"].Hash {
		t.Error("changing index.js should change the index hash")
	}
	if third["login"].Hash != first["login"].Hash {
		t.Error("changing index.js should not change the login hash")
	}
}

func TestCompiler_ConcurrentEntriesShareModules(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/a.js":      "import { greet } from './shared'\ngreet('a')\n",
		"src/b.js":      "import { greet } from './shared'\ngreet('b')\n",
		"src/shared.js": "export function greet(who) { return who }\n",
	})
	c := newTestCompiler(t, root, "production")

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, name := range []string{"a", "b"} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = c.Bundle(context.Background(), name, entryPath(root, "src/"+name+".js"))
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			t.Errorf("Bundle: %v", err)
		}
	}
}

// ---------------------------------------------------------------------------
// TestCompiler_Errors - Error kinds and offending paths
// ---------------------------------------------------------------------------

func TestCompiler_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    map[string]string
		wantErr  error
		wantKind error
		wantPath string
	}{
		{
			name:     "unresolved import",
			files:    map[string]string{"src/index.js": "import x from './missing'\n"},
			wantErr:  ErrUnresolved,
			wantKind: ErrResolve,
			wantPath: "./src/index.js",
		},
		{
			name:     "unresolved package",
			files:    map[string]string{"src/index.js": "import pad from 'left-pad'\n"},
			wantErr:  ErrUnresolved,
			wantKind: ErrResolve,
			wantPath: "./src/index.js",
		},
		{
			name: "no rule",
			files: map[string]string{
				"src/index.js": "import d from './data.xyz'\n",
				"src/data.xyz": "?",
			},
			wantErr:  ErrNoRule,
			wantKind: ErrTransform,
			wantPath: "./src/data.xyz",
		},
		{
			name: "css import cycle",
			files: map[string]string{
				"src/index.js": "import './a.css'\n",
				"src/a.css":    "@import './b.css';\n",
				"src/b.css":    "@import './a.css';\n",
			},
			wantErr:  ErrImportCycle,
			wantKind: ErrTransform,
			wantPath: "./src/a.css",
		},
		{
			name: "undefined less variable",
			files: map[string]string{
				"src/index.js":   "import './theme.less'\n",
				"src/theme.less": "a { color: @missing; }\n",
			},
			wantErr:  ErrStageFailed,
			wantKind: ErrTransform,
			wantPath: "./src/theme.less",
		},
		{
			name: "scoped vue style",
			files: map[string]string{
				"src/index.js": "import App from './App.vue'\n",
				"src/App.vue":  "<template><div></div></template>\n<style scoped>\ndiv { color: red; }\n</style>\n",
			},
			wantErr:  ErrStageFailed,
			wantKind: ErrTransform,
			wantPath: "./src/App.vue",
		},
		{
			name: "vue template with two roots",
			files: map[string]string{
				"src/index.js": "import App from './App.vue'\n",
				"src/App.vue":  "<template><div></div><p></p></template>\n",
			},
			wantErr:  ErrStageFailed,
			wantKind: ErrTransform,
			wantPath: "./src/App.vue",
		},
		{
			name: "invalid json",
			files: map[string]string{
				"src/index.js": "import cfg from './cfg.json'\n",
				"src/cfg.json": "{oops}",
			},
			wantErr:  ErrStageFailed,
			wantKind: ErrTransform,
			wantPath: "./src/cfg.json",
		},
		{
			name: "url to a script",
			files: map[string]string{
				"src/index.js": "import './a.css'\n",
				"src/a.css":    "a { background: url(./other.js); }\n",
				"src/other.js": "module.exports = 1\n",
			},
			wantErr:  ErrStageFailed,
			wantKind: ErrTransform,
			wantPath: "./src/a.css",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := writeTree(t, tt.files)
			c := newTestCompiler(t, root, "production")

			_, err := c.Bundle(context.Background(), "index", entryPath(root, "src/index.js"))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, tt.wantKind) {
				t.Errorf("error = %v, want kind %v", err, tt.wantKind)
			}
			var pe *Error
			if !errors.As(err, &pe) {
				t.Fatalf("error %v does not carry a path", err)
			}
			if pe.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", pe.Path, tt.wantPath)
			}
		})
	}
}

func TestCompiler_MissingEntry(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{"src/other.js": ""})
	c := newTestCompiler(t, root, "production")

	_, err := c.Bundle(context.Background(), "index", entryPath(root, "src/index.js"))
	if !errors.Is(err, ErrResolve) {
		t.Errorf("error = %v, want ErrResolve", err)
	}
}

func TestCompiler_EmitCollision(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/index.js":   "import a from './a/logo.png'\nimport b from './b/logo.png'\n",
		"src/a/logo.png": strings.Repeat("a", 20000),
		"src/b/logo.png": strings.Repeat("b", 20000),
	})
	registry := DefaultRegistry()
	rules, err := CompileRules([]RuleSpec{
		{Test: []string{".js"}, Use: []StageSpec{{Stage: StageScript}}},
		{Test: []string{".png"}, Use: []StageSpec{{Stage: StageFile, Options: StageOptions{Name: "[name].[ext]"}}}},
	}, registry)
	if err != nil {
		t.Fatal(err)
	}
	c := NewCompiler(Options{
		Context:       root,
		Mode:          "production",
		Filename:      MustParseNamePattern("[name].js"),
		AssetFilename: MustParseNamePattern("[name].[ext]"),
		Rules:         rules,
		Registry:      registry,
		Resolve:       ResolveOptions{Extensions: []string{".js"}},
	})

	_, err = c.Bundle(context.Background(), "index", entryPath(root, "src/index.js"))
	if !errors.Is(err, ErrEmitCollision) {
		t.Errorf("error = %v, want ErrEmitCollision", err)
	}
}

func TestCompiler_Canceled(t *testing.T) {
	t.Parallel()

	root := writeTree(t, appTree())
	c := newTestCompiler(t, root, "production")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Bundle(ctx, "index", entryPath(root, "src/index.js"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

// ---------------------------------------------------------------------------
// TestCompiler_DataStages - Markdown, YAML, JSON and raw text modules
// ---------------------------------------------------------------------------

func TestCompiler_DataStages(t *testing.T) {
	t.Parallel()

	root := writeTree(t, map[string]string{
		"src/index.js": "import doc from './README.md'\n" +
			"import cfg from './app.yaml'\n" +
			"import pkg from './pkg.json'\n" +
			"import txt from './note.txt'\n",
		"src/README.md": "# Title\n\n![logo](./logo.png)\n",
		"src/logo.png":  "tiny",
		"src/app.yaml":  "name: demo\nport: 3000\n",
		"src/pkg.json":  `{"version": "1.0.0"}`,
		"src/note.txt":  "hello </script>",
	})
	c := newTestCompiler(t, root, "production")

	b, err := c.Bundle(context.Background(), "index", entryPath(root, "src/index.js"))
	if err != nil {
		t.Fatalf("Bundle: %v", err)
	}
	code := string(b.Code)
	for _, want := range []string{
		`id=\"title\"`,
		"data:image/png;base64,",
		`"demo"`,
		"3000",
		`{"version": "1.0.0"}`,
		`"hello \u003c/script\u003e"`,
	} {
		if !strings.Contains(code, want) {
			t.Errorf("bundle missing %q", want)
		}
	}
}
