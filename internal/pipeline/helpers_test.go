package pipeline

import (
	"os"
	"path/filepath"
	"testing"
)

// writeTree creates files under a fresh temporary directory and returns it.
// Keys are slash-separated paths relative to the root.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(p), 0o750); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
		if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return root
}

// testRules mirrors a typical front-end project configuration.
func testRules() []RuleSpec {
	return []RuleSpec{
		{Test: []string{".js"}, Exclude: []string{"node_modules"}, Use: []StageSpec{{Stage: StageScript}}},
		{Test: []string{".css"}, Use: []StageSpec{{Stage: StageCSS}, {Stage: StageStyle}}},
		{Test: []string{".less"}, Use: []StageSpec{{Stage: StageLess}, {Stage: StageCSS}, {Stage: StageStyle}}},
		{
			Test: []string{"png", "jpg", "gif", "svg"},
			Use: []StageSpec{
				{Stage: StageURL, Options: StageOptions{Limit: DefaultInlineLimit, Name: "image/[name].[hash:8].[ext]"}},
				{Stage: StageFile},
			},
		},
		{Test: []string{".vue"}, Use: []StageSpec{{Stage: StageVue}}},
		{Test: []string{".md"}, Use: []StageSpec{{Stage: StageMarkdown}}},
		{Test: []string{".yaml", ".yml"}, Use: []StageSpec{{Stage: StageYAML}}},
		{Test: []string{".json"}, Use: []StageSpec{{Stage: StageJSON}}},
		{Test: []string{".txt"}, Use: []StageSpec{{Stage: StageRaw}}},
	}
}

// newTestCompiler builds a Compiler over root with testRules.
func newTestCompiler(t *testing.T, root, mode string) *Compiler {
	t.Helper()
	registry := DefaultRegistry()
	rules, err := CompileRules(testRules(), registry)
	if err != nil {
		t.Fatalf("CompileRules: %v", err)
	}
	return NewCompiler(Options{
		Context:       root,
		Mode:          mode,
		PublicPath:    "./",
		Filename:      MustParseNamePattern("[name].[hash:6].js"),
		AssetFilename: MustParseNamePattern("[name].[hash:8].[ext]"),
		Rules:         rules,
		Registry:      registry,
		Resolve: ResolveOptions{
			Extensions: []string{".js", ".css", ".vue"},
			Alias:      map[string]string{"vue$": "vue/dist/vue.esm.js"},
		},
	})
}

func entryPath(root, rel string) string {
	return filepath.Join(root, filepath.FromSlash(rel))
}
