package assetpipe_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alnah/go-assetpipe"
)

// Example builds a one-page project with the built-in page template.
func Example() {
	dir, err := os.MkdirTemp("", "assetpipe-example")
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	defer os.RemoveAll(dir)

	src := filepath.Join(dir, "src", "index.js")
	_ = os.MkdirAll(filepath.Dir(src), 0o750)
	_ = os.WriteFile(src, []byte("document.title = 'hello'\n"), 0o600)

	d := assetpipe.Descriptor{
		Context: dir,
		Entries: []assetpipe.Entry{{Name: "index", Path: "src/index.js"}},
		Output:  assetpipe.Output{Path: "dist", Filename: "[name].js", PublicPath: "/static/"},
		Rules: []assetpipe.Rule{
			{Test: []string{".js"}, Use: []assetpipe.Stage{{Name: assetpipe.StageScript}}},
		},
		Pages: []assetpipe.Page{{Filename: "index.html", Chunks: []string{"index"}}},
	}

	result, err := assetpipe.NewBuilder(d).Build(context.Background())
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, f := range result.Files() {
		fmt.Println(f)
	}
	fmt.Println(result.Pages[0].Scripts[0])
	// Output:
	// index.js
	// index.html
	// /static/index.js
}

// ExampleDescriptor_Validate shows a configuration error reported before
// any file is read.
func ExampleDescriptor_Validate() {
	d := assetpipe.DefaultDescriptor()
	d.Rules = append(d.Rules, assetpipe.Rule{
		Test: []string{".css"},
		Use:  []assetpipe.Stage{{Name: assetpipe.StageRaw}},
	})

	err := d.Validate()
	fmt.Println(errors.Is(err, assetpipe.ErrRuleConflict))
	fmt.Println(errors.Is(err, assetpipe.ErrConfig))
	// Output:
	// true
	// true
}
