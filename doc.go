// Package assetpipe builds front-end assets from a declarative descriptor.
//
// # Quick Start
//
// Describe the build, then run it:
//
//	d := assetpipe.DefaultDescriptor()
//	d.Context = "/path/to/project"
//
//	result, err := assetpipe.NewBuilder(d).Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, f := range result.Files() {
//	    fmt.Println(f)
//	}
//
// # Descriptor
//
// A Descriptor declares named entries, the rules that transform files by
// extension, the output naming scheme and the HTML pages to generate:
//
//	d := assetpipe.Descriptor{
//	    Entries: []assetpipe.Entry{{Name: "index", Path: "src/index.js"}},
//	    Output:  assetpipe.Output{Path: "dist", Filename: "[name].[hash:6].js"},
//	    Rules: []assetpipe.Rule{
//	        {Test: []string{".css"}, Use: []assetpipe.Stage{{Name: "css"}, {Name: "style"}}},
//	        {Test: []string{".png"}, Use: []assetpipe.Stage{{Name: "url", Limit: 10240}, {Name: "file"}}},
//	    },
//	    Pages: []assetpipe.Page{{Filename: "index.html", Chunks: []string{"index"}}},
//	}
//
// Validate reports configuration errors, such as two rules claiming the same
// extension or a page loading an undeclared entry, without reading sources.
// Build validates first, so a bad descriptor never writes a file.
//
// # Build Pipeline
//
//  1. Every entry is transformed module by module. Each file runs through
//     the stage chain of the rule matching its extension.
//  2. The modules reachable from an entry are linked into one bundle named
//     after the entry and a fingerprint of the bundle bytes.
//  3. Assets below a url stage's limit are inlined as data URIs; others
//     are emitted under their own fingerprinted names.
//  4. Each page template is rendered and receives one script tag per
//     bundle in its chunk list, and no other.
//
// Entries are built in parallel (see WithWorkers). Output is identical for
// any worker count.
//
// # Error Handling
//
// Failures are *BuildError values carrying the offending path. Classify
// them by kind:
//
//	switch {
//	case errors.Is(err, assetpipe.ErrConfig):    // descriptor is invalid
//	case errors.Is(err, assetpipe.ErrResolve):   // a file or module is missing
//	case errors.Is(err, assetpipe.ErrTransform): // a stage rejected a file
//	case errors.Is(err, assetpipe.ErrOutput):    // writing failed
//	}
package assetpipe
