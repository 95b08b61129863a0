package assetpipe

import (
	"encoding/json"
	"time"
)

// Result describes the files a build wrote.
type Result struct {
	OutputDir string // absolute
	Bundles   []BundleInfo
	Assets    []AssetInfo // emitted files, sorted by filename
	Pages     []PageInfo
	Manifest  string // manifest filename, empty when none was written
	Duration  time.Duration
}

// BundleInfo describes the bundle built for one entry.
type BundleInfo struct {
	Entry    string
	Filename string
	Hash     string
	Size     int
	Modules  []string // module IDs, sorted
	Inlined  []string // IDs of assets embedded as data URIs
}

// AssetInfo describes an emitted asset file.
type AssetInfo struct {
	Source   string // module ID of the source file
	Filename string
	Size     int
}

// PageInfo describes a generated HTML page.
type PageInfo struct {
	Filename string
	Template string
	Scripts  []string // script URLs, in document order
}

// Files returns every written filename, relative to OutputDir.
func (r *Result) Files() []string {
	var files []string
	for _, b := range r.Bundles {
		files = append(files, b.Filename)
	}
	for _, a := range r.Assets {
		files = append(files, a.Filename)
	}
	for _, p := range r.Pages {
		files = append(files, p.Filename)
	}
	if r.Manifest != "" {
		files = append(files, r.Manifest)
	}
	return files
}

// Manifest is the JSON document written to Output.Manifest.
type Manifest struct {
	Mode       string                   `json:"mode"`
	PublicPath string                   `json:"publicPath"`
	Entries    map[string]ManifestEntry `json:"entries"`
	Assets     map[string]string        `json:"assets"` // source module ID -> filename
	Pages      map[string][]string      `json:"pages"`  // page filename -> script URLs
}

// ManifestEntry records the bundle of one entry.
type ManifestEntry struct {
	File    string   `json:"file"`
	Hash    string   `json:"hash"`
	Size    int      `json:"size"`
	Modules []string `json:"modules"`
}

// NewManifest summarizes a build result.
func NewManifest(mode, publicPath string, r *Result) *Manifest {
	m := &Manifest{
		Mode:       mode,
		PublicPath: publicPath,
		Entries:    make(map[string]ManifestEntry, len(r.Bundles)),
		Assets:     make(map[string]string, len(r.Assets)),
		Pages:      make(map[string][]string, len(r.Pages)),
	}
	for _, b := range r.Bundles {
		m.Entries[b.Entry] = ManifestEntry{File: b.Filename, Hash: b.Hash, Size: b.Size, Modules: b.Modules}
	}
	for _, a := range r.Assets {
		m.Assets[a.Source] = a.Filename
	}
	for _, p := range r.Pages {
		scripts := p.Scripts
		if scripts == nil {
			scripts = []string{}
		}
		m.Pages[p.Filename] = scripts
	}
	return m
}

// Marshal encodes the manifest as indented JSON. Map keys are sorted, so
// equal builds produce equal manifests.
func (m *Manifest) Marshal() ([]byte, error) {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
