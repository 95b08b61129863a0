package pipeline

import (
	"context"
	"encoding/base64"
	"mime"
	"path/filepath"
	"strings"
)

// URLStage embeds assets smaller than its limit as data URIs. Larger assets
// are handed to the next stage, or emitted as files when it is the last one.
type URLStage struct{}

func (*URLStage) Accepts(k Kind) bool { return k == KindRaw }
func (*URLStage) Output() Kind        { return KindModule }
func (*URLStage) fallsThrough()       {}

func (*URLStage) Run(_ context.Context, u *Unit, opts StageOptions) error {
	limit := opts.Limit
	if limit == 0 {
		limit = DefaultInlineLimit
	}
	if int64(len(u.Source)) < limit {
		u.URL = dataURI(u.Path, u.Source)
		u.Inlined = true
		u.Content = []byte(urlModule(u.URL))
		u.Kind = KindModule
		u.Stop()
		return nil
	}
	if u.remaining > 0 {
		u.fallbackFor = opts.Name
		return nil
	}
	return emitAsset(u, opts.Name)
}

// FileStage emits the asset under the output directory and exports its
// public URL.
type FileStage struct{}

func (*FileStage) Accepts(k Kind) bool { return k == KindRaw }
func (*FileStage) Output() Kind        { return KindModule }

func (*FileStage) Run(_ context.Context, u *Unit, opts StageOptions) error {
	name := opts.Name
	if name == "" {
		name = u.fallbackFor
	}
	return emitAsset(u, name)
}

// emitAsset writes u through the host under the named pattern, or the
// host's asset default when name is empty.
func emitAsset(u *Unit, name string) error {
	var pattern *NamePattern
	if name != "" {
		p, err := ParseNamePattern(name)
		if err != nil {
			return err
		}
		pattern = p
	}
	url, err := u.host.Emit(u, pattern)
	if err != nil {
		return err
	}
	u.URL = url
	u.Content = []byte(urlModule(url))
	u.Kind = KindModule
	return nil
}

func urlModule(url string) string {
	return "module.exports = " + quoteJS(url) + ";\n"
}

func dataURI(path string, data []byte) string {
	return "data:" + mimeType(path) + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func mimeType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".svg" {
		return "image/svg+xml"
	}
	if t := mime.TypeByExtension(ext); t != "" {
		// drop parameters such as "; charset=utf-8"
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		return t
	}
	return "application/octet-stream"
}
