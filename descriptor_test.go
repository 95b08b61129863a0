package assetpipe

import (
	"errors"
	"testing"
)

func TestDefaultDescriptor(t *testing.T) {
	t.Parallel()

	d := DefaultDescriptor()
	if err := d.Validate(); err != nil {
		t.Fatalf("DefaultDescriptor().Validate() = %v", err)
	}

	if d.Mode != ModeDevelopment {
		t.Errorf("mode = %q, want development", d.Mode)
	}
	if len(d.Entries) != 2 || d.Entries[0].Name != "index" || d.Entries[1].Name != "login" {
		t.Errorf("entries = %+v, want index and login", d.Entries)
	}
	if d.Output.Filename != "[name].[hash:6].js" || d.Output.PublicPath != "./" {
		t.Errorf("output = %+v", d.Output)
	}
	if d.DevServer.Port != 3000 {
		t.Errorf("dev server port = %d, want 3000", d.DevServer.Port)
	}
	if d.Resolve.Alias["vue$"] == "" {
		t.Error("vue$ alias missing")
	}

	var url *Stage
	for _, r := range d.Rules {
		for i := range r.Use {
			if r.Use[i].Name == StageURL {
				url = &r.Use[i]
			}
		}
	}
	if url == nil || url.Limit != 10240 || url.Filename != "image/[name].[hash:8].[ext]" {
		t.Errorf("url stage = %+v, want limit 10240 and image/[name].[hash:8].[ext]", url)
	}
}

// ---------------------------------------------------------------------------
// TestDescriptor_Validate - Eager configuration errors
// ---------------------------------------------------------------------------

func TestDescriptor_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(d *Descriptor)
		wantErr error
	}{
		{"empty mode defaults", func(d *Descriptor) { d.Mode = "" }, nil},
		{"mode none", func(d *Descriptor) { d.Mode = ModeNone }, nil},
		{"invalid mode", func(d *Descriptor) { d.Mode = "staging" }, ErrInvalidMode},
		{"no entries", func(d *Descriptor) { d.Entries = nil; d.Pages = nil }, ErrNoEntries},
		{"duplicate entry", func(d *Descriptor) { d.Entries[1].Name = "index" }, ErrDuplicateEntry},
		{"entry without path", func(d *Descriptor) { d.Entries[0].Path = "" }, ErrInvalidEntry},
		{"entry name with slash", func(d *Descriptor) { d.Entries[0].Name = "a/b" }, ErrInvalidEntry},
		{"empty output path", func(d *Descriptor) { d.Output.Path = "" }, ErrInvalidOutput},
		{"bad filename pattern", func(d *Descriptor) { d.Output.Filename = "[name].[hash:99].js" }, ErrInvalidPattern},
		{"filename without name", func(d *Descriptor) { d.Output.Filename = "bundle.[hash].js" }, ErrInvalidOutput},
		{"bad asset pattern", func(d *Descriptor) { d.Output.AssetFilename = "../[name].[ext]" }, ErrInvalidPattern},
		{"unknown hash", func(d *Descriptor) { d.Output.HashFunction = "md5" }, ErrConfig},
		{"xxhash64", func(d *Descriptor) { d.Output.HashFunction = HashXXHash64 }, nil},
		{"hash length too long", func(d *Descriptor) { d.Output.HashLength = 65 }, ErrInvalidOutput},
		{"manifest escapes", func(d *Descriptor) { d.Output.Manifest = "../manifest.json" }, ErrInvalidOutput},
		{"duplicate page", func(d *Descriptor) { d.Pages[1].Filename = "./index.html" }, ErrDuplicatePage},
		{"page escapes output", func(d *Descriptor) { d.Pages[0].Filename = "../index.html" }, ErrInvalidPage},
		{"absolute template", func(d *Descriptor) { d.Pages[0].Template = "/etc/index.html" }, ErrInvalidPage},
		{"builtin template", func(d *Descriptor) { d.Pages[0].Template = "blank" }, nil},
		{"unknown chunk", func(d *Descriptor) { d.Pages[0].Chunks = []string{"admin"} }, ErrUnknownChunk},
		{"shared chunk", func(d *Descriptor) { d.Pages[1].Chunks = []string{"index"} }, ErrSharedChunk},
		{"page without chunks", func(d *Descriptor) { d.Pages[0].Chunks = nil }, nil},
		{"port too large", func(d *Descriptor) { d.DevServer.Port = 70000 }, ErrInvalidPort},
		{"negative port", func(d *Descriptor) { d.DevServer.Port = -1 }, ErrInvalidPort},
		{"extension without dot", func(d *Descriptor) { d.Resolve.Extensions = []string{"js"} }, ErrInvalidResolve},
		{"empty alias target", func(d *Descriptor) { d.Resolve.Alias = map[string]string{"x": ""} }, ErrInvalidResolve},
		{"unknown stage", func(d *Descriptor) { d.Rules[0].Use = []Stage{{Name: "babel"}} }, ErrUnknownStage},
		{"negative limit", func(d *Descriptor) { d.Rules[3].Use[0].Limit = -1 }, ErrConfig},
		{"bad stage filename", func(d *Descriptor) { d.Rules[3].Use[0].Filename = "[nope]" }, ErrInvalidPattern},
		{
			name: "conflicting rules",
			mutate: func(d *Descriptor) {
				d.Rules = append(d.Rules, Rule{Test: []string{".vue"}, Use: []Stage{{Name: StageRaw}}})
			},
			wantErr: ErrRuleConflict,
		},
		{
			name: "identical duplicate rule",
			mutate: func(d *Descriptor) {
				d.Rules = append(d.Rules, Rule{Test: []string{".vue"}, Use: []Stage{{Name: StageVue}}})
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := DefaultDescriptor()
			tt.mutate(&d)
			err := d.Validate()

			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if !errors.Is(err, ErrConfig) {
				t.Errorf("Validate() error = %v should be a configuration error", err)
			}
		})
	}
}

func TestDescriptor_EffectiveMode(t *testing.T) {
	t.Parallel()

	for mode, want := range map[string]string{
		"":              ModeProduction,
		ModeDevelopment: ModeDevelopment,
		ModeNone:        ModeNone,
	} {
		d := Descriptor{Mode: mode}
		if got := d.EffectiveMode(); got != want {
			t.Errorf("EffectiveMode() with %q = %q, want %q", mode, got, want)
		}
	}
}
