package main

import (
	"errors"
	"io"
	"slices"
	"testing"

	flag "github.com/spf13/pflag"
)

// ---------------------------------------------------------------------------
// TestParseBuildFlags - Build command line
// ---------------------------------------------------------------------------

func TestParseBuildFlags(t *testing.T) {
	t.Parallel()

	f, err := parseBuildFlags([]string{
		"-c", "site.yaml", "-m", "development", "-o", "out",
		"--public-path", "/assets/",
		"--entry", "a=src/a.js", "--entry", "b=src/b.js",
		"--only", "a", "--only", "b",
		"-w", "4", "--clean", "-v",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parseBuildFlags() = %v", err)
	}

	if f.common.config != "site.yaml" || f.mode != "development" || f.output != "out" || f.publicPath != "/assets/" {
		t.Errorf("flags = %+v", f)
	}
	if !slices.Equal(f.entries, []string{"a=src/a.js", "b=src/b.js"}) {
		t.Errorf("entries = %v", f.entries)
	}
	if !slices.Equal(f.only, []string{"a", "b"}) {
		t.Errorf("only = %v", f.only)
	}
	if f.workers != 4 || !f.clean || !f.common.verbose || f.common.quiet {
		t.Errorf("flags = %+v", f)
	}
	if f.manifest != "" {
		t.Errorf("manifest = %q, want none without --manifest", f.manifest)
	}
}

func TestParseBuildFlags_Manifest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"--manifest"}, defaultManifestName},
		{[]string{"--manifest=assets.json"}, "assets.json"},
		{nil, ""},
	}

	for _, tt := range tests {
		f, err := parseBuildFlags(tt.args, io.Discard)
		if err != nil {
			t.Fatalf("parseBuildFlags(%v) = %v", tt.args, err)
		}
		if f.manifest != tt.want {
			t.Errorf("parseBuildFlags(%v).manifest = %q, want %q", tt.args, f.manifest, tt.want)
		}
	}
}

func TestParseBuildFlags_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"unknown flag", []string{"--nope"}, ErrUsage},
		{"positional argument", []string{"src/index.js"}, ErrUsage},
		{"negative workers", []string{"-w", "-1"}, ErrUsage},
		{"workers not a number", []string{"-w", "many"}, ErrUsage},
		{"help", []string{"-h"}, flag.ErrHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseBuildFlags(tt.args, io.Discard)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("parseBuildFlags(%v) error = %v, want %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestParseValidateFlags(t *testing.T) {
	t.Parallel()

	f, err := parseValidateFlags([]string{"--config", "site", "-q"}, io.Discard)
	if err != nil {
		t.Fatalf("parseValidateFlags() = %v", err)
	}
	if f.config != "site" || !f.quiet {
		t.Errorf("flags = %+v", f)
	}

	if _, err := parseValidateFlags([]string{"--mode", "none"}, io.Discard); !errors.Is(err, ErrUsage) {
		t.Errorf("validate should reject build flags, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestParseEntryFlag - name=path values
// ---------------------------------------------------------------------------

func TestParseEntryFlag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value    string
		wantName string
		wantPath string
		wantErr  bool
	}{
		{"index=src/index.js", "index", "src/index.js", false},
		{" admin = src/admin.js ", "admin", "src/admin.js", false},
		{"odd=src/a=b.js", "odd", "src/a=b.js", false},
		{"index", "", "", true},
		{"=src/index.js", "", "", true},
		{"index=", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			name, path, err := parseEntryFlag(tt.value)
			if tt.wantErr {
				if !errors.Is(err, ErrUsage) {
					t.Errorf("parseEntryFlag(%q) error = %v, want ErrUsage", tt.value, err)
				}
				return
			}
			if err != nil || name != tt.wantName || path != tt.wantPath {
				t.Errorf("parseEntryFlag(%q) = %q, %q, %v", tt.value, name, path, err)
			}
		})
	}
}
