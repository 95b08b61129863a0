package assets

import (
	"errors"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"default", false},
		{"my-template_2", false},
		{"", true},
		{"a/b", true},
		{`a\b`, true},
		{"a.html", true},
		{"..", true},
	}

	for _, tt := range tests {
		err := ValidateAssetName(tt.name)
		if tt.wantErr != errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("ValidateAssetName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestValidateTemplatePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path    string
		wantErr bool
	}{
		{"public/index.html", false},
		{"./index.html", false},
		{"a/../index.html", false},
		{"", true},
		{"  ", true},
		{"/abs.html", true},
		{"..", true},
		{"../up.html", true},
		{"a/../../up.html", true},
		{`public\index.html`, true},
		{"nul\x00.html", true},
	}

	for _, tt := range tests {
		err := ValidateTemplatePath(tt.path)
		if tt.wantErr != errors.Is(err, ErrInvalidTemplatePath) {
			t.Errorf("ValidateTemplatePath(%q) error = %v, wantErr %v", tt.path, err, tt.wantErr)
		}
	}
}

func TestIsBuiltinRef(t *testing.T) {
	t.Parallel()

	for ref, want := range map[string]bool{
		"":                  true,
		"default":           true,
		"public/index.html": false,
		"index.html":        false,
	} {
		if got := IsBuiltinRef(ref); got != want {
			t.Errorf("IsBuiltinRef(%q) = %v, want %v", ref, got, want)
		}
	}
}
