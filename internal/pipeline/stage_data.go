package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/alnah/go-assetpipe/internal/yamlutil"
)

// YAMLStage exports a YAML document as a JSON value.
type YAMLStage struct{}

func (*YAMLStage) Accepts(k Kind) bool { return k == KindRaw }
func (*YAMLStage) Output() Kind        { return KindModule }

func (*YAMLStage) Run(_ context.Context, u *Unit, _ StageOptions) error {
	data, err := yamlutil.ToJSON(u.Content)
	if err != nil {
		return fmt.Errorf("%w: yaml: %s", ErrStageFailed, yamlutil.FormatError(err))
	}
	u.Content = []byte(jsonModule(data))
	u.Kind = KindModule
	return nil
}

// JSONStage exports a JSON document as-is after checking it parses.
type JSONStage struct{}

func (*JSONStage) Accepts(k Kind) bool { return k == KindRaw }
func (*JSONStage) Output() Kind        { return KindModule }

func (*JSONStage) Run(_ context.Context, u *Unit, _ StageOptions) error {
	if !json.Valid(u.Content) {
		var v any
		err := json.Unmarshal(u.Content, &v)
		return fmt.Errorf("%w: json: %v", ErrStageFailed, err)
	}
	u.Content = []byte(jsonModule(u.Content))
	u.Kind = KindModule
	return nil
}

// RawStage exports the file's text as a string.
type RawStage struct{}

func (*RawStage) Accepts(k Kind) bool { return k == KindRaw }
func (*RawStage) Output() Kind        { return KindModule }

func (*RawStage) Run(_ context.Context, u *Unit, _ StageOptions) error {
	u.Content = []byte("module.exports = " + quoteJS(string(u.Content)) + ";\n")
	u.Kind = KindModule
	return nil
}

func jsonModule(data []byte) string {
	return "module.exports = " + string(data) + ";\n"
}
