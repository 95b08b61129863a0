package pipeline

import (
	"context"
	"strings"
)

// nodeEnvRef is replaced with the build mode in script sources.
const nodeEnvRef = "process.env.NODE_ENV"

// ScriptStage turns a JavaScript source into a module body: imports and
// require calls are resolved to module IDs, exports are rewritten onto the
// exports object, and process.env.NODE_ENV is inlined.
type ScriptStage struct{}

func (*ScriptStage) Accepts(k Kind) bool { return k == KindRaw }
func (*ScriptStage) Output() Kind        { return KindModule }

func (*ScriptStage) Run(_ context.Context, u *Unit, _ StageOptions) error {
	code, deps, err := rewriteModule(string(u.Content), func(request string) (string, error) {
		return u.host.Require(u.Dir(), request)
	})
	if err != nil {
		return err
	}
	for _, id := range deps {
		u.addDep(id)
	}
	if mode := u.host.Mode(); mode != "none" && strings.Contains(code, nodeEnvRef) {
		code = strings.ReplaceAll(code, nodeEnvRef, quoteJS(mode))
	}
	u.Content = []byte(code)
	u.Kind = KindModule
	return nil
}
