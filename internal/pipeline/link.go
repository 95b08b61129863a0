package pipeline

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
)

// runtimePrelude defines the module loader every bundle starts with.
// Modules run once, on first require, in the order the entry pulls them.
const runtimePrelude = `(function (modules, entry) {
  var cache = {};
  function __require(id) {
    var cached = cache[id];
    if (cached) return cached.exports;
    if (!Object.prototype.hasOwnProperty.call(modules, id)) {
      throw new Error("Cannot find module " + id);
    }
    var module = (cache[id] = { id: id, exports: {} });
    modules[id].call(module.exports, module, module.exports, __require);
    return module.exports;
  }
  __require.interop = function (m) {
    return m && m.__esModule ? m.default : m;
  };
  __require(entry);
})({
`

// linkedModule is a transformed module as the linker sees it.
type linkedModule struct {
	ID   string
	Code []byte
}

// link writes the bundle for entryID. Modules are emitted sorted by ID so
// the output only depends on their content.
func link(entryID string, modules []linkedModule) []byte {
	sorted := make([]linkedModule, len(modules))
	copy(sorted, modules)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	var b bytes.Buffer
	b.WriteString(runtimePrelude)
	for _, m := range sorted {
		b.WriteString(quoteJS(m.ID))
		b.WriteString(": function (module, exports, __require) {\n")
		b.Write(m.Code)
		if len(m.Code) > 0 && m.Code[len(m.Code)-1] != '\n' {
			b.WriteByte('\n')
		}
		b.WriteString("},\n")
	}
	b.WriteString("}, ")
	b.WriteString(quoteJS(entryID))
	b.WriteString(");\n")
	return b.Bytes()
}

// quoteJS returns s as a double-quoted JavaScript string literal. Markup
// characters are escaped so the literal is also safe inside <script>.
func quoteJS(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	// Encode only fails for unsupported types, never for a string.
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
