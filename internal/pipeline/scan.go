package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// Module syntax recognized by the script stage. Patterns run on the masked
// source, so comments and literals never match. Import and export
// statements must start a line, which is how they are written in practice.
// Dynamic import() is not supported.
var (
	importFromPattern = regexp.MustCompile(`(?m)^([ \t]*)import\s+([^'";]+?)\s+from\s+['"]([^'"]+)['"][ \t]*;?`)
	importBarePattern = regexp.MustCompile(`(?m)^([ \t]*)import\s+['"]([^'"]+)['"][ \t]*;?`)
	requirePattern    = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)['"]\s*\)`)
	exportDefault     = regexp.MustCompile(`(?m)^([ \t]*)export\s+default\s+`)
	exportDecl        = regexp.MustCompile(`(?m)^([ \t]*)export\s+((?:async\s+)?function\*?|class|const|let|var)\s+([A-Za-z_$][\w$]*)`)
	exportList        = regexp.MustCompile(`(?m)^([ \t]*)export\s*\{([^}]*)\}[ \t]*;?`)
	identPattern      = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
	declaratorPattern = regexp.MustCompile(`^\s*([A-Za-z_$][\w$]*)`)
)

// requireFunc resolves a request to a module ID.
type requireFunc func(request string) (string, error)

// rewriteModule turns ES module syntax and require calls in src into the
// module-map form the linker wraps: imports become __require calls with
// resolved IDs and exports become assignments on exports.
// It returns the rewritten code and the IDs it depends on, in order.
func rewriteModule(src string, require requireFunc) (string, []string, error) {
	var (
		deps    []string
		seen    = make(map[string]bool)
		firstEr error
	)
	fail := func(err error) {
		if firstEr == nil {
			firstEr = err
		}
	}
	resolve := func(request string) string {
		id, err := require(request)
		if err != nil {
			fail(err)
			return request
		}
		if !seen[id] {
			seen[id] = true
			deps = append(deps, id)
		}
		return id
	}

	esm := false
	out := replaceMasked(importFromPattern, src, maskSource(src, maskScript), func(sub []string, _ []int) string {
		esm = true
		stmt, err := importBindings(sub[2], quoteJS(resolve(sub[3])))
		if err != nil {
			fail(err)
		}
		return sub[1] + stmt
	})
	out = replaceMasked(importBarePattern, out, maskSource(out, maskScript), func(sub []string, _ []int) string {
		esm = true
		return sub[1] + "__require(" + quoteJS(resolve(sub[2])) + ");"
	})
	out = replaceMasked(requirePattern, out, maskSource(out, maskScript), func(sub []string, _ []int) string {
		return "__require(" + quoteJS(resolve(sub[1])) + ")"
	})
	if firstEr != nil {
		return "", nil, firstEr
	}

	var trailer []string
	out = replaceMasked(exportDefault, out, maskSource(out, maskScript), func(sub []string, _ []int) string {
		esm = true
		return sub[1] + "exports.default = "
	})
	masked := maskSource(out, maskScript)
	out = replaceMasked(exportDecl, out, masked, func(sub []string, loc []int) string {
		esm = true
		names := []string{sub[3]}
		switch sub[2] {
		case "const", "let", "var":
			more, err := moreDeclarators(masked, loc[1])
			if err != nil {
				fail(err)
			}
			names = append(names, more...)
		}
		for _, name := range names {
			trailer = append(trailer, "exports."+name+" = "+name+";")
		}
		return sub[1] + sub[2] + " " + sub[3]
	})
	out = replaceMasked(exportList, out, maskSource(out, maskScript), func(sub []string, _ []int) string {
		esm = true
		var assigns []string
		for _, spec := range splitList(sub[2]) {
			local, exported, err := parseAlias(spec)
			if err != nil {
				fail(err)
				return sub[0]
			}
			assigns = append(assigns, "exports."+exported+" = "+local+";")
		}
		return sub[1] + strings.Join(assigns, " ")
	})
	if firstEr != nil {
		return "", nil, firstEr
	}

	if esm {
		out = "Object.defineProperty(exports, \"__esModule\", { value: true });\n" + out
	}
	if len(trailer) > 0 {
		out = strings.TrimRight(out, "\n") + "\n" + strings.Join(trailer, "\n") + "\n"
	}
	return out, deps, nil
}

// moreDeclarators returns the names a const, let or var statement declares
// after its first one, which ends at from. masked is the masked source.
// Destructuring declarators are rejected.
func moreDeclarators(masked string, from int) ([]string, error) {
	var names []string
	depth := 0
	var last byte
	for i := from; i < len(masked); i++ {
		c := masked[i]
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth == 0 {
				return names, nil
			}
			depth--
		case ';':
			if depth == 0 {
				return names, nil
			}
		case '\n':
			if depth == 0 && last != ',' && last != '=' && !nextIsComma(masked, i) {
				return names, nil
			}
		case ',':
			if depth > 0 {
				break
			}
			m := declaratorPattern.FindStringSubmatch(masked[i+1:])
			if m == nil {
				return nil, fmt.Errorf("%w: unsupported export declaration", ErrStageFailed)
			}
			names = append(names, m[1])
		}
		if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
			last = c
		}
	}
	return names, nil
}

func nextIsComma(s string, i int) bool {
	rest := strings.TrimLeft(s[i:], " \t\r\n")
	return strings.HasPrefix(rest, ",")
}

// importBindings builds the declarations for an import clause such as
// `Vue`, `{ a, b as c }`, `* as ns` or `Vue, { a }`.
func importBindings(clause, id string) (string, error) {
	clause = strings.TrimSpace(clause)
	call := "__require(" + id + ")"

	var defaultName, rest string
	if strings.HasPrefix(clause, "{") || strings.HasPrefix(clause, "*") {
		rest = clause
	} else {
		defaultName, rest, _ = strings.Cut(clause, ",")
		defaultName = strings.TrimSpace(defaultName)
		rest = strings.TrimSpace(rest)
		if !identPattern.MatchString(defaultName) {
			return "", fmt.Errorf("%w: unsupported import clause %q", ErrStageFailed, clause)
		}
	}

	var decls []string
	if defaultName != "" {
		decls = append(decls, "var "+defaultName+" = __require.interop("+call+");")
	}
	switch {
	case rest == "":
	case strings.HasPrefix(rest, "*"):
		ns := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(strings.TrimPrefix(rest, "*")), "as"))
		if !identPattern.MatchString(ns) {
			return "", fmt.Errorf("%w: unsupported namespace import %q", ErrStageFailed, clause)
		}
		decls = append(decls, "var "+ns+" = "+call+";")
	case strings.HasPrefix(rest, "{") && strings.HasSuffix(rest, "}"):
		var fields []string
		for _, spec := range splitList(rest[1 : len(rest)-1]) {
			imported, local, err := parseAlias(spec)
			if err != nil {
				return "", err
			}
			if imported == local {
				fields = append(fields, local)
			} else {
				fields = append(fields, imported+": "+local)
			}
		}
		decls = append(decls, "var { "+strings.Join(fields, ", ")+" } = "+call+";")
	default:
		return "", fmt.Errorf("%w: unsupported import clause %q", ErrStageFailed, clause)
	}
	return strings.Join(decls, " "), nil
}

// parseAlias splits "a as b" into ("a", "b"); a bare "a" yields ("a", "a").
func parseAlias(spec string) (string, string, error) {
	fields := strings.Fields(spec)
	switch {
	case len(fields) == 1 && identPattern.MatchString(fields[0]):
		return fields[0], fields[0], nil
	case len(fields) == 3 && fields[1] == "as" &&
		identPattern.MatchString(fields[0]) && identPattern.MatchString(fields[2]):
		return fields[0], fields[2], nil
	default:
		return "", "", fmt.Errorf("%w: unsupported specifier %q", ErrStageFailed, spec)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
