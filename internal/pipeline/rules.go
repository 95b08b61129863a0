package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/alnah/go-assetpipe/internal/fileutil"
)

// RuleSpec declares which files a chain of stages applies to.
type RuleSpec struct {
	Test    []string    // extensions, with or without the leading dot
	Exclude []string    // path segments that opt a file out ("node_modules")
	Use     []StageSpec // stages, executed first to last
}

// Rule is a validated RuleSpec.
type Rule struct {
	Index   int // position in the declared rule list
	Test    []string
	Exclude []string
	Use     []StageSpec
}

// scriptFallback is the chain applied to .js-like files that no rule claims,
// so excluded dependencies (node_modules) still load as plain modules.
var scriptFallback = &Rule{Index: -1, Use: []StageSpec{{Stage: StageScript}}}

var scriptExtensions = map[string]bool{".js": true, ".mjs": true, ".cjs": true}

// RuleSet matches files to rules by extension. Each extension belongs to at
// most one rule.
type RuleSet struct {
	rules []*Rule
	byExt map[string]*Rule
}

// CompileRules validates specs against the registry and builds a RuleSet.
// Two rules claiming the same extension are a conflict unless their
// chains and exclusions are identical, in which case the later one is
// dropped.
func CompileRules(specs []RuleSpec, registry *Registry) (*RuleSet, error) {
	rs := &RuleSet{byExt: make(map[string]*Rule)}

	for i, spec := range specs {
		if len(spec.Test) == 0 {
			return nil, fmt.Errorf("%w: rules[%d]: test must list at least one extension", ErrInvalidRule, i)
		}
		if err := registry.checkChain(spec.Use); err != nil {
			return nil, fmt.Errorf("rules[%d]: %w", i, err)
		}

		rule := &Rule{Index: i, Exclude: spec.Exclude, Use: spec.Use}
		for _, raw := range spec.Test {
			ext, err := normalizeExt(raw)
			if err != nil {
				return nil, fmt.Errorf("rules[%d]: %w", i, err)
			}
			if prev, ok := rs.byExt[ext]; ok {
				if sameChain(prev, rule) {
					continue
				}
				return nil, fmt.Errorf("%w: %q is claimed by rules[%d] (%s) and rules[%d] (%s)",
					ErrRuleConflict, ext, prev.Index, chainString(prev.Use), i, chainString(rule.Use))
			}
			rs.byExt[ext] = rule
			rule.Test = append(rule.Test, ext)
		}
		if len(rule.Test) > 0 {
			rs.rules = append(rs.rules, rule)
		}
	}
	return rs, nil
}

// Rules returns the effective rules in declaration order.
func (rs *RuleSet) Rules() []*Rule { return rs.rules }

// Match returns the rule for path, or nil when none applies.
// Script files that no rule claims, or that their rule excludes, get the
// plain script chain.
func (rs *RuleSet) Match(path string) *Rule {
	ext := strings.ToLower(filepath.Ext(path))
	if rule, ok := rs.byExt[ext]; ok && !excluded(rule, path) {
		return rule
	}
	if scriptExtensions[ext] {
		return scriptFallback
	}
	return nil
}

func excluded(rule *Rule, path string) bool {
	for _, seg := range rule.Exclude {
		if fileutil.HasPathSegment(path, seg) {
			return true
		}
	}
	return false
}

func normalizeExt(raw string) (string, error) {
	ext := strings.ToLower(strings.TrimSpace(raw))
	if ext == "" || ext == "." {
		return "", fmt.Errorf("%w: empty extension", ErrInvalidRule)
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if strings.ContainsAny(ext[1:], "./\\*") {
		return "", fmt.Errorf("%w: %q is not a plain extension", ErrInvalidRule, raw)
	}
	return ext, nil
}

func sameChain(a, b *Rule) bool {
	if len(a.Use) != len(b.Use) || len(a.Exclude) != len(b.Exclude) {
		return false
	}
	for i := range a.Use {
		if a.Use[i] != b.Use[i] {
			return false
		}
	}
	for i := range a.Exclude {
		if a.Exclude[i] != b.Exclude[i] {
			return false
		}
	}
	return true
}

func chainString(chain []StageSpec) string {
	names := make([]string, len(chain))
	for i, s := range chain {
		names[i] = s.Stage
	}
	return strings.Join(names, " -> ")
}
