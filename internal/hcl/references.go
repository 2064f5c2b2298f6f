package hcl

import (
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
)

// envRef is one reference to an environment variable, such as env.HOME or
// env["HOME"].
type envRef struct {
	Name  string
	Range hcl.Range
}

// traversalKey renders t canonically, e.g. env.HOME.
func traversalKey(t hcl.Traversal) string {
	return string(hclwrite.TokensForTraversal(t).Bytes())
}

// envReferences collects the environment variables referenced anywhere in
// body, one entry per distinct traversal, sorted by name. Bodies that were
// not parsed from native syntax yield nothing.
func envReferences(body hcl.Body) []envRef {
	seen := make(map[string]envRef)
	walkBody(body, func(expr hcl.Expression) {
		for _, t := range expr.Variables() {
			if t.RootName() != "env" || len(t) < 2 {
				continue
			}
			name, ok := stepName(t[1])
			if !ok {
				continue
			}
			key := traversalKey(t[:2])
			if _, dup := seen[key]; !dup {
				seen[key] = envRef{Name: name, Range: t.SourceRange()}
			}
		}
	})

	refs := make([]envRef, 0, len(seen))
	for _, r := range seen {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs
}

func walkBody(body hcl.Body, visit func(hcl.Expression)) {
	sb, ok := body.(*hclsyntax.Body)
	if !ok {
		return
	}
	for _, attr := range sb.Attributes {
		visit(attr.Expr)
	}
	for _, block := range sb.Blocks {
		walkBody(block.Body, visit)
	}
}

func stepName(step hcl.Traverser) (string, bool) {
	switch s := step.(type) {
	case hcl.TraverseAttr:
		return s.Name, true
	case hcl.TraverseIndex:
		if s.Key.Type() == cty.String && s.Key.IsKnown() && !s.Key.IsNull() {
			return s.Key.AsString(), true
		}
	}
	return "", false
}

// checkEnv reports every reference to a variable missing from env.
func checkEnv(refs []envRef, env map[string]cty.Value) error {
	var errs []error
	for _, r := range refs {
		if _, ok := env[r.Name]; !ok {
			errs = append(errs, fmt.Errorf("%s: undefined environment variable %q", r.Range, r.Name))
		}
	}
	return errors.Join(errs...)
}
