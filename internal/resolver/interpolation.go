package resolver

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rendis/runcase/pkg/model"
)

// ResolveContext is the read-only view of an ExecutionContext the resolver
// walks: the two identity scalars plus a snapshot of completed step
// results. Taking a snapshot (rather than reading through the live,
// mutex-guarded ExecutionContext on every placeholder) keeps the resolver
// itself free of locking and trivially reentrant.
type ResolveContext struct {
	TestCaseID   string
	TestCaseName string
	StepResults  map[string]*model.ActionResult
}

// NewResolveContext snapshots an ExecutionContext for one resolution pass.
func NewResolveContext(ec *model.ExecutionContext) *ResolveContext {
	return &ResolveContext{
		TestCaseID:   ec.TestCaseID,
		TestCaseName: ec.TestCaseName,
		StepResults:  ec.Results(),
	}
}

// Resolve substitutes {expr} placeholders into v, which may be a string,
// []any, map[string]any, or any other scalar produced by decoding a step's
// params JSON. It does not mutate v; callers get a new value back. Pure
// and deterministic given the same ResolveContext.
func Resolve(v any, rc *ResolveContext) any {
	switch t := v.(type) {
	case string:
		return resolveString(t, rc)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = Resolve(e, rc)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = Resolve(e, rc)
		}
		return out
	default:
		return v
	}
}

// ResolveParams decodes a step's raw JSON params, resolves every
// placeholder, and re-encodes the result. An empty input is returned
// unchanged.
func ResolveParams(raw json.RawMessage, rc *ResolveContext) (json.RawMessage, error) {
	if len(raw) == 0 {
		return raw, nil
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, model.NewErrorf(model.ErrCodeResolution, "decode step params: %s", err.Error()).WithCause(err)
	}

	resolved := Resolve(decoded, rc)

	out, err := json.Marshal(resolved)
	if err != nil {
		return nil, model.NewErrorf(model.ErrCodeResolution, "encode resolved params: %s", err.Error()).WithCause(err)
	}
	return out, nil
}

// resolveString scans s for {expr} placeholders, substituting each with
// its resolved value. A placeholder whose expr does not resolve (unknown
// namespace, missing key, out-of-range index, or traversal into a
// non-traversable scalar) is left literally intact.
func resolveString(s string, rc *ResolveContext) string {
	if !strings.ContainsRune(s, '{') {
		return s
	}

	var out strings.Builder
	out.Grow(len(s))

	i := 0
	for i < len(s) {
		open := strings.IndexByte(s[i:], '{')
		if open == -1 {
			out.WriteString(s[i:])
			break
		}
		open += i
		out.WriteString(s[i:open])

		close := strings.IndexByte(s[open+1:], '}')
		if close == -1 {
			// Unterminated placeholder: nothing more to scan, write the rest literally.
			out.WriteString(s[open:])
			break
		}
		close += open + 1

		expr := s[open+1 : close]
		if val, ok := resolveExpr(expr, rc); ok {
			out.WriteString(embedValue(val))
		} else {
			out.WriteString(s[open : close+1])
		}
		i = close + 1
	}

	return out.String()
}

// resolveExpr walks a single placeholder's dotted/bracketed path against
// the context. The first segment selects testCaseId, testCaseName, or a
// completed step id; everything after it walks that step's ActionResult
// tree via traverse.
func resolveExpr(expr string, rc *ResolveContext) (any, bool) {
	if expr == "" {
		return nil, false
	}
	segments := strings.Split(expr, ".")
	head := segments[0]

	switch head {
	case "testCaseId":
		if len(segments) == 1 {
			return rc.TestCaseID, true
		}
		return nil, false // traversing into a plain string is always a miss
	case "testCaseName":
		if len(segments) == 1 {
			return rc.TestCaseName, true
		}
		return nil, false
	default:
		result, ok := rc.StepResults[head]
		if !ok {
			return nil, false
		}
		if len(segments) == 1 {
			return result, true
		}
		root := map[string]any{"success": result.Success, "output": result.Output}
		return traverse(root, segments[1:])
	}
}

// traverse walks a decoded structure through a sequence of "field" or
// "field[n]" segments. Any miss (unknown key, non-map parent, out-of-range
// or non-sequence index) reports ok=false.
func traverse(current any, segments []string) (any, bool) {
	for _, seg := range segments {
		key, idx, ok := parseSegment(seg)
		if !ok {
			return nil, false
		}

		m, isMap := current.(map[string]any)
		if !isMap {
			return nil, false
		}
		val, exists := m[key]
		if !exists {
			return nil, false
		}
		current = val

		if idx != nil {
			seq, isSeq := current.([]any)
			if !isSeq || *idx < 0 || *idx >= len(seq) {
				return nil, false
			}
			current = seq[*idx]
		}
	}
	return current, true
}

// parseSegment splits a path segment into its field name and optional
// 0-based sequence index ("key[n]").
func parseSegment(seg string) (key string, idx *int, ok bool) {
	if seg == "" {
		return "", nil, false
	}
	open := strings.IndexByte(seg, '[')
	if open == -1 {
		return seg, nil, true
	}
	if !strings.HasSuffix(seg, "]") {
		return "", nil, false
	}
	key = seg[:open]
	if key == "" {
		return "", nil, false
	}
	n, err := strconv.Atoi(seg[open+1 : len(seg)-1])
	if err != nil {
		return "", nil, false
	}
	return key, &n, true
}

// embedValue renders a resolved value for inline substitution: scalars as
// their string form, structures as their JSON text.
func embedValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return "null"
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// HasPlaceholder reports whether raw contains any {...} placeholder
// syntax, used by callers that want to skip resolution on static params.
// Only braces inside JSON string literals count; the structural braces of
// a JSON object do not.
func HasPlaceholder(raw json.RawMessage) bool {
	inString, escaped := false, false
	for _, c := range raw {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = inString
		case c == '"':
			inString = !inString
		case c == '{' && inString:
			return true
		}
	}
	return false
}

// ResolveString is the exported form of resolveString, used by the
// assertion evaluator to resolve placeholders embedded inside expected
// string literals.
func ResolveString(s string, rc *ResolveContext) string {
	return resolveString(s, rc)
}

// ResolveVar resolves a single dotted/bracketed path (the contents of a
// {expr} placeholder, without the braces) to its raw value, skipping the
// string-embedding step. Used by the assertion evaluator's "[<var>]"
// short form, where the caller wants the typed value, not its rendered
// string form.
func ResolveVar(expr string, rc *ResolveContext) (any, bool) {
	return resolveExpr(expr, rc)
}
