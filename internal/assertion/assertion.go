// Package assertion implements the recursive expected-vs-actual comparator
// behind the builtin assert and assert.schema actions. It has no notion
// of an action or a step; callers resolve a step's params first and hand
// this package two already-decoded values.
package assertion

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/rendis/runcase/internal/resolver"
)

// reserved single-token assertions, valid only as the sole element of an
// expected sequence.
const (
	tokenShouldNotBeNull  = "shouldNotBeNull"
	tokenShouldBeNull     = "shouldBeNull"
	tokenShouldBeEmpty    = "shouldBeEmpty"
	tokenShouldNotBeEmpty = "shouldNotBeEmpty"
)

// schemaKey is the single reserved mapping key that switches a mapping
// comparison into a JSON Schema validation of actual.
const schemaKey = "$schema"

// AssertionResult records the outcome of comparing one expected value
// (or sub-value, identified by Field) against the corresponding actual
// value.
type AssertionResult struct {
	Field    string `json:"field"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
	Passed   bool   `json:"passed"`
	Message  string `json:"message,omitempty"`
}

// absent marks an actual value that does not exist at all (a missing
// mapping key, or a sequence index past the shorter side), distinct from
// a present JSON null.
type absent struct{}

// Evaluate recursively compares expected against actual, resolving any
// placeholder or "[<var>]" variable references embedded in expected
// against rc, and returns one AssertionResult per leaf comparison in
// depth-first order. It never stops at the first failure: every leaf is
// evaluated and reported.
func Evaluate(expected, actual any, rc *resolver.ResolveContext) []AssertionResult {
	return evalAt("", expected, actual, rc)
}

// Passed reports whether every result in results passed.
func Passed(results []AssertionResult) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func evalAt(path string, expected, actual any, rc *resolver.ResolveContext) []AssertionResult {
	switch exp := expected.(type) {
	case map[string]any:
		return evalMapping(path, exp, actual, rc)
	case []any:
		return evalSequence(path, exp, actual, rc)
	default:
		return evalPrimitive(path, expected, actual, rc)
	}
}

func evalMapping(path string, expected map[string]any, actual any, rc *resolver.ResolveContext) []AssertionResult {
	if schemaDoc, ok := asSchemaOnly(expected); ok {
		return evalSchema(path, schemaDoc, actual)
	}

	actualMap, ok := actual.(map[string]any)
	if !ok {
		return []AssertionResult{{
			Field:    fieldOrRoot(path),
			Expected: expected,
			Actual:   display(actual),
			Passed:   false,
			Message:  "expected a mapping",
		}}
	}

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var results []AssertionResult
	for _, key := range keys {
		childPath := key
		if path != "" {
			childPath = path + "." + key
		}
		var childActual any = absent{}
		if v, exists := actualMap[key]; exists {
			childActual = v
		}
		results = append(results, evalAt(childPath, expected[key], childActual, rc)...)
	}
	return results
}

// asSchemaOnly reports whether expected is a single-key mapping whose
// only key is the reserved $schema token, returning that key's value.
func asSchemaOnly(expected map[string]any) (any, bool) {
	if len(expected) != 1 {
		return nil, false
	}
	v, ok := expected[schemaKey]
	return v, ok
}

func evalSequence(path string, expected []any, actual any, rc *resolver.ResolveContext) []AssertionResult {
	if len(expected) == 1 {
		if token, ok := expected[0].(string); ok && isReservedToken(token) {
			return evalToken(path, token, actual)
		}
	}

	isAbsentActual := isAbsent(actual)

	var actualSeq []any
	if !isAbsentActual && actual != nil {
		seq, ok := actual.([]any)
		if !ok {
			return []AssertionResult{{
				Field:    fieldOrRoot(path),
				Expected: expected,
				Actual:   display(actual),
				Passed:   false,
				Message:  "expected a sequence",
			}}
		}
		actualSeq = seq
	}

	n := len(expected)
	if len(actualSeq) > n {
		n = len(actualSeq)
	}

	var results []AssertionResult
	for i := 0; i < n; i++ {
		childPath := fmt.Sprintf("%s[%d]", path, i)

		var exp any = absent{}
		if i < len(expected) {
			exp = expected[i]
		}

		var act any = absent{}
		if i < len(actualSeq) {
			act = actualSeq[i]
		}

		results = append(results, evalAt(childPath, exp, act, rc)...)
	}
	return results
}

func isReservedToken(s string) bool {
	switch s {
	case tokenShouldNotBeNull, tokenShouldBeNull, tokenShouldBeEmpty, tokenShouldNotBeEmpty:
		return true
	default:
		return false
	}
}

func evalToken(path, token string, actual any) []AssertionResult {
	var passed bool
	switch token {
	case tokenShouldNotBeNull:
		passed = !isAbsent(actual) && actual != nil
	case tokenShouldBeNull:
		passed = isAbsent(actual) || actual == nil
	case tokenShouldBeEmpty:
		passed = isEmptyValue(actual)
	case tokenShouldNotBeEmpty:
		passed = isNonEmptyValue(actual)
	}

	msg := ""
	if !passed {
		msg = fmt.Sprintf("expected %s", token)
	}
	return []AssertionResult{{
		Field:    fieldOrRoot(path),
		Expected: token,
		Actual:   display(actual),
		Passed:   passed,
		Message:  msg,
	}}
}

func isEmptyValue(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	default:
		return false
	}
}

func isNonEmptyValue(v any) bool {
	switch t := v.(type) {
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	default:
		return false
	}
}

func evalPrimitive(path string, expected, actual any, rc *resolver.ResolveContext) []AssertionResult {
	resolvedExpected := resolveExpected(expected, rc)

	act := actual
	if isAbsent(act) {
		act = nil
	}

	passed := deepEqual(normalizeNumeric(resolvedExpected), normalizeNumeric(act))
	msg := ""
	if !passed {
		msg = "values are not equal"
	}
	return []AssertionResult{{
		Field:    fieldOrRoot(path),
		Expected: resolvedExpected,
		Actual:   act,
		Passed:   passed,
		Message:  msg,
	}}
}

// resolveExpected resolves a primitive expected value. A plain string is
// passed through resolveExpectedString; any other scalar (number, bool,
// nil) needs no resolution.
func resolveExpected(expected any, rc *resolver.ResolveContext) any {
	s, ok := expected.(string)
	if !ok {
		return expected
	}
	return resolveExpectedString(s, rc)
}

// resolveExpectedString handles the "[<var>]" short form, which resolves
// to the variable's typed value (so a number stays a number), falling
// back to ordinary {expr} placeholder substitution, which always yields
// a string.
func resolveExpectedString(s string, rc *resolver.ResolveContext) any {
	if v, ok := varShortForm(s, rc); ok {
		return v
	}
	return resolver.ResolveString(s, rc)
}

func varShortForm(s string, rc *resolver.ResolveContext) (any, bool) {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, false
	}
	return resolver.ResolveVar(s[1:len(s)-1], rc)
}

func isAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

func display(v any) any {
	if isAbsent(v) {
		return nil
	}
	return v
}

func fieldOrRoot(path string) string {
	if path == "" {
		return "$"
	}
	return path
}

func evalSchema(path string, schemaDoc, actual any) []AssertionResult {
	compiled, err := compileSchema(schemaDoc)
	if err != nil {
		return []AssertionResult{{
			Field:    fieldOrRoot(path),
			Expected: map[string]any{schemaKey: schemaDoc},
			Actual:   display(actual),
			Passed:   false,
			Message:  fmt.Sprintf("invalid schema: %s", err.Error()),
		}}
	}

	instance := actual
	if isAbsent(instance) {
		instance = nil
	}

	jsonInstance, err := toJSONValue(instance)
	if err != nil {
		return []AssertionResult{{
			Field:    fieldOrRoot(path),
			Expected: map[string]any{schemaKey: schemaDoc},
			Actual:   display(actual),
			Passed:   false,
			Message:  fmt.Sprintf("undecodable actual value: %s", err.Error()),
		}}
	}

	if err := compiled.Validate(jsonInstance); err != nil {
		return []AssertionResult{{
			Field:    fieldOrRoot(path),
			Expected: map[string]any{schemaKey: schemaDoc},
			Actual:   instance,
			Passed:   false,
			Message:  firstViolation(err),
		}}
	}

	return []AssertionResult{{
		Field:    fieldOrRoot(path),
		Expected: map[string]any{schemaKey: schemaDoc},
		Actual:   instance,
		Passed:   true,
	}}
}

var (
	schemaCacheMu sync.RWMutex
	schemaCache   = make(map[string]*jsonschema.Schema)
)

// compileSchema compiles an assert.schema mapping value, caching by its
// JSON text so repeated assertions against the same schema (typically the
// common case across many steps of the same test case) pay the
// compilation cost once.
func compileSchema(doc any) (*jsonschema.Schema, error) {
	key, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	schemaCacheMu.RLock()
	if cached, ok := schemaCache[string(key)]; ok {
		schemaCacheMu.RUnlock()
		return cached, nil
	}
	schemaCacheMu.RUnlock()

	schemaCacheMu.Lock()
	defer schemaCacheMu.Unlock()
	if cached, ok := schemaCache[string(key)]; ok {
		return cached, nil
	}

	jsonDoc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(key)))
	if err != nil {
		return nil, err
	}

	c := jsonschema.NewCompiler()
	c.AssertFormat()

	url := fmt.Sprintf("runcase://assert-schema/%d", len(schemaCache))
	if err := c.AddResource(url, jsonDoc); err != nil {
		return nil, err
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, err
	}

	schemaCache[string(key)] = compiled
	return compiled, nil
}

// toJSONValue round-trips v through JSON encoding/decoding via the
// jsonschema package's own decoder so that numeric values become
// json.Number, matching what the schema compiler and validator expect.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(strings.NewReader(string(b)))
}

func firstViolation(err error) string {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err.Error()
	}
	for len(verr.Causes) > 0 {
		verr = verr.Causes[0]
	}
	loc := "/"
	if len(verr.InstanceLocation) > 0 {
		loc = "/" + strings.Join(verr.InstanceLocation, "/")
	}
	return fmt.Sprintf("%s: %s", loc, verr.Error())
}
