package detail

import (
	"strings"
)

const unionJoiner = "\nUNION ALL\n"

// Result is the outcome of a rewrite: the detail statement and the FROM
// fragment it selects from. Both fields are set together; the zero Result
// means the statement could not be rewritten.
type Result struct {
	DetailSQL string `json:"detail_sql"`
	FromInner string `json:"from_inner"`
}

// OK reports whether the rewrite succeeded.
func (r Result) OK() bool {
	return r.DetailSQL != "" && r.FromInner != ""
}

// Transformer rewrites aggregate statements using a fixed Mapping.
// It holds no mutable state and may be shared between goroutines.
type Transformer struct {
	mapping Mapping
}

// New creates a Transformer for the given field mapping.
func New(mapping Mapping) *Transformer {
	return &Transformer{mapping: mapping}
}

// Mapping returns the field mapping used by the transformer.
func (t *Transformer) Mapping() Mapping {
	return t.mapping
}

// Transform rewrites sql into its detail form. It returns the zero Result
// when sql cannot be rewritten.
func (t *Transformer) Transform(sql string) Result {
	res, _ := t.Explain(sql)
	return res
}

// Explain is Transform that also reports why a rewrite failed.
func (t *Transformer) Explain(sql string) (Result, Failure) {
	normalized := Normalize(sql)
	if normalized == "" {
		return Result{}, FailureBlank
	}

	var (
		res     Result
		failure Failure
	)
	if hasUnion(normalized) {
		res, failure = t.transformUnion(normalized)
	} else {
		res, failure = t.transformSimple(normalized)
	}
	if failure == FailureNone && !res.OK() {
		return Result{}, FailureUnresolvedTable
	}
	return res, failure
}

func (t *Transformer) transformSimple(sql string) (Result, Failure) {
	ref, joinBody, failure := resolveTable(sql)
	if failure != FailureNone {
		return Result{}, failure
	}

	fromInner := leadingFromRe.ReplaceAllString(joinBody, "")
	fromInner = strings.TrimSpace(stripGroupBy(fromInner))

	return Result{
		DetailSQL: selectFields(t.mapping.Fields(ref.Key), joinBody),
		FromInner: fromInner,
	}, FailureNone
}

func (t *Transformer) transformUnion(sql string) (Result, Failure) {
	inner, alias, ok := unwrapUnion(sql)
	if !ok {
		return Result{}, FailureNoUnionWrapper
	}

	branches := t.buildBranches(inner)
	if len(branches) == 0 {
		return Result{}, FailureNoBranches
	}

	selects := make([]string, len(branches))
	for i, b := range branches {
		selects[i] = b.DetailSelect
	}
	body := strings.Join(selects, unionJoiner)
	projection := strings.Join(t.mergedProjection(branches), ", ")

	return Result{
		DetailSQL: "SELECT " + projection + " FROM (\n" + body + "\n) " + alias + " WHERE 1=1",
		FromInner: "(" + body + ") " + alias,
	}, FailureNone
}

// Branches returns the rewritten UNION branches of sql, or nil when sql does
// not take the UNION path or lacks the outer wrapper.
func (t *Transformer) Branches(sql string) []Branch {
	normalized := Normalize(sql)
	if !hasUnion(normalized) {
		return nil
	}
	inner, _, ok := unwrapUnion(normalized)
	if !ok {
		return nil
	}
	return t.buildBranches(inner)
}
