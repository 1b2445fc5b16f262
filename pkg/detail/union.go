package detail

import (
	"regexp"
	"strings"
)

// UnionSeparators lists the branch separators in the order they are tried
// at each split point. Longer separators come first so UNION ALL is never
// split as UNION followed by a branch starting with ALL.
var UnionSeparators = []string{"UNION ALL", "UNION"}

var (
	unionKeywordRe = regexp.MustCompile(`(?i)UNION`)
	unionWrapperRe = regexp.MustCompile(`(?i)FROM\s*\(([\s\S]+)\)\s*(` + aliasPattern + `)`)
	separatorRes   = compileSeparators(UnionSeparators)
)

// compileSeparators turns each separator into a case-insensitive pattern
// anchored at the split point. Words may be separated by any whitespace.
// The word boundary after a match is checked by separatorLen.
func compileSeparators(seps []string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(seps))
	for i, sep := range seps {
		words := strings.Fields(sep)
		for j, w := range words {
			words[j] = regexp.QuoteMeta(w)
		}
		res[i] = regexp.MustCompile(`(?i)^` + strings.Join(words, `\s+`))
	}
	return res
}

// Branch is one SELECT arm of a UNION statement.
type Branch struct {
	Text  string
	Table TableRef
	// DetailSelect is the arm rewritten to project the mapped fields.
	DetailSelect string
}

// hasUnion reports whether the statement takes the UNION path. Any
// occurrence of the letters UNION counts, matching the documented trigger.
func hasUnion(sql string) bool {
	return strings.Contains(strings.ToUpper(sql), "UNION")
}

// unwrapUnion matches the FROM ( <inner> ) <alias> wrapper around a UNION.
// The inner block is greedy: it runs to the last closing parenthesis that is
// followed by an alias.
func unwrapUnion(sql string) (inner, alias string, ok bool) {
	m := unionWrapperRe.FindStringSubmatch(sql)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// SplitUnion splits inner on UNION ALL and UNION separators. The split is
// flat: parentheses are not tracked, so a UNION nested in a sub-select also
// splits its enclosing branch. Parts are returned untrimmed and may be empty.
func SplitUnion(inner string) []string {
	var parts []string
	start := 0
	for _, loc := range keywordIndexes(unionKeywordRe, inner) {
		if loc[0] < start {
			continue
		}
		parts = append(parts, inner[start:loc[0]])
		start = loc[0] + separatorLen(inner[loc[0]:])
	}
	return append(parts, inner[start:])
}

// separatorLen returns the length of the first separator matching as whole
// words at the beginning of s.
func separatorLen(s string) int {
	for _, re := range separatorRes {
		if loc := re.FindStringIndex(s); loc != nil && endsWord(s, loc[1]) {
			return loc[1]
		}
	}
	return len("UNION")
}

// buildBranches resolves every SELECT part of inner. Parts that do not start
// with SELECT, or whose table cannot be resolved, are dropped.
func (t *Transformer) buildBranches(inner string) []Branch {
	var branches []Branch
	for _, part := range SplitUnion(inner) {
		part = strings.TrimSpace(part)
		if !strings.HasPrefix(strings.ToUpper(part), "SELECT") {
			continue
		}
		ref, joinBody, failure := resolveTable(part)
		if failure != FailureNone {
			continue
		}
		branches = append(branches, Branch{
			Text:         part,
			Table:        ref,
			DetailSelect: selectFields(t.mapping.Fields(ref.Key), joinBody),
		})
	}
	return branches
}

// mergedProjection concatenates the fields of each distinct table key in
// branch order, keeping the first occurrence of every field expression.
func (t *Transformer) mergedProjection(branches []Branch) []string {
	seenTables := make(map[string]bool)
	seenFields := make(map[string]bool)
	var fields []string
	for _, b := range branches {
		if seenTables[b.Table.Key] {
			continue
		}
		seenTables[b.Table.Key] = true
		for _, f := range t.mapping.Fields(b.Table.Key) {
			if seenFields[f] {
				continue
			}
			seenFields[f] = true
			fields = append(fields, f)
		}
	}
	return fields
}
