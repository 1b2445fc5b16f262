package detail

import (
	"regexp"
	"strings"
)

var (
	fromKeywordRe = regexp.MustCompile(`(?i)FROM`)
	tableRefRe    = regexp.MustCompile(`(?i)^FROM\s+([^\s(]+)\s+(` + aliasPattern + `)`)
	leadingFromRe = regexp.MustCompile(`(?i)^FROM\s+`)
	groupByTailRe = regexp.MustCompile(`(?i)\s+GROUP\s+BY\s+[\s\S]*$`)
)

// TableRef is the driving table of a SELECT fragment.
type TableRef struct {
	// Identifier is the table name as written, possibly schema qualified.
	Identifier string
	Alias      string
	// Key is the upper-cased last dot segment of Identifier.
	Key string
}

// TableKey returns the canonical mapping key for a table identifier:
// qualifiers are dropped and the remaining name is upper-cased.
func TableKey(identifier string) string {
	if i := strings.LastIndexByte(identifier, '.'); i >= 0 {
		identifier = identifier[i+1:]
	}
	return strings.ToUpper(identifier)
}

// ResolveTable returns the driving table of fragment and its join body: the
// text from the first FROM keyword to the end of the fragment. ok is false
// when fragment has no FROM keyword or its FROM target is not an
// "identifier alias" pair.
func ResolveTable(fragment string) (ref TableRef, joinBody string, ok bool) {
	ref, joinBody, failure := resolveTable(fragment)
	return ref, joinBody, failure == FailureNone
}

func resolveTable(fragment string) (TableRef, string, Failure) {
	froms := keywordIndexes(fromKeywordRe, fragment)
	if len(froms) == 0 {
		return TableRef{}, "", FailureNoFrom
	}
	joinBody := fragment[froms[0][0]:]

	// The driving table follows the first FROM that names one, which is not
	// necessarily the first FROM.
	var m []string
	for _, loc := range fromKeywordRe.FindAllStringIndex(fragment, -1) {
		if !startsWord(fragment, loc[0]) {
			continue
		}
		if m = tableRefRe.FindStringSubmatch(fragment[loc[0]:]); m != nil {
			break
		}
	}
	if m == nil {
		return TableRef{}, "", FailureUnresolvedTable
	}

	return TableRef{
		Identifier: m[1],
		Alias:      m[2],
		Key:        TableKey(m[1]),
	}, joinBody, FailureNone
}

// stripGroupBy drops a trailing GROUP BY clause and everything after it.
func stripGroupBy(s string) string {
	return groupByTailRe.ReplaceAllString(s, "")
}

// selectFields builds "SELECT <fields> <joinBody>" without any GROUP BY tail.
func selectFields(fields []string, joinBody string) string {
	return strings.TrimSpace(stripGroupBy("SELECT " + strings.Join(fields, ", ") + " " + joinBody))
}
