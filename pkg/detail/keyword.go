package detail

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

// aliasPattern matches a table alias. Only the first character is limited
// to ASCII; the rest may be letters or digits of any script.
const aliasPattern = `[A-Za-z_][\p{L}\p{N}_]*`

// isWordRune reports whether r belongs to a word: a letter or number in any
// script, or an underscore.
func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r)
}

// startsWord reports whether a word may begin at offset i of s.
func startsWord(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

// endsWord reports whether a word may end at offset i of s.
func endsWord(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

// keywordIndexes returns the locations of the matches of re in s that stand
// as whole words. RE2 has no lookaround and its \b only knows ASCII, so the
// neighbouring runes are checked here.
func keywordIndexes(re *regexp.Regexp, s string) [][]int {
	var out [][]int
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if startsWord(s, loc[0]) && endsWord(s, loc[1]) {
			out = append(out, loc)
		}
	}
	return out
}
