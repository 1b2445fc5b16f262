package detail

import (
	"regexp"
	"strings"
)

var (
	blockCommentRe = regexp.MustCompile(`/\*[\s\S]*?\*/`)

	// Any Unicode space, including the ideographic space U+3000.
	whitespaceRe = regexp.MustCompile(`[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)
)

// Normalize removes /* ... */ comments, collapses whitespace runs to a single
// space and trims the result. Blank input returns "".
func Normalize(sql string) string {
	if strings.TrimSpace(sql) == "" {
		return ""
	}
	sql = blockCommentRe.ReplaceAllString(sql, " ")
	sql = whitespaceRe.ReplaceAllString(sql, " ")
	return strings.TrimSpace(sql)
}
