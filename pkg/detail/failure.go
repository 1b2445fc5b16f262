package detail

// Failure explains why a statement produced an empty Result.
type Failure int

// Failure reasons reported by Explain.
const (
	FailureNone Failure = iota
	// FailureBlank means the statement was empty after normalization.
	FailureBlank
	// FailureNoFrom means no FROM keyword was found.
	FailureNoFrom
	// FailureUnresolvedTable means the FROM target is not an "identifier alias" pair.
	FailureUnresolvedTable
	// FailureNoUnionWrapper means a UNION statement lacks the FROM ( ... ) alias wrapper.
	FailureNoUnionWrapper
	// FailureNoBranches means no UNION branch could be rewritten.
	FailureNoBranches
)

// String returns the string representation of the failure.
func (f Failure) String() string {
	switch f {
	case FailureNone:
		return "none"
	case FailureBlank:
		return "blank statement"
	case FailureNoFrom:
		return "no FROM clause"
	case FailureUnresolvedTable:
		return "FROM target is not a table with an alias"
	case FailureNoUnionWrapper:
		return "UNION without FROM ( ... ) alias wrapper"
	case FailureNoBranches:
		return "no rewritable UNION branch"
	default:
		return "unknown"
	}
}

// FailureClass groups failure reasons.
type FailureClass int

// Failure classes.
const (
	ClassNone FailureClass = iota
	// ClassSkipped is a blank statement; callers skip it silently.
	ClassSkipped
	// ClassParseFailure covers statements whose FROM clause cannot be read.
	ClassParseFailure
	// ClassUnsupportedShape covers statements outside the supported grammar.
	ClassUnsupportedShape
)

// String returns the string representation of the class.
func (c FailureClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassSkipped:
		return "skipped"
	case ClassParseFailure:
		return "parse failure"
	case ClassUnsupportedShape:
		return "unsupported shape"
	default:
		return "unknown"
	}
}

// Class returns the class of the failure.
func (f Failure) Class() FailureClass {
	switch f {
	case FailureNone:
		return ClassNone
	case FailureBlank:
		return ClassSkipped
	case FailureNoFrom, FailureUnresolvedTable:
		return ClassParseFailure
	default:
		return ClassUnsupportedShape
	}
}
