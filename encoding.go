package hl7v2

// Standard ER7 delimiter defaults.
const (
	DefaultFieldSeparator        = '|'
	DefaultComponentSeparator    = '^'
	DefaultRepetitionSeparator   = '~'
	DefaultEscapeCharacter       = '\\'
	DefaultSubcomponentSeparator = '&'
)

// NullToken is the two-character wire token for an explicitly null field.
const NullToken = `""`

// EncodingCharacters is the delimiter set of one message, resolved from the
// second field of its header segment (MSH-2, BHS-2 or FHS-2). It is built
// once at parse time and treated as immutable afterwards.
type EncodingCharacters struct {
	FieldSeparator        byte
	ComponentSeparator    byte
	RepetitionSeparator   byte
	EscapeCharacter       byte
	SubcomponentSeparator byte

	// ContinuationCharacter comes from MSH-14 and marks segment
	// continuation lines. Empty means no continuation character is in
	// effect; there is no default.
	ContinuationCharacter string
}

// DefaultEncoding returns the standard |^~\& delimiter set.
func DefaultEncoding() EncodingCharacters {
	return EncodingCharacters{
		FieldSeparator:        DefaultFieldSeparator,
		ComponentSeparator:    DefaultComponentSeparator,
		RepetitionSeparator:   DefaultRepetitionSeparator,
		EscapeCharacter:       DefaultEscapeCharacter,
		SubcomponentSeparator: DefaultSubcomponentSeparator,
	}
}

// FromHeader derives the delimiter set from the raw value of a header
// segment's second field. The token carries, in order, the component,
// repetition, escape and subcomponent separators; positions the token does
// not cover fall back to the standard defaults. FromHeader never fails:
// the token is needed to finish parsing the very segment that contains it,
// so a malformed token degrades to defaults instead of erroring.
//
// continuation is the raw MSH-14 value, stored verbatim when non-empty.
func FromHeader(token, continuation string) EncodingCharacters {
	ec := DefaultEncoding()
	if len(token) > 0 {
		ec.ComponentSeparator = token[0]
	}
	if len(token) > 1 {
		ec.RepetitionSeparator = token[1]
	}
	if len(token) > 2 {
		ec.EscapeCharacter = token[2]
	}
	if len(token) > 3 {
		ec.SubcomponentSeparator = token[3]
	}
	ec.ContinuationCharacter = continuation
	return ec
}

// Token re-emits the 4-character header token (component, repetition,
// escape, subcomponent) declared by this delimiter set.
func (ec EncodingCharacters) Token() string {
	return string([]byte{
		ec.ComponentSeparator,
		ec.RepetitionSeparator,
		ec.EscapeCharacter,
		ec.SubcomponentSeparator,
	})
}

// IsSeparator reports whether c is one of the five delimiter characters or
// the escape character of this set.
func (ec EncodingCharacters) IsSeparator(c byte) bool {
	switch c {
	case ec.FieldSeparator, ec.ComponentSeparator, ec.RepetitionSeparator,
		ec.EscapeCharacter, ec.SubcomponentSeparator:
		return true
	}
	return false
}

// Equal reports whether two delimiter sets agree, continuation character
// included.
func (ec EncodingCharacters) Equal(other EncodingCharacters) bool {
	return ec == other
}
