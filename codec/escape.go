package codec

import (
	"fmt"
	"strconv"
	"strings"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

// Escape sequences are written \<token>\ using the message's own escape
// character. The single-letter tokens stand for the delimiters of the same
// message, so escaping and unescaping are always done against a concrete
// EncodingCharacters value, never against the standard defaults.

// Escape replaces every reserved character of the delimiter set in value
// with its escape sequence. The escape character itself is rewritten first
// so already-present sequences cannot be generated by accident. Line breaks
// and tabs inside a value are rewritten to their formatting sequences, since
// a literal CR or LF would be read back as a segment terminator.
func Escape(value string, ec hl7v2.EncodingCharacters) string {
	if value == "" {
		return value
	}
	esc := string(ec.EscapeCharacter)
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch c {
		case ec.EscapeCharacter:
			b.WriteString(esc + "E" + esc)
		case ec.FieldSeparator:
			b.WriteString(esc + "F" + esc)
		case ec.ComponentSeparator:
			b.WriteString(esc + "S" + esc)
		case ec.SubcomponentSeparator:
			b.WriteString(esc + "T" + esc)
		case ec.RepetitionSeparator:
			b.WriteString(esc + "R" + esc)
		case '\r', '\n':
			// \r\n collapses to a single line break.
			if c == '\r' && i+1 < len(value) && value[i+1] == '\n' {
				i++
			}
			b.WriteString(esc + ".br" + esc)
		case '\t':
			b.WriteString(esc + ".ti" + esc)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Unescape decodes every escape sequence in value. Decoding happens after
// delimiter splitting, so an escaped delimiter can never be mistaken for a
// real one.
//
// Decoded tokens: F S T R E (the delimiters and the escape character),
// X<hex> (pairs of hex digits to bytes), and the formatting set .br .ce .in
// .sk (line break), .ti (tab) and .fi (removed). Locale sequences (C..,
// M..), unknown tokens and malformed hex are passed through verbatim rather
// than guessed at.
//
// An unterminated sequence (an escape character with no closing one) is an
// error; tolerant callers keep the raw text instead.
func Unescape(value string, ec hl7v2.EncodingCharacters) (string, error) {
	esc := ec.EscapeCharacter
	if strings.IndexByte(value, esc) < 0 {
		return value, nil
	}

	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); {
		if value[i] != esc {
			b.WriteByte(value[i])
			i++
			continue
		}
		end := strings.IndexByte(value[i+1:], esc)
		if end < 0 {
			return "", fmt.Errorf("unterminated escape sequence at offset %d", i)
		}
		token := value[i+1 : i+1+end]
		b.WriteString(decodeToken(token, ec))
		i += end + 2
	}
	return b.String(), nil
}

// decodeToken expands the body of one \...\ sequence. Unknown tokens come
// back re-wrapped in the escape character, preserving the input.
func decodeToken(token string, ec hl7v2.EncodingCharacters) string {
	switch token {
	case "F":
		return string(ec.FieldSeparator)
	case "S":
		return string(ec.ComponentSeparator)
	case "T":
		return string(ec.SubcomponentSeparator)
	case "R":
		return string(ec.RepetitionSeparator)
	case "E":
		return string(ec.EscapeCharacter)
	case ".br", ".ce", ".in", ".sk":
		return "\n"
	case ".ti":
		return "\t"
	case ".fi":
		return ""
	}
	if len(token) > 1 && token[0] == 'X' {
		if decoded, ok := decodeHex(token[1:]); ok {
			return decoded
		}
	}
	// Locale escapes (\C..\, \M..\) and anything unrecognized pass through
	// untouched.
	esc := string(ec.EscapeCharacter)
	return esc + token + esc
}

// decodeHex turns an even-length run of hex digits into raw bytes.
func decodeHex(s string) (string, bool) {
	if len(s) == 0 || len(s)%2 != 0 {
		return "", false
	}
	out := make([]byte, 0, len(s)/2)
	for i := 0; i < len(s); i += 2 {
		n, err := strconv.ParseUint(s[i:i+2], 16, 8)
		if err != nil {
			return "", false
		}
		out = append(out, byte(n))
	}
	return string(out), true
}

// splitEscaped splits text on sep, skipping over complete escape sequences
// so a separator inside one is never treated as a split point. An
// unterminated escape sequence turns off escape awareness for the remainder;
// Unescape is where that condition is reported.
func splitEscaped(text string, sep, esc byte) []string {
	if strings.IndexByte(text, esc) < 0 {
		return strings.Split(text, string(sep))
	}

	var parts []string
	start := 0
	for i := 0; i < len(text); {
		switch text[i] {
		case esc:
			end := strings.IndexByte(text[i+1:], esc)
			if end < 0 {
				// Unterminated: treat the escape character as ordinary
				// text and keep splitting. Unescape reports the problem.
				i++
				continue
			}
			i += end + 2
		case sep:
			parts = append(parts, text[start:i])
			i++
			start = i
		default:
			i++
		}
	}
	parts = append(parts, text[start:])
	return parts
}
