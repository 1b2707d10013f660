// Package codec parses and serializes HL7 v2.x ER7 text.
//
// Parsing is a pure function of the input string: the delimiter set is
// recovered from the message's own header before any delimiter-aware
// splitting happens, and everything after that is mechanical. The codec
// holds no shared mutable state, so any number of messages may be parsed
// concurrently; mutating a single parsed Message from multiple goroutines
// is the caller's problem to serialize.
package codec

import (
	"fmt"
	"strings"
	"time"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

// Header segment names the parser accepts in first position.
const (
	segMSH = "MSH"
	segBHS = "BHS"
	segFHS = "FHS"
)

// Parser converts ER7 text into hl7v2.Message values.
type Parser struct {
	opts *hl7v2.Options
}

// NewParser creates a parser. The zero configuration is strict: the first
// structural problem aborts the parse.
func NewParser(opts ...hl7v2.Option) *Parser {
	return &Parser{opts: hl7v2.DefaultOptions().Apply(opts...)}
}

// Parse parses one ER7 message with a strict default parser.
func Parse(text string) (*hl7v2.Message, error) {
	msg, _, err := NewParser().Parse(text)
	return msg, err
}

// ParseTolerant parses one ER7 message in best-effort mode, returning the
// recovered message together with a warning per skipped or repaired
// problem. It fails only when nothing recoverable remains, such as a
// message with no header segment at all.
func ParseTolerant(text string) (*hl7v2.Message, []hl7v2.Warning, error) {
	return NewParser(hl7v2.WithTolerant(true)).Parse(text)
}

// Parse parses one ER7 message. In strict mode the returned warnings are
// always nil; in tolerant mode they record every recovered problem.
func (p *Parser) Parse(text string) (*hl7v2.Message, []hl7v2.Warning, error) {
	start := time.Now()
	msg, warnings, err := p.parse(text)

	segs := 0
	if msg != nil {
		segs = len(msg.Segments)
	}
	p.opts.Metrics.RecordParse(time.Since(start), len(text), segs, err != nil)
	p.opts.Metrics.RecordWarnings(len(warnings))
	if p.opts.Logger != nil {
		for _, w := range warnings {
			p.opts.Logger.Warn("tolerant parse: %s", w)
		}
	}
	return msg, warnings, err
}

func (p *Parser) parse(text string) (*hl7v2.Message, []hl7v2.Warning, error) {
	if text == "" {
		return nil, nil, &hl7v2.ParseError{Msg: "empty message", Err: hl7v2.ErrEmptyMessage}
	}

	lines := splitSegmentLines(text)
	if len(lines) == 0 {
		return nil, nil, &hl7v2.ParseError{Msg: "no segments found in message"}
	}

	var warnings []hl7v2.Warning

	// The first segment must be a header. Tolerant mode hunts for one and
	// hoists it to the front.
	if !isHeaderLine(lines[0]) {
		if !p.opts.Tolerant {
			return nil, nil, hl7v2.NewParseError(1, "", "message must start with an MSH, BHS or FHS segment")
		}
		idx := -1
		for i, line := range lines {
			if isHeaderLine(line) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil, &hl7v2.ParseError{Msg: "no MSH, BHS or FHS segment found"}
		}
		warnings = append(warnings, hl7v2.Warning{
			Line: idx + 1,
			Msg:  "header segment " + lines[idx][:hl7v2.SegmentNameLen] + " was not first; moved to front",
		})
		header := lines[idx]
		lines = append(lines[:idx], lines[idx+1:]...)
		lines = append([]string{header}, lines...)
	}

	ec, err := resolveEncoding(lines[0])
	if err != nil {
		if !p.opts.Tolerant {
			return nil, nil, err
		}
		warnings = append(warnings, hl7v2.Warning{Line: 1, Msg: err.Error() + "; using default encoding characters"})
		ec = hl7v2.DefaultEncoding()
	}

	// The continuation character lives in a later header field, which needs
	// the delimiter set to read. Pre-parse the header alone, then re-derive.
	if header, err := parseSegmentLine(lines[0], ec, 1, false); err == nil {
		if cont := header.Field(14).Value(); cont != "" {
			ec.ContinuationCharacter = strings.TrimSpace(cont)
		}
	}

	msg := &hl7v2.Message{Encoding: ec}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1

		if ec.ContinuationCharacter != "" && strings.HasPrefix(line, ec.ContinuationCharacter) {
			if err := stitchContinuation(msg, line, ec, lineNo, p.opts.Tolerant); err != nil {
				if !p.opts.Tolerant {
					return nil, nil, err
				}
				warnings = append(warnings, hl7v2.Warning{Line: lineNo, Msg: err.Error() + "; line skipped"})
			}
			continue
		}

		seg, err := parseSegmentLine(line, ec, lineNo, !p.opts.Tolerant)
		if err != nil {
			if !p.opts.Tolerant {
				return nil, nil, err
			}
			warnings = append(warnings, hl7v2.Warning{Line: lineNo, Msg: err.Error() + "; segment skipped"})
			continue
		}
		msg.AddSegment(seg)

		if seg.Name == segMSH && seg.FieldCount() >= 12 {
			if v := seg.Field(12).Value(); v != "" {
				msg.Version = v
			}
		}
	}

	if len(msg.Segments) == 0 {
		return nil, warnings, &hl7v2.ParseError{Msg: "no valid segments found"}
	}

	if p.opts.DetectGroups {
		detectGroups(msg)
	}
	return msg, warnings, nil
}

// splitSegmentLines normalizes CRLF and bare LF to the CR segment
// terminator, splits, and drops blank lines.
func splitSegmentLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\r")
	text = strings.ReplaceAll(text, "\n", "\r")
	raw := strings.Split(text, "\r")
	lines := raw[:0]
	for _, line := range raw {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func isHeaderLine(line string) bool {
	return strings.HasPrefix(line, segMSH) ||
		strings.HasPrefix(line, segBHS) ||
		strings.HasPrefix(line, segFHS)
}

// resolveEncoding performs the delimiter bootstrap: the byte after the
// 3-letter header name is the field separator for the whole message, and
// the run from there to the next field separator is the encoding-character
// token. This step uses fixed positions only; the delimiters it recovers
// are what make ordinary splitting possible in the first place.
func resolveEncoding(headerLine string) (hl7v2.EncodingCharacters, error) {
	if len(headerLine) < hl7v2.SegmentNameLen+1 {
		name := headerLine
		if len(name) > hl7v2.SegmentNameLen {
			name = name[:hl7v2.SegmentNameLen]
		}
		return hl7v2.DefaultEncoding(), hl7v2.NewParseError(1, name, "header segment too short to declare a field separator")
	}
	fieldSep := headerLine[hl7v2.SegmentNameLen]

	token := headerLine[hl7v2.SegmentNameLen+1:]
	if end := strings.IndexByte(token, fieldSep); end >= 0 {
		token = token[:end]
	}

	ec := hl7v2.FromHeader(token, "")
	ec.FieldSeparator = fieldSep
	return ec, nil
}

// ParseSegment parses a single segment line against an already-known
// delimiter set. Streaming callers use it for segments that cannot head a
// message of their own, such as batch trailers.
func ParseSegment(line string, ec hl7v2.EncodingCharacters) (*hl7v2.Segment, error) {
	return parseSegmentLine(line, ec, 1, true)
}

// parseSegmentLine parses one segment line. strict controls whether escape
// problems inside field values are fatal.
func parseSegmentLine(line string, ec hl7v2.EncodingCharacters, lineNo int, strict bool) (*hl7v2.Segment, error) {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return nil, hl7v2.NewParseError(lineNo, "", "empty segment line")
	}

	parts := strings.Split(line, string(ec.FieldSeparator))
	name := parts[0]
	if len(name) != hl7v2.SegmentNameLen || !isPrintableName(name) {
		return nil, hl7v2.NewParseError(lineNo, name, "invalid segment name %q (must be 3 printable characters)", name)
	}

	seg := &hl7v2.Segment{Name: name}
	fieldTexts := parts[1:]

	// Header segments use wire numbering: MSH-1 is the field separator
	// itself and MSH-2 is the encoding-character token. The token is made
	// of delimiter characters by definition, so it is stored opaque:
	// never split into repetitions or components, never unescaped.
	if isHeaderName(name) {
		seg.AppendField(hl7v2.NewField(string(ec.FieldSeparator)))
		if len(fieldTexts) > 0 {
			seg.AppendField(hl7v2.NewField(fieldTexts[0]))
			fieldTexts = fieldTexts[1:]
		}
	}

	for _, fieldText := range fieldTexts {
		reps, err := parseField(fieldText, ec, strict)
		if err != nil {
			return nil, &hl7v2.ParseError{
				Msg:         fmt.Sprintf("error parsing field %d", seg.FieldCount()+1),
				Line:        lineNo,
				SegmentName: name,
				Err:         err,
			}
		}
		seg.AppendFieldReps(reps)
	}
	return seg, nil
}

// parseField splits one field position into its repetitions, each
// repetition into components and subcomponents, and unescapes leaf values.
// The two-character null token marks the repetition explicitly null.
func parseField(text string, ec hl7v2.EncodingCharacters, strict bool) ([]hl7v2.Field, error) {
	if text == "" {
		return []hl7v2.Field{hl7v2.EmptyField()}, nil
	}

	repTexts := splitEscaped(text, ec.RepetitionSeparator, ec.EscapeCharacter)
	reps := make([]hl7v2.Field, 0, len(repTexts))
	for _, repText := range repTexts {
		if repText == hl7v2.NullToken {
			reps = append(reps, hl7v2.NullField())
			continue
		}

		compTexts := splitEscaped(repText, ec.ComponentSeparator, ec.EscapeCharacter)
		components := make([]hl7v2.Component, 0, len(compTexts))
		for _, compText := range compTexts {
			subTexts := splitEscaped(compText, ec.SubcomponentSeparator, ec.EscapeCharacter)
			subs := make([]hl7v2.Subcomponent, 0, len(subTexts))
			for _, subText := range subTexts {
				value, err := Unescape(subText, ec)
				if err != nil {
					if strict {
						return nil, err
					}
					value = subText
				}
				subs = append(subs, hl7v2.Subcomponent{Value: value})
			}
			components = append(components, hl7v2.Component{Subcomponents: subs})
		}
		reps = append(reps, hl7v2.Field{Components: components})
	}
	return reps, nil
}

// stitchContinuation appends the fields of a continuation line to the most
// recent segment.
func stitchContinuation(msg *hl7v2.Message, line string, ec hl7v2.EncodingCharacters, lineNo int, tolerant bool) error {
	if len(msg.Segments) == 0 {
		return hl7v2.NewParseError(lineNo, "", "continuation line found without a preceding segment")
	}
	last := msg.Segments[len(msg.Segments)-1]

	rest := line[len(ec.ContinuationCharacter):]
	rest = strings.TrimPrefix(rest, string(ec.FieldSeparator))
	if rest == "" {
		return nil
	}

	for _, fieldText := range strings.Split(rest, string(ec.FieldSeparator)) {
		reps, err := parseField(fieldText, ec, !tolerant)
		if err != nil {
			return err
		}
		last.AppendFieldReps(reps)
	}
	return nil
}

func isPrintableName(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] <= ' ' || name[i] >= 0x7f {
			return false
		}
	}
	return true
}
