package codec

import (
	"fmt"
	"strings"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
	"github.com/DNAi-inc/DNHealth-sub002/pool"
)

// Serializer converts hl7v2.Message values back to ER7 text. It is the
// exact inverse of the Parser for any message the Parser could have
// produced.
type Serializer struct {
	opts *hl7v2.Options
}

// NewSerializer creates a serializer. The zero configuration reproduces
// trailing-field presence exactly; pass hl7v2.WithNormalize(true) to trim
// trailing fully-empty fields instead.
func NewSerializer(opts ...hl7v2.Option) *Serializer {
	return &Serializer{opts: hl7v2.DefaultOptions().Apply(opts...)}
}

// Serialize serializes a message with the default (exact) serializer.
func Serialize(msg *hl7v2.Message) (string, error) {
	return NewSerializer().Serialize(msg)
}

// SerializeNormalized serializes a message with trailing fully-empty fields
// trimmed. Header segments always keep at least their encoding-character
// field.
func SerializeNormalized(msg *hl7v2.Message) (string, error) {
	return NewSerializer(hl7v2.WithNormalize(true)).Serialize(msg)
}

// Serialize emits the message as ER7 text with CR segment terminators and a
// trailing CR. It has no failure path for parser-produced messages; it
// errors only on a nil or segmentless message or a segment whose name is
// not 3 characters.
func (s *Serializer) Serialize(msg *hl7v2.Message) (string, error) {
	if msg == nil || len(msg.Segments) == 0 {
		return "", hl7v2.ErrEmptyMessage
	}

	ec := msg.Encoding
	var out strings.Builder

	for _, seg := range msg.Segments {
		line, err := s.serializeSegment(seg, ec)
		if err != nil {
			return "", err
		}

		cont := ec.ContinuationCharacter
		if cont != "" && len(line) > s.opts.MaxLineLength {
			for _, part := range splitContinuation(line, seg.Name, cont, ec.FieldSeparator, s.opts.MaxLineLength) {
				out.WriteString(part)
				out.WriteByte('\r')
			}
			continue
		}
		out.WriteString(line)
		out.WriteByte('\r')
	}

	s.opts.Metrics.RecordSerialize(out.Len())
	return out.String(), nil
}

// serializeSegment emits one segment line without its terminator.
func (s *Serializer) serializeSegment(seg *hl7v2.Segment, ec hl7v2.EncodingCharacters) (string, error) {
	if len(seg.Name) != hl7v2.SegmentNameLen {
		return "", &hl7v2.ValidationError{Msg: fmt.Sprintf("segment name must be 3 characters, got %q", seg.Name)}
	}

	lb := pool.AcquireLineBuilder()
	defer lb.Release()

	header := isHeaderName(seg.Name)

	fieldReps := seg.FieldReps
	parts := make([]string, 0, len(fieldReps)+1)
	parts = append(parts, seg.Name)
	if header {
		// Header segments store wire numbering: position 1 is the field
		// separator itself and never re-emitted, position 2 is the
		// encoding-character token, which is made of delimiter characters
		// and is therefore emitted raw, never escaped.
		if len(fieldReps) > 0 && firstValue(fieldReps[0]) == string(ec.FieldSeparator) {
			fieldReps = fieldReps[1:]
		}
		if len(fieldReps) > 0 {
			parts = append(parts, firstValue(fieldReps[0]))
			fieldReps = fieldReps[1:]
		}
	}
	for _, reps := range fieldReps {
		repTexts := make([]string, 0, len(reps))
		for _, f := range reps {
			repTexts = append(repTexts, serializeField(f, ec))
		}
		parts = append(parts, strings.Join(repTexts, string(ec.RepetitionSeparator)))
	}

	if s.opts.Normalize {
		// Trim trailing empty fields; header segments keep the encoding
		// field.
		floor := 1
		if header {
			floor = 2
		}
		for len(parts) > floor && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
	} else {
		// Reproduce the trailing-field presence of the source text. For
		// header segments the name slot stands in for the separator
		// field, so the wire part count equals the stored field count.
		want := seg.OriginalFieldCount + 1
		if header {
			want = seg.OriginalFieldCount
		}
		for len(parts) < want {
			parts = append(parts, "")
		}
	}

	// A header segment always declares its encoding characters, even when
	// built from scratch without any fields.
	if header && len(parts) < 2 {
		parts = append(parts, ec.Token())
	}

	lb.WriteJoined(parts, ec.FieldSeparator)
	return lb.String(), nil
}

// serializeField emits one field repetition: "" for explicit nulls, nothing
// for empty fields, escaped delimiter-joined values otherwise.
func serializeField(f hl7v2.Field, ec hl7v2.EncodingCharacters) string {
	if f.Null {
		return hl7v2.NullToken
	}
	if len(f.Components) == 0 {
		return ""
	}

	compTexts := make([]string, 0, len(f.Components))
	for _, c := range f.Components {
		subTexts := make([]string, 0, len(c.Subcomponents))
		for _, sub := range c.Subcomponents {
			subTexts = append(subTexts, Escape(sub.Value, ec))
		}
		compTexts = append(compTexts, strings.Join(subTexts, string(ec.SubcomponentSeparator)))
	}
	return strings.Join(compTexts, string(ec.ComponentSeparator))
}

// splitContinuation breaks an overlong segment line into a first line plus
// continuation lines prefixed with the continuation character, splitting at
// field boundaries where possible.
func splitContinuation(line, name, cont string, fieldSep byte, maxLen int) []string {
	first := line
	if len(first) > maxLen {
		first = first[:maxLen]
	}
	var remaining string
	if cut := strings.LastIndexByte(first, fieldSep); cut > len(name)+1 {
		remaining = line[cut+1:]
		first = line[:cut]
	} else {
		remaining = line[len(name)+1:]
		first = line[:len(name)+1]
	}

	parts := []string{first}
	budget := maxLen - len(cont) - 1
	if budget < 1 {
		budget = 1
	}
	for remaining != "" {
		if len(remaining) <= budget {
			parts = append(parts, cont+string(fieldSep)+remaining)
			break
		}
		chunk := remaining[:budget]
		if cut := strings.LastIndexByte(chunk, fieldSep); cut > 0 {
			chunk = chunk[:cut]
			remaining = remaining[cut+1:]
		} else {
			chunk = remaining
			remaining = ""
		}
		parts = append(parts, cont+string(fieldSep)+chunk)
	}
	return parts
}

// firstValue returns the raw value of the first repetition's first
// subcomponent.
func firstValue(reps []hl7v2.Field) string {
	if len(reps) == 0 {
		return ""
	}
	return reps[0].Value()
}

func isHeaderName(name string) bool {
	return name == segMSH || name == segBHS || name == segFHS
}
