package hl7v2

import "fmt"

// Subcomponent is the leaf of the structural model: a single string value,
// possibly empty.
type Subcomponent struct {
	Value string `json:"value"`
}

// Component is an ordered sequence of subcomponents. A component always has
// at least one subcomponent; the zero-argument constructor yields a single
// empty one.
type Component struct {
	Subcomponents []Subcomponent `json:"subcomponents"`
}

// NewComponent builds a component holding a single subcomponent value.
func NewComponent(value string) Component {
	return Component{Subcomponents: []Subcomponent{{Value: value}}}
}

// EmptyComponent returns a component with one empty subcomponent.
func EmptyComponent() Component {
	return NewComponent("")
}

// Value returns the first subcomponent's value, the common case when a
// component is not subcomponent-split.
func (c Component) Value() string {
	if len(c.Subcomponents) == 0 {
		return ""
	}
	return c.Subcomponents[0].Value
}

// Subcomponent returns the 1-based i'th subcomponent. Indexes past what is
// present return an empty subcomponent; an index below 1 panics.
func (c Component) Subcomponent(i int) Subcomponent {
	checkIndex("subcomponent", i)
	if i > len(c.Subcomponents) {
		return Subcomponent{}
	}
	return c.Subcomponents[i-1]
}

// Equal reports structural equality.
func (c Component) Equal(other Component) bool {
	if len(c.Subcomponents) != len(other.Subcomponents) {
		return false
	}
	for i := range c.Subcomponents {
		if c.Subcomponents[i] != other.Subcomponents[i] {
			return false
		}
	}
	return true
}

// Field is an ordered sequence of components plus a null marker.
//
// Null is orthogonal to emptiness: Null with no components is the wire token
// "" ("this field's prior value is intentionally cleared"), while a non-null
// field holding a single empty component is a field that was simply absent
// or empty on the wire. The two serialize differently and must stay
// distinguishable through parse, mutation and serialize.
type Field struct {
	Components []Component `json:"components"`
	Null       bool        `json:"null,omitempty"`
}

// NewField builds a field holding a single component value.
func NewField(value string) Field {
	return Field{Components: []Component{NewComponent(value)}}
}

// EmptyField returns a non-null field with one empty component, the value an
// accessor hands back for positions that were absent on the wire.
func EmptyField() Field {
	return Field{Components: []Component{EmptyComponent()}}
}

// NullField returns an explicitly null field, serialized as "".
func NullField() Field {
	return Field{Null: true}
}

// Value returns the first component's first subcomponent value.
func (f Field) Value() string {
	if len(f.Components) == 0 {
		return ""
	}
	return f.Components[0].Value()
}

// Component returns the 1-based i'th component. Indexes past what is
// present return an empty component; an index below 1 panics.
func (f Field) Component(i int) Component {
	checkIndex("component", i)
	if i > len(f.Components) {
		return EmptyComponent()
	}
	return f.Components[i-1]
}

// IsEmpty reports whether the field carries no value at all: not null, and
// every subcomponent empty. Such a field serializes to nothing.
func (f Field) IsEmpty() bool {
	if f.Null {
		return false
	}
	for _, c := range f.Components {
		for _, s := range c.Subcomponents {
			if s.Value != "" {
				return false
			}
		}
	}
	return true
}

// Equal reports structural equality, null marker included.
func (f Field) Equal(other Field) bool {
	if f.Null != other.Null || len(f.Components) != len(other.Components) {
		return false
	}
	for i := range f.Components {
		if !f.Components[i].Equal(other.Components[i]) {
			return false
		}
	}
	return true
}

// SegmentNameLen is the exact length of an ER7 segment name.
const SegmentNameLen = 3

// Segment is a named, ordered set of field positions. Every position holds
// one or more Field repetitions (outer index = field position, inner index =
// repetition). OriginalFieldCount remembers how many positions the wire text
// carried, so a segment that arrived with trailing empty fields can be
// reproduced exactly even if the in-memory list was trimmed or never padded.
type Segment struct {
	Name               string    `json:"name"`
	FieldReps          [][]Field `json:"fields"`
	OriginalFieldCount int       `json:"originalFieldCount,omitempty"`
}

// NewSegment creates an empty segment. The name must be exactly 3
// characters.
func NewSegment(name string) (*Segment, error) {
	if len(name) != SegmentNameLen {
		return nil, fmt.Errorf("hl7v2: segment name must be %d characters, got %q", SegmentNameLen, name)
	}
	return &Segment{Name: name}, nil
}

// MustSegment is NewSegment that panics on an invalid name. Intended for
// fixed, known-good names in builders and tests.
func MustSegment(name string) *Segment {
	s, err := NewSegment(name)
	if err != nil {
		panic(err)
	}
	return s
}

// AppendField adds the next field position holding a single repetition and
// keeps OriginalFieldCount in step.
func (s *Segment) AppendField(f Field) {
	s.FieldReps = append(s.FieldReps, []Field{f})
	s.OriginalFieldCount = len(s.FieldReps)
}

// AppendFieldReps adds the next field position holding the given repetition
// list. An empty list is stored as a single empty field.
func (s *Segment) AppendFieldReps(reps []Field) {
	if len(reps) == 0 {
		reps = []Field{EmptyField()}
	}
	s.FieldReps = append(s.FieldReps, reps)
	s.OriginalFieldCount = len(s.FieldReps)
}

// Field returns the first repetition at the 1-based field position i.
// Positions past what is present return an empty field; an index below 1
// panics.
func (s *Segment) Field(i int) Field {
	return s.FieldRep(i, 1)
}

// FieldRep returns the 1-based rep'th repetition at the 1-based field
// position i. Missing positions or repetitions return an empty field; an
// index or repetition below 1 panics. Repetitions are never merged: each
// one is its own Field.
func (s *Segment) FieldRep(i, rep int) Field {
	checkIndex("field", i)
	checkIndex("repetition", rep)
	if i > len(s.FieldReps) {
		return EmptyField()
	}
	reps := s.FieldReps[i-1]
	if rep > len(reps) {
		return EmptyField()
	}
	return reps[rep-1]
}

// FieldRepetitions returns every repetition at the 1-based field position i,
// or nil when the position was not present. An index below 1 panics.
func (s *Segment) FieldRepetitions(i int) []Field {
	checkIndex("field", i)
	if i > len(s.FieldReps) {
		return nil
	}
	return s.FieldReps[i-1]
}

// SetField replaces the single repetition at the 1-based field position i,
// growing the segment with empty fields as needed.
func (s *Segment) SetField(i int, f Field) {
	checkIndex("field", i)
	for len(s.FieldReps) < i {
		s.FieldReps = append(s.FieldReps, []Field{EmptyField()})
	}
	s.FieldReps[i-1] = []Field{f}
	if s.OriginalFieldCount < len(s.FieldReps) {
		s.OriginalFieldCount = len(s.FieldReps)
	}
}

// FieldCount returns the number of field positions currently held.
func (s *Segment) FieldCount() int {
	return len(s.FieldReps)
}

// Equal reports structural equality of name and field repetitions.
func (s *Segment) Equal(other *Segment) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.Name != other.Name || len(s.FieldReps) != len(other.FieldReps) {
		return false
	}
	for i := range s.FieldReps {
		if len(s.FieldReps[i]) != len(other.FieldReps[i]) {
			return false
		}
		for j := range s.FieldReps[i] {
			if !s.FieldReps[i][j].Equal(other.FieldReps[i][j]) {
				return false
			}
		}
	}
	return true
}

// SegmentGroup is an ordered run of segments forming a logical cluster, such
// as one order-with-results group of an ORU message. Groups are a view
// layered over the flat segment list; the flat list is always authoritative.
type SegmentGroup struct {
	ID       string     `json:"id,omitempty"`
	Segments []*Segment `json:"segments"`
}

// SegmentsNamed returns the group's segments with the given name.
func (g *SegmentGroup) SegmentsNamed(name string) []*Segment {
	var out []*Segment
	for _, seg := range g.Segments {
		if seg.Name == name {
			out = append(out, seg)
		}
	}
	return out
}

// AddSegment appends a segment to the group.
func (g *SegmentGroup) AddSegment(seg *Segment) {
	g.Segments = append(g.Segments, seg)
}

// Equal reports structural equality.
func (g *SegmentGroup) Equal(other *SegmentGroup) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.ID != other.ID || len(g.Segments) != len(other.Segments) {
		return false
	}
	for i := range g.Segments {
		if !g.Segments[i].Equal(other.Segments[i]) {
			return false
		}
	}
	return true
}

// Message is the aggregate root: the ordered flat segment list, optional
// segment groups, the delimiter set the message was (or will be) encoded
// with, and the version string declared in MSH-12 when present.
type Message struct {
	Segments []*Segment         `json:"segments"`
	Groups   []*SegmentGroup    `json:"groups,omitempty"`
	Encoding EncodingCharacters `json:"-"`
	Version  string             `json:"version,omitempty"`
}

// NewMessage returns an empty message encoded with the given delimiter set.
func NewMessage(ec EncodingCharacters) *Message {
	return &Message{Encoding: ec}
}

// Segment returns the first segment with the given name from the flat list,
// or nil when absent.
func (m *Message) Segment(name string) *Segment {
	for _, seg := range m.Segments {
		if seg.Name == name {
			return seg
		}
	}
	return nil
}

// SegmentsNamed returns all segments with the given name from the flat list.
func (m *Message) SegmentsNamed(name string) []*Segment {
	var out []*Segment
	for _, seg := range m.Segments {
		if seg.Name == name {
			out = append(out, seg)
		}
	}
	return out
}

// GroupSegmentsNamed returns all segments with the given name from every
// group.
func (m *Message) GroupSegmentsNamed(name string) []*Segment {
	var out []*Segment
	for _, g := range m.Groups {
		out = append(out, g.SegmentsNamed(name)...)
	}
	return out
}

// AllSegmentsNamed returns the union of the flat and grouped segments with
// the given name, flat first.
func (m *Message) AllSegmentsNamed(name string) []*Segment {
	return append(m.SegmentsNamed(name), m.GroupSegmentsNamed(name)...)
}

// AddSegment appends a segment to the flat list.
func (m *Message) AddSegment(seg *Segment) {
	m.Segments = append(m.Segments, seg)
}

// AddGroup appends a segment group.
func (m *Message) AddGroup(g *SegmentGroup) {
	m.Groups = append(m.Groups, g)
}

// Flatten returns all segments in order: the flat list followed by each
// group's segments.
func (m *Message) Flatten() []*Segment {
	out := make([]*Segment, 0, len(m.Segments))
	out = append(out, m.Segments...)
	for _, g := range m.Groups {
		out = append(out, g.Segments...)
	}
	return out
}

// Equal reports structural equality: segments, encoding characters, version
// and groups all compared.
func (m *Message) Equal(other *Message) bool {
	if m == nil || other == nil {
		return m == other
	}
	if !m.Encoding.Equal(other.Encoding) || m.Version != other.Version {
		return false
	}
	if len(m.Segments) != len(other.Segments) || len(m.Groups) != len(other.Groups) {
		return false
	}
	for i := range m.Segments {
		if !m.Segments[i].Equal(other.Segments[i]) {
			return false
		}
	}
	for i := range m.Groups {
		if !m.Groups[i].Equal(other.Groups[i]) {
			return false
		}
	}
	return true
}

// checkIndex panics when a 1-based index is below 1. Reading past the end
// is the wire's way of saying "empty"; reading before the start is a caller
// bug.
func checkIndex(kind string, i int) {
	if i < 1 {
		panic(fmt.Sprintf("hl7v2: %s index must be >= 1, got %d", kind, i))
	}
}
