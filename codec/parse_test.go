package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

const sampleADT = "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102030405||ADT^A01|MSG00001|P|2.5\r" +
	"PID|1||12345^^^HOSP^MR||DOE^JOHN\r" +
	"PV1|1|I\r"

func TestParseBasicMessage(t *testing.T) {
	msg, err := Parse(sampleADT)
	require.NoError(t, err)
	require.Len(t, msg.Segments, 3)
	require.Equal(t, "2.5", msg.Version)

	msh := msg.Segment("MSH")
	require.NotNil(t, msh)
	require.Equal(t, "|", msh.Field(1).Value())
	require.Equal(t, "^~\\&", msh.Field(2).Value())
	require.Equal(t, "SEND", msh.Field(3).Value())
	require.Equal(t, "ADT", msh.Field(9).Component(1).Value())
	require.Equal(t, "A01", msh.Field(9).Component(2).Value())
	require.Equal(t, "MSG00001", msh.Field(10).Value())

	pid := msg.Segment("PID")
	require.Equal(t, "12345", pid.Field(3).Component(1).Value())
	require.Equal(t, "MR", pid.Field(3).Component(5).Value())
	require.Equal(t, "DOE", pid.Field(5).Component(1).Value())
}

func TestParseLineEndings(t *testing.T) {
	for _, sep := range []string{"\r", "\n", "\r\n"} {
		text := strings.ReplaceAll(sampleADT, "\r", sep)
		msg, err := Parse(text)
		require.NoError(t, err, "separator %q", sep)
		require.Len(t, msg.Segments, 3)
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := Parse("")
	require.Error(t, err)
	require.ErrorIs(t, err, hl7v2.ErrEmptyMessage)
}

func TestParseRequiresHeaderFirst(t *testing.T) {
	_, err := Parse("PID|1||12345\r")
	require.Error(t, err)

	var parseErr *hl7v2.ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, 1, parseErr.Line)
}

func TestParseTolerantHoistsHeader(t *testing.T) {
	msg, warnings, err := ParseTolerant("PID|1||12345\rMSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\r")
	require.NoError(t, err)
	require.NotEmpty(t, warnings)
	require.Equal(t, "MSH", msg.Segments[0].Name)
	require.Equal(t, "PID", msg.Segments[1].Name)
}

func TestParseTolerantSkipsBadSegments(t *testing.T) {
	text := "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\r" +
		"XX|broken\r" +
		"PID|1||12345\r"

	_, err := Parse(text)
	require.Error(t, err, "strict mode must reject the malformed segment")

	msg, warnings, err := ParseTolerant(text)
	require.NoError(t, err)
	require.Len(t, msg.Segments, 2)
	require.Len(t, warnings, 1)
	require.Equal(t, 2, warnings[0].Line)
}

func TestParseNullVersusEmpty(t *testing.T) {
	msg, err := Parse("MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rPID|1|\"\"||X\r")
	require.NoError(t, err)

	pid := msg.Segment("PID")
	require.True(t, pid.Field(2).Null, "\"\" must parse as explicit null")
	require.False(t, pid.Field(3).Null, "an absent field is empty, not null")
	require.True(t, pid.Field(3).IsEmpty())
	require.Equal(t, "X", pid.Field(4).Value())
}

func TestParseRepetitions(t *testing.T) {
	msg, err := Parse("MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rPID|1||A~B~C\r")
	require.NoError(t, err)

	reps := msg.Segment("PID").FieldRepetitions(3)
	require.Len(t, reps, 3)
	require.Equal(t, "A", reps[0].Value())
	require.Equal(t, "C", reps[2].Value())
}

func TestParseSubcomponents(t *testing.T) {
	msg, err := Parse("MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rPID|1||ID&SUB^SECOND\r")
	require.NoError(t, err)

	f := msg.Segment("PID").Field(3)
	require.Equal(t, "ID", f.Component(1).Subcomponent(1).Value)
	require.Equal(t, "SUB", f.Component(1).Subcomponent(2).Value)
	require.Equal(t, "SECOND", f.Component(2).Value())
}

func TestParseUnescapesValues(t *testing.T) {
	msg, err := Parse("MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rNTE|1||A\\F\\B and A\\S\\B\r")
	require.NoError(t, err)
	require.Equal(t, "A|B and A^B", msg.Segment("NTE").Field(3).Value())
}

func TestParseCustomDelimiters(t *testing.T) {
	msg, err := Parse("MSH$*+'?$SEND$SFAC$RECV$RFAC$20240102$$ADT*A01$1$P$2.5\rPID$1$$DOE*JOHN\r")
	require.NoError(t, err)

	require.Equal(t, byte('$'), msg.Encoding.FieldSeparator)
	require.Equal(t, byte('*'), msg.Encoding.ComponentSeparator)
	require.Equal(t, "*+'?", msg.Segment("MSH").Field(2).Value())

	pid := msg.Segment("PID")
	require.Equal(t, "DOE", pid.Field(3).Component(1).Value())
	require.Equal(t, "JOHN", pid.Field(3).Component(2).Value())
}

func TestParseBatchHeader(t *testing.T) {
	msg, err := Parse("BHS|^~\\&|SEND|SFAC|RECV|RFAC|20240102\rMSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rBTS|1\r")
	require.NoError(t, err)
	require.Equal(t, "BHS", msg.Segments[0].Name)
	require.Equal(t, "^~\\&", msg.Segments[0].Field(2).Value())
	require.Equal(t, "1", msg.Segments[2].Field(1).Value())
}

func TestParseContinuationLines(t *testing.T) {
	text := "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5||+\r" +
		"PID|1|X\r" +
		"+|MORE|FIELDS\r"

	msg, err := Parse(text)
	require.NoError(t, err)
	require.Len(t, msg.Segments, 2)

	pid := msg.Segment("PID")
	require.Equal(t, 4, pid.FieldCount())
	require.Equal(t, "MORE", pid.Field(3).Value())
	require.Equal(t, "FIELDS", pid.Field(4).Value())
}

func TestParseGroupDetection(t *testing.T) {
	text := "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ORU^R01|1|P|2.5\r" +
		"PID|1||12345\r" +
		"PV1|1|I\r" +
		"ORC|RE\r" +
		"OBR|1||LAB1\r" +
		"OBX|1|TX|GLU||98\r"

	msg, _, err := NewParser(hl7v2.WithGroupDetection(true)).Parse(text)
	require.NoError(t, err)
	require.Len(t, msg.Segments, 6, "flat list stays complete")
	require.Len(t, msg.Groups, 3)

	require.Equal(t, "PATIENT", msg.Groups[0].ID)
	require.Len(t, msg.Groups[0].Segments, 2)
	require.Equal(t, "ORDER", msg.Groups[1].ID)
	require.Equal(t, "ORDER_OBSERVATION", msg.Groups[2].ID)
	require.Len(t, msg.Groups[2].Segments, 2)
}

func TestParseSegment(t *testing.T) {
	seg, err := ParseSegment("BTS|5|done", hl7v2.DefaultEncoding())
	require.NoError(t, err)
	require.Equal(t, "BTS", seg.Name)
	require.Equal(t, "5", seg.Field(1).Value())

	_, err = ParseSegment("X|1", hl7v2.DefaultEncoding())
	require.Error(t, err)
}

func TestParseRecordsMetrics(t *testing.T) {
	m := hl7v2.NewMetrics()
	p := NewParser(hl7v2.WithMetrics(m))

	_, _, err := p.Parse(sampleADT)
	require.NoError(t, err)
	_, _, err = p.Parse("garbage")
	require.Error(t, err)

	snap := m.Snapshot()
	require.Equal(t, uint64(2), snap.ParsesTotal)
	require.Equal(t, uint64(1), snap.ParseErrors)
	require.Equal(t, uint64(3), snap.SegmentsRead)
}

func TestParseErrorUnwraps(t *testing.T) {
	_, err := Parse("")
	require.True(t, errors.Is(err, hl7v2.ErrEmptyMessage))
}
