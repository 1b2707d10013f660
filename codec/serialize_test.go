package codec

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"basic ADT", sampleADT},
		{"trailing empty fields", "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rPID|1|||\r"},
		{"explicit null", "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rPID|1|\"\"|X\r"},
		{"repetitions", "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rPID|1||A~B~C\r"},
		{"subcomponents", "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rPID|1||ID&SUB^SECOND\r"},
		{"escapes", "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rNTE|1||A\\F\\B\r"},
		{"custom delimiters", "MSH$*+'?$SEND$SFAC$RECV$RFAC$20240102$$ADT*A01$1$P$2.5\rPID$1$$DOE*JOHN\r"},
		{"batch envelope", "BHS|^~\\&|SEND|SFAC\rMSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rBTS|1\r"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Parse(tt.text)
			require.NoError(t, err)

			out, err := Serialize(msg)
			require.NoError(t, err)
			require.Equal(t, tt.text, out)
		})
	}
}

func TestSerializeEmptyMessage(t *testing.T) {
	_, err := Serialize(nil)
	require.ErrorIs(t, err, hl7v2.ErrEmptyMessage)

	_, err = Serialize(hl7v2.NewMessage(hl7v2.DefaultEncoding()))
	require.ErrorIs(t, err, hl7v2.ErrEmptyMessage)
}

func TestSerializeInvalidSegmentName(t *testing.T) {
	msg := hl7v2.NewMessage(hl7v2.DefaultEncoding())
	msg.AddSegment(&hl7v2.Segment{Name: "TOOLONG"})

	_, err := Serialize(msg)
	var vErr *hl7v2.ValidationError
	require.ErrorAs(t, err, &vErr)
}

func TestSerializeNormalized(t *testing.T) {
	msg, err := Parse("MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|1|P|2.5\rPID|1|||\r")
	require.NoError(t, err)

	out, err := SerializeNormalized(msg)
	require.NoError(t, err)
	require.Contains(t, out, "PID|1\r")
	require.NotContains(t, out, "PID|1|")
}

func TestSerializeNormalizedKeepsEncodingField(t *testing.T) {
	msg, err := Parse("MSH|^~\\&\r")
	require.NoError(t, err)

	out, err := SerializeNormalized(msg)
	require.NoError(t, err)
	require.Equal(t, "MSH|^~\\&\r", out)
}

func TestSerializeEscapesValues(t *testing.T) {
	msg := hl7v2.NewMessage(hl7v2.DefaultEncoding())
	msh := hl7v2.MustSegment("MSH")
	msh.AppendField(hl7v2.NewField("|"))
	msh.AppendField(hl7v2.NewField("^~\\&"))
	msg.AddSegment(msh)

	nte := hl7v2.MustSegment("NTE")
	nte.AppendField(hl7v2.NewField("1"))
	nte.AppendField(hl7v2.NewField("pipes|and^hats"))
	msg.AddSegment(nte)

	out, err := Serialize(msg)
	require.NoError(t, err)
	require.Contains(t, out, "NTE|1|pipes\\F\\and\\S\\hats\r")
}

func TestSerializeBuiltHeaderGetsEncodingField(t *testing.T) {
	msg := hl7v2.NewMessage(hl7v2.DefaultEncoding())
	msg.AddSegment(hl7v2.MustSegment("MSH"))

	out, err := Serialize(msg)
	require.NoError(t, err)
	require.Equal(t, "MSH|^~\\&\r", out)
}

func TestSerializeContinuationSplitting(t *testing.T) {
	ec := hl7v2.DefaultEncoding()
	ec.ContinuationCharacter = "+"

	msg := hl7v2.NewMessage(ec)
	msh := hl7v2.MustSegment("MSH")
	msh.AppendField(hl7v2.NewField("|"))
	msh.AppendField(hl7v2.NewField("^~\\&"))
	msg.AddSegment(msh)

	obx := hl7v2.MustSegment("OBX")
	obx.AppendField(hl7v2.NewField("1"))
	obx.AppendField(hl7v2.NewField(strings.Repeat("A", 40)))
	obx.AppendField(hl7v2.NewField(strings.Repeat("B", 40)))
	msg.AddSegment(obx)

	out, err := NewSerializer(hl7v2.WithMaxLineLength(50)).Serialize(msg)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out, "\r"), "\r")
	require.Greater(t, len(lines), 2)
	for _, line := range lines[2:] {
		require.True(t, strings.HasPrefix(line, "+|"), "continuation line %q", line)
	}

	// The continuation stitches back to the original segment on re-parse.
	header := "MSH|^~\\&|A|B|C|D|E||F|G|H|I||+\r"
	reparsed, err := Parse(header + strings.Join(lines[1:], "\r") + "\r")
	require.NoError(t, err)
	stitched := reparsed.Segment("OBX")
	require.Equal(t, strings.Repeat("A", 40), stitched.Field(2).Value())
	require.Equal(t, strings.Repeat("B", 40), stitched.Field(3).Value())
}

func TestSerializeRecordsMetrics(t *testing.T) {
	m := hl7v2.NewMetrics()
	msg, err := Parse(sampleADT)
	require.NoError(t, err)

	_, err = NewSerializer(hl7v2.WithMetrics(m)).Serialize(msg)
	require.NoError(t, err)

	snap := m.Snapshot()
	require.Equal(t, uint64(1), snap.Serializes)
	require.Equal(t, uint64(len(sampleADT)), snap.BytesOut)
}
