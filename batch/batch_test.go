package batch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
	"github.com/DNAi-inc/DNHealth-sub002/codec"
)

func testMessage(t *testing.T, controlID string) *hl7v2.Message {
	t.Helper()
	msg, err := codec.Parse("MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|" + controlID + "|P|2.5\r" +
		"PID|1||12345\r")
	require.NoError(t, err)
	return msg
}

func TestNewBHS(t *testing.T) {
	seg := NewBHS(hl7v2.DefaultEncoding(), HeaderOptions{
		SendingApplication: "APP",
		SendingFacility:    "FAC",
		CreationTime:       "20240102030405",
		ID:                 "NIGHTLY",
	})

	require.Equal(t, "BHS", seg.Name)
	require.Equal(t, "|", seg.Field(1).Value())
	require.Equal(t, "^~\\&", seg.Field(2).Value())
	require.Equal(t, "APP", seg.Field(3).Value())
	require.Equal(t, "FAC", seg.Field(4).Value())
	require.Equal(t, "20240102030405", seg.Field(7).Value())
	require.Equal(t, "NIGHTLY", seg.Field(9).Value())
	require.NotEmpty(t, seg.Field(11).Value(), "control ID defaults to a generated value")
}

func TestNewBTS(t *testing.T) {
	seg := NewBTS(7, "done", []string{"12.5", "3"})

	require.Equal(t, "7", seg.Field(1).Value())
	require.Equal(t, "done", seg.Field(2).Value())

	totals := seg.FieldRepetitions(3)
	require.Len(t, totals, 2)
	require.Equal(t, "12.5", totals[0].Value())
}

func TestBuildBatchRoundTrip(t *testing.T) {
	messages := []*hl7v2.Message{
		testMessage(t, "MSG1"),
		testMessage(t, "MSG2"),
	}

	b, err := BuildBatch(messages, HeaderOptions{SendingApplication: "APP"})
	require.NoError(t, err)
	require.Equal(t, "BHS", b.Segments[0].Name)
	require.Equal(t, "BTS", b.Segments[len(b.Segments)-1].Name)
	require.Equal(t, "2", b.Segments[len(b.Segments)-1].Field(1).Value())

	report := ValidateBatch(b)
	require.True(t, report.Valid, "errors: %v", report.Errors)

	extracted := MessagesFromBatch(b)
	require.Len(t, extracted, 2)
	require.Equal(t, "MSG1", extracted[0].Segment("MSH").Field(10).Value())
	require.Equal(t, "MSG2", extracted[1].Segment("MSH").Field(10).Value())
	require.Len(t, extracted[0].Segments, 2)
}

func TestBuildBatchEmpty(t *testing.T) {
	_, err := BuildBatch(nil, HeaderOptions{})
	require.Error(t, err)
}

func TestValidateBatchCountMismatch(t *testing.T) {
	b, err := BuildBatch([]*hl7v2.Message{testMessage(t, "MSG1")}, HeaderOptions{})
	require.NoError(t, err)

	// Claim two messages while carrying one.
	b.Segments[len(b.Segments)-1].SetField(1, hl7v2.NewField("2"))

	report := ValidateBatch(b)
	require.False(t, report.Valid)
	require.Contains(t, report.Errors, "BTS message count mismatch: declared 2, actual 1")
}

func TestValidateBatchMissingEnvelope(t *testing.T) {
	report := ValidateBatch(testMessage(t, "MSG1"))
	require.False(t, report.Valid)
	require.Contains(t, report.Errors, "Batch message missing BHS (Batch Header Segment)")
	require.Contains(t, report.Errors, "Batch message missing BTS (Batch Trailer Segment)")
}

func TestSerializeBatch(t *testing.T) {
	b, err := BuildBatch([]*hl7v2.Message{testMessage(t, "MSG1")}, HeaderOptions{
		SendingApplication: "APP",
		CreationTime:       "20240102030405",
	})
	require.NoError(t, err)

	text, err := SerializeBatch(b)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(text, "BHS|^~\\&|APP"))
	require.Contains(t, text, "\rBTS|1")

	reparsed, err := codec.Parse(text)
	require.NoError(t, err)
	require.True(t, ValidateBatch(reparsed).Valid)
}

func TestSerializeBatchRejectsInvalid(t *testing.T) {
	_, err := SerializeBatch(testMessage(t, "MSG1"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid batch message")
}
