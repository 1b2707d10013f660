package stream

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

func mshLine(controlID string) string {
	return "MSH|^~\\&|SEND|SFAC|RECV|RFAC|20240102||ADT^A01|" + controlID + "|P|2.5"
}

func TestScannerYieldsMessages(t *testing.T) {
	input := mshLine("M1") + "\r" +
		"PID|1||12345\r" +
		mshLine("M2") + "\r" +
		"PID|2||67890\r" +
		mshLine("M3") + "\r"

	s := NewScanner(strings.NewReader(input))

	var ids []string
	for {
		msg, err := s.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		ids = append(ids, msg.Segment("MSH").Field(10).Value())
	}
	require.Equal(t, []string{"M1", "M2", "M3"}, ids)

	// The scanner stays exhausted.
	_, err := s.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestScannerLineEndings(t *testing.T) {
	for _, sep := range []string{"\r", "\n", "\r\n"} {
		input := mshLine("M1") + sep + "PID|1" + sep + mshLine("M2") + sep
		messages, err := Collect(NewScanner(strings.NewReader(input)))
		require.NoError(t, err, "separator %q", sep)
		require.Len(t, messages, 2)
		require.Len(t, messages[0].Segments, 2)
	}
}

func TestScannerSkipsFramingByDefault(t *testing.T) {
	input := "FHS|^~\\&\r" +
		"BHS|^~\\&\r" +
		mshLine("M1") + "\r" +
		"PID|1\r" +
		"BTS|1\r" +
		"FTS|1\r"

	messages, err := Collect(NewScanner(strings.NewReader(input)))
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, "M1", messages[0].Segment("MSH").Field(10).Value())
}

func TestScannerWithFraming(t *testing.T) {
	input := "BHS|^~\\&|SEND\r" +
		mshLine("M1") + "\r" +
		"BTS|1\r"

	messages, err := Collect(NewScanner(strings.NewReader(input)).WithFraming(true))
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "BHS", messages[0].Segments[0].Name)
	require.Equal(t, "MSH", messages[1].Segments[0].Name)
	require.Equal(t, "BTS", messages[2].Segments[0].Name)
	require.Equal(t, "1", messages[2].Segments[0].Field(1).Value())
}

func TestScannerStrictRejectsLeadingSegment(t *testing.T) {
	input := "PID|1\r" + mshLine("M1") + "\r"

	_, err := NewScanner(strings.NewReader(input)).Next()
	require.Error(t, err)

	var parseErr *hl7v2.ParseError
	require.ErrorAs(t, err, &parseErr)
}

func TestScannerTolerantSkipsLeadingSegment(t *testing.T) {
	input := "PID|1\r" + mshLine("M1") + "\r"

	messages, err := Collect(NewScanner(strings.NewReader(input), hl7v2.WithTolerant(true)))
	require.NoError(t, err)
	require.Len(t, messages, 1)
}

func TestScannerEmptyInput(t *testing.T) {
	_, err := NewScanner(strings.NewReader("")).Next()
	require.ErrorIs(t, err, io.EOF)

	_, err = NewScanner(strings.NewReader("\r\n\r\n")).Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestScannerFailureSticks(t *testing.T) {
	input := mshLine("M1") + "\r" +
		"XX|bad\r"

	s := NewScanner(strings.NewReader(input))
	_, err := s.Next()
	require.Error(t, err)

	_, again := s.Next()
	require.Equal(t, err, again)
}

func TestScannerMaxSegmentSize(t *testing.T) {
	long := mshLine("M1") + "|" + strings.Repeat("X", 4096)
	s := NewScanner(strings.NewReader(long + "\r")).WithMaxSegmentSize(128)

	_, err := s.Next()
	require.Error(t, err)
}

func TestScannerCountsLargeStream(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 250; i++ {
		b.WriteString(mshLine("M") + "\r")
		b.WriteString("PID|1\r")
	}

	messages, err := Collect(NewScanner(strings.NewReader(b.String())))
	require.NoError(t, err)
	require.Len(t, messages, 250)
}
