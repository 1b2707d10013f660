// Package batch frames HL7 v2.x messages into BHS/BTS batches and FHS/FTS
// files, extracts them back out, and validates the envelope invariants that
// tie trailers to their contents.
//
// Validation never fails with an error: whether a parsed message is a
// structurally valid envelope is a semantic question, answered with a
// Report, and entirely independent of whether the text parsed.
package batch

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
)

// timestampLayout is the HL7 TS format used for creation date/times.
const timestampLayout = "20060102150405"

// HeaderOptions carries the caller-supplied fields of a BHS or FHS segment.
// Field numbers below are wire positions; -1 (the field separator) and -2
// (the encoding characters) are always filled in by the builder.
type HeaderOptions struct {
	SendingApplication   string // -3
	SendingFacility      string // -4
	ReceivingApplication string // -5
	ReceivingFacility    string // -6
	CreationTime         string // -7, defaults to now in HL7 TS format
	Security             string // -8
	ID                   string // -9
	Comment              string // -10
	ControlID            string // -11, defaults to a generated UUID
	ReferenceControlID   string // -12
}

// NewBHS builds a Batch Header Segment declaring the given delimiter set.
func NewBHS(ec hl7v2.EncodingCharacters, opts HeaderOptions) *hl7v2.Segment {
	return newHeaderSegment("BHS", ec, opts)
}

// NewFHS builds a File Header Segment declaring the given delimiter set.
func NewFHS(ec hl7v2.EncodingCharacters, opts HeaderOptions) *hl7v2.Segment {
	return newHeaderSegment("FHS", ec, opts)
}

func newHeaderSegment(name string, ec hl7v2.EncodingCharacters, opts HeaderOptions) *hl7v2.Segment {
	if opts.CreationTime == "" {
		opts.CreationTime = time.Now().Format(timestampLayout)
	}
	if opts.ControlID == "" {
		opts.ControlID = uuid.NewString()
	}

	seg := hl7v2.MustSegment(name)
	seg.AppendField(hl7v2.NewField(string(ec.FieldSeparator)))
	seg.AppendField(hl7v2.NewField(ec.Token()))
	for _, value := range []string{
		opts.SendingApplication,
		opts.SendingFacility,
		opts.ReceivingApplication,
		opts.ReceivingFacility,
		opts.CreationTime,
		opts.Security,
		opts.ID,
		opts.Comment,
		opts.ControlID,
		opts.ReferenceControlID,
	} {
		seg.AppendField(hl7v2.NewField(value))
	}
	return seg
}

// NewBTS builds a Batch Trailer Segment. messageCount is BTS-1, the number
// of messages the batch claims to contain; totals, when present, become the
// repetitions of BTS-3.
func NewBTS(messageCount int, comment string, totals []string) *hl7v2.Segment {
	return newTrailerSegment("BTS", messageCount, comment, totals)
}

// NewFTS builds a File Trailer Segment. batchCount is FTS-1, the number of
// batches the file claims to contain.
func NewFTS(batchCount int, comment string) *hl7v2.Segment {
	return newTrailerSegment("FTS", batchCount, comment, nil)
}

func newTrailerSegment(name string, count int, comment string, totals []string) *hl7v2.Segment {
	seg := hl7v2.MustSegment(name)
	seg.AppendField(hl7v2.NewField(strconv.Itoa(count)))
	seg.AppendField(hl7v2.NewField(comment))
	if len(totals) > 0 {
		reps := make([]hl7v2.Field, 0, len(totals))
		for _, t := range totals {
			reps = append(reps, hl7v2.NewField(t))
		}
		seg.AppendFieldReps(reps)
	}
	return seg
}
