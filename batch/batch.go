package batch

import (
	"fmt"
	"strconv"
	"strings"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
	"github.com/DNAi-inc/DNHealth-sub002/codec"
	"github.com/DNAi-inc/DNHealth-sub002/internal/logger"
)

// BuildBatch wraps messages in a BHS/BTS envelope. The batch takes its
// delimiter set and version from the first message; BTS-1 is set to the
// message count.
func BuildBatch(messages []*hl7v2.Message, opts HeaderOptions) (*hl7v2.Message, error) {
	if len(messages) == 0 {
		return nil, &hl7v2.ValidationError{Msg: "batch must contain at least one message"}
	}

	ec := messages[0].Encoding
	out := hl7v2.NewMessage(ec)
	out.Version = messages[0].Version

	out.AddSegment(NewBHS(ec, opts))
	for _, msg := range messages {
		for _, seg := range msg.Segments {
			out.AddSegment(seg)
		}
	}
	out.AddSegment(NewBTS(len(messages), opts.Comment, nil))

	logger.Default().Debug("built batch with %d messages", len(messages))
	return out, nil
}

// MessagesFromBatch extracts the individual messages of a batch. Every MSH
// starts a new message; BHS and BTS are dropped; segments before the first
// MSH are dropped with them. Each extracted message inherits the batch's
// delimiter set and version.
func MessagesFromBatch(batch *hl7v2.Message) []*hl7v2.Message {
	var messages []*hl7v2.Message
	var current *hl7v2.Message

	for _, seg := range batch.Segments {
		switch seg.Name {
		case "BHS", "BTS":
			continue
		case "MSH":
			if current != nil {
				messages = append(messages, current)
			}
			current = hl7v2.NewMessage(batch.Encoding)
			current.Version = batch.Version
			current.AddSegment(seg)
		default:
			if current != nil {
				current.AddSegment(seg)
			}
		}
	}
	if current != nil {
		messages = append(messages, current)
	}
	return messages
}

// ValidateBatch checks the batch envelope: exactly one BHS, exactly one BTS,
// and a BTS-1 count that matches the number of MSH segments between them. A
// non-numeric or absent BTS-1 skips the count check rather than failing it.
func ValidateBatch(batch *hl7v2.Message) Report {
	var r Report

	bhs := batch.SegmentsNamed("BHS")
	switch {
	case len(bhs) == 0:
		r.add("Batch message missing BHS (Batch Header Segment)")
	case len(bhs) > 1:
		r.add("Batch message has multiple BHS segments (%d)", len(bhs))
	}

	bts := batch.SegmentsNamed("BTS")
	switch {
	case len(bts) == 0:
		r.add("Batch message missing BTS (Batch Trailer Segment)")
	case len(bts) > 1:
		r.add("Batch message has multiple BTS segments (%d)", len(bts))
	}

	if len(bts) > 0 && bts[0].FieldCount() > 0 {
		countField := bts[0].Field(1)
		if !countField.Null {
			if declared, err := strconv.Atoi(countField.Value()); err == nil {
				actual := 0
				inBatch := false
				for _, seg := range batch.Segments {
					switch seg.Name {
					case "BHS":
						inBatch = true
					case "BTS":
						inBatch = false
					case "MSH":
						if inBatch {
							actual++
						}
					}
				}
				if declared != actual {
					r.add("BTS message count mismatch: declared %d, actual %d", declared, actual)
				}
			}
		}
	}

	return r.done()
}

// SerializeBatch validates the batch envelope and serializes it. Envelope
// problems come back as a ValidationError listing every finding.
func SerializeBatch(batch *hl7v2.Message, opts ...hl7v2.Option) (string, error) {
	if report := ValidateBatch(batch); !report.Valid {
		return "", &hl7v2.ValidationError{
			Msg: fmt.Sprintf("invalid batch message: %s", strings.Join(report.Errors, "; ")),
		}
	}
	return codec.NewSerializer(opts...).Serialize(batch)
}
