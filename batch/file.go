package batch

import (
	"fmt"
	"strings"

	hl7v2 "github.com/DNAi-inc/DNHealth-sub002"
	"github.com/DNAi-inc/DNHealth-sub002/codec"
	"github.com/DNAi-inc/DNHealth-sub002/internal/logger"
)

// DefaultBatchSize is the number of messages per batch when a file is built
// straight from messages.
const DefaultBatchSize = 100

// BuildFile wraps batch messages in an FHS/FTS envelope. The file takes its
// delimiter set and version from the first batch; FTS-1 is set to the batch
// count.
func BuildFile(batches []*hl7v2.Message, opts HeaderOptions) (*hl7v2.Message, error) {
	if len(batches) == 0 {
		return nil, &hl7v2.ValidationError{Msg: "file must contain at least one batch"}
	}

	ec := batches[0].Encoding
	out := hl7v2.NewMessage(ec)
	out.Version = batches[0].Version

	out.AddSegment(NewFHS(ec, opts))
	for _, b := range batches {
		for _, seg := range b.Segments {
			out.AddSegment(seg)
		}
	}
	out.AddSegment(NewFTS(len(batches), opts.Comment))

	logger.Default().Debug("built file with %d batches", len(batches))
	return out, nil
}

// BuildFileFromMessages groups messages into batches of at most batchSize
// (DefaultBatchSize when batchSize < 1) and wraps the result in a file
// envelope. Batches are identified BATCH_1, BATCH_2, ... in BHS-9.
func BuildFileFromMessages(messages []*hl7v2.Message, batchSize int, opts HeaderOptions) (*hl7v2.Message, error) {
	if len(messages) == 0 {
		return nil, &hl7v2.ValidationError{Msg: "file must contain at least one message"}
	}
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}

	var batches []*hl7v2.Message
	for start := 0; start < len(messages); start += batchSize {
		end := start + batchSize
		if end > len(messages) {
			end = len(messages)
		}

		batchOpts := opts
		batchOpts.ID = fmt.Sprintf("BATCH_%d", len(batches)+1)
		batchOpts.ControlID = ""

		b, err := BuildBatch(messages[start:end], batchOpts)
		if err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}

	return BuildFile(batches, opts)
}

// BatchesFromFile extracts the batch messages of a file. A BHS opens a
// batch, its BTS closes it, and FHS/FTS are dropped. A trailing batch with
// no BTS is kept rather than lost. Segments outside any batch are dropped.
func BatchesFromFile(file *hl7v2.Message) []*hl7v2.Message {
	var batches []*hl7v2.Message
	var current *hl7v2.Message

	for _, seg := range file.Segments {
		switch seg.Name {
		case "FHS", "FTS":
			continue
		case "BHS":
			if current != nil {
				batches = append(batches, current)
			}
			current = hl7v2.NewMessage(file.Encoding)
			current.Version = file.Version
			current.AddSegment(seg)
		case "BTS":
			if current != nil {
				current.AddSegment(seg)
				batches = append(batches, current)
				current = nil
			}
		default:
			if current != nil {
				current.AddSegment(seg)
			}
		}
	}
	if current != nil {
		batches = append(batches, current)
	}
	return batches
}

// SerializeFile validates the file envelope and serializes it. Envelope
// problems come back as a ValidationError listing every finding.
func SerializeFile(file *hl7v2.Message, opts ...hl7v2.Option) (string, error) {
	if report := ValidateFile(file); !report.Valid {
		return "", &hl7v2.ValidationError{
			Msg: fmt.Sprintf("invalid file message: %s", strings.Join(report.Errors, "; ")),
		}
	}
	return codec.NewSerializer(opts...).Serialize(file)
}
